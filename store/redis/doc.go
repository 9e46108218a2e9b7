// Package redis stores Graph LSTM checkpoints in Redis.
//
// Every checkpoint is one JSON value under "<prefix>checkpoint:<id>". The IDs
// of a run are kept in the set "<prefix>run:<run id>:checkpoints" so List and
// Clear do not scan the keyspace. With a TTL both keys expire together.
//
//	cs := redis.NewRedisCheckpointStore(redis.RedisOptions{
//		Addr: "localhost:6379",
//		TTL:  24 * time.Hour,
//	})
package redis
