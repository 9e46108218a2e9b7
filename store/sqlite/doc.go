// Package sqlite stores Graph LSTM checkpoints in a local SQLite file.
//
//	cs, err := sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{
//		Path: "./checkpoints.db",
//	})
//	if err != nil {
//		return err
//	}
//	defer cs.Close()
package sqlite
