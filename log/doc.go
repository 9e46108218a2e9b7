// Package log provides the leveled logging interface used across graphlstm.
//
// Builders, nets, the unroller and checkpoint listeners accept a Logger through
// their options and fall back to the package-level default logger. Structural
// events (graph built, cells created, step finished) are logged at Debug;
// persistence failures that do not abort a run are logged at Warn or Error.
//
// # Log Levels
//
//   - LogLevelDebug: per-node and per-step detail
//   - LogLevelInfo: build and run milestones
//   - LogLevelWarn: recoverable problems
//   - LogLevelError: failures
//   - LogLevelNone: silence
//
// # Usage
//
//	logger := log.NewDefaultLogger(log.LogLevelDebug)
//	net, err := graph.NewNet(g, graph.WithNetLogger(logger))
//
// Components wrap the logger they are given with Component, so messages read
// "net: ...", "unroll: ...", "checkpoint: ..." regardless of the backend.
// ParseLogLevel turns a level name from an environment variable or a flag
// into a LogLevel.
//
// Any other backend can be plugged in by implementing Logger. A golog adapter
// is included:
//
//	glogger := golog.New()
//	logger := log.NewGologLogger(glogger)
//	logger.SetLevel(log.LogLevelDebug)
//	log.SetDefaultLogger(logger)
package log
