// Package log provides the leveled logging interface used across gptindex.
//
// Every index build, graph composition and recursive query receives a Logger through
// the service context. Build and persistence steps log at info level; each index
// visited during a graph query logs at debug level together with the resolved query
// mode, so a debug log reads as a trace of the recursion.
//
// # Log Levels
//
//   - LogLevelDebug: per-index traversal and synthesis details
//   - LogLevelInfo: build, compose, save and load events
//   - LogLevelWarn: skipped input, such as a file with no text
//   - LogLevelError: failures that abort an operation
//   - LogLevelNone: disables all logging output
//
// # Example Usage
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Info("built %s index %s with %d nodes", "list", id, n)
//
// Writing to a file:
//
//	file, _ := os.OpenFile("gptindex.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
//	logger := log.NewCustomLogger(file, log.LogLevelDebug)
//
// # Scoped loggers
//
// Named prefixes the messages of a component:
//
//	logger := log.Named(sc.Logger(), "reader")
//	logger.Info("loaded %d documents", n) // [INFO] reader: loaded 3 documents
//
// # golog Integration
//
// GologLogger wraps an existing github.com/kataras/golog logger:
//
//	glogger := golog.New()
//	glogger.SetPrefix("[MyApp] ")
//	logger := log.NewGologLogger(glogger)
//	logger.SetLevel(log.LogLevelDebug)
//
// NewGologLoggerWithLevel builds one with the gptindex prefix; this is what the
// command-line tool uses.
//
// # Levels from configuration
//
// ParseLevel maps the strings accepted in YAML configuration ("debug", "info",
// "warn", "error", "none") onto LogLevel values.
package log
