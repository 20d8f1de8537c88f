// Package log builds the structured event logger of pdfharvest on top of
// log/slog.
//
// A harvest run writes one JSON object per line:
//
//	{"ts":"2026-01-02T03:04:05Z","level":"info","msg":"file_processed","file_url":"...","file_path":"..."}
//
// Levels are info, warning and error, plus debug in verbose mode.
//
// Every logger goes through RedactHandler, which masks header values such
// as Cookie and Authorization and strings shaped like bearer tokens or
// keys. Content hashes pass through unchanged.
//
//	logger := log.NewJSONLogger(os.Stderr, false)
//	logger.Info("discovered_docs", "count", 12)
//	slog.SetDefault(logger)
package log
