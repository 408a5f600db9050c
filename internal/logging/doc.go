// Package logging provides structured logging for teehrview.
//
// It wraps log/slog with a JSON handler and adds persistent context
// attributes so every entry written during a workflow run can be traced back
// to its session and step.
//
// # Basic Usage
//
//	logger, err := logging.NewLoggerWithRotation(cfg.Logging.ResolveLogDir(), "INFO", rotation)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithSession(id).WithStep("Filters").Info("filter added", "column", "lead_time")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"filter added","session_id":"...","step":"Filters","column":"lead_time"}
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] with a
// bytes.Buffer to assert on entries.
package logging
