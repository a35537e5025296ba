// Package logging provides the leveled logger used throughout wallthumb.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The printf-style helpers (Info, Warn, ...) cover plain messages. Failures
// that need context attach it with With:
//
//	logging.With(logging.Fields{"op": "generate", "video": path}).Warn("skipped: %v", err)
//
// The level is configured via the DEBUG and LOG_LEVEL environment variables
// and can be raised at runtime with SetDebugMode.
package logging
