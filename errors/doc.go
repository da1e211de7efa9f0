// Package errors provides standardized error handling for Jassistant
// subsystems. It includes error classification, standard error variables,
// and helper functions for consistent error wrapping across the service.
//
// Errors are classified into three classes that drive handling policy:
//
//   - Transient: temporary failures (I/O, storage pressure) that callers
//     may retry or absorb
//   - Invalid: bad input or configuration that retrying cannot fix
//   - Fatal: unrecoverable failures that should stop the operation
//
// Subsystems wrap errors at their boundary with the component and
// operation that observed them:
//
//	return errors.WrapTransient(err, "cache", "Set", "write cache file")
//
// The caching subsystem additionally follows a best-effort policy: every
// classified error it produces is absorbed and logged internally, so
// callers above the cache only ever observe a miss.
package errors
