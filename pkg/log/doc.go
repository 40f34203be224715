// Package log provides a logging abstraction for lifecoord components.
//
// Components accept a [Logger] and never import zerolog directly. A zerolog
// adapter and a no-op logger are provided:
//
//	logger := log.NewConsoleLogger(os.Stderr, "debug")
//	logger = logger.With(log.Component("coordinator"))
//
// Use [NewNoopLogger] in tests, or [OrNoop] to default an optional logger.
package log
