// Package logger provides structured logging for the build orchestrator
// using zerolog.
//
// It supports console and JSON output, log level configuration, and
// component- or task-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("deptree")
//	log.Info("found native packages", logger.Fields("count", 3))
package logger
