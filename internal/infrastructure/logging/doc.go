// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Loggers are named (DefaultName unless configured) so that output from the
// client can be told apart from the host program's own logs. Credentials are
// never logged in full; use Token to attach a masked value.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	logger.Debug("calling", zap.String("method", "chat.postMessage"), logging.Token("token", tok))
//	logger.Warn("retrying", zap.Error(err))
package logging
