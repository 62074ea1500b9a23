// Package logger provides a structured logging interface for chatbackup.
//
// It wraps zerolog with a small API that supports levels, structured
// fields, colored console output and an optional JSON log file.
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	logger.Info("Backup started")
//	logger.WithField("chat", chatID).Info("Fetching messages")
//	logger.WithError(err).Error("Failed to download image")
//
// Tests can use NewTestLogger to capture and assert on log output, or
// NewNopLogger to discard it.
package logger
