// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"log/slog"

	"github.com/dtroode/cutout-server/internal/logger"
)

// MakeNoopLogger returns a logger that discards everything, at debug level
// so that every log call path is still executed.
func MakeNoopLogger() *logger.Logger {
	return &logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}
