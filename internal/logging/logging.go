// Package logging configures the process-wide logger. Everything goes to
// stderr: stdout belongs to the MCP stdio transport and must stay clean.
package logging

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	defaultLogger *log.Logger
	once          sync.Once
)

// Default returns the shared logger, creating it on first use. The DEBUG
// environment variable raises the level to debug; otherwise only
// warnings and errors are emitted so the server stays quiet under a
// harness.
func Default() *log.Logger {
	once.Do(func() {
		defaultLogger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "vaultgate",
		})
		if os.Getenv("DEBUG") != "" {
			defaultLogger.SetLevel(log.DebugLevel)
		} else {
			defaultLogger.SetLevel(log.WarnLevel)
		}
	})
	return defaultLogger
}

func Debug(msg string, keyvals ...any) {
	Default().Debug(msg, keyvals...)
}

func Info(msg string, keyvals ...any) {
	Default().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...any) {
	Default().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...any) {
	Default().Error(msg, keyvals...)
}
