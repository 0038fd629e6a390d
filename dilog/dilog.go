// Package dilog adapts charmbracelet/log to the di.Logger interface, so a
// container's diagnostics land in the same structured stream as the rest of
// an application's logs.
//
//	c, err := di.New(
//		di.WithModules(mods...),
//		di.WithLogger(dilog.New(log.DebugLevel)),
//	)
package dilog

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/sghaida/modi/di"
)

// Logger wraps a charm logger as a di.Logger.
type Logger struct {
	l *log.Logger
}

var _ di.Logger = (*Logger)(nil)

// New builds a Logger writing to stderr at the given level, prefixed "di".
func New(level log.Level) *Logger {
	return Wrap(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "di",
	}))
}

// Wrap adapts an existing charm logger.
func Wrap(l *log.Logger) *Logger { return &Logger{l: l} }

// Debug implements di.Logger.
func (a *Logger) Debug(msg string, keyvals ...any) { a.l.Debug(msg, keyvals...) }

// Info implements di.Logger.
func (a *Logger) Info(msg string, keyvals ...any) { a.l.Info(msg, keyvals...) }

// Warn implements di.Logger.
func (a *Logger) Warn(msg string, keyvals ...any) { a.l.Warn(msg, keyvals...) }

// Error implements di.Logger.
func (a *Logger) Error(msg string, keyvals ...any) { a.l.Error(msg, keyvals...) }
