package compiler

import (
	"fmt"
	"io"
	"os"
)

// Logger writes verbose notes about generation decisions. A nil or disabled
// Logger discards everything, so callers never need to check.
type Logger struct {
	enabled bool
	out     io.Writer
}

// NewLogger creates a logger writing to stderr.
func NewLogger(enabled bool) *Logger {
	return &Logger{
		enabled: enabled,
		out:     os.Stderr,
	}
}

// SetOutput redirects the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.out = w
}

// Enabled reports whether messages are written.
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}

// Log prints a formatted message.
func (l *Logger) Log(format string, args ...interface{}) {
	if l.Enabled() {
		fmt.Fprintf(l.out, "[regvm] "+format+"\n", args...)
	}
}

// Section prints a section header.
func (l *Logger) Section(name string) {
	if l.Enabled() {
		fmt.Fprintf(l.out, "\n[regvm] === %s ===\n", name)
	}
}

// Listing prints prog one instruction per line.
func (l *Logger) Listing(prog Program) {
	if !l.Enabled() {
		return
	}
	for pc, inst := range prog {
		l.Log("  %04d: %s", pc, inst)
	}
}
