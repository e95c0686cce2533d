package logger

import (
	"github.com/fatih/color" // Colored console output for the different log levels
)

// Colorized printing functions for the log levels. These are package-level
// variables holding functions that behave like fmt.Printf, but with the text
// colored for the level.

// Info logs informational messages in green color.
var Info = color.New(color.FgGreen).PrintfFunc()

// Warn logs warning messages in bright magenta color.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs error messages in red color.
var Error = color.New(color.FgRed).PrintfFunc()

// Debug logs debug messages in cyan color if enabled, otherwise is a no-op.
// It is assigned during Init based on the debug flag so disabled debug logging
// costs nothing at the call sites.
var Debug func(format string, a ...any)

func init() {
	// Safe default so Debug is callable before Init runs (e.g. from tests).
	Debug = func(format string, a ...any) {}
}

// Init configures debug logging. When enableDebug is true, Debug prints
// cyan-colored messages; otherwise it stays a no-op.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}
