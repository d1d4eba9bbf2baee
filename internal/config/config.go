// Package config holds the process-wide debug switch set by the -v flag.
package config

import "fmt"

// Verbose enables debug output when true.
var Verbose bool

// Debugf prints a debug message when Verbose is true.
func Debugf(format string, args ...any) {
	if Verbose {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}
