package config

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var exitWriter io.Writer = os.Stderr

// Exitf writes a formatted error line to stderr and exits with code 1.
// Commands call it once startup has failed beyond recovery.
func Exitf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	_, _ = io.WriteString(exitWriter, message)
	os.Exit(1)
}
