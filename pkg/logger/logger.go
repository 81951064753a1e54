package logger

import (
	"fmt"
	"log"
	"os"
)

// New returns a stdlib-backed logger with component prefix. Writes to
// stderr so report output on stdout stays clean.
func New(component string) *log.Logger {
	prefix := fmt.Sprintf("[%s] ", component)
	return log.New(os.Stderr, prefix, log.LstdFlags)
}
