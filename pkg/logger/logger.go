package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu           sync.Mutex
	out          io.Writer = os.Stdout
	debugEnabled bool
)

// SetDebug toggles Debugf output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debugEnabled = enabled
}

// SetOutput redirects all log output. Returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// Debugf prints messages only if debug is enabled
func Debugf(format string, args ...interface{}) {
	mu.Lock()
	enabled := debugEnabled
	mu.Unlock()
	if enabled {
		write("[DEBUG] ", format, args...)
	}
}

// Infof prints messages always (standard output)
func Infof(format string, args ...interface{}) {
	write("", format, args...)
}

// Warnf reports a recoverable problem. Processing continues.
func Warnf(format string, args ...interface{}) {
	write("Warning: ", format, args...)
}

// Errorf reports a failure of a single operation.
func Errorf(format string, args ...interface{}) {
	write("Error: ", format, args...)
}

func write(prefix, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, prefix+format+"\n", args...)
}
