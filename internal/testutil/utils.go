package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns the logger injected into session, toast and api
// components under test. Output goes to stdout so `go test -v`
// interleaves it with the test's own output.
func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "[escrow-chat-test] ", log.Ltime)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}
