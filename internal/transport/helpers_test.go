package transport

import (
	"bytes"
	"os"
	"testing"

	applog "tuner/internal/log"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	t.Cleanup(func() { applog.SetOutput(os.Stderr) })
	return &buf
}
