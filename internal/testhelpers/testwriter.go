package testhelpers

import (
	"io"
	"strings"
	"testing"
)

// Writer routes log output to t.Log so it only shows up for failing tests.
// Writing after the test has finished panics, which catches servers that were
// never shut down.
type Writer struct {
	t        *testing.T
	testDone chan struct{}
}

func NewWriter(t *testing.T) io.Writer {
	w := &Writer{
		t:        t,
		testDone: make(chan struct{}),
	}
	t.Cleanup(func() {
		close(w.testDone)
	})
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	select {
	case <-w.testDone:
		panic("testwriter: write after test completion, missing t.Cleanup(server.Shutdown)?")
	default:
		// t.Log adds its own newline.
		if line := strings.TrimSuffix(string(p), "\n"); line != "" {
			w.t.Log(line)
		}
		return len(p), nil
	}
}
