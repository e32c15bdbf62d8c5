package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// RotatingFileWriter appends log lines to one file per UTC day. A logging
// failure must never raise: every error path degrades to a best-effort note
// on stderr and reports the write as successful.
// -----------------------------------------------------------------------------

type RotatingFileWriter struct {
	dir     string
	mu      sync.Mutex
	current string
	file    *os.File
}

// -----------------------------------------------------------------------------

func NewRotatingFileWriter(dir string) *RotatingFileWriter {
	return &RotatingFileWriter{dir: dir}
}

// -----------------------------------------------------------------------------

// Write implements io.Writer. It always reports len(p) written.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := time.Now().UTC().Format("2006-01-02")
	if w.file == nil || day != w.current {
		w.rotate(day)
	}

	if w.file != nil {
		if _, err := w.file.Write(p); err != nil {
			fmt.Fprintf(os.Stderr, "log file write failed: %v\n", err)
			w.closeFile()
		}
	}

	return len(p), nil
}

// -----------------------------------------------------------------------------

func (w *RotatingFileWriter) rotate(day string) {
	w.closeFile()
	w.current = day

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "log dir unavailable: %v\n", err)
		return
	}

	name := filepath.Join(w.dir, day+".log")
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file open failed: %v\n", err)
		return
	}
	w.file = f
}

// -----------------------------------------------------------------------------

func (w *RotatingFileWriter) closeFile() {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
}

// -----------------------------------------------------------------------------

// Close releases the current file, if any.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeFile()
	return nil
}
