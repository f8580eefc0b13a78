package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tbucket.log")

	logger, err := NewLogger(
		WithFilename(path),
		WithLevel(zapcore.InfoLevel),
		WithLevelKey("level"),
	)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log file to contain data")
	}
}

func TestWriterBuffersUntilNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tbucket.log")
	logger, err := NewLogger(WithFilename(path), WithLevel(zapcore.InfoLevel), WithLevelKey("level"))
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	w := NewWriter(logger, zapcore.InfoLevel)
	if _, err := w.Write([]byte("partial, no newline yet")); err != nil {
		t.Fatal(err)
	}
	if string(w.buf) != "partial, no newline yet" {
		t.Fatalf("buffered %q, want the partial line held back", w.buf)
	}
	if _, err := w.Write([]byte(" rest\n")); err != nil {
		t.Fatal(err)
	}
	if len(w.buf) != 0 {
		t.Fatalf("buffered %q after newline, want empty", w.buf)
	}
}
