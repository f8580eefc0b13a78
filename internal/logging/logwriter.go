package logging

import (
	"bytes"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Writer bridges io.Writer onto a *zap.Logger, buffering partial lines
// until a newline completes them. Useful for handing to APIs that only
// accept a *log.Logger or io.Writer, such as http.Server.ErrorLog.
type Writer struct {
	logger *zap.Logger
	level  zapcore.Level
	buf    []byte
}

// NewWriter returns an io.Writer that logs each complete line it
// receives to logger at level.
func NewWriter(logger *zap.Logger, level zapcore.Level) *Writer {
	return &Writer{
		logger: logger,
		level:  level,
		buf:    make([]byte, 0, 1024*10),
	}
}

// Write implements io.Writer, emitting one zap record per newline-
// terminated line and buffering any trailing partial line for the next
// call.
func (w *Writer) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := w.buf[:i]
		w.buf = w.buf[i+1:]
		w.emit(string(line))
	}

	return len(p), nil
}

// Flush emits any buffered partial line, e.g. on shutdown.
func (w *Writer) Flush() {
	if len(w.buf) == 0 {
		return
	}
	w.emit(string(w.buf))
	w.buf = w.buf[:0]
}

func (w *Writer) emit(line string) {
	switch w.level {
	case zapcore.DebugLevel:
		w.logger.Debug(line)
	case zapcore.InfoLevel:
		w.logger.Info(line)
	case zapcore.WarnLevel:
		w.logger.Warn(line)
	case zapcore.ErrorLevel:
		w.logger.Error(line)
	case zapcore.DPanicLevel:
		w.logger.DPanic(line)
	case zapcore.PanicLevel:
		w.logger.Panic(line)
	case zapcore.FatalLevel:
		w.logger.Fatal(line)
	default:
		w.logger.Info(line)
	}
}
