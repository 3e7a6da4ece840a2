package tierkv

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger. Provide an adapter around logging stack.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// stderrLogger is the Tiered default so unhandled tier failures always
// produce a diagnostic line.
type stderrLogger struct{ l *zap.Logger }

func newStderrLogger() stderrLogger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(os.Stderr),
		zapcore.WarnLevel,
	)
	return stderrLogger{l: zap.New(core)}
}

func (s stderrLogger) Debug(msg string, f Fields) { s.l.Debug(msg, ZapFields(f)...) }
func (s stderrLogger) Info(msg string, f Fields)  { s.l.Info(msg, ZapFields(f)...) }
func (s stderrLogger) Warn(msg string, f Fields)  { s.l.Warn(msg, ZapFields(f)...) }
func (s stderrLogger) Error(msg string, f Fields) { s.l.Error(msg, ZapFields(f)...) }

// ZapFields converts f for zap. Error values become named error fields.
func ZapFields(f Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
