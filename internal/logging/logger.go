// Package logging defines a minimal structured-logging interface used across
// the clinic server. Implementations wrap slog or zap.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "shift started", "shift_id", id, "date", date)
type Logger interface {
	// Debug logs verbose diagnostics.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

// Backends accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// New builds a JSON logger writing to w using the requested backend.
func New(backend string, w io.Writer) (Logger, error) {
	switch backend {
	case "", BackendSlog:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, nil))), nil
	case BackendZap:
		enc := zap.NewProductionEncoderConfig()
		enc.TimeKey = "timestamp"
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), zapcore.InfoLevel)
		return NewZapLogger(zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
