// Package logger provides structured, leveled logging on top of log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Level aliases for callers that don't want to import slog.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// LoggerInterface is the logging port used across the application.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Trade(ctx context.Context, rec TradeLine)
}

// TradeLine is one entry of the trade-record stream. Every executed or
// reverted trade produces exactly one line.
type TradeLine struct {
	Kind        string
	Pair        string
	ExpectedUSD string
	GasUsed     uint64
	NetUSD      string
	TxHash      string
}

// Logger writes three line streams: general, errors and trade records.
type Logger struct {
	general *slog.Logger
	errs    *slog.Logger
	trades  *slog.Logger
}

var _ LoggerInterface = (*Logger)(nil)

// New creates a Logger. errW and tradeW may equal w; they only split the
// streams when distinct sinks are configured.
func New(w, errW, tradeW io.Writer, level Level, service string) *Logger {
	opts := &slog.HandlerOptions{Level: level}

	general := slog.New(slog.NewTextHandler(w, opts)).With("service", service)
	errs := slog.New(slog.NewTextHandler(errW, opts)).With("service", service)
	trades := slog.New(slog.NewJSONHandler(tradeW, &slog.HandlerOptions{Level: LevelInfo}))

	return &Logger{general: general, errs: errs, trades: trades}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.general.DebugContext(ctx, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.general.InfoContext(ctx, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.general.WarnContext(ctx, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.errs.ErrorContext(ctx, msg, args...)
}

// Trade writes one trade record line to the trade stream.
func (l *Logger) Trade(ctx context.Context, rec TradeLine) {
	l.trades.InfoContext(ctx, "trade",
		"ts", time.Now().UnixMilli(),
		"kind", rec.Kind,
		"pair", rec.Pair,
		"expected_usd", rec.ExpectedUSD,
		"gas_used", rec.GasUsed,
		"net_usd", rec.NetUSD,
		"tx", rec.TxHash,
	)
}
