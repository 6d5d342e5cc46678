package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog for structured logging
type Logger struct {
	logger *slog.Logger
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Output io.Writer
}

// NewLogger creates a new structured logger
func NewLogger(config LogConfig) *Logger {
	level := slog.LevelInfo
	switch strings.ToLower(config.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	output := config.Output
	if output == nil {
		output = os.Stdout
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if config.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		logger: slog.New(handler),
	}
}

// WithContext adds dialogue-scoped context fields to the logger
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var args []any

	if traceID := TraceIDFromContext(ctx); traceID != "" {
		args = append(args, "trace_id", traceID)
	}

	if tenantID := TenantIDFromContext(ctx); tenantID != "" {
		args = append(args, "tenant_id", tenantID)
	}

	if dialogueID := DialogueIDFromContext(ctx); dialogueID != "" {
		args = append(args, "dialogue_id", dialogueID)
	}

	if len(args) == 0 {
		return l
	}

	return &Logger{
		logger: l.logger.With(args...),
	}
}

// With adds additional fields to the logger
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		logger: l.logger.With(args...),
	}
}

// Debug logs at debug level. Safe on a nil receiver.
func (l *Logger) Debug(msg string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Debug(msg, args...)
}

// Info logs at info level. Safe on a nil receiver.
func (l *Logger) Info(msg string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Info(msg, args...)
}

// Warn logs at warn level. Safe on a nil receiver.
func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Warn(msg, args...)
}

// Error logs at error level. Safe on a nil receiver.
func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Error(msg, args...)
}

// DebugContext logs at debug level with context fields
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	if l == nil {
		return
	}
	l.WithContext(ctx).Debug(msg, args...)
}

// InfoContext logs at info level with context fields
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	if l == nil {
		return
	}
	l.WithContext(ctx).Info(msg, args...)
}

// WarnContext logs at warn level with context fields
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	if l == nil {
		return
	}
	l.WithContext(ctx).Warn(msg, args...)
}

// ErrorContext logs at error level with context fields
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	if l == nil {
		return
	}
	l.WithContext(ctx).Error(msg, args...)
}

// Context key types
type contextKey string

const (
	traceIDKey    contextKey = "trace_id"
	tenantIDKey   contextKey = "tenant_id"
	dialogueIDKey contextKey = "dialogue_id"
)

// ContextWithTraceID adds trace ID to context
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext extracts trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// ContextWithTenantID adds tenant ID to context
func ContextWithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantIDFromContext extracts tenant ID from context
func TenantIDFromContext(ctx context.Context) string {
	if tenantID, ok := ctx.Value(tenantIDKey).(string); ok {
		return tenantID
	}
	return ""
}

// ContextWithDialogueID adds guided-dialogue session ID to context
func ContextWithDialogueID(ctx context.Context, dialogueID string) context.Context {
	return context.WithValue(ctx, dialogueIDKey, dialogueID)
}

// DialogueIDFromContext extracts guided-dialogue session ID from context
func DialogueIDFromContext(ctx context.Context) string {
	if dialogueID, ok := ctx.Value(dialogueIDKey).(string); ok {
		return dialogueID
	}
	return ""
}
