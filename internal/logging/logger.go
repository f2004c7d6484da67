// Package logging is the structured logger every AuthKeeper component takes
// by injection. Components tag their logger once:
//
//	logger := l.With("module", "session_service")
//	logger.Warn(ctx, "session expired", "user_id", id)
package logging

import "context"

// Logger logs a message with alternating key/value attributes.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
