package middleware

import (
	"log/slog"

	"github.com/abenov/qoymabot/core/logger"
	tghelpers "github.com/abenov/qoymabot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AccessOptions defines how operator allow-list checks behave.
type AccessOptions struct {
	// IsAllowed reports whether the sender may use the bot.
	IsAllowed func(userID int64) bool
	// OnReject runs when an unauthorized sender is dropped. The update is
	// not passed further regardless.
	OnReject tele.HandlerFunc
}

// AllowlistMiddleware drops updates from senders outside the operator
// allow-list. Rejected senders receive the OnReject reply and cause no state
// change downstream.
func AllowlistMiddleware(opts AccessOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return nil
			}
			if opts.IsAllowed == nil || opts.IsAllowed(user.ID) {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			logger.Warn(ctx, "tg", "access.denied",
				slog.Int64("user_id", user.ID),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}

// WithAllowlist wraps a single handler with the allow-list check. Used for
// entry points (such as /start) when the global chain does not enforce access.
func WithAllowlist(opts AccessOptions, h tele.HandlerFunc) tele.HandlerFunc {
	return AllowlistMiddleware(opts)(h)
}
