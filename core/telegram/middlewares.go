package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/abenov/qoymabot/core/config"
	"github.com/abenov/qoymabot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain for the bot.
// When strict access is enabled in config the allow-list is enforced on
// every update, not only at the /start entry point.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error, onRejected tele.HandlerFunc) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil && cfg.Telegram.StrictAccess {
		mws = append(mws, Middleware{
			Name: "allowlist",
			Use: middleware.AllowlistMiddleware(middleware.AccessOptions{
				IsAllowed: cfg.Telegram.IsAllowed,
				OnReject:  onRejected,
			}),
		})
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			opts := middleware.RateLimitOptions{
				Interval: interval,
				Exclude:  ex,
			}
			if onLimited != nil {
				opts.OnLimited = onLimited
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use:  middleware.RateLimitMiddleware(opts),
			})
		}
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)

	return mws
}
