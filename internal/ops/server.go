package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"

	"github.com/abenov/qoymabot/core/logger"
)

// Server is the auxiliary HTTP surface: liveness, health and metrics. It has
// no dependency on the bot runtime so the probe stays green while Telegram
// reconnects.
type Server struct {
	echo *echo.Echo
	db   *sqlx.DB
}

// NewServer builds the ops HTTP server. db may be nil; the health endpoint
// then skips the database check.
func NewServer(db *sqlx.DB) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomiddleware.Recover())

	s := &Server{echo: e, db: db}
	e.GET("/", s.live)
	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return s
}

// live is the liveness probe; original deployments poll it to keep the
// process warm, so the body is fixed.
func (s *Server) live(c echo.Context) error {
	return c.String(http.StatusOK, "Bot is running")
}

func (s *Server) health(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
	if c.QueryParam("check") == "db" && s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			logger.Ops.LogAttrs(ctx, slog.LevelError, "db ping failed",
				slog.String("event", "ops.health.db"),
				slog.String("err", err.Error()),
			)
			response["status"] = "error"
			response["db_status"] = "error"
			return c.JSON(http.StatusInternalServerError, response)
		}
		response["db_status"] = "ok"
	}
	return c.JSON(http.StatusOK, response)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, listen string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(listen)
	}()

	logger.Ops.Info("ops server listening",
		slog.String("event", "ops.listen"),
		slog.String("addr", listen),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
