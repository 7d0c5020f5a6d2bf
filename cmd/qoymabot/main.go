package main

import (
	"context"
	"fmt"
	"log"

	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/abenov/qoymabot/core/cmd"
	coreconfig "github.com/abenov/qoymabot/core/config"
	"github.com/abenov/qoymabot/core/database"
	"github.com/abenov/qoymabot/core/logger"
	tg "github.com/abenov/qoymabot/core/telegram"
	"github.com/abenov/qoymabot/core/telegram/state"
	"github.com/abenov/qoymabot/internal/bot"
	"github.com/abenov/qoymabot/internal/flows"
	"github.com/abenov/qoymabot/internal/inventory"
	"github.com/abenov/qoymabot/internal/ops"
)

type carrier struct {
	cfg *coreconfig.Config
}

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

// application wires the inventory bot together with its ops server.
type application struct {
	cfg *coreconfig.Config
	db  *sqlx.DB
	bot *bot.App
	ops *ops.Server
}

func (a *application) TelegramRunOptions() (tg.RunOptions, error) {
	reg := a.bot.BuildRegistry()
	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: a.bot.Middlewares(),
		Routes:      a.bot.Routes(reg),
		OnStart: func(ctx context.Context, _ tg.Runtime) error {
			go func() {
				if err := a.ops.Run(ctx, a.cfg.Ops.Listen); err != nil {
					logger.Ops.Error("ops server stopped",
						slog.String("event", "ops.stop"),
						slog.String("err", err.Error()),
					)
				}
			}()
			return nil
		},
	}, nil
}

func loadConfig(path string) (cmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		KeysOrder:   cfg.Logging.KeysOrder,
		DebugSample: cfg.Logging.DebugSample,
		Dir:         cfg.Logging.Dir,
		File:        cfg.Logging.BotFile,
		Profile:     cfg.Logging.Profile,
	}); err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	return carrier{cfg: cfg}, nil
}

func bootstrap(cc cmd.ConfigCarrier) (*application, error) {
	cfg := cc.CoreConfig()

	ops.InitMetrics()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	store := inventory.NewPostgresStore(db)
	engine := flows.NewEngine(state.NewMemoryManager(), store)

	return &application{
		cfg: cfg,
		db:  db,
		bot: bot.New(cfg, store, engine),
		ops: ops.NewServer(db),
	}, nil
}

func main() {
	var app *application

	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        loadConfig,
		Bootstrap: func(cc cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			a, err := bootstrap(cc)
			if err != nil {
				return nil, err
			}
			app = a
			return a, nil
		},
		Cleanup: func() error {
			if app != nil && app.db != nil {
				return app.db.Close()
			}
			return nil
		},
	})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
