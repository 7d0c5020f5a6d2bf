package bot

import (
	coreconfig "github.com/abenov/qoymabot/core/config"
	tg "github.com/abenov/qoymabot/core/telegram"
	"github.com/abenov/qoymabot/core/telegram/commands"
	tghelpers "github.com/abenov/qoymabot/core/telegram/helpers"
	"github.com/abenov/qoymabot/core/telegram/middleware"
	"github.com/abenov/qoymabot/core/telegram/router"
	"github.com/abenov/qoymabot/internal/flows"
	"github.com/abenov/qoymabot/internal/inventory"
	"github.com/abenov/qoymabot/internal/ops"

	tele "gopkg.in/telebot.v4"
)

// App assembles the warehouse bot: menu actions, flow routing, callbacks.
type App struct {
	cfg    *coreconfig.Config
	store  inventory.Store
	engine *flows.Engine
}

// New builds the bot application and wires flow commit metrics.
func New(cfg *coreconfig.Config, store inventory.Store, engine *flows.Engine) *App {
	engine.OnCommit = func(f flows.Flow) {
		if ops.FlowCommitsTotal != nil {
			ops.FlowCommitsTotal.WithLabelValues(string(f)).Inc()
		}
	}
	return &App{cfg: cfg, store: store, engine: engine}
}

// BuildRegistry declares every command, menu action and callback.
func (a *App) BuildRegistry() *tg.Registry {
	reg := tg.NewRegistry()

	access := middleware.AccessOptions{
		IsAllowed: a.cfg.Telegram.IsAllowed,
		OnReject: func(c tele.Context) error {
			return tghelpers.SendText(c, textDenied)
		},
	}
	reg.RegisterCommand("/start", commands.Command{
		Handler:     middleware.WithAllowlist(access, a.handleStart),
		Description: "Қойма есебі жүйесі",
	})

	reg.RegisterMenu(LabelAdd, a.startFlow(flows.FlowAdd))
	reg.RegisterMenu(LabelSale, a.startFlow(flows.FlowSale))
	reg.RegisterMenu(LabelIncome, a.startFlow(flows.FlowIncome))
	reg.RegisterMenu(LabelWriteOff, a.startFlow(flows.FlowWriteOff))
	reg.RegisterMenu(LabelDelete, a.startFlow(flows.FlowDelete))
	reg.RegisterMenu(LabelEdit, a.startFlow(flows.FlowEdit))
	reg.RegisterMenu(LabelSearch, a.startFlow(flows.FlowSearch))

	reg.RegisterMenu(LabelList, a.handleList)
	reg.RegisterMenu(LabelExpiry, a.handleExpiry)
	reg.RegisterMenu(LabelStats, a.handleStats)
	reg.RegisterMenu(LabelLowStock, a.handleLowStock)
	reg.RegisterMenu(LabelJournal, a.handleJournal)

	_ = reg.RegisterCallback(cbDelYes, a.handleDeleteDecision(true))
	_ = reg.RegisterCallback(cbDelNo, a.handleDeleteDecision(false))
	_ = reg.RegisterCallback(cbEditName, a.handleEditField(flows.EditFieldName))
	_ = reg.RegisterCallback(cbEditExp, a.handleEditField(flows.EditFieldExpiry))
	_ = reg.RegisterCallback(cbEditMin, a.handleEditField(flows.EditFieldThreshold))

	reg.SetTextFallback(a.handleUnsupported)
	return reg
}

// Routes wires the registry into telebot endpoints: explicit command
// endpoints plus generic text and callback routing.
func (a *App) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.TextRoutes(fsmAdapter{a}, reg, router.TextOptions{
		UnknownText: a.handleUnsupported,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	return routes
}

// Middlewares is the global chain: shared defaults plus update counting.
func (a *App) Middlewares() []tg.Middleware {
	mws := tg.DefaultMiddlewares(a.cfg, nil, func(c tele.Context) error {
		return tghelpers.SendText(c, textDenied)
	})
	mws = append(mws, tg.Middleware{Name: "update_counter", Use: countUpdates})
	return mws
}

func countUpdates(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if ops.UpdatesTotal != nil {
			kind := "message"
			if c.Callback() != nil {
				kind = "callback"
			}
			ops.UpdatesTotal.WithLabelValues(kind).Inc()
		}
		return next(c)
	}
}

// fsmAdapter bridges the flow engine into the text router's FSM slot.
type fsmAdapter struct{ app *App }

func (f fsmAdapter) InProgress(userID int64) bool {
	return f.app.engine.InProgress(userID)
}

func (f fsmAdapter) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, ok := f.app.engine.HandleText(ctx, c.Sender().ID, c.Text())
	if !ok {
		return f.app.handleUnsupported(c)
	}
	return f.app.sendReply(c, reply)
}

// sendReply renders a flow Reply into Telegram sends.
func (a *App) sendReply(c tele.Context, r flows.Reply) error {
	if r.Ignored {
		if ops.FlowRejectsTotal != nil {
			ops.FlowRejectsTotal.WithLabelValues("stale_event").Inc()
		}
		return nil
	}
	if ops.RepliesTotal != nil {
		ops.RepliesTotal.Inc()
	}
	switch r.Markup {
	case flows.MarkupDeleteConfirm:
		return tghelpers.SendWithMarkup(c, r.Text, deleteConfirmMarkup(r.ProductID))
	case flows.MarkupEditFields:
		return tghelpers.SendWithMarkup(c, r.Text, editFieldsMarkup(r.ProductID))
	}
	if r.WithMenu {
		return tghelpers.SendWithMarkup(c, r.Text, MainMenu())
	}
	return tghelpers.SendText(c, r.Text)
}
