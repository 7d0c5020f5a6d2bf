package bot

import (
	"time"

	"github.com/abenov/qoymabot/core/telegram/callbacks"
	tghelpers "github.com/abenov/qoymabot/core/telegram/helpers"
	"github.com/abenov/qoymabot/internal/flows"

	tele "gopkg.in/telebot.v4"
)

func (a *App) handleStart(c tele.Context) error {
	return tghelpers.SendWithMarkup(c, textWelcome, MainMenu())
}

func (a *App) handleUnsupported(c tele.Context) error {
	return tghelpers.SendWithMarkup(c, textUnsupported, MainMenu())
}

func (a *App) startFlow(flow flows.Flow) tele.HandlerFunc {
	return func(c tele.Context) error {
		reply := a.engine.Start(c.Sender().ID, flow)
		return a.sendReply(c, reply)
	}
}

func (a *App) handleList(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	rows, err := a.store.ListProducts(ctx, listLimit)
	if err != nil {
		_ = tghelpers.SendText(c, textQueryFailed)
		return err
	}
	return tghelpers.SendWithMarkup(c, flows.FormatProducts(rows), MainMenu())
}

func (a *App) handleExpiry(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	rows, err := a.store.ListExpiring(ctx, time.Now(), expiryWindowDays)
	if err != nil {
		_ = tghelpers.SendText(c, textQueryFailed)
		return err
	}
	return tghelpers.SendText(c, formatExpiring(rows))
}

func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	st, err := a.store.Stats(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, textQueryFailed)
		return err
	}
	return tghelpers.SendText(c, formatStats(st))
}

func (a *App) handleLowStock(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	rows, err := a.store.ListLowStock(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, textQueryFailed)
		return err
	}
	return tghelpers.SendText(c, formatLowStock(rows))
}

func (a *App) handleJournal(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	entries, err := a.store.ListJournal(ctx, journalLimit)
	if err != nil {
		_ = tghelpers.SendText(c, textQueryFailed)
		return err
	}
	return tghelpers.SendText(c, formatJournal(entries))
}

// handleDeleteDecision processes both confirmation buttons. The cancel
// button ignores the payload; only confirmation must name the product it
// confirms.
func (a *App) handleDeleteDecision(yes bool) tele.HandlerFunc {
	return func(c tele.Context) error {
		var pid int64
		if yes {
			var err error
			pid, err = callbacks.PayloadInt64(c)
			if err != nil {
				return nil
			}
		}
		ctx := tghelpers.BuildContext(c)
		reply := a.engine.HandleDeleteDecision(ctx, c.Sender().ID, pid, yes)
		return a.sendReply(c, reply)
	}
}

func (a *App) handleEditField(field flows.EditField) tele.HandlerFunc {
	return func(c tele.Context) error {
		pid, err := callbacks.PayloadInt64(c)
		if err != nil {
			return nil
		}
		reply := a.engine.HandleEditField(c.Sender().ID, pid, field)
		return a.sendReply(c, reply)
	}
}
