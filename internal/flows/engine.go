package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/abenov/qoymabot/core/telegram/state"
	"github.com/abenov/qoymabot/internal/inventory"
)

// Engine drives the per-operator conversation flows. Every entry point is
// transport-agnostic: callers feed text or selection events and render the
// returned Reply. Events for the same operator are serialized, so a terminal
// step commits its ledger mutation at most once; the second of two
// overlapping events observes the already-cleared session.
type Engine struct {
	sessions state.Manager
	store    inventory.Store

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	// OnCommit, when set, is invoked after each successful ledger mutation.
	OnCommit func(flow Flow)
}

// NewEngine wires the state machine to its session store and ledger.
func NewEngine(sessions state.Manager, store inventory.Store) *Engine {
	return &Engine{
		sessions: sessions,
		store:    store,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// lockOperator takes the operator's event lock and returns its release. The
// map is keyed by operator id and never shrinks; the operator set is the
// configured allowlist.
func (e *Engine) lockOperator(userID int64) func() {
	e.mu.Lock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// InProgress reports whether the operator has an active flow.
func (e *Engine) InProgress(userID int64) bool {
	return e.sessions.InProgress(userID)
}

// Start begins a flow for the operator. Any in-progress flow is discarded
// unconditionally (last-start-wins).
func (e *Engine) Start(userID int64, flow Flow) Reply {
	defer e.lockOperator(userID)()

	switch flow {
	case FlowAdd:
		e.sessions.Set(userID, StepAddName, nil)
		return Reply{Text: promptAddName, Flow: flow}
	case FlowIncome:
		e.sessions.Set(userID, StepInID, nil)
		return Reply{Text: promptInID, Flow: flow}
	case FlowSale:
		e.sessions.Set(userID, StepOutID, nil)
		return Reply{Text: promptOutID, Flow: flow}
	case FlowWriteOff:
		e.sessions.Set(userID, StepWOID, nil)
		return Reply{Text: promptWOID, Flow: flow}
	case FlowDelete:
		e.sessions.Set(userID, StepDelID, nil)
		return Reply{Text: promptDelID, Flow: flow}
	case FlowEdit:
		e.sessions.Set(userID, StepEditID, nil)
		return Reply{Text: promptEditID, Flow: flow}
	case FlowSearch:
		e.sessions.Set(userID, StepSearchQuery, nil)
		return Reply{Text: promptSearch, Flow: flow}
	}
	return Reply{Ignored: true}
}

// HandleText advances the operator's current step with a raw text input.
// The second return value is false when no flow is in progress.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) (Reply, bool) {
	defer e.lockOperator(userID)()

	sess := e.sessions.Get(userID)
	if sess.Step == state.StepIdle {
		return Reply{}, false
	}
	text = strings.TrimSpace(text)

	switch sess.Step {
	case StepAddName:
		e.advance(userID, StepAddName, StepAddQty, AddDraft{Name: text})
		return Reply{Text: promptAddQty, Flow: FlowAdd}, true

	case StepAddQty:
		qty, ok := parseCount(text)
		if !ok {
			return Reply{Text: errAddQty, Flow: FlowAdd}, true
		}
		d := draft[AddDraft](sess)
		d.Qty = qty
		e.advance(userID, StepAddQty, StepAddExp, d)
		return Reply{Text: promptAddExp, Flow: FlowAdd}, true

	case StepAddExp:
		exp, ok := parseExpiry(text)
		if !ok {
			return Reply{Text: errAddExp, Flow: FlowAdd}, true
		}
		d := draft[AddDraft](sess)
		d.ExpDate = exp
		e.advance(userID, StepAddExp, StepAddMin, d)
		return Reply{Text: promptAddMin, Flow: FlowAdd}, true

	case StepAddMin:
		minq, ok := parseCount(text)
		if !ok {
			return Reply{Text: errAddMin, Flow: FlowAdd}, true
		}
		d := draft[AddDraft](sess)
		p, err := e.store.CreateProduct(ctx, d.Name, d.Qty, d.ExpDate, minq)
		e.finish(userID, StepAddMin)
		if err != nil {
			return Reply{Text: errStoreFail, WithMenu: true, Flow: FlowAdd}, true
		}
		e.committed(FlowAdd)
		return Reply{
			Text:      fmt.Sprintf("✅ Қосылды: %s — %d дана | min:%d", p.Name, p.Qty, p.MinQty),
			WithMenu:  true,
			Committed: true,
			Flow:      FlowAdd,
		}, true

	case StepInID:
		return e.resolveProduct(ctx, userID, StepInID, text, FlowIncome,
			func(p inventory.Product) (state.Step, any, string) {
				return StepInQty, MovementDraft{ProductID: p.ID, Name: p.Name},
					fmt.Sprintf("%s кіріс санын енгізіңіз:", p.Name)
			})

	case StepInQty:
		d := draft[MovementDraft](sess)
		qty, ok := parsePositive(text)
		if !ok {
			return Reply{Text: errInQty, Flow: FlowIncome}, true
		}
		_, err := e.store.ApplyMovement(ctx, d.ProductID, inventory.MovementIn, qty, commentIncome)
		if errors.Is(err, inventory.ErrProductNotFound) {
			e.finish(userID, StepInQty)
			return Reply{Text: errProductGone, WithMenu: true, Flow: FlowIncome}, true
		}
		e.finish(userID, StepInQty)
		if err != nil {
			return Reply{Text: errStoreFail, WithMenu: true, Flow: FlowIncome}, true
		}
		e.committed(FlowIncome)
		return Reply{
			Text:      fmt.Sprintf("✅ Кіріс тіркелді: %s — +%d дана", d.Name, qty),
			WithMenu:  true,
			Committed: true,
			Flow:      FlowIncome,
		}, true

	case StepOutID:
		return e.resolveProduct(ctx, userID, StepOutID, text, FlowSale,
			func(p inventory.Product) (state.Step, any, string) {
				return StepOutQty, MovementDraft{ProductID: p.ID, Name: p.Name},
					fmt.Sprintf("%s сатылатын санын енгізіңіз (қалдық: %d):", p.Name, p.Qty)
			})

	case StepOutQty:
		d := draft[MovementDraft](sess)
		qty, ok := parsePositive(text)
		if !ok {
			return Reply{Text: errOutQty, Flow: FlowSale}, true
		}
		return e.commitDepleting(ctx, userID, StepOutQty, d.ProductID, qty, inventory.MovementOut, commentSale, FlowSale,
			fmt.Sprintf("✅ Сатылды: %s — %d дана", d.Name, qty)), true

	case StepWOID:
		return e.resolveProduct(ctx, userID, StepWOID, text, FlowWriteOff,
			func(p inventory.Product) (state.Step, any, string) {
				return StepWOQty, WriteOffDraft{ProductID: p.ID, Name: p.Name},
					fmt.Sprintf("%s списание санын енгізіңіз (қалдық: %d):", p.Name, p.Qty)
			})

	case StepWOQty:
		d := draft[WriteOffDraft](sess)
		qty, ok := parsePositive(text)
		if !ok {
			return Reply{Text: errWOQty, Flow: FlowWriteOff}, true
		}
		p, err := e.store.GetProduct(ctx, d.ProductID)
		if errors.Is(err, inventory.ErrProductNotFound) {
			e.finish(userID, StepWOQty)
			return Reply{Text: errProductGone, WithMenu: true, Flow: FlowWriteOff}, true
		}
		if err != nil {
			e.finish(userID, StepWOQty)
			return Reply{Text: errStoreFail, WithMenu: true, Flow: FlowWriteOff}, true
		}
		if qty > p.Qty {
			return Reply{Text: notEnoughText(p.Qty), Flow: FlowWriteOff}, true
		}
		d.Qty = qty
		e.advance(userID, StepWOQty, StepWOReason, d)
		return Reply{Text: promptWOReason, Flow: FlowWriteOff}, true

	case StepWOReason:
		d := draft[WriteOffDraft](sess)
		reason := text
		_, err := e.store.ApplyMovement(ctx, d.ProductID, inventory.MovementWriteOff, d.Qty, reason)
		if errors.Is(err, inventory.ErrInsufficientStock) {
			// Stock depleted while the reason was being typed; back to quantity.
			cur, gerr := e.store.GetProduct(ctx, d.ProductID)
			if gerr != nil {
				e.finish(userID, StepWOReason)
				return Reply{Text: errProductGone, WithMenu: true, Flow: FlowWriteOff}, true
			}
			e.advance(userID, StepWOReason, StepWOQty, WriteOffDraft{ProductID: d.ProductID, Name: d.Name})
			return Reply{Text: notEnoughText(cur.Qty), Flow: FlowWriteOff}, true
		}
		e.finish(userID, StepWOReason)
		if errors.Is(err, inventory.ErrProductNotFound) {
			return Reply{Text: errProductGone, WithMenu: true, Flow: FlowWriteOff}, true
		}
		if err != nil {
			return Reply{Text: errStoreFail, WithMenu: true, Flow: FlowWriteOff}, true
		}
		e.committed(FlowWriteOff)
		return Reply{
			Text:      fmt.Sprintf("✅ Списание: %s — %d дана\nСебеп: %s", d.Name, d.Qty, reason),
			WithMenu:  true,
			Committed: true,
			Flow:      FlowWriteOff,
		}, true

	case StepDelID:
		pid, ok := parseID(text)
		if !ok {
			return Reply{Text: errIDNumeric, Flow: FlowDelete}, true
		}
		p, err := e.store.GetProduct(ctx, pid)
		if errors.Is(err, inventory.ErrProductNotFound) {
			e.finish(userID, StepDelID)
			return Reply{Text: errIDNotFound, Flow: FlowDelete}, true
		}
		if err != nil {
			e.finish(userID, StepDelID)
			return Reply{Text: errStoreFail, WithMenu: true, Flow: FlowDelete}, true
		}
		e.advance(userID, StepDelID, StepDelConfirm, DeleteDraft{ProductID: p.ID, Name: p.Name})
		return deleteConfirmReply(p.ID, p.Name), true

	case StepDelConfirm:
		// Awaiting the inline buttons; any text re-asks the same question.
		d := draft[DeleteDraft](sess)
		return deleteConfirmReply(d.ProductID, d.Name), true

	case StepEditID:
		pid, ok := parseID(text)
		if !ok {
			return Reply{Text: errIDNumeric, Flow: FlowEdit}, true
		}
		p, err := e.store.GetProduct(ctx, pid)
		if errors.Is(err, inventory.ErrProductNotFound) {
			e.finish(userID, StepEditID)
			return Reply{Text: errEditIDGone, Flow: FlowEdit}, true
		}
		if err != nil {
			e.finish(userID, StepEditID)
			return Reply{Text: errStoreFail, WithMenu: true, Flow: FlowEdit}, true
		}
		e.advance(userID, StepEditID, StepEditMenu, EditDraft{ProductID: p.ID, Name: p.Name})
		return editMenuReply(p.ID, p.Name), true

	case StepEditMenu:
		d := draft[EditDraft](sess)
		return editMenuReply(d.ProductID, d.Name), true

	case StepEditName:
		d := draft[EditDraft](sess)
		name := text
		return e.commitEdit(ctx, userID, StepEditName, d.ProductID,
			inventory.ProductUpdate{Name: &name}, textEditedName), true

	case StepEditExp:
		d := draft[EditDraft](sess)
		exp, ok := parseExpiry(text)
		if !ok {
			return Reply{Text: errEditExp, Flow: FlowEdit}, true
		}
		upd := inventory.ProductUpdate{Expiry: exp, ClearExpiry: exp == nil}
		return e.commitEdit(ctx, userID, StepEditExp, d.ProductID, upd, textEditedExp), true

	case StepEditMin:
		d := draft[EditDraft](sess)
		minq, ok := parseCount(text)
		if !ok {
			return Reply{Text: errEditMin, Flow: FlowEdit}, true
		}
		return e.commitEdit(ctx, userID, StepEditMin, d.ProductID,
			inventory.ProductUpdate{Threshold: &minq}, textEditedMin), true

	case StepSearchQuery:
		rows, err := e.store.SearchProducts(ctx, text)
		e.finish(userID, StepSearchQuery)
		if err != nil {
			return Reply{Text: errStoreFail, WithMenu: true, Flow: FlowSearch}, true
		}
		return Reply{Text: textSearchHeader + FormatProducts(rows), WithMenu: true, Flow: FlowSearch}, true
	}

	// Unknown step in the session; drop it and fall back to the menu.
	e.sessions.Clear(userID)
	return Reply{}, false
}

// HandleDeleteDecision applies the yes/no confirmation of the delete flow.
// Stale clicks (idle session or mismatched product) are ignored.
func (e *Engine) HandleDeleteDecision(ctx context.Context, userID, productID int64, yes bool) Reply {
	defer e.lockOperator(userID)()

	sess := e.sessions.Get(userID)
	d, okDraft := sess.Data.(DeleteDraft)
	if sess.Step != StepDelConfirm || !okDraft {
		return Reply{Ignored: true}
	}
	if yes && d.ProductID != productID {
		return Reply{Ignored: true}
	}
	e.finish(userID, StepDelConfirm)

	if !yes {
		return Reply{Text: textDelCancelled, WithMenu: true, Flow: FlowDelete}
	}
	err := e.store.DeleteProduct(ctx, d.ProductID)
	if errors.Is(err, inventory.ErrProductNotFound) {
		return Reply{Text: errProductGone, WithMenu: true, Flow: FlowDelete}
	}
	if err != nil {
		return Reply{Text: errStoreFail, WithMenu: true, Flow: FlowDelete}
	}
	e.committed(FlowDelete)
	return Reply{Text: textDeleted, WithMenu: true, Committed: true, Flow: FlowDelete}
}

// HandleEditField applies the field choice of the edit flow. Stale clicks are
// ignored.
func (e *Engine) HandleEditField(userID, productID int64, field EditField) Reply {
	defer e.lockOperator(userID)()

	sess := e.sessions.Get(userID)
	d, okDraft := sess.Data.(EditDraft)
	if sess.Step != StepEditMenu || !okDraft || d.ProductID != productID {
		return Reply{Ignored: true}
	}
	d.Field = field
	switch field {
	case EditFieldName:
		e.advance(userID, StepEditMenu, StepEditName, d)
		return Reply{Text: promptEditName, Flow: FlowEdit}
	case EditFieldExpiry:
		e.advance(userID, StepEditMenu, StepEditExp, d)
		return Reply{Text: promptEditExp, Flow: FlowEdit}
	case EditFieldThreshold:
		e.advance(userID, StepEditMenu, StepEditMin, d)
		return Reply{Text: promptEditMin, Flow: FlowEdit}
	}
	return Reply{Ignored: true}
}

// resolveProduct handles the collect-product-id step shared by the movement
// flows: a non-numeric id re-prompts, an unknown id aborts the flow.
func (e *Engine) resolveProduct(
	ctx context.Context,
	userID int64,
	from state.Step,
	text string,
	flow Flow,
	next func(p inventory.Product) (state.Step, any, string),
) (Reply, bool) {
	pid, ok := parseID(text)
	if !ok {
		return Reply{Text: errIDNumeric, Flow: flow}, true
	}
	p, err := e.store.GetProduct(ctx, pid)
	if errors.Is(err, inventory.ErrProductNotFound) {
		e.finish(userID, from)
		return Reply{Text: errIDNotFound, Flow: flow}, true
	}
	if err != nil {
		e.finish(userID, from)
		return Reply{Text: errStoreFail, WithMenu: true, Flow: flow}, true
	}
	to, data, prompt := next(p)
	e.advance(userID, from, to, data)
	return Reply{Text: prompt, Flow: flow}, true
}

// commitDepleting runs the sale commit: re-check stock, apply the movement,
// and re-prompt (without advancing) when stock is insufficient.
func (e *Engine) commitDepleting(
	ctx context.Context,
	userID int64,
	step state.Step,
	productID int64,
	qty int,
	mtype inventory.MovementType,
	comment string,
	flow Flow,
	doneText string,
) Reply {
	_, err := e.store.ApplyMovement(ctx, productID, mtype, qty, comment)
	if errors.Is(err, inventory.ErrInsufficientStock) {
		cur, gerr := e.store.GetProduct(ctx, productID)
		if gerr != nil {
			e.finish(userID, step)
			return Reply{Text: errProductGone, WithMenu: true, Flow: flow}
		}
		return Reply{Text: notEnoughText(cur.Qty), Flow: flow}
	}
	e.finish(userID, step)
	if errors.Is(err, inventory.ErrProductNotFound) {
		return Reply{Text: errProductGone, WithMenu: true, Flow: flow}
	}
	if err != nil {
		return Reply{Text: errStoreFail, WithMenu: true, Flow: flow}
	}
	e.committed(flow)
	return Reply{Text: doneText, WithMenu: true, Committed: true, Flow: flow}
}

func (e *Engine) commitEdit(ctx context.Context, userID int64, step state.Step, productID int64, upd inventory.ProductUpdate, doneText string) Reply {
	err := e.store.UpdateProduct(ctx, productID, upd)
	e.finish(userID, step)
	if errors.Is(err, inventory.ErrProductNotFound) {
		return Reply{Text: errProductGone, WithMenu: true, Flow: FlowEdit}
	}
	if err != nil {
		return Reply{Text: errStoreFail, WithMenu: true, Flow: FlowEdit}
	}
	e.committed(FlowEdit)
	return Reply{Text: doneText, WithMenu: true, Committed: true, Flow: FlowEdit}
}

// advance moves the session from one step to the next only if it is still at
// the expected step, so a concurrently started flow is never overwritten.
func (e *Engine) advance(userID int64, from, to state.Step, data any) bool {
	moved := false
	e.sessions.Update(userID, func(s *state.Session) {
		if s.Step != from {
			return
		}
		s.Step, s.Data, moved = to, data, true
	})
	return moved
}

// finish clears the session only if it is still at the expected step.
func (e *Engine) finish(userID int64, from state.Step) {
	e.sessions.Update(userID, func(s *state.Session) {
		if s.Step != from {
			return
		}
		s.Step, s.Data = state.StepIdle, nil
	})
}

func (e *Engine) committed(flow Flow) {
	if e.OnCommit != nil {
		e.OnCommit(flow)
	}
}

func draft[T any](s state.Session) T {
	d, _ := s.Data.(T)
	return d
}

func notEnoughText(remaining int) string {
	return fmt.Sprintf("⚠️ Қалдық жетпейді. Қоймада %d ғана бар.", remaining)
}

func deleteConfirmReply(id int64, name string) Reply {
	return Reply{
		Text:      fmt.Sprintf("Өшіру керек пе?\nID:%d | %s", id, name),
		Markup:    MarkupDeleteConfirm,
		ProductID: id,
		Flow:      FlowDelete,
	}
}

func editMenuReply(id int64, name string) Reply {
	return Reply{
		Text:      fmt.Sprintf("Таңдаңыз:\nID:%d | %s", id, name),
		Markup:    MarkupEditFields,
		ProductID: id,
		Flow:      FlowEdit,
	}
}
