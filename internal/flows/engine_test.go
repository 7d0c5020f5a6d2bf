package flows

import (
	"context"
	"strings"
	"testing"

	"github.com/abenov/qoymabot/core/telegram/state"
	"github.com/abenov/qoymabot/internal/inventory"
)

func newTestEngine() (*Engine, *inventory.MemoryStore) {
	store := inventory.NewMemoryStore()
	return NewEngine(state.NewMemoryManager(), store), store
}

func feed(t *testing.T, e *Engine, uid int64, inputs ...string) Reply {
	t.Helper()
	var last Reply
	for _, in := range inputs {
		r, ok := e.HandleText(context.Background(), uid, in)
		if !ok {
			t.Fatalf("input %q not consumed, no flow in progress", in)
		}
		last = r
	}
	return last
}

func TestAddFlowCreatesProduct(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)

	r := e.Start(uid, FlowAdd)
	if r.Text != "Тауар атауын енгізіңіз:" {
		t.Fatalf("start prompt = %q", r.Text)
	}

	r = feed(t, e, uid, "Cola", "10", "-", "0")
	if !r.Committed || !r.WithMenu {
		t.Fatalf("final reply = %+v, want committed with menu", r)
	}
	if e.InProgress(uid) {
		t.Fatalf("session not cleared after commit")
	}

	p, err := store.GetProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Name != "Cola" || p.Qty != 10 || p.ExpDate != nil || p.MinQty != 0 {
		t.Fatalf("product = %+v, want Cola/10/nil/0", p)
	}
}

func TestAddFlowReprompsOnInvalidInput(t *testing.T) {
	e, _ := newTestEngine()
	const uid = int64(1)

	e.Start(uid, FlowAdd)
	feed(t, e, uid, "Cola")

	r := feed(t, e, uid, "ten")
	if !strings.Contains(r.Text, "Сан дұрыс емес") {
		t.Fatalf("invalid qty reply = %q", r.Text)
	}
	if cur := feed(t, e, uid, "10"); cur.Text != "Мерзімі (YYYY-MM-DD) немесе '-' деп жіберіңіз:" {
		t.Fatalf("qty accepted reply = %q", cur.Text)
	}

	r = feed(t, e, uid, "17-02-2026")
	if !strings.Contains(r.Text, "Дата форматы қате") {
		t.Fatalf("invalid date reply = %q", r.Text)
	}
}

func TestSaleRejectedOnInsufficientStock(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	p, _ := store.CreateProduct(ctx, "Cola", 10, nil, 0)

	e.Start(uid, FlowSale)
	r := feed(t, e, uid, "1", "15")
	if !strings.Contains(r.Text, "Қалдық жетпейді") {
		t.Fatalf("reply = %q, want insufficient stock", r.Text)
	}
	if r.Committed {
		t.Fatalf("rejected sale marked committed")
	}
	// Still at the quantity step: the flow re-prompts without advancing.
	if !e.InProgress(uid) {
		t.Fatalf("flow aborted instead of re-prompting")
	}

	got, _ := store.GetProduct(ctx, p.ID)
	if got.Qty != 10 {
		t.Fatalf("qty = %d, want 10", got.Qty)
	}
	st, _ := store.Stats(ctx)
	if st.Movements != 0 {
		t.Fatalf("movements = %d, want 0", st.Movements)
	}
}

func TestSaleCommitsMovement(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	p, _ := store.CreateProduct(ctx, "Cola", 10, nil, 0)

	var commits []Flow
	e.OnCommit = func(f Flow) { commits = append(commits, f) }

	e.Start(uid, FlowSale)
	r := feed(t, e, uid, "1", "4")
	if !r.Committed {
		t.Fatalf("reply = %+v, want committed", r)
	}

	got, _ := store.GetProduct(ctx, p.ID)
	if got.Qty != 6 {
		t.Fatalf("qty = %d, want 6", got.Qty)
	}
	journal, _ := store.ListJournal(ctx, 10)
	if len(journal) != 1 || journal[0].Type != inventory.MovementOut || journal[0].Qty != 4 {
		t.Fatalf("journal = %+v, want one OUT/4", journal)
	}
	if journal[0].Comment != "Сату" {
		t.Fatalf("comment = %q, want Сату", journal[0].Comment)
	}
	if len(commits) != 1 || commits[0] != FlowSale {
		t.Fatalf("commits = %v, want [sale]", commits)
	}
}

func TestIncomeFlow(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	store.CreateProduct(ctx, "Нан", 3, nil, 0)

	e.Start(uid, FlowIncome)
	r := feed(t, e, uid, "1", "20")
	if !r.Committed || !strings.Contains(r.Text, "+20 дана") {
		t.Fatalf("reply = %+v", r)
	}
	got, _ := store.GetProduct(ctx, 1)
	if got.Qty != 23 {
		t.Fatalf("qty = %d, want 23", got.Qty)
	}
}

func TestWriteOffFlowCollectsReason(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	store.CreateProduct(ctx, "Сүт", 5, nil, 0)

	e.Start(uid, FlowWriteOff)
	r := feed(t, e, uid, "1", "2")
	if r.Text != "Себебін жазыңыз (мыс: бұзылды/мерзімі өтті):" {
		t.Fatalf("reason prompt = %q", r.Text)
	}
	r = feed(t, e, uid, "мерзімі өтті")
	if !r.Committed || !strings.Contains(r.Text, "Себеп: мерзімі өтті") {
		t.Fatalf("reply = %+v", r)
	}

	journal, _ := store.ListJournal(ctx, 10)
	if len(journal) != 1 || journal[0].Type != inventory.MovementWriteOff || journal[0].Comment != "мерзімі өтті" {
		t.Fatalf("journal = %+v", journal)
	}
}

func TestMidFlowNotFoundAborts(t *testing.T) {
	e, _ := newTestEngine()
	const uid = int64(1)

	e.Start(uid, FlowSale)
	r := feed(t, e, uid, "77")
	if r.Text != "❌ Ондай ID табылмады." {
		t.Fatalf("reply = %q", r.Text)
	}
	if e.InProgress(uid) {
		t.Fatalf("session not cleared after unknown id")
	}
}

func TestFlowIsolationLastStartWins(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()

	e.Start(uid, FlowAdd)
	feed(t, e, uid, "Cola", "10")

	// Starting a new flow mid-add discards the collected fields.
	e.Start(uid, FlowSearch)
	feed(t, e, uid, "cola")

	st, _ := store.Stats(ctx)
	if st.Products != 0 {
		t.Fatalf("products = %d, partial add draft was committed", st.Products)
	}
	if e.InProgress(uid) {
		t.Fatalf("search flow did not clear")
	}
}

func TestDeleteFlowConfirmAndIdempotence(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	p, _ := store.CreateProduct(ctx, "Cola", 1, nil, 0)
	store.ApplyMovement(ctx, p.ID, inventory.MovementOut, 1, "Сату")

	e.Start(uid, FlowDelete)
	r := feed(t, e, uid, "1")
	if r.Markup != MarkupDeleteConfirm || r.ProductID != p.ID {
		t.Fatalf("reply = %+v, want delete confirmation markup", r)
	}

	// Free text during confirmation re-asks the question.
	r = feed(t, e, uid, "иә")
	if r.Markup != MarkupDeleteConfirm {
		t.Fatalf("text during confirm = %+v", r)
	}

	r = e.HandleDeleteDecision(ctx, uid, p.ID, true)
	if !r.Committed || r.Text != "✅ Тауар өшірілді." {
		t.Fatalf("confirm reply = %+v", r)
	}
	if _, err := store.GetProduct(ctx, p.ID); err == nil {
		t.Fatalf("product not deleted")
	}
	// History survives deletion with a placeholder name.
	journal, _ := store.ListJournal(ctx, 10)
	if len(journal) != 1 || !strings.HasPrefix(journal[0].ProductName, inventory.DeletedNamePrefix) {
		t.Fatalf("journal = %+v", journal)
	}

	// Re-sent confirmation on the cleared session is a no-op.
	r = e.HandleDeleteDecision(ctx, uid, p.ID, true)
	if !r.Ignored {
		t.Fatalf("stale confirm reply = %+v, want ignored", r)
	}
}

func TestDeleteCancel(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	p, _ := store.CreateProduct(ctx, "Cola", 1, nil, 0)

	e.Start(uid, FlowDelete)
	feed(t, e, uid, "1")
	r := e.HandleDeleteDecision(ctx, uid, 0, false)
	if r.Text != "Өшіру тоқтатылды." || r.Committed {
		t.Fatalf("cancel reply = %+v", r)
	}
	if _, err := store.GetProduct(ctx, p.ID); err != nil {
		t.Fatalf("product deleted on cancel: %v", err)
	}
}

func TestEditFlowFieldChoice(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	p, _ := store.CreateProduct(ctx, "Cola", 1, nil, 0)

	e.Start(uid, FlowEdit)
	r := feed(t, e, uid, "1")
	if r.Markup != MarkupEditFields || r.ProductID != p.ID {
		t.Fatalf("reply = %+v, want edit field markup", r)
	}

	r = e.HandleEditField(uid, p.ID, EditFieldThreshold)
	if r.Text != "Жаңа min саны (мыс: 5 немесе 0):" {
		t.Fatalf("field prompt = %q", r.Text)
	}
	r = feed(t, e, uid, "5")
	if !r.Committed || r.Text != "✅ Min саны жаңартылды." {
		t.Fatalf("commit reply = %+v", r)
	}
	got, _ := store.GetProduct(ctx, p.ID)
	if got.MinQty != 5 {
		t.Fatalf("min = %d, want 5", got.MinQty)
	}

	// Stale field click after the session cleared is ignored.
	r = e.HandleEditField(uid, p.ID, EditFieldName)
	if !r.Ignored {
		t.Fatalf("stale field click = %+v, want ignored", r)
	}
}

func TestEditExpiryClearedWithDash(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	exp := "2026-05-01"
	p, _ := store.CreateProduct(ctx, "Cola", 1, &exp, 0)

	e.Start(uid, FlowEdit)
	feed(t, e, uid, "1")
	e.HandleEditField(uid, p.ID, EditFieldExpiry)
	r := feed(t, e, uid, "-")
	if !r.Committed {
		t.Fatalf("reply = %+v", r)
	}
	got, _ := store.GetProduct(ctx, p.ID)
	if got.ExpDate != nil {
		t.Fatalf("expiry not cleared: %v", *got.ExpDate)
	}
}

func TestSearchFlowRendersResults(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	store.CreateProduct(ctx, "пепси 0.5", 4, nil, 0)
	store.CreateProduct(ctx, "кола", 2, nil, 0)

	e.Start(uid, FlowSearch)
	r := feed(t, e, uid, "пепси")
	if !strings.HasPrefix(r.Text, "🔎 Нәтиже:") || !strings.Contains(r.Text, "пепси 0.5") {
		t.Fatalf("reply = %q", r.Text)
	}
	if strings.Contains(r.Text, "кола") {
		t.Fatalf("unmatched product leaked into results: %q", r.Text)
	}

	e.Start(uid, FlowSearch)
	r = feed(t, e, uid, "жоқзат")
	if !strings.Contains(r.Text, "Қойма бос.") {
		t.Fatalf("empty result reply = %q", r.Text)
	}
}

func TestIdleTextNotConsumed(t *testing.T) {
	e, _ := newTestEngine()
	if _, ok := e.HandleText(context.Background(), 1, "салем"); ok {
		t.Fatalf("idle text consumed by engine")
	}
}

// gatedStore parks CreateProduct between a ready signal and a release, so a
// test can overlap a second event while the first is mid-commit.
type gatedStore struct {
	inventory.Store
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) CreateProduct(ctx context.Context, name string, qty int, expDate *string, minQty int) (inventory.Product, error) {
	s.entered <- struct{}{}
	<-s.release
	return s.Store.CreateProduct(ctx, name, qty, expDate, minQty)
}

func TestOverlappingTerminalStepCommitsOnce(t *testing.T) {
	mem := inventory.NewMemoryStore()
	gate := &gatedStore{Store: mem, entered: make(chan struct{}, 2), release: make(chan struct{})}
	e := NewEngine(state.NewMemoryManager(), gate)
	const uid = int64(1)
	ctx := context.Background()

	e.Start(uid, FlowAdd)
	feed(t, e, uid, "Cola", "10", "-")

	// Two messages for the final step arrive at once. One commits; the other
	// must find the session gone and fall through to the idle path.
	type outcome struct {
		r  Reply
		ok bool
	}
	results := make(chan outcome, 2)
	for _, in := range []string{"0", "5"} {
		go func(in string) {
			r, ok := e.HandleText(ctx, uid, in)
			results <- outcome{r, ok}
		}(in)
	}

	<-gate.entered
	close(gate.release)

	var committed, idle int
	for i := 0; i < 2; i++ {
		res := <-results
		switch {
		case res.ok && res.r.Committed:
			committed++
		case !res.ok:
			idle++
		}
	}
	if committed != 1 || idle != 1 {
		t.Fatalf("committed=%d idle=%d, want exactly one commit", committed, idle)
	}
	select {
	case <-gate.entered:
		t.Fatalf("store reached twice for a single add flow")
	default:
	}

	st, _ := mem.Stats(ctx)
	if st.Products != 1 {
		t.Fatalf("products = %d, want 1", st.Products)
	}
	if e.InProgress(uid) {
		t.Fatalf("session not cleared after commit")
	}
}

func TestOverlappingDeleteConfirmDeletesOnce(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	p, _ := store.CreateProduct(ctx, "Cola", 1, nil, 0)

	e.Start(uid, FlowDelete)
	feed(t, e, uid, "1")

	// A double-tapped confirmation button: both callbacks race the same
	// confirm step.
	results := make(chan Reply, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- e.HandleDeleteDecision(ctx, uid, p.ID, true)
		}()
	}

	var committed, ignored int
	for i := 0; i < 2; i++ {
		r := <-results
		switch {
		case r.Committed:
			committed++
		case r.Ignored:
			ignored++
		}
	}
	if committed != 1 || ignored != 1 {
		t.Fatalf("committed=%d ignored=%d, want one delete and one no-op", committed, ignored)
	}
}

func TestNegativeIDReprompts(t *testing.T) {
	e, store := newTestEngine()
	const uid = int64(1)
	ctx := context.Background()
	store.CreateProduct(ctx, "Cola", 3, nil, 0)

	e.Start(uid, FlowSale)
	r := feed(t, e, uid, "-5")
	if r.Text != errIDNumeric {
		t.Fatalf("negative id reply = %q, want re-prompt", r.Text)
	}
	if !e.InProgress(uid) {
		t.Fatalf("flow aborted on negative id")
	}

	// The flow is still alive and accepts a valid id.
	r = feed(t, e, uid, "1", "2")
	if !r.Committed {
		t.Fatalf("reply after re-prompt = %+v, want committed", r)
	}
}
