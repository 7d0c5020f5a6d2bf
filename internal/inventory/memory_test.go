package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestApplyMovementAdjustsStock(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p, err := s.CreateProduct(ctx, "Пепси", 5, nil, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.ApplyMovement(ctx, p.ID, MovementIn, 10, "Кіріс"); err != nil {
		t.Fatalf("IN: %v", err)
	}
	if _, err := s.ApplyMovement(ctx, p.ID, MovementOut, 3, "Сату"); err != nil {
		t.Fatalf("OUT: %v", err)
	}

	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Qty != 12 {
		t.Fatalf("qty = %d, want 12", got.Qty)
	}
}

func TestApplyMovementInsufficientStock(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p, _ := s.CreateProduct(ctx, "Сусын", 2, nil, 0)

	_, err := s.ApplyMovement(ctx, p.ID, MovementOut, 3, "Сату")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// Rejected movement must leave stock and journal untouched.
	got, _ := s.GetProduct(ctx, p.ID)
	if got.Qty != 2 {
		t.Fatalf("qty = %d, want 2 after rejected movement", got.Qty)
	}
	st, _ := s.Stats(ctx)
	if st.Movements != 0 {
		t.Fatalf("movements = %d, want 0", st.Movements)
	}
}

func TestApplyMovementUnknownProduct(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.ApplyMovement(context.Background(), 77, MovementIn, 1, "")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
}

func TestJournalReflectsRenameAndDeletion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, _ := s.CreateProduct(ctx, "Нан", 10, nil, 0)
	b, _ := s.CreateProduct(ctx, "Сүт", 10, nil, 0)
	if _, err := s.ApplyMovement(ctx, a.ID, MovementOut, 1, "Сату"); err != nil {
		t.Fatalf("movement a: %v", err)
	}
	if _, err := s.ApplyMovement(ctx, b.ID, MovementOut, 2, "Сату"); err != nil {
		t.Fatalf("movement b: %v", err)
	}

	if err := s.UpdateProduct(ctx, a.ID, ProductUpdate{Name: strPtr("Таба нан")}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := s.DeleteProduct(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	entries, err := s.ListJournal(ctx, 30)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	// Newest first: b's movement, then a's.
	if !strings.HasPrefix(entries[0].ProductName, DeletedNamePrefix) {
		t.Fatalf("deleted product name = %q, want %s placeholder", entries[0].ProductName, DeletedNamePrefix)
	}
	if entries[1].ProductName != "Таба нан" {
		t.Fatalf("renamed product name = %q, want current name", entries[1].ProductName)
	}
}

func TestListExpiringWindowAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ref := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	s.CreateProduct(ctx, "expired", 1, strPtr("2026-01-20"), 0)
	s.CreateProduct(ctx, "soon", 1, strPtr("2026-02-10"), 0)
	s.CreateProduct(ctx, "far", 1, strPtr("2026-06-01"), 0)
	s.CreateProduct(ctx, "undated", 1, nil, 0)
	s.CreateProduct(ctx, "garbled", 1, strPtr("not-a-date"), 0)

	near, err := s.ListExpiring(ctx, ref, 30)
	if err != nil {
		t.Fatalf("expiring: %v", err)
	}
	if len(near) != 2 {
		t.Fatalf("near = %d, want 2", len(near))
	}
	if near[0].Name != "expired" || near[0].DaysLeft != -12 {
		t.Fatalf("first = %s/%d, want expired/-12", near[0].Name, near[0].DaysLeft)
	}
	if near[1].Name != "soon" || near[1].DaysLeft != 9 {
		t.Fatalf("second = %s/%d, want soon/9", near[1].Name, near[1].DaysLeft)
	}
}

func TestListLowStock(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.CreateProduct(ctx, "no threshold", 0, nil, 0)
	s.CreateProduct(ctx, "low", 2, nil, 5)
	s.CreateProduct(ctx, "lower", 1, nil, 5)
	s.CreateProduct(ctx, "plenty", 50, nil, 5)

	list, err := s.ListLowStock(ctx)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Name != "lower" || list[1].Name != "low" {
		t.Fatalf("order = %s,%s, want lower,low", list[0].Name, list[1].Name)
	}
}

func TestListProductsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, name := range []string{"a", "b", "c"} {
		s.CreateProduct(ctx, name, 1, nil, 0)
	}

	list, err := s.ListProducts(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "c" || list[1].Name != "b" {
		t.Fatalf("list = %+v, want c,b", list)
	}
}

func TestSearchProducts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.CreateProduct(ctx, "пепси 0.5", 1, nil, 0)
	s.CreateProduct(ctx, "кола", 1, nil, 0)
	s.CreateProduct(ctx, "пепси 1.5", 1, nil, 0)

	list, err := s.SearchProducts(ctx, "пепси")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(list) != 2 || list[0].Name != "пепси 1.5" {
		t.Fatalf("list = %+v, want пепси 1.5 first", list)
	}
}

func TestUpdateProductPartial(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p, _ := s.CreateProduct(ctx, "Шай", 3, strPtr("2026-05-01"), 2)

	min := 7
	if err := s.UpdateProduct(ctx, p.ID, ProductUpdate{Threshold: &min}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetProduct(ctx, p.ID)
	if got.MinQty != 7 || got.Name != "Шай" || got.ExpDate == nil {
		t.Fatalf("partial update touched other fields: %+v", got)
	}

	if err := s.UpdateProduct(ctx, p.ID, ProductUpdate{ClearExpiry: true}); err != nil {
		t.Fatalf("clear expiry: %v", err)
	}
	got, _ = s.GetProduct(ctx, p.ID)
	if got.ExpDate != nil {
		t.Fatalf("expiry not cleared: %v", *got.ExpDate)
	}

	if err := s.UpdateProduct(ctx, 99, ProductUpdate{Threshold: &min}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, _ := s.CreateProduct(ctx, "a", 4, nil, 0)
	s.CreateProduct(ctx, "b", 6, nil, 0)
	s.ApplyMovement(ctx, a.ID, MovementOut, 1, "Сату")

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Products != 2 || st.TotalQty != 9 || st.Movements != 1 {
		t.Fatalf("stats = %+v, want {2 9 1}", st)
	}
}
