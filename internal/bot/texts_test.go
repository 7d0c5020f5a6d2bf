package bot

import (
	"strings"
	"testing"

	"github.com/abenov/qoymabot/internal/inventory"
)

func TestFormatExpiring(t *testing.T) {
	if got := formatExpiring(nil); !strings.Contains(got, "30 күн ішінде мерзімі бітетін тауар жоқ") {
		t.Fatalf("empty = %q", got)
	}

	exp := "2026-02-10"
	rows := []inventory.ExpiringProduct{
		{Product: inventory.Product{ID: 3, Name: "Сүт", Qty: 4, ExpDate: &exp}, DaysLeft: 9},
	}
	got := formatExpiring(rows)
	want := "ID:3 | Сүт — 4 дана — 2026-02-10 (қалды 9 күн)"
	if !strings.Contains(got, want) {
		t.Fatalf("got %q, want line %q", got, want)
	}
}

func TestFormatLowStock(t *testing.T) {
	if got := formatLowStock(nil); !strings.Contains(got, "Аз қалған тауар жоқ") {
		t.Fatalf("empty = %q", got)
	}
	rows := []inventory.Product{{ID: 1, Name: "Нан", Qty: 2, MinQty: 5}}
	if got := formatLowStock(rows); !strings.Contains(got, "ID:1 | Нан — 2 дана (min:5)") {
		t.Fatalf("got %q", got)
	}
}

func TestFormatJournal(t *testing.T) {
	if got := formatJournal(nil); got != "Журнал бос." {
		t.Fatalf("empty = %q", got)
	}
	entries := []inventory.JournalEntry{
		{MovementID: 7, ProductName: "Нан", Type: inventory.MovementOut, Qty: 2, CreatedAt: "2026-02-01 10:00:00", Comment: "Сату"},
		{MovementID: 6, ProductName: "DELETED#4", Type: inventory.MovementIn, Qty: 5, CreatedAt: "2026-01-31 09:00:00"},
	}
	got := formatJournal(entries)
	if !strings.Contains(got, "#7 | OUT | Нан | 2 дана | 2026-02-01 10:00:00 | Сату") {
		t.Fatalf("got %q", got)
	}
	// No trailing comment separator when the comment is empty.
	if !strings.Contains(got, "#6 | IN | DELETED#4 | 5 дана | 2026-01-31 09:00:00\n") {
		t.Fatalf("got %q", got)
	}
}

func TestFormatStats(t *testing.T) {
	got := formatStats(inventory.Stats{Products: 2, TotalQty: 9, Movements: 3})
	for _, want := range []string{"Тауар түрі: 2", "Жалпы саны: 9", "Операциялар (журнал): 3"} {
		if !strings.Contains(got, want) {
			t.Fatalf("stats %q missing %q", got, want)
		}
	}
}

func TestMainMenuLayout(t *testing.T) {
	menu := MainMenu()
	if len(menu.ReplyKeyboard) != 6 {
		t.Fatalf("rows = %d, want 6", len(menu.ReplyKeyboard))
	}
	for i, row := range menu.ReplyKeyboard {
		if len(row) != 2 {
			t.Fatalf("row %d has %d buttons, want 2", i, len(row))
		}
	}
	if menu.ReplyKeyboard[0][0].Text != LabelAdd {
		t.Fatalf("first button = %q", menu.ReplyKeyboard[0][0].Text)
	}
}
