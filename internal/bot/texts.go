package bot

import (
	"fmt"
	"strings"

	"github.com/abenov/qoymabot/internal/inventory"
)

const (
	listLimit        = 100
	journalLimit     = 30
	expiryWindowDays = 30
)

const (
	textWelcome = "✅ Қойма есебі жүйесіне қош келдіңіз!"
	textDenied  = "⛔ Бұл ботқа қол жеткізу шектеулі.\n" +
		"Қойма есебі тек уәкілетті пайдаланушыларға арналған."
	textUnsupported = "⚠️ Қате енгізу\n" +
		"Кешіріңіз, енгізілген сұраныс жүйе тарапынан қолдау таппайды.\n\n" +
		"📌 Қойма есебі операцияларын орындау үшін төмендегі мәзір батырмаларын пайдаланыңыз."
	textQueryFailed = "⚠️ Жүйе қатесі. Әрекет орындалмады."
)

func formatExpiring(rows []inventory.ExpiringProduct) string {
	if len(rows) == 0 {
		return fmt.Sprintf("✅ %d күн ішінде мерзімі бітетін тауар жоқ.", expiryWindowDays)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Мерзімі жақын тауарлар (%d күн):\n\n", expiryWindowDays)
	for _, p := range rows {
		exp := ""
		if p.ExpDate != nil {
			exp = *p.ExpDate
		}
		fmt.Fprintf(&b, "ID:%d | %s — %d дана — %s (қалды %d күн)\n", p.ID, p.Name, p.Qty, exp, p.DaysLeft)
	}
	return b.String()
}

func formatLowStock(rows []inventory.Product) string {
	if len(rows) == 0 {
		return "✅ Аз қалған тауар жоқ (немесе min қойылмаған)."
	}
	var b strings.Builder
	b.WriteString("⚠️ Аз қалған тауарлар:\n\n")
	for _, p := range rows {
		fmt.Fprintf(&b, "ID:%d | %s — %d дана (min:%d)\n", p.ID, p.Name, p.Qty, p.MinQty)
	}
	return b.String()
}

func formatJournal(entries []inventory.JournalEntry) string {
	if len(entries) == 0 {
		return "Журнал бос."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 Соңғы операциялар (%d):\n\n", journalLimit)
	for _, e := range entries {
		fmt.Fprintf(&b, "#%d | %s | %s | %d дана | %s", e.MovementID, e.Type, e.ProductName, e.Qty, e.CreatedAt)
		if e.Comment != "" {
			fmt.Fprintf(&b, " | %s", e.Comment)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatStats(st inventory.Stats) string {
	return fmt.Sprintf("📊 Статистика:\n"+
		"• Тауар түрі: %d\n"+
		"• Жалпы саны: %d\n"+
		"• Операциялар (журнал): %d",
		st.Products, st.TotalQty, st.Movements)
}
