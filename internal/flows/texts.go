package flows

import (
	"fmt"
	"strings"

	"github.com/abenov/qoymabot/internal/inventory"
)

// Operator-facing texts. Kept verbatim from the deployed bot; the warehouse
// staff reads Kazakh.
const (
	promptAddName = "Тауар атауын енгізіңіз:"
	promptAddQty  = "Санын енгізіңіз (мысалы: 10):"
	promptAddExp  = "Мерзімі (YYYY-MM-DD) немесе '-' деп жіберіңіз:"
	promptAddMin  = "Min саны (аз қалды ескерту үшін). Мысалы 5. Егер керек болмаса 0:"
	errAddQty     = "⚠️ Сан дұрыс емес. Мысалы: 10"
	errAddExp     = "⚠️ Дата форматы қате. Мысалы: 2026-02-17 немесе '-'"
	errAddMin     = "⚠️ Min саны қате. Мысалы: 5 немесе 0"

	promptInID  = "Кіріс болатын тауар ID енгізіңіз:"
	errInQty    = "⚠️ Сан қате. Мысалы: 20"
	promptOutID = "Сатылатын тауар ID енгізіңіз:"
	errOutQty   = "⚠️ Сан қате. Мысалы: 2"

	promptWOID     = "Списание болатын тауар ID енгізіңіз:"
	errWOQty       = "⚠️ Сан қате."
	promptWOReason = "Себебін жазыңыз (мыс: бұзылды/мерзімі өтті):"

	promptDelID      = "Өшіретін тауар ID енгізіңіз:"
	textDeleted      = "✅ Тауар өшірілді."
	textDelCancelled = "Өшіру тоқтатылды."

	promptEditID   = "Өңдейтін тауар ID енгізіңіз:"
	errEditIDGone  = "❌ Ондай тауар жоқ."
	promptEditName = "Жаңа атауын енгізіңіз:"
	promptEditExp  = "Жаңа мерзім (YYYY-MM-DD) немесе '-' :"
	errEditExp     = "⚠️ Формат қате. Мысалы: 2026-03-24 немесе '-'"
	promptEditMin  = "Жаңа min саны (мыс: 5 немесе 0):"
	errEditMin     = "⚠️ Min саны қате."
	textEditedName = "✅ Атауы жаңартылды."
	textEditedExp  = "✅ Мерзім жаңартылды."
	textEditedMin  = "✅ Min саны жаңартылды."

	promptSearch     = "Іздеу сөзін енгізіңіз (мыс: пепси):"
	textSearchHeader = "🔎 Нәтиже:\n\n"

	errIDNumeric   = "⚠️ ID сан болуы керек."
	errIDNotFound  = "❌ Ондай ID табылмады."
	errProductGone = "❌ Тауар табылмады."
	errStoreFail   = "⚠️ Жүйе қатесі. Әрекет орындалмады."

	commentSale   = "Сату"
	commentIncome = "Кіріс"
)

// FormatProducts renders a product listing, one line per catalog entry. Used
// by the search flow and by the list queries.
func FormatProducts(rows []inventory.Product) string {
	if len(rows) == 0 {
		return "Қойма бос."
	}
	var b strings.Builder
	b.WriteString("Қоймадағы тауарлар:\n\n")
	for _, p := range rows {
		exp := "—"
		if p.ExpDate != nil {
			exp = *p.ExpDate
		}
		fmt.Fprintf(&b, "ID:%d | %s — %d дана — %s | min:%d\n", p.ID, p.Name, p.Qty, exp, p.MinQty)
	}
	return b.String()
}
