package bot

import (
	"strconv"

	"github.com/abenov/qoymabot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Menu button labels. The warehouse staff knows these by heart; do not
// reword them.
const (
	LabelAdd      = "➕ Тауар қосу"
	LabelList     = "📦 Қойма тізімі"
	LabelDelete   = "❌ Тауар өшіру"
	LabelExpiry   = "⏰ Мерзім тексеру"
	LabelSale     = "➖ Сату тіркеу"
	LabelStats    = "📊 Статистика"
	LabelIncome   = "➕ Кіріс тіркеу"
	LabelWriteOff = "🗑️ Списание"
	LabelSearch   = "🔎 Іздеу"
	LabelEdit     = "✏️ Тауар өңдеу"
	LabelLowStock = "⚠️ Аз қалды"
	LabelJournal  = "🧾 Журнал"
)

// Callback keys for inline buttons.
const (
	cbDelYes   = "inv_del_yes"
	cbDelNo    = "inv_del_no"
	cbEditName = "inv_edit_name"
	cbEditExp  = "inv_edit_exp"
	cbEditMin  = "inv_edit_min"
)

func menuLabels() []string {
	return []string{
		LabelAdd, LabelList,
		LabelDelete, LabelExpiry,
		LabelSale, LabelStats,
		LabelIncome, LabelWriteOff,
		LabelSearch, LabelEdit,
		LabelLowStock, LabelJournal,
	}
}

// MainMenu is the persistent reply keyboard, two buttons per row.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtonsNPerRow(menuLabels(), 2)
}

func deleteConfirmMarkup(productID int64) *tele.ReplyMarkup {
	pid := strconv.FormatInt(productID, 10)
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Иә, өшірем", Unique: cbDelYes, Data: pid},
		{Text: "❌ Жоқ", Unique: cbDelNo, Data: pid},
	})
}

func editFieldsMarkup(productID int64) *tele.ReplyMarkup {
	pid := strconv.FormatInt(productID, 10)
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "📝 Атауын өзгерту", Unique: cbEditName, Data: pid},
		{Text: "⏰ Мерзімін өзгерту", Unique: cbEditExp, Data: pid},
		{Text: "⚠️ Min санын өзгерту", Unique: cbEditMin, Data: pid},
	})
}
