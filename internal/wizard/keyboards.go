package wizard

import (
	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/telegram"
)

const (
	btnNewRepair = "➕ New repair"
	btnDrafts    = "📝 Drafts"
	btnDone      = "Done"
	btnSkip      = "Skip"
)

func mainKeyboard() *telegram.ReplyMarkup {
	return &telegram.ReplyMarkup{
		Keyboard: [][]telegram.ReplyKeyboardButton{
			{{Text: btnNewRepair}},
			{{Text: btnDrafts}},
		},
		ResizeKeyboard: true,
	}
}

func vehicleKeyboard(vehicles []domain.Vehicle) *telegram.ReplyMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(vehicles))
	for _, v := range vehicles {
		label := v.PlateNumber
		if label == "" {
			label = v.Name
		}
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: label, CallbackData: "vehicle:" + v.ID},
		})
	}
	return &telegram.ReplyMarkup{InlineKeyboard: rows}
}

func typeKeyboard() *telegram.ReplyMarkup {
	return &telegram.ReplyMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{
			{Text: "Maintenance", CallbackData: "type:MAINTENANCE"},
			{Text: "Repair", CallbackData: "type:REPAIR"},
		},
	}}
}

func categoryKeyboard() *telegram.ReplyMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(domain.RepairCategoryOrder))
	for _, code := range domain.RepairCategoryOrder {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: domain.RepairCategories[code], CallbackData: "category:" + code},
		})
	}
	return &telegram.ReplyMarkup{InlineKeyboard: rows}
}

func previewKeyboard() *telegram.ReplyMarkup {
	return &telegram.ReplyMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "✅ Submit", CallbackData: "submit"}},
		{{Text: "✏️ Edit", CallbackData: "edit"}},
		{{Text: "🗑 Delete", CallbackData: "delete"}},
	}}
}

func editKeyboard() *telegram.ReplyMarkup {
	return &telegram.ReplyMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{
			{Text: "Vehicle", CallbackData: "edit:vehicle"},
			{Text: "Type", CallbackData: "edit:type"},
		},
		{
			{Text: "Odometer", CallbackData: "edit:odometer"},
			{Text: "Category", CallbackData: "edit:category"},
		},
		{
			{Text: "Symptoms", CallbackData: "edit:symptoms"},
			{Text: "Works", CallbackData: "edit:works"},
		},
		{
			{Text: "Parts", CallbackData: "edit:parts"},
		},
	}}
}

func doneKeyboard() *telegram.ReplyMarkup {
	return &telegram.ReplyMarkup{
		Keyboard:       [][]telegram.ReplyKeyboardButton{{{Text: btnDone}}},
		ResizeKeyboard: true,
	}
}

func skipKeyboard() *telegram.ReplyMarkup {
	return &telegram.ReplyMarkup{
		Keyboard:       [][]telegram.ReplyKeyboardButton{{{Text: btnSkip}}},
		ResizeKeyboard: true,
	}
}

func removeKeyboard() *telegram.ReplyMarkup {
	return &telegram.ReplyMarkup{RemoveKeyboard: true}
}
