package keyboard

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Menu button labels. Pressing one sends its label as plain text.
const (
	ButtonNew     = "🆕 New conversation"
	ButtonClear   = "🧹 Clear history"
	ButtonHistory = "📜 History"
)

// Builder creates reply keyboards
type Builder struct{}

// NewBuilder creates a keyboard builder
func NewBuilder() *Builder {
	return &Builder{}
}

// MainMenu is shown under the input field for the whole chat
func (b *Builder) MainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonNew),
			tgbotapi.NewKeyboardButton(ButtonClear),
			tgbotapi.NewKeyboardButton(ButtonHistory),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// CommandFor maps a menu button label to the command it stands for.
func CommandFor(text string) (string, bool) {
	switch text {
	case ButtonNew:
		return "new", true
	case ButtonClear:
		return "clear", true
	case ButtonHistory:
		return "history", true
	default:
		return "", false
	}
}
