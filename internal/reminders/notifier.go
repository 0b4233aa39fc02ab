// Package reminders sends day-of-visit reminders to users holding confirmed
// reservations. Delivery goes through Telegram and is rate limited so a busy
// day does not trip the bot API.
package reminders

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers one reminder message to a chat.
type Notifier interface {
	Notify(chatID int64, text string) error
}

// TelegramNotifier sends reminders through a Telegram bot.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramNotifier(token string, debug bool) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	bot.Debug = debug
	return &TelegramNotifier{bot: bot}, nil
}

func (n *TelegramNotifier) Notify(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := n.bot.Send(msg)
	return err
}
