package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Noop struct{}

func (Noop) Notify(context.Context, string) error { return nil }

// Sender минимальная часть BotAPI, нужна для подмены в тестах.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram шлёт сообщения в админский чат.
type Telegram struct {
	api    Sender
	chatID int64
}

func NewTelegram(api Sender, chatID int64) *Telegram {
	return &Telegram{api: api, chatID: chatID}
}

func (t *Telegram) Notify(_ context.Context, text string) error {
	_, err := t.api.Send(tgbotapi.NewMessage(t.chatID, text))
	return err
}

// Connect авторизует бота по токену (делает запрос getMe).
func Connect(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(token)
}
