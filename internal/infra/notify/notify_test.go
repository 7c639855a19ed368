package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestTelegram_Notify(t *testing.T) {
	s := &fakeSender{}
	n := NewTelegram(s, 777)

	if err := n.Notify(context.Background(), "2 itens adicionados"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(s.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(s.sent))
	}
	msg, ok := s.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected MessageConfig, got %T", s.sent[0])
	}
	if msg.ChatID != 777 || msg.Text != "2 itens adicionados" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestTelegram_NotifyError(t *testing.T) {
	s := &fakeSender{err: errors.New("bot was blocked")}
	if err := NewTelegram(s, 1).Notify(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}
