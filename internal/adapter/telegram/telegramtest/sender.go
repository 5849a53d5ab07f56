// Package telegramtest provides a recording telegram.Sender for tests.
package telegramtest

import (
	"context"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sent is one recorded message.
type Sent struct {
	ChatID int64
	Text   string
}

// Sender records every message instead of calling the Bot API.
type Sender struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

// SendMessage implements telegram.Sender.
func (s *Sender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := p.ChatID.(int64)
	s.sent = append(s.sent, Sent{ChatID: id, Text: p.Text})
	if s.Err != nil {
		return nil, s.Err
	}
	return &models.Message{Chat: models.Chat{ID: id}, Text: p.Text}, nil
}

// Messages returns a copy of what was sent so far.
func (s *Sender) Messages() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sent(nil), s.sent...)
}

// Texts returns only the message texts.
func (s *Sender) Texts() []string {
	var out []string
	for _, m := range s.Messages() {
		out = append(out, m.Text)
	}
	return out
}

// Message builds a text update from user in chat.
func Message(user, chat int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		From: &models.User{ID: user},
		Chat: models.Chat{ID: chat},
		Text: text,
	}}
}
