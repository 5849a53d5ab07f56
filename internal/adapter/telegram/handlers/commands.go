// Package handlers implements the bot commands.
package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"repairguide/internal/adapter/telegram"
	"repairguide/internal/repair"
)

// Instructor answers repair questions.
type Instructor interface {
	Instructions(ctx context.Context, v repair.Vehicle) (repair.Guide, error)
}

// Handlers holds command handlers and their dependencies.
type Handlers struct {
	svc Instructor
	log *slog.Logger
}

// New creates Handlers.
func New(svc Instructor, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{svc: svc, log: log}
}

// Handle routes updates to command handlers.
func (h *Handlers) Handle(ctx context.Context, s telegram.Sender, upd *models.Update) {
	msg := upd.Message
	if msg == nil || msg.Text == "" {
		return
	}
	if !strings.HasPrefix(msg.Text, "/") {
		h.send(ctx, s, msg.Chat.ID, Usage)
		return
	}

	cmd, args := command(msg.Text)
	switch cmd {
	case "start", "help":
		h.Start(ctx, s, msg)
	case "repair":
		h.Repair(ctx, s, msg, args)
	default:
		h.send(ctx, s, msg.Chat.ID, Usage)
	}
}

// Guarded reports whether upd is a well-formed /repair request, the only
// command that reaches the model.
func Guarded(upd *models.Update) bool {
	if upd == nil || upd.Message == nil {
		return false
	}
	cmd, args := command(upd.Message.Text)
	if cmd != "repair" {
		return false
	}
	v, err := ParseRepair(args)
	return err == nil && v.Normalize().Validate() == nil
}

func command(text string) (cmd, args string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	cmd, args, _ = strings.Cut(text, " ")
	cmd = strings.TrimPrefix(cmd, "/")
	// "/repair@SomeBot" in group chats
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd, args
}

func (h *Handlers) send(ctx context.Context, s telegram.Sender, chatID int64, text string) {
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.log.WarnContext(ctx, "telegram send failed", slog.Int64("chat", chatID), slog.Any("error", err))
	}
}
