package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	"repairguide/internal/adapter/telegram"
)

// Usage explains the bot commands.
const Usage = "Send /repair <year> <make> <model> <part> to get the tools list and numbered steps.\n" +
	"Example: /repair 2015 Honda Civic alternator"

// Start handles /start command.
func (h *Handlers) Start(ctx context.Context, s telegram.Sender, msg *models.Message) {
	h.send(ctx, s, msg.Chat.ID, Usage)
}
