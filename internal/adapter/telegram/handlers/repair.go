package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot/models"

	"repairguide/internal/adapter/telegram"
	"repairguide/internal/repair"
	"repairguide/internal/shared"
)

// maxMessageLen is Telegram's limit for a text message.
const maxMessageLen = 4096

// ErrUsage reports /repair arguments that do not name a vehicle and a part.
var ErrUsage = shared.MarkKind(errors.New("usage: /repair <year> <make> <model> <part>"), shared.KindValidation)

// ParseRepair reads "<year> <make> <model> <part…>". The part may span several words.
func ParseRepair(args string) (repair.Vehicle, error) {
	f := strings.Fields(args)
	if len(f) < 4 {
		return repair.Vehicle{}, ErrUsage
	}
	return repair.Vehicle{
		Year:  f[0],
		Make:  f[1],
		Model: f[2],
		Part:  strings.Join(f[3:], " "),
	}, nil
}

// Repair handles /repair command.
func (h *Handlers) Repair(ctx context.Context, s telegram.Sender, msg *models.Message, args string) {
	v, err := ParseRepair(args)
	if err != nil {
		h.send(ctx, s, msg.Chat.ID, Usage)
		return
	}

	g, err := h.svc.Instructions(ctx, v)
	if err != nil {
		h.log.InfoContext(ctx, "repair command failed", slog.Int64("chat", msg.Chat.ID), slog.Any("error", err))
		h.send(ctx, s, msg.Chat.ID, repair.UserMessage(err))
		return
	}

	for _, part := range Split(Reply(g), maxMessageLen) {
		h.send(ctx, s, msg.Chat.ID, part)
	}
}

// Reply renders a guide as plain text followed by its sources.
func Reply(g repair.Guide) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(repair.FormatInstructions(g.Text)))
	if len(g.Sources) > 0 {
		b.WriteString("\n\nSources:")
		for _, src := range g.Sources {
			b.WriteString("\n• ")
			if src.Title != "" {
				b.WriteString(src.Title)
				b.WriteString(" - ")
			}
			b.WriteString(src.URI)
		}
	}
	return b.String()
}

// Split cuts text into pieces of at most limit bytes, preferring line breaks.
func Split(text string, limit int) []string {
	var out []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			// keep runes whole
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
