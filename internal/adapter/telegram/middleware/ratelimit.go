package middleware

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"repairguide/internal/adapter/telegram"
	"repairguide/internal/platform/ratelimit"
	"repairguide/internal/repair"
)

// Ответы пользователю, которого остановил лимитер.
const (
	MsgBusy    = repair.MsgBusy
	MsgTooSoon = repair.MsgTooSoon
)

// RateLimiter допускает не более одного запроса пользователя одновременно
// и не чаще интервала лимитера.
type RateLimiter struct {
	l     *ratelimit.Limiter
	match func(*models.Update) bool
}

// NewRateLimiter оборачивает общий лимитер. Лимит применяется только к
// обновлениям, для которых match возвращает true; nil ограничивает все.
func NewRateLimiter(l *ratelimit.Limiter, match func(*models.Update) bool) *RateLimiter {
	return &RateLimiter{l: l, match: match}
}

// Middleware checks rate limit before calling next handler.
func (r *RateLimiter) Middleware(next telegram.HandlerFunc) telegram.HandlerFunc {
	return func(ctx context.Context, s telegram.Sender, upd *models.Update) {
		uid, chat := telegram.Origin(upd)
		if uid == 0 || (r.match != nil && !r.match(upd)) {
			next(ctx, s, upd)
			return
		}
		release, err := r.l.Acquire("tg:" + strconv.FormatInt(uid, 10))
		if err != nil {
			if chat != 0 {
				_, _ = s.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chat,
					Text:   repair.GuardMessage(err),
				})
			}
			return
		}
		defer release()
		next(ctx, s, upd)
	}
}
