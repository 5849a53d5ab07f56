package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot/models"

	"repairguide/internal/adapter/telegram"
)

// Middleware wraps telegram.HandlerFunc.
type Middleware func(telegram.HandlerFunc) telegram.HandlerFunc

// Chain applies middlewares in order: the first one sees the update first.
func Chain(h telegram.HandlerFunc, mws ...Middleware) telegram.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Logging пишет одну строку на обновление и перехватывает панику хендлера,
// чтобы воркер диспетчера продолжал работу.
func Logging(log *slog.Logger) Middleware {
	return func(next telegram.HandlerFunc) telegram.HandlerFunc {
		return func(ctx context.Context, s telegram.Sender, upd *models.Update) {
			uid, chat := telegram.Origin(upd)
			start := time.Now()
			defer func() {
				if r := recover(); r != nil {
					log.ErrorContext(ctx, "telegram handler panicked",
						slog.Int64("user", uid), slog.Int64("chat", chat), slog.String("panic", fmt.Sprint(r)))
					return
				}
				log.DebugContext(ctx, "telegram update",
					slog.Int64("user", uid), slog.Int64("chat", chat), slog.Duration("dur", time.Since(start)))
			}()
			next(ctx, s, upd)
		}
	}
}
