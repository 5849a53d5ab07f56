package telegram_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"

	"repairguide/internal/adapter/telegram"
	"repairguide/internal/adapter/telegram/telegramtest"
)

func TestDispatcher_KeepsChatOrder(t *testing.T) {
	var mu sync.Mutex
	seen := map[int64][]string{}

	d := telegram.NewDispatcher(&telegramtest.Sender{}, 4, func(_ context.Context, _ telegram.Sender, upd *models.Update) {
		mu.Lock()
		defer mu.Unlock()
		seen[upd.Message.Chat.ID] = append(seen[upd.Message.Chat.ID], upd.Message.Text)
	})

	for i := range 50 {
		for _, chat := range []int64{1, -2, 3} {
			d.Dispatch(context.Background(), telegramtest.Message(7, chat, string(rune('a'+i%26))))
		}
	}
	d.Close()

	for _, chat := range []int64{1, -2, 3} {
		got := seen[chat]
		assert.Len(t, got, 50)
		for i, txt := range got {
			assert.Equal(t, string(rune('a'+i%26)), txt)
		}
	}
}

func TestOrigin(t *testing.T) {
	uid, chat := telegram.Origin(telegramtest.Message(5, 9, "x"))
	assert.Equal(t, int64(5), uid)
	assert.Equal(t, int64(9), chat)

	uid, chat = telegram.Origin(&models.Update{CallbackQuery: &models.CallbackQuery{From: models.User{ID: 3}}})
	assert.Equal(t, int64(3), uid)
	assert.Zero(t, chat)

	uid, chat = telegram.Origin(&models.Update{})
	assert.Zero(t, uid)
	assert.Zero(t, chat)
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	var calls int
	d := telegram.NewDispatcher(nil, 1, func(context.Context, telegram.Sender, *models.Update) { calls++ })
	d.Dispatch(context.Background(), telegramtest.Message(1, 1, "a"))
	d.Close()
	d.Close()
	d.Dispatch(context.Background(), telegramtest.Message(1, 1, "b"))
	assert.Equal(t, 1, calls)
}
