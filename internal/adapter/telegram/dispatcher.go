// Package telegram runs the repair bot on top of github.com/go-telegram/bot.
package telegram

import (
	"context"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender is the part of *bot.Bot the handlers use.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type ctxUpdate struct {
	ctx context.Context
	upd *models.Update
}

// HandlerFunc processes a single update.
type HandlerFunc func(ctx context.Context, s Sender, upd *models.Update)

// Dispatcher routes updates to worker goroutines keeping chat order.
type Dispatcher struct {
	sender  Sender
	handler HandlerFunc
	workers int
	chans   []chan ctxUpdate
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates dispatcher with given worker count.
func NewDispatcher(s Sender, workers int, h HandlerFunc) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{sender: s, handler: h, workers: workers, chans: make([]chan ctxUpdate, workers)}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		d.chans[i] = make(chan ctxUpdate, 100)
		go d.worker(d.chans[i])
	}
	return d
}

// Dispatch sends update to appropriate worker based on chat ID.
// Updates arriving after Close are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, upd *models.Update) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	_, chatID := Origin(upd)
	idx := 0
	if chatID != 0 {
		idx = int(abs(chatID) % int64(d.workers))
	}
	d.chans[idx] <- ctxUpdate{ctx: ctx, upd: upd}
}

// Close stops accepting updates and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.chans {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(in <-chan ctxUpdate) {
	defer d.wg.Done()
	for item := range in {
		d.handler(item.ctx, d.sender, item.upd)
	}
}

// Origin returns the sender's user ID and the chat ID of an update.
// Either is zero when the update does not carry it.
func Origin(u *models.Update) (userID, chatID int64) {
	if m := u.Message; m != nil {
		if m.From != nil {
			userID = m.From.ID
		}
		return userID, m.Chat.ID
	}
	if cb := u.CallbackQuery; cb != nil {
		userID = cb.From.ID
		if cb.Message.Message != nil {
			chatID = cb.Message.Message.Chat.ID
		}
	}
	return userID, chatID
}

func abs(i int64) int64 {
	if i < 0 {
		return -i
	}
	return i
}
