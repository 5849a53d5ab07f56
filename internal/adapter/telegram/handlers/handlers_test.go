package handlers_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairguide/internal/adapter/telegram/handlers"
	"repairguide/internal/adapter/telegram/telegramtest"
	"repairguide/internal/repair"
	"repairguide/internal/shared"
)

type fakeInstructor struct {
	calls int
	got   repair.Vehicle
	guide repair.Guide
	err   error
}

func (f *fakeInstructor) Instructions(_ context.Context, v repair.Vehicle) (repair.Guide, error) {
	f.calls++
	f.got = v
	return f.guide, f.err
}

func TestParseRepair(t *testing.T) {
	v, err := handlers.ParseRepair("  2015 Honda  Civic front brake pads ")
	require.NoError(t, err)
	assert.Equal(t, repair.Vehicle{Year: "2015", Make: "Honda", Model: "Civic", Part: "front brake pads"}, v)

	_, err = handlers.ParseRepair("2015 Honda Civic")
	require.ErrorIs(t, err, handlers.ErrUsage)
	assert.True(t, shared.IsValidation(err))
}

func TestGuarded(t *testing.T) {
	for text, want := range map[string]bool{
		"/repair 2015 Honda Civic alternator":           true,
		"/repair@RepairBot 2015 Honda Civic alternator": true,
		"/repair 2015 Honda Civic":                      false,
		"/repair":                                       false,
		"/start":                                        false,
		"/help":                                         false,
		"repair 2015 Honda Civic alternator":            false,
	} {
		assert.Equal(t, want, handlers.Guarded(telegramtest.Message(1, 2, text)), text)
	}
	assert.False(t, handlers.Guarded(nil))
}

func TestHandle_Start(t *testing.T) {
	s := &telegramtest.Sender{}
	h := handlers.New(&fakeInstructor{}, nil)

	h.Handle(context.Background(), s, telegramtest.Message(1, 42, "/start"))

	require.Equal(t, []telegramtest.Sent{{ChatID: 42, Text: handlers.Usage}}, s.Messages())
}

func TestHandle_Repair(t *testing.T) {
	f := &fakeInstructor{guide: repair.Guide{
		Text:    "Tools Required\n* 10mm socket\n  1. Disconnect battery",
		Sources: []repair.Source{{URI: "https://a.example", Title: "Guide A"}, {URI: "https://b.example"}},
	}}
	s := &telegramtest.Sender{}
	h := handlers.New(f, nil)

	h.Handle(context.Background(), s, telegramtest.Message(1, 42, "/repair@RepairBot 2015 Honda Civic alternator"))

	assert.Equal(t, "alternator", f.got.Part)
	assert.Equal(t, []string{
		"Tools Required\n• 10mm socket\n1. Disconnect battery\n\nSources:\n• Guide A - https://a.example\n• https://b.example",
	}, s.Texts())
}

func TestHandle_RepairErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
		want string
		call bool
	}{
		{"too few args", "/repair 2015 Honda", nil, handlers.Usage, false},
		{"no content", "/repair 2015 Honda Civic alternator", shared.ErrNoContent, repair.MsgNoContent, true},
		{"upstream", "/repair 2015 Honda Civic alternator", shared.ErrHTTPStatus, repair.MsgFailed, true},
		{"unknown command", "/fly", nil, handlers.Usage, false},
		{"plain text", "hello", nil, handlers.Usage, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeInstructor{err: tt.err}
			s := &telegramtest.Sender{}
			handlers.New(f, nil).Handle(context.Background(), s, telegramtest.Message(1, 7, tt.text))

			assert.Equal(t, []string{tt.want}, s.Texts())
			assert.Equal(t, tt.call, f.calls == 1)
		})
	}
}

func TestHandle_SendErrorIsLogged(t *testing.T) {
	s := &telegramtest.Sender{Err: errors.New("network down")}
	handlers.New(&fakeInstructor{}, nil).Handle(context.Background(), s, telegramtest.Message(1, 7, "/start"))
	assert.Len(t, s.Messages(), 1)
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"short"}, handlers.Split("short", 10))
	assert.Empty(t, handlers.Split("", 10))
	assert.Equal(t, []string{"line one", "line two"}, handlers.Split("line one\nline two", 12))
	assert.Equal(t, []string{"abcdef", "ghij"}, handlers.Split("abcdefghij", 6))

	long := strings.Repeat("ж", 10) // 2 bytes each
	parts := handlers.Split(long, 5)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p), "part %q", p)
		assert.LessOrEqual(t, len(p), 5)
	}
	assert.Equal(t, long, strings.Join(parts, ""))
}
