package telegram

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotybot/internal/bot"
	"github.com/desertthunder/spotybot/internal/models"
	"github.com/desertthunder/spotybot/internal/shared"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	err      error
	updates  chan tgbotapi.Update
	stopped  bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func TestMessenger(t *testing.T) {
	ctx := context.Background()

	t.Run("SendText", func(t *testing.T) {
		api := &fakeAPI{}
		if err := NewMessenger(api).SendText(ctx, 42, "*hi*", tgbotapi.ModeMarkdown); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		msg, ok := api.sent[0].(tgbotapi.MessageConfig)
		if !ok {
			t.Fatalf("expected MessageConfig, got %T", api.sent[0])
		}
		if msg.ChatID != 42 || msg.Text != "*hi*" || msg.ParseMode != tgbotapi.ModeMarkdown {
			t.Errorf("unexpected message %+v", msg)
		}
	})

	t.Run("SendImage", func(t *testing.T) {
		api := &fakeAPI{}
		if err := NewMessenger(api).SendImage(ctx, 42, "https://img/1.jpg"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		photo, ok := api.sent[0].(tgbotapi.PhotoConfig)
		if !ok {
			t.Fatalf("expected PhotoConfig, got %T", api.sent[0])
		}
		if photo.ChatID != 42 || photo.File != tgbotapi.FileURL("https://img/1.jpg") {
			t.Errorf("unexpected photo %+v", photo)
		}
	})

	t.Run("SendAudio", func(t *testing.T) {
		api := &fakeAPI{}
		if err := NewMessenger(api).SendAudio(ctx, 42, "https://p/1.mp3"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, ok := api.sent[0].(tgbotapi.AudioConfig); !ok {
			t.Fatalf("expected AudioConfig, got %T", api.sent[0])
		}
	})

	t.Run("SendChoices", func(t *testing.T) {
		api := &fakeAPI{}
		choices := []models.Choice{{Label: "Song A", Payload: "T1"}, {Label: "Song B", Payload: "T2"}}
		if err := NewMessenger(api).SendChoices(ctx, 42, "Pick one", choices); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		msg := api.sent[0].(tgbotapi.MessageConfig)
		markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		if !ok {
			t.Fatalf("expected inline keyboard, got %T", msg.ReplyMarkup)
		}
		if len(markup.InlineKeyboard) != 2 {
			t.Fatalf("expected one row per choice, got %d", len(markup.InlineKeyboard))
		}
		button := markup.InlineKeyboard[1][0]
		if button.Text != "Song B" || button.CallbackData == nil || *button.CallbackData != "T2" {
			t.Errorf("unexpected button %+v", button)
		}
	})

	t.Run("AckCallback", func(t *testing.T) {
		api := &fakeAPI{}
		if err := NewMessenger(api).AckCallback(ctx, "cb-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ack, ok := api.requests[0].(tgbotapi.CallbackConfig)
		if !ok || ack.CallbackQueryID != "cb-1" {
			t.Errorf("unexpected request %+v", api.requests[0])
		}
	})

	t.Run("wraps transport errors", func(t *testing.T) {
		boom := errors.New("boom")
		api := &fakeAPI{err: boom}
		if err := NewMessenger(api).SendText(ctx, 42, "hi", ""); !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})

	t.Run("cancelled context sends nothing", func(t *testing.T) {
		api := &fakeAPI{}
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		if err := NewMessenger(api).SendText(cancelled, 42, "hi", ""); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(api.sent) != 0 {
			t.Error("expected no send")
		}
	})
}

func TestToEvent(t *testing.T) {
	alice := &tgbotapi.User{ID: 7, UserName: "alice"}
	anonymous := &tgbotapi.User{ID: 9}
	chat := &tgbotapi.Chat{ID: 42}

	tests := []struct {
		name   string
		update tgbotapi.Update
		want   bot.Event
		ok     bool
	}{
		{
			name:   "command message",
			update: tgbotapi.Update{Message: &tgbotapi.Message{From: alice, Chat: chat, Text: "/top 3"}},
			want:   bot.Event{Kind: bot.EventCommand, Identity: "alice", ChatID: 42, Text: "/top 3"},
			ok:     true,
		},
		{
			name:   "user without username",
			update: tgbotapi.Update{Message: &tgbotapi.Message{From: anonymous, Chat: chat, Text: "/help"}},
			want:   bot.Event{Kind: bot.EventCommand, Identity: "id:9", ChatID: 42, Text: "/help"},
			ok:     true,
		},
		{
			name: "button tap",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID: "cb", From: alice, Data: "T1", Message: &tgbotapi.Message{Chat: chat},
			}},
			want: bot.Event{Kind: bot.EventCallback, Identity: "alice", ChatID: 42, Data: "T1", ID: "cb"},
			ok:   true,
		},
		{
			name:   "button tap without message",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{ID: "cb", From: alice, Data: "Q5"}},
			want:   bot.Event{Kind: bot.EventCallback, Identity: "alice", ChatID: 7, Data: "Q5", ID: "cb"},
			ok:     true,
		},
		{
			name:   "sticker",
			update: tgbotapi.Update{Message: &tgbotapi.Message{From: alice, Chat: chat}},
		},
		{
			name:   "channel post",
			update: tgbotapi.Update{ChannelPost: &tgbotapi.Message{Chat: chat, Text: "/help"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toEvent(tt.update)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestBotCommands(t *testing.T) {
	commands := []*bot.Command{
		{Name: "topTracks", Description: "Your top tracks"},
		{Name: "help"},
		{Name: "TopTracks", Description: "duplicate"},
		{Name: "!!"},
	}

	got := botCommands(commands)
	if len(got) != 2 {
		t.Fatalf("expected 2 commands, got %+v", got)
	}
	if got[0].Command != "help" || got[0].Description != "help" {
		t.Errorf("unexpected first command %+v", got[0])
	}
	if got[1].Command != "toptracks" || got[1].Description != "Your top tracks" {
		t.Errorf("unexpected second command %+v", got[1])
	}
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []bot.Event
	done   chan struct{}
	want   int
}

func (d *recordingDispatcher) Handle(ctx context.Context, ev bot.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		panic("expected a handler deadline")
	}
	d.events = append(d.events, ev)
	if len(d.events) == d.want {
		close(d.done)
	}
}

func TestPoller(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 3)}
	dispatcher := &recordingDispatcher{done: make(chan struct{}), want: 2}
	poller := NewPoller(api, dispatcher, PollerOpts{
		Commands:       []*bot.Command{{Name: "help", Description: "Show help"}},
		PollTimeout:    1,
		HandlerTimeout: time.Second,
		Logger:         shared.NewLogger(io.Discard),
	})

	user := &tgbotapi.User{UserName: "alice"}
	chat := &tgbotapi.Chat{ID: 1}
	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{From: user, Chat: chat, Text: "/help"}}
	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{From: user, Chat: chat}}
	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{From: user, Chat: chat, Text: "/now"}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	select {
	case <-dispatcher.done:
	case <-time.After(5 * time.Second):
		t.Fatal("updates were not dispatched")
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if dispatcher.events[0].Text != "/help" || dispatcher.events[1].Text != "/now" {
		t.Errorf("expected events in arrival order, got %+v", dispatcher.events)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.stopped {
		t.Error("expected polling to stop")
	}
	if _, ok := api.requests[0].(tgbotapi.SetMyCommandsConfig); !ok {
		t.Errorf("expected command sync, got %T", api.requests[0])
	}
}
