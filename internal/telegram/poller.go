package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotybot/internal/bot"
	"github.com/desertthunder/spotybot/internal/shared"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Dial connects to the Bot API with token.
//
// The HTTP timeout stays above the long-poll timeout so idle polls are not cut off.
func Dial(token string, pollTimeout int) (*tgbotapi.BotAPI, error) {
	client := &http.Client{Timeout: time.Duration(pollTimeout+25) * time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return api, nil
}

// Updater is the subset of [tgbotapi.BotAPI] used to receive updates.
type Updater interface {
	API
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Dispatcher handles one chat event to completion.
type Dispatcher interface {
	Handle(ctx context.Context, ev bot.Event)
}

// PollerOpts configures a [Poller].
type PollerOpts struct {
	Commands       []*bot.Command // published as the client's slash command menu
	PollTimeout    int            // seconds
	HandlerTimeout time.Duration
	Logger         *log.Logger
}

// Poller receives updates by long polling and dispatches them sequentially.
type Poller struct {
	api            Updater
	dispatcher     Dispatcher
	commands       []*bot.Command
	pollTimeout    int
	handlerTimeout time.Duration
	logger         *log.Logger
}

// NewPoller creates a [Poller].
func NewPoller(api Updater, dispatcher Dispatcher, opts PollerOpts) *Poller {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	handlerTimeout := opts.HandlerTimeout
	if handlerTimeout <= 0 {
		handlerTimeout = 2 * time.Minute
	}
	return &Poller{
		api:            api,
		dispatcher:     dispatcher,
		commands:       opts.Commands,
		pollTimeout:    opts.PollTimeout,
		handlerTimeout: handlerTimeout,
		logger:         logger,
	}
}

// Run polls until ctx is done. Events are handled one at a time in arrival order.
func (p *Poller) Run(ctx context.Context) error {
	p.syncCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.pollTimeout
	updates := p.api.GetUpdatesChan(u)
	defer p.api.StopReceivingUpdates()

	p.logger.Info("polling telegram for updates")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("telegram poller stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.dispatch(ctx, update)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, update tgbotapi.Update) {
	ev, ok := toEvent(update)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.handlerTimeout)
	defer cancel()
	p.dispatcher.Handle(ctx, ev)
}

// toEvent converts an update into a bot event. Updates the bot does not act on report false.
func toEvent(update tgbotapi.Update) (bot.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.From == nil {
			return bot.Event{}, false
		}
		chatID := cq.From.ID
		if cq.Message != nil && cq.Message.Chat != nil {
			chatID = cq.Message.Chat.ID
		}
		return bot.Event{
			Kind:     bot.EventCallback,
			Identity: identity(cq.From),
			ChatID:   chatID,
			Data:     cq.Data,
			ID:       cq.ID,
		}, true

	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
			return bot.Event{}, false
		}
		return bot.Event{
			Kind:     bot.EventCommand,
			Identity: identity(msg.From),
			ChatID:   msg.Chat.ID,
			Text:     msg.Text,
		}, true
	}
	return bot.Event{}, false
}

func identity(user *tgbotapi.User) string {
	if user.UserName != "" {
		return user.UserName
	}
	return fmt.Sprintf("id:%d", user.ID)
}

func (p *Poller) syncCommands() {
	cmds := botCommands(p.commands)
	if len(cmds) == 0 {
		return
	}

	if _, err := p.api.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		p.logger.Warn("failed to sync telegram slash commands", "error", err)
		return
	}
	p.logger.Info("synced telegram slash commands", "count", len(cmds))
}

// botCommands converts the command table into the client menu, which only accepts lowercase names.
func botCommands(commands []*bot.Command) []tgbotapi.BotCommand {
	out := make([]tgbotapi.BotCommand, 0, len(commands))
	seen := make(map[string]struct{})

	for _, cmd := range commands {
		name := commandName(cmd.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		desc := strings.TrimSpace(cmd.Description)
		if desc == "" {
			desc = cmd.Name
		}
		if len(desc) > 256 {
			desc = desc[:256]
		}
		out = append(out, tgbotapi.BotCommand{Command: name, Description: desc})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	if len(out) > 100 {
		out = out[:100]
	}
	return out
}

func commandName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/")) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
		if b.Len() == 32 {
			break
		}
	}
	return b.String()
}
