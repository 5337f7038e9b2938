package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotybot/internal/models"
	"github.com/desertthunder/spotybot/internal/services"
	"github.com/desertthunder/spotybot/internal/shared"
)

// Player is the identity-keyed Spotify surface the commands drive.
type Player interface {
	Profile(ctx context.Context, identity string) (*services.SpotifyUser, error)
	NowPlaying(ctx context.Context, identity string) (*services.CurrentlyPlaying, error)
	TopArtists(ctx context.Context, identity string, limit int) ([]services.SpotifyArtist, error)
	TopTracks(ctx context.Context, identity string, limit int) ([]services.SpotifyTrack, error)
	RecentlyPlayed(ctx context.Context, identity string, limit int) ([]services.PlayHistory, error)
	SetVolume(ctx context.Context, identity string, percent int) error
	Pause(ctx context.Context, identity string) error
	Resume(ctx context.Context, identity string) error
	Devices(ctx context.Context, identity string) ([]services.SpotifyDevice, error)
	TransferPlayback(ctx context.Context, identity, deviceID string) error
	Seek(ctx context.Context, identity string, offsetMS int) error
	SkipNext(ctx context.Context, identity string) error
	SkipPrevious(ctx context.Context, identity string) error
	Recommendations(ctx context.Context, identity string, limit int, seedTracks, seedArtists []string) ([]services.SpotifyTrack, error)
	Enqueue(ctx context.Context, identity, trackURI string) error
}

// Accounts answers whether an identity is registered.
type Accounts interface {
	Lookup(ctx context.Context, identity string) (*models.Account, bool, error)
}

// Registrar starts registrations and returns the authorization link to send.
type Registrar interface {
	Begin(ctx context.Context, identity string, chatID int64) (string, error)
}

// CommandRecorder counts handled commands by outcome.
type CommandRecorder interface {
	ObserveCommand(command, outcome string)
}

// EventKind distinguishes typed commands from button taps.
type EventKind int

const (
	EventCommand EventKind = iota
	EventCallback
)

// Event is one inbound chat interaction.
type Event struct {
	Kind     EventKind
	Identity string
	ChatID   int64
	Text     string // command text, for EventCommand
	Data     string // button payload, for EventCallback
	ID       string // callback query ID, for EventCallback
}

// Opts configures a [Bot].
type Opts struct {
	Player     Player
	Accounts   Accounts
	Registrar  Registrar
	Messenger  Messenger
	Metrics    CommandRecorder
	Logger     *log.Logger
	PauseEvery int
	PauseFor   time.Duration
}

// Bot dispatches chat events to command handlers.
type Bot struct {
	player    Player
	accounts  Accounts
	registrar Registrar
	out       Messenger
	metrics   CommandRecorder
	logger    *log.Logger
	commands  *Registry

	pauseEvery int
	pauseFor   time.Duration
	sleep      func(context.Context, time.Duration) error
}

// New creates a Bot with the full command table registered.
func New(opts Opts) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	b := &Bot{
		player:     opts.Player,
		accounts:   opts.Accounts,
		registrar:  opts.Registrar,
		out:        opts.Messenger,
		metrics:    opts.Metrics,
		logger:     logger,
		pauseEvery: opts.PauseEvery,
		pauseFor:   opts.PauseFor,
		sleep:      sleepContext,
	}
	b.commands = b.registerCommands()
	return b
}

// Commands lists the registered commands in help order.
func (b *Bot) Commands() []*Command {
	return b.commands.List()
}

// Handle processes ev to completion. Every failure, including a panic, becomes exactly one reply.
func (b *Bot) Handle(ctx context.Context, ev Event) {
	name := "callback"
	var args []string
	if ev.Kind == EventCommand {
		var ok bool
		if name, args, ok = b.commands.Parse(ev.Text); !ok {
			return
		}
	}

	label := name
	if cmd, ok := b.commands.Get(name); ok {
		label = cmd.Name
	} else if ev.Kind == EventCommand {
		label = "unknown"
	}

	logger := shared.WithLogger(b.logger, "command", label, "identity", ev.Identity)
	start := time.Now()

	var err error
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", "panic", r)
			err = fmt.Errorf("%w: %v", errPanic, r)
			b.reply(ctx, ev.ChatID, msgGeneric)
		}
		b.observe(label, err)
		if err != nil {
			logger.Warn("command failed", "error", err, "elapsed", time.Since(start))
			return
		}
		logger.Info("command handled", "elapsed", time.Since(start))
	}()

	switch ev.Kind {
	case EventCallback:
		err = b.handleCallback(ctx, ev)
	default:
		err = b.handleCommand(ctx, ev, name, args)
	}
}

func (b *Bot) observe(command string, err error) {
	if b.metrics == nil {
		return
	}
	outcome := shared.Outcome(err)
	if errors.Is(err, errPanic) {
		outcome = "panic"
	}
	b.metrics.ObserveCommand(command, outcome)
}

var errPanic = errors.New("handler panicked")

// Request is a parsed command invocation.
type Request struct {
	Command  string
	Identity string
	ChatID   int64
	Args     []string
}

func (b *Bot) handleCommand(ctx context.Context, ev Event, name string, args []string) error {
	cmd, ok := b.commands.Get(name)
	if !ok {
		b.reply(ctx, ev.ChatID, msgUnknown)
		return fmt.Errorf("%w: unknown command %q", shared.ErrInvalidArgument, name)
	}

	req := Request{Command: cmd.Name, Identity: ev.Identity, ChatID: ev.ChatID, Args: args}
	if cmd.RequiresAuth {
		if err := b.requireAccount(ctx, req.Identity); err != nil {
			b.fail(ctx, req.ChatID, cmd, err)
			return err
		}
	}

	if err := cmd.Handler(ctx, req); err != nil {
		b.fail(ctx, req.ChatID, cmd, err)
		return err
	}
	return nil
}

// requireAccount is the registration guard shared by commands and callbacks.
func (b *Bot) requireAccount(ctx context.Context, identity string) error {
	_, ok, err := b.accounts.Lookup(ctx, identity)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrUnregistered, identity)
	}
	return nil
}

// fail sends the single reply describing err.
func (b *Bot) fail(ctx context.Context, chatID int64, cmd *Command, err error) {
	b.reply(ctx, chatID, failureMessage(cmd, err))
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.out.SendText(ctx, chatID, text, ""); err != nil {
		b.logger.Warn("failed to send reply", "chat_id", chatID, "error", err)
	}
}

// failureMessage maps an error class to its user-facing text. NoDevice overrides the message for
// commands that need an active player.
func failureMessage(cmd *Command, err error) string {
	switch {
	case errors.Is(err, shared.ErrUnregistered):
		return msgUnregistered
	case errors.Is(err, shared.ErrFormat), errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument):
		return msgFormat
	case errors.Is(err, shared.ErrAuthFailure):
		return msgAuthFailure
	case errors.Is(err, shared.ErrNoActiveDevice):
		if cmd != nil && cmd.NoDevice != "" {
			return cmd.NoDevice
		}
		return msgNoSession
	case errors.Is(err, shared.ErrRateLimited):
		return msgRateLimited
	default:
		return msgGeneric
	}
}

// pause sleeps between bursts of list items. It returns early when ctx is done.
func (b *Bot) pause(ctx context.Context) error {
	if b.pauseFor <= 0 {
		return nil
	}
	return b.sleep(ctx, b.pauseFor)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
