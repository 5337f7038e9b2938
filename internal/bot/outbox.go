package bot

import (
	"context"

	"github.com/desertthunder/spotybot/internal/models"
	"golang.org/x/time/rate"
)

// Messenger delivers outbound chat messages.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text, parseMode string) error
	SendImage(ctx context.Context, chatID int64, url string) error
	SendAudio(ctx context.Context, chatID int64, url string) error
	SendChoices(ctx context.Context, chatID int64, prompt string, choices []models.Choice) error
	AckCallback(ctx context.Context, callbackID string) error
}

// MessageRecorder counts outbound messages by kind.
type MessageRecorder interface {
	ObserveMessage(kind string)
}

// Outbox throttles a [Messenger] with a token bucket.
//
// Every send waits for a token, so handlers can emit bursts without tracking the transport's ceiling
// themselves. Callback acknowledgements are not messages and bypass the bucket. An Outbox is safe for
// concurrent use.
type Outbox struct {
	next    Messenger
	limiter *rate.Limiter
	metrics MessageRecorder
}

// NewOutbox wraps next with a limiter allowing perSecond messages and bursts of burst. A nil metrics
// recorder disables counting.
func NewOutbox(next Messenger, perSecond float64, burst int, metrics MessageRecorder) *Outbox {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &Outbox{next: next, limiter: rate.NewLimiter(limit, burst), metrics: metrics}
}

func (o *Outbox) wait(ctx context.Context, kind string) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return err
	}
	if o.metrics != nil {
		o.metrics.ObserveMessage(kind)
	}
	return nil
}

// SendText sends text, formatted according to parseMode when it is non-empty.
func (o *Outbox) SendText(ctx context.Context, chatID int64, text, parseMode string) error {
	if err := o.wait(ctx, "text"); err != nil {
		return err
	}
	return o.next.SendText(ctx, chatID, text, parseMode)
}

// SendImage sends the image at url.
func (o *Outbox) SendImage(ctx context.Context, chatID int64, url string) error {
	if err := o.wait(ctx, "photo"); err != nil {
		return err
	}
	return o.next.SendImage(ctx, chatID, url)
}

// SendAudio sends the audio clip at url.
func (o *Outbox) SendAudio(ctx context.Context, chatID int64, url string) error {
	if err := o.wait(ctx, "audio"); err != nil {
		return err
	}
	return o.next.SendAudio(ctx, chatID, url)
}

// SendChoices sends prompt with one inline button per choice.
func (o *Outbox) SendChoices(ctx context.Context, chatID int64, prompt string, choices []models.Choice) error {
	if err := o.wait(ctx, "choices"); err != nil {
		return err
	}
	return o.next.SendChoices(ctx, chatID, prompt, choices)
}

// AckCallback acknowledges a button tap.
func (o *Outbox) AckCallback(ctx context.Context, callbackID string) error {
	return o.next.AckCallback(ctx, callbackID)
}
