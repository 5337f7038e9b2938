package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/spotybot/internal/shared"
)

// Button payloads are a one-byte tag followed by the tag's argument.
const (
	tagTransfer       byte = 'T' // T<deviceID>
	tagSeedRecent     byte = 'Q' // Q<limit>
	tagSeedTopTracks  byte = 'W' // W<limit>
	tagSeedTopArtists byte = 'E' // E<limit>
)

// callbackCommand supplies the per-operation failure text for button taps.
var callbackCommand = &Command{Name: "callback", NoDevice: msgNoSession}

func (b *Bot) handleCallback(ctx context.Context, ev Event) error {
	defer func() {
		if ackErr := b.out.AckCallback(ctx, ev.ID); ackErr != nil {
			b.logger.Warn("failed to acknowledge callback", "callback_id", ev.ID, "error", ackErr)
		}
	}()

	if err := b.requireAccount(ctx, ev.Identity); err != nil {
		b.fail(ctx, ev.ChatID, callbackCommand, err)
		return err
	}

	if err := b.dispatchCallback(ctx, ev); err != nil {
		b.fail(ctx, ev.ChatID, callbackCommand, err)
		return err
	}
	return nil
}

func (b *Bot) dispatchCallback(ctx context.Context, ev Event) error {
	if len(ev.Data) == 0 {
		return fmt.Errorf("%w: empty callback payload", shared.ErrInvalidArgument)
	}

	tag, arg := ev.Data[0], ev.Data[1:]
	switch tag {
	case tagTransfer:
		if arg == "" {
			return fmt.Errorf("%w: missing device", shared.ErrInvalidArgument)
		}
		if err := b.player.TransferPlayback(ctx, ev.Identity, arg); err != nil {
			return err
		}
		return b.out.SendText(ctx, ev.ChatID, "Transferred your playback!", "")
	case tagSeedRecent, tagSeedTopTracks, tagSeedTopArtists:
		limit, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: callback limit %q", shared.ErrFormat, arg)
		}
		return b.recommend(ctx, ev.Identity, ev.ChatID, tag, shared.Clamp(limit, 1, maxRecommendations))
	default:
		return fmt.Errorf("%w: unknown callback tag %q", shared.ErrInvalidArgument, tag)
	}
}

// seeds fetches the seed identifiers for the chosen source.
func (b *Bot) seeds(ctx context.Context, identity string, tag byte) (tracks, artists []string, err error) {
	switch tag {
	case tagSeedRecent:
		history, err := b.player.RecentlyPlayed(ctx, identity, seedCount)
		if err != nil {
			return nil, nil, err
		}
		for _, h := range history {
			tracks = append(tracks, h.Track.ID)
		}
	case tagSeedTopTracks:
		top, err := b.player.TopTracks(ctx, identity, seedCount)
		if err != nil {
			return nil, nil, err
		}
		for _, t := range top {
			tracks = append(tracks, t.ID)
		}
	case tagSeedTopArtists:
		top, err := b.player.TopArtists(ctx, identity, seedCount)
		if err != nil {
			return nil, nil, err
		}
		for _, a := range top {
			artists = append(artists, a.ID)
		}
	}
	return tracks, artists, nil
}

// recommend renders limit recommended tracks, queues each one and confirms once all are queued.
func (b *Bot) recommend(ctx context.Context, identity string, chatID int64, tag byte, limit int) error {
	seedTracks, seedArtists, err := b.seeds(ctx, identity, tag)
	if err != nil {
		return err
	}
	if len(seedTracks) == 0 && len(seedArtists) == 0 {
		return b.out.SendText(ctx, chatID, msgNoSeeds, "")
	}

	tracks, err := b.player.Recommendations(ctx, identity, limit, seedTracks, seedArtists)
	if err != nil {
		return err
	}

	for i, t := range tracks {
		if err := b.sendItem(ctx, chatID, recommendationItem(t)); err != nil {
			return err
		}
		if err := b.player.Enqueue(ctx, identity, t.URI); err != nil {
			return err
		}
		if b.pauseEvery > 0 && (i+1)%b.pauseEvery == 0 && i+1 < len(tracks) {
			if err := b.pause(ctx); err != nil {
				return err
			}
		}
	}

	return b.out.SendText(ctx, chatID, msgQueued, "")
}
