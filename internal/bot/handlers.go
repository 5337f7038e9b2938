package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/spotybot/internal/models"
	"github.com/desertthunder/spotybot/internal/services"
	"github.com/desertthunder/spotybot/internal/shared"
)

func (b *Bot) registerCommands() *Registry {
	r := NewRegistry()
	for _, cmd := range []*Command{
		{Name: "start", Description: "Say hello", Handler: b.start},
		{Name: "help", Description: "See complete list of my commands", Handler: b.help},
		{Name: "register", Description: "Let me access your Spotify data", Handler: b.register},
		{Name: "getMe", Description: "Basic information about your account", RequiresAuth: true, Handler: b.getMe},
		{Name: "currentTrack", Description: "The track playing right now", RequiresAuth: true, Handler: b.currentTrack},
		{Name: "topArtists", Usage: "[limit]", Description: "Your top artists", RequiresAuth: true, Handler: b.topArtists},
		{Name: "topTracks", Usage: "[limit]", Description: "Your top tracks", RequiresAuth: true, Handler: b.topTracks},
		{Name: "recentlyPlayedTracks", Usage: "[limit]", Description: "Your last played tracks", RequiresAuth: true, Handler: b.recentlyPlayed},
		{Name: "setVolume", Usage: "<0-100>", Description: "Set the playback volume", RequiresAuth: true, NoDevice: msgNoSession, Handler: b.setVolume},
		{Name: "pause", Description: "Pause your playback", RequiresAuth: true, NoDevice: msgNotListening, Handler: b.pausePlayback},
		{Name: "resume", Description: "Resume your playback", RequiresAuth: true, NoDevice: msgCannotResume, Handler: b.resume},
		{Name: "myDevices", Description: "List your Spotify devices", RequiresAuth: true, Handler: b.myDevices},
		{Name: "transferPlayback", Description: "Move playback to another device", RequiresAuth: true, NoDevice: msgNoSession, Handler: b.transferPlayback},
		{Name: "seek", Usage: "<min:sec>", Description: "Seek within the current track", RequiresAuth: true, NoDevice: msgNoSession, Handler: b.seek},
		{Name: "next", Description: "Skip the current track", RequiresAuth: true, NoDevice: msgNoSession, Handler: b.next},
		{Name: "previous", Description: "Play the previous track", RequiresAuth: true, NoDevice: msgNoSession, Handler: b.previous},
		{Name: "getRecommendations", Usage: "[limit]", Description: "Queue recommended tracks", RequiresAuth: true, NoDevice: msgNoSession, Handler: b.getRecommendations},
	} {
		if err := r.Register(cmd); err != nil {
			panic(err)
		}
	}
	return r
}

func (b *Bot) start(ctx context.Context, req Request) error {
	return b.out.SendText(ctx, req.ChatID, msgStart, "")
}

func (b *Bot) help(ctx context.Context, req Request) error {
	return b.out.SendText(ctx, req.ChatID, helpText(), markdown)
}

func (b *Bot) register(ctx context.Context, req Request) error {
	link, err := b.registrar.Begin(ctx, req.Identity, req.ChatID)
	if errors.Is(err, shared.ErrAlreadyRegistered) {
		return b.out.SendText(ctx, req.ChatID, msgRegistered, "")
	}
	if err != nil {
		return err
	}

	greeting := fmt.Sprintf("Hello, %s! In order for me to work, please authorize via Spotify (go to link)", req.Identity)
	if err := b.out.SendText(ctx, req.ChatID, greeting, ""); err != nil {
		return err
	}
	return b.out.SendText(ctx, req.ChatID, link, "")
}

func (b *Bot) getMe(ctx context.Context, req Request) error {
	user, err := b.player.Profile(ctx, req.Identity)
	if err != nil {
		return err
	}
	return b.out.SendText(ctx, req.ChatID, profileText(user), "")
}

func (b *Bot) currentTrack(ctx context.Context, req Request) error {
	playing, err := b.player.NowPlaying(ctx, req.Identity)
	if err != nil {
		return err
	}
	if playing.Item == nil {
		return b.out.SendText(ctx, req.ChatID, msgNotListening, "")
	}

	if err := b.out.SendText(ctx, req.ChatID, nowPlayingText(playing.Item), ""); err != nil {
		return err
	}
	if img := services.FirstImage(playing.Item.Album.Images); img != "" {
		return b.out.SendImage(ctx, req.ChatID, img)
	}
	return nil
}

func (b *Bot) topArtists(ctx context.Context, req Request) error {
	limit, err := parseLimit(req.Args, defaultListLimit, maxListLimit)
	if err != nil {
		return err
	}

	artists, err := b.player.TopArtists(ctx, req.Identity, limit)
	if err != nil {
		return err
	}

	items := make([]item, len(artists))
	for i, a := range artists {
		items[i] = topArtistItem(i+1, a)
	}
	return b.renderList(ctx, req.ChatID, items)
}

func (b *Bot) topTracks(ctx context.Context, req Request) error {
	limit, err := parseLimit(req.Args, defaultListLimit, maxListLimit)
	if err != nil {
		return err
	}

	tracks, err := b.player.TopTracks(ctx, req.Identity, limit)
	if err != nil {
		return err
	}

	items := make([]item, len(tracks))
	for i, t := range tracks {
		items[i] = topTrackItem(i+1, t)
	}
	return b.renderList(ctx, req.ChatID, items)
}

func (b *Bot) recentlyPlayed(ctx context.Context, req Request) error {
	limit, err := parseLimit(req.Args, defaultListLimit, maxListLimit)
	if err != nil {
		return err
	}

	history, err := b.player.RecentlyPlayed(ctx, req.Identity, limit)
	if err != nil {
		return err
	}

	items := make([]item, len(history))
	for i, h := range history {
		items[i] = recentItem(i+1, h)
	}
	return b.renderList(ctx, req.ChatID, items)
}

func (b *Bot) setVolume(ctx context.Context, req Request) error {
	volume, err := parseVolume(req.Args)
	if err != nil {
		return err
	}
	if err := b.player.SetVolume(ctx, req.Identity, volume); err != nil {
		return err
	}
	return b.out.SendText(ctx, req.ChatID, fmt.Sprintf("Volume set to %d%%", volume), "")
}

func (b *Bot) pausePlayback(ctx context.Context, req Request) error {
	if err := b.player.Pause(ctx, req.Identity); err != nil {
		return err
	}
	return b.out.SendText(ctx, req.ChatID, "Paused!", "")
}

func (b *Bot) resume(ctx context.Context, req Request) error {
	if err := b.player.Resume(ctx, req.Identity); err != nil {
		return err
	}
	return b.out.SendText(ctx, req.ChatID, "Resumed!", "")
}

func (b *Bot) myDevices(ctx context.Context, req Request) error {
	devices, err := b.player.Devices(ctx, req.Identity)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return b.out.SendText(ctx, req.ChatID, msgNoDevices, "")
	}
	return b.out.SendText(ctx, req.ChatID, devicesText(devices), markdown)
}

func (b *Bot) transferPlayback(ctx context.Context, req Request) error {
	devices, err := b.player.Devices(ctx, req.Identity)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return b.out.SendText(ctx, req.ChatID, msgNoDevices, "")
	}

	choices := make([]models.Choice, 0, len(devices))
	for _, d := range devices {
		choices = append(choices, models.Choice{
			Label:   d.Type + " " + d.Name,
			Payload: string(tagTransfer) + d.ID,
		})
	}
	return b.out.SendChoices(ctx, req.ChatID, msgPickDevice, choices)
}

func (b *Bot) seek(ctx context.Context, req Request) error {
	offset, err := parseSeek(req.Args)
	if err != nil {
		return err
	}
	if err := b.player.Seek(ctx, req.Identity, offset); err != nil {
		return err
	}
	return b.out.SendText(ctx, req.ChatID, "Position sought!", "")
}

func (b *Bot) next(ctx context.Context, req Request) error {
	if err := b.player.SkipNext(ctx, req.Identity); err != nil {
		return err
	}
	return b.out.SendText(ctx, req.ChatID, "Track skipped", "")
}

func (b *Bot) previous(ctx context.Context, req Request) error {
	if err := b.player.SkipPrevious(ctx, req.Identity); err != nil {
		return err
	}
	return b.out.SendText(ctx, req.ChatID, "Playing previous track", "")
}

func (b *Bot) getRecommendations(ctx context.Context, req Request) error {
	limit, err := parseLimit(req.Args, defaultRecommendations, maxRecommendations)
	if err != nil {
		return err
	}

	choices := []models.Choice{
		{Label: fmt.Sprintf("%d last listened tracks", seedCount), Payload: fmt.Sprintf("%c%d", tagSeedRecent, limit)},
		{Label: fmt.Sprintf("%d top tracks", seedCount), Payload: fmt.Sprintf("%c%d", tagSeedTopTracks, limit)},
		{Label: fmt.Sprintf("%d top artists", seedCount), Payload: fmt.Sprintf("%c%d", tagSeedTopArtists, limit)},
	}
	return b.out.SendChoices(ctx, req.ChatID, msgPickSeed, choices)
}
