package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/desertthunder/spotybot/internal/services"
)

const markdown = tgbotapi.ModeMarkdown

func esc(s string) string {
	return tgbotapi.EscapeText(markdown, s)
}

// item is one rendered group of a list reply.
type item struct {
	text  string
	image string
	audio string
}

// renderList emits items from last to first so that rank #1 arrives last, pausing after every
// pauseEvery items.
func (b *Bot) renderList(ctx context.Context, chatID int64, items []item) error {
	processed := 0
	for i := len(items) - 1; i >= 0; i-- {
		if err := b.sendItem(ctx, chatID, items[i]); err != nil {
			return err
		}
		processed++
		if b.pauseEvery > 0 && processed%b.pauseEvery == 0 && i > 0 {
			if err := b.pause(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Bot) sendItem(ctx context.Context, chatID int64, it item) error {
	if err := b.out.SendText(ctx, chatID, it.text, markdown); err != nil {
		return err
	}
	if it.image != "" {
		if err := b.out.SendImage(ctx, chatID, it.image); err != nil {
			return err
		}
	}
	if it.audio != "" {
		if err := b.out.SendAudio(ctx, chatID, it.audio); err != nil {
			return err
		}
	}
	return nil
}

func artistNames(artists []services.SpotifyArtist, bold bool) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if bold {
			names = append(names, "*"+esc(a.Name)+"*")
		} else {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// formatDuration renders milliseconds as m:ss.
func formatDuration(ms int) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func profileText(u *services.SpotifyUser) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your display name is %s\n", u.DisplayName)
	fmt.Fprintf(&b, "Your email is %s\n", u.Email)
	fmt.Fprintf(&b, "Your country is %s\n", u.Country)
	fmt.Fprintf(&b, "%d people follow you", u.Followers.Total)
	return b.String()
}

func nowPlayingText(t *services.SpotifyTrack) string {
	return fmt.Sprintf("You are listening to %s by %s", t.Name, artistNames(t.Artists, false))
}

func topArtistItem(rank int, a services.SpotifyArtist) item {
	text := fmt.Sprintf("Your *#%d* top artist is *%s* with _%d_ followers", rank, esc(a.Name), a.Followers.Total)
	if len(a.Genres) > 0 {
		text += "\nThe artist's genres are: " + esc(strings.Join(a.Genres, ", "))
	}
	return item{text: text, image: services.FirstImage(a.Images)}
}

func topTrackItem(rank int, t services.SpotifyTrack) item {
	var b strings.Builder
	fmt.Fprintf(&b, "Your *#%d* top track is *%s* _by_ %s\n", rank, esc(t.Name), artistNames(t.Artists, true))
	if t.Album.ReleaseDate != "" {
		fmt.Fprintf(&b, "Released on _%s_\n", esc(t.Album.ReleaseDate))
	}
	fmt.Fprintf(&b, "Duration: _%s_", formatDuration(t.DurationMS))
	return item{text: b.String(), image: services.FirstImage(t.Album.Images), audio: t.Preview()}
}

func recentItem(rank int, h services.PlayHistory) item {
	text := fmt.Sprintf("Your *#%d* last played track was *%s* _by_ %s\nYou played it on _%s_ UTC",
		rank, esc(h.Track.Name), artistNames(h.Track.Artists, true), h.PlayedAt.UTC().Format("2006-01-02 15:04:05"))
	return item{text: text, image: services.FirstImage(h.Track.Album.Images), audio: h.Track.Preview()}
}

func recommendationItem(t services.SpotifyTrack) item {
	text := fmt.Sprintf("%s _%s_", artistNames(t.Artists, true), esc(t.Name))
	return item{text: text, image: services.FirstImage(t.Album.Images), audio: t.Preview()}
}

func devicesText(devices []services.SpotifyDevice) string {
	var b strings.Builder
	b.WriteString("Your devices:\n")
	for _, d := range devices {
		if d.IsActive {
			b.WriteString("*ACTIVE* ")
		}
		fmt.Fprintf(&b, "%s %s\n", esc(d.Type), esc(d.Name))
	}
	return b.String()
}
