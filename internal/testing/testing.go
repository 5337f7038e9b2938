// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotybot/internal/models"
	"github.com/desertthunder/spotybot/internal/services"
	"github.com/desertthunder/spotybot/internal/shared"
)

// Sent is one message captured by [MockMessenger].
type Sent struct {
	Kind      string // text, photo, audio, choices, ack
	ChatID    int64
	Text      string // text, prompt, media URL or callback ID
	ParseMode string
	Choices   []models.Choice
}

// MockMessenger records outbound messages. Err, when set, fails every send.
type MockMessenger struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (m *MockMessenger) record(s Sent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, s)
	return nil
}

func (m *MockMessenger) SendText(_ context.Context, chatID int64, text, parseMode string) error {
	return m.record(Sent{Kind: "text", ChatID: chatID, Text: text, ParseMode: parseMode})
}

func (m *MockMessenger) SendImage(_ context.Context, chatID int64, url string) error {
	return m.record(Sent{Kind: "photo", ChatID: chatID, Text: url})
}

func (m *MockMessenger) SendAudio(_ context.Context, chatID int64, url string) error {
	return m.record(Sent{Kind: "audio", ChatID: chatID, Text: url})
}

func (m *MockMessenger) SendChoices(_ context.Context, chatID int64, prompt string, choices []models.Choice) error {
	return m.record(Sent{Kind: "choices", ChatID: chatID, Text: prompt, Choices: choices})
}

func (m *MockMessenger) AckCallback(_ context.Context, callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{Kind: "ack", Text: callbackID})
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *MockMessenger) Messages() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}

// Texts returns the text of every text message sent so far.
func (m *MockMessenger) Texts() []string {
	var texts []string
	for _, s := range m.Messages() {
		if s.Kind == "text" {
			texts = append(texts, s.Text)
		}
	}
	return texts
}

// Last returns the most recent message, or the zero value.
func (m *MockMessenger) Last() Sent {
	msgs := m.Messages()
	if len(msgs) == 0 {
		return Sent{}
	}
	return msgs[len(msgs)-1]
}

// Reset forgets recorded messages.
func (m *MockMessenger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// Call is one recorded [MockPlayer] invocation.
type Call struct {
	Op       string
	Identity string
	Args     []any
}

// MockPlayer is a test double for the bot's Spotify surface.
//
// List operations return at most limit entries of the configured slices. Errs fails individual
// operations by name.
type MockPlayer struct {
	mu sync.Mutex

	User        *services.SpotifyUser
	Playing     *services.CurrentlyPlaying
	Artists     []services.SpotifyArtist
	Tracks      []services.SpotifyTrack
	History     []services.PlayHistory
	DeviceList  []services.SpotifyDevice
	Recommended []services.SpotifyTrack
	Errs        map[string]error

	calls []Call
}

func (p *MockPlayer) record(op, identity string, args ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: op, Identity: identity, Args: args})
	if p.Errs != nil {
		if err, ok := p.Errs[op]; ok {
			if panicErr, ok := err.(PanicError); ok {
				panic(string(panicErr))
			}
			return err
		}
	}
	return nil
}

// PanicError makes a [MockPlayer] operation panic instead of returning.
type PanicError string

func (e PanicError) Error() string { return string(e) }

// Calls returns a copy of the recorded invocations.
func (p *MockPlayer) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallsTo returns the recorded invocations of op.
func (p *MockPlayer) CallsTo(op string) []Call {
	var out []Call
	for _, c := range p.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func head[T any](items []T, limit int) []T {
	if limit < len(items) {
		return items[:limit]
	}
	return items
}

func (p *MockPlayer) Profile(_ context.Context, identity string) (*services.SpotifyUser, error) {
	if err := p.record("Profile", identity); err != nil {
		return nil, err
	}
	return p.User, nil
}

func (p *MockPlayer) NowPlaying(_ context.Context, identity string) (*services.CurrentlyPlaying, error) {
	if err := p.record("NowPlaying", identity); err != nil {
		return nil, err
	}
	if p.Playing == nil {
		return &services.CurrentlyPlaying{}, nil
	}
	return p.Playing, nil
}

func (p *MockPlayer) TopArtists(_ context.Context, identity string, limit int) ([]services.SpotifyArtist, error) {
	if err := p.record("TopArtists", identity, limit); err != nil {
		return nil, err
	}
	return head(p.Artists, limit), nil
}

func (p *MockPlayer) TopTracks(_ context.Context, identity string, limit int) ([]services.SpotifyTrack, error) {
	if err := p.record("TopTracks", identity, limit); err != nil {
		return nil, err
	}
	return head(p.Tracks, limit), nil
}

func (p *MockPlayer) RecentlyPlayed(_ context.Context, identity string, limit int) ([]services.PlayHistory, error) {
	if err := p.record("RecentlyPlayed", identity, limit); err != nil {
		return nil, err
	}
	return head(p.History, limit), nil
}

func (p *MockPlayer) SetVolume(_ context.Context, identity string, percent int) error {
	return p.record("SetVolume", identity, percent)
}

func (p *MockPlayer) Pause(_ context.Context, identity string) error {
	return p.record("Pause", identity)
}

func (p *MockPlayer) Resume(_ context.Context, identity string) error {
	return p.record("Resume", identity)
}

func (p *MockPlayer) Devices(_ context.Context, identity string) ([]services.SpotifyDevice, error) {
	if err := p.record("Devices", identity); err != nil {
		return nil, err
	}
	return p.DeviceList, nil
}

func (p *MockPlayer) TransferPlayback(_ context.Context, identity, deviceID string) error {
	return p.record("TransferPlayback", identity, deviceID)
}

func (p *MockPlayer) Seek(_ context.Context, identity string, offsetMS int) error {
	return p.record("Seek", identity, offsetMS)
}

func (p *MockPlayer) SkipNext(_ context.Context, identity string) error {
	return p.record("SkipNext", identity)
}

func (p *MockPlayer) SkipPrevious(_ context.Context, identity string) error {
	return p.record("SkipPrevious", identity)
}

func (p *MockPlayer) Recommendations(_ context.Context, identity string, limit int, seedTracks, seedArtists []string) ([]services.SpotifyTrack, error) {
	if err := p.record("Recommendations", identity, limit, seedTracks, seedArtists); err != nil {
		return nil, err
	}
	return head(p.Recommended, limit), nil
}

func (p *MockPlayer) Enqueue(_ context.Context, identity, trackURI string) error {
	return p.record("Enqueue", identity, trackURI)
}

// MockAccounts answers registration lookups from a fixed set of identities.
type MockAccounts struct {
	Registered map[string]bool
	Err        error
}

func (a *MockAccounts) Lookup(_ context.Context, identity string) (*models.Account, bool, error) {
	if a.Err != nil {
		return nil, false, a.Err
	}
	if !a.Registered[identity] {
		return nil, false, nil
	}
	return models.NewAccount(identity, "refresh-"+identity, 1), true, nil
}

// MockRegistrar hands out fixed links and reports identities in Registered as already registered.
type MockRegistrar struct {
	Registered map[string]bool
	Begun      []string
}

func (r *MockRegistrar) Begin(_ context.Context, identity string, _ int64) (string, error) {
	if r.Registered[identity] {
		return "", fmt.Errorf("%w: %s", shared.ErrAlreadyRegistered, identity)
	}
	r.Begun = append(r.Begun, identity)
	return "https://accounts.example.com/authorize?state=" + identity, nil
}

// Tracks builds n tracks named track-1..track-n with an image and, when withPreview is set, a preview.
func Tracks(n int, withPreview bool) []services.SpotifyTrack {
	tracks := make([]services.SpotifyTrack, n)
	for i := range tracks {
		id := fmt.Sprintf("track-%d", i+1)
		tracks[i] = services.SpotifyTrack{
			ID:         id,
			Name:       id,
			URI:        "spotify:track:" + id,
			DurationMS: 187000,
			Artists:    []services.SpotifyArtist{{ID: "artist-" + id, Name: "Artist " + id}},
			Album: services.SpotifyAlbum{
				ReleaseDate: "2020-01-01",
				Images:      []services.SpotifyImage{{URL: "https://img.example.com/" + id}},
			},
		}
		if withPreview {
			preview := "https://preview.example.com/" + id
			tracks[i].PreviewURL = &preview
		}
	}
	return tracks
}

// Artists builds n artists named artist-1..artist-n with an image.
func Artists(n int) []services.SpotifyArtist {
	artists := make([]services.SpotifyArtist, n)
	for i := range artists {
		id := fmt.Sprintf("artist-%d", i+1)
		artists[i] = services.SpotifyArtist{
			ID:     id,
			Name:   id,
			Genres: []string{"rock"},
			Images: []services.SpotifyImage{{URL: "https://img.example.com/" + id}},
		}
	}
	return artists
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
