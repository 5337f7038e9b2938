package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotybot/internal/models"
	"github.com/desertthunder/spotybot/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultRequestTimeout = 15 * time.Second
)

// Scopes requested during registration.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"user-read-recently-played",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

// AccountStore is the slice of the credential store the adapter needs.
type AccountStore interface {
	LoadAccount(ctx context.Context, identity string) (*models.Account, error)
	UpdateRefreshToken(ctx context.Context, identity, refreshToken string) error
}

// Recorder observes the outcome and latency of each Spotify operation.
type Recorder interface {
	ObserveSpotify(operation, outcome string, elapsed time.Duration)
}

// SpotifyOpts configures a [SpotifyService]. Zero values select the public Spotify endpoints,
// [http.DefaultClient] and a 15 second timeout.
type SpotifyOpts struct {
	Store      AccountStore
	HTTPClient *http.Client
	BaseURL    string
	AuthURL    string
	TokenURL   string
	Timeout    time.Duration
	Metrics    Recorder
	Logger     *log.Logger
}

// SpotifyService performs Spotify operations on behalf of registered identities.
//
// It holds no per-user state: each operation loads the stored refresh token, refreshes it into an access
// token and runs against a fresh [Session].
type SpotifyService struct {
	config     *oauth2.Config
	store      AccountStore
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	metrics    Recorder
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts SpotifyOpts) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/authorize"
	}

	authURL, tokenURL, baseURL := spotifyAuthURL, spotifyTokenURL, spotifyBaseURL
	if opts.AuthURL != "" {
		authURL = opts.AuthURL
	}
	if opts.TokenURL != "" {
		tokenURL = opts.TokenURL
	}
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SpotifyService{
		config:     config,
		store:      opts.Store,
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
		metrics:    opts.Metrics,
		logger:     logger,
	}, nil
}

// AuthURL returns the OAuth2 authorization URL carrying state.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a refresh token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	token, err := s.config.Exchange(s.withClient(ctx), code)
	if err != nil {
		err = fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	} else if token.RefreshToken == "" {
		err = fmt.Errorf("%w: no refresh token issued", shared.ErrExchangeFailed)
	}
	s.observe("exchange", err, time.Since(start))

	if err != nil {
		return "", err
	}
	return token.RefreshToken, nil
}

func (s *SpotifyService) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// session refreshes the stored credential of identity and binds the access token to a new [Session].
func (s *SpotifyService) session(ctx context.Context, identity string) (*Session, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: no account store configured", shared.ErrMissingConfig)
	}

	account, err := s.store.LoadAccount(ctx, identity)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnregistered, identity)
	}
	if err != nil {
		return nil, err
	}

	source := s.config.TokenSource(s.withClient(ctx), &oauth2.Token{RefreshToken: account.RefreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if token.RefreshToken != "" && token.RefreshToken != account.RefreshToken {
		if err := s.store.UpdateRefreshToken(ctx, identity, token.RefreshToken); err != nil {
			s.logger.Warn("failed to persist rotated refresh token", "identity", identity, "error", err)
		} else {
			s.logger.Debug("refresh token rotated", "identity", identity)
		}
	}

	return NewSession(token.AccessToken, s.httpClient, s.baseURL), nil
}

func (s *SpotifyService) observe(operation string, err error, elapsed time.Duration) {
	outcome := shared.Outcome(err)
	if s.metrics != nil {
		s.metrics.ObserveSpotify(operation, outcome, elapsed)
	}
	s.logger.Debug("spotify request", "operation", operation, "outcome", outcome, "elapsed", elapsed)
}

// invoke runs fn against a fresh session for identity under the per-call timeout.
func invoke[T any](ctx context.Context, s *SpotifyService, operation, identity string, fn func(context.Context, *Session) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	var result T
	session, err := s.session(ctx, identity)
	if err == nil {
		result, err = fn(ctx, session)
	}
	s.observe(operation, err, time.Since(start))

	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", operation, err)
	}
	return result, nil
}

func (s *SpotifyService) exec(ctx context.Context, operation, identity string, fn func(context.Context, *Session) error) error {
	_, err := invoke(ctx, s, operation, identity, func(ctx context.Context, session *Session) (struct{}, error) {
		return struct{}{}, fn(ctx, session)
	})
	return err
}

// Profile retrieves the profile of identity.
func (s *SpotifyService) Profile(ctx context.Context, identity string) (*SpotifyUser, error) {
	return invoke(ctx, s, "profile", identity, func(ctx context.Context, session *Session) (*SpotifyUser, error) {
		return session.Profile(ctx)
	})
}

// NowPlaying retrieves what identity is listening to.
func (s *SpotifyService) NowPlaying(ctx context.Context, identity string) (*CurrentlyPlaying, error) {
	return invoke(ctx, s, "now_playing", identity, func(ctx context.Context, session *Session) (*CurrentlyPlaying, error) {
		return session.NowPlaying(ctx)
	})
}

// TopArtists retrieves the top limit artists of identity.
func (s *SpotifyService) TopArtists(ctx context.Context, identity string, limit int) ([]SpotifyArtist, error) {
	return invoke(ctx, s, "top_artists", identity, func(ctx context.Context, session *Session) ([]SpotifyArtist, error) {
		return session.TopArtists(ctx, limit)
	})
}

// TopTracks retrieves the top limit tracks of identity.
func (s *SpotifyService) TopTracks(ctx context.Context, identity string, limit int) ([]SpotifyTrack, error) {
	return invoke(ctx, s, "top_tracks", identity, func(ctx context.Context, session *Session) ([]SpotifyTrack, error) {
		return session.TopTracks(ctx, limit)
	})
}

// RecentlyPlayed retrieves the last limit tracks identity played.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, identity string, limit int) ([]PlayHistory, error) {
	return invoke(ctx, s, "recently_played", identity, func(ctx context.Context, session *Session) ([]PlayHistory, error) {
		return session.RecentlyPlayed(ctx, limit)
	})
}

// SetVolume sets the playback volume of identity.
func (s *SpotifyService) SetVolume(ctx context.Context, identity string, percent int) error {
	return s.exec(ctx, "set_volume", identity, func(ctx context.Context, session *Session) error {
		return session.SetVolume(ctx, percent)
	})
}

// Pause pauses playback for identity.
func (s *SpotifyService) Pause(ctx context.Context, identity string) error {
	return s.exec(ctx, "pause", identity, func(ctx context.Context, session *Session) error {
		return session.Pause(ctx)
	})
}

// Resume resumes playback for identity.
func (s *SpotifyService) Resume(ctx context.Context, identity string) error {
	return s.exec(ctx, "resume", identity, func(ctx context.Context, session *Session) error {
		return session.Resume(ctx)
	})
}

// Devices lists the devices of identity.
func (s *SpotifyService) Devices(ctx context.Context, identity string) ([]SpotifyDevice, error) {
	return invoke(ctx, s, "devices", identity, func(ctx context.Context, session *Session) ([]SpotifyDevice, error) {
		return session.Devices(ctx)
	})
}

// TransferPlayback moves playback of identity to deviceID.
func (s *SpotifyService) TransferPlayback(ctx context.Context, identity, deviceID string) error {
	return s.exec(ctx, "transfer_playback", identity, func(ctx context.Context, session *Session) error {
		return session.TransferPlayback(ctx, deviceID)
	})
}

// Seek moves the playhead for identity to offsetMS.
func (s *SpotifyService) Seek(ctx context.Context, identity string, offsetMS int) error {
	return s.exec(ctx, "seek", identity, func(ctx context.Context, session *Session) error {
		return session.Seek(ctx, offsetMS)
	})
}

// SkipNext skips to the next track for identity.
func (s *SpotifyService) SkipNext(ctx context.Context, identity string) error {
	return s.exec(ctx, "skip_next", identity, func(ctx context.Context, session *Session) error {
		return session.SkipNext(ctx)
	})
}

// SkipPrevious skips to the previous track for identity.
func (s *SpotifyService) SkipPrevious(ctx context.Context, identity string) error {
	return s.exec(ctx, "skip_previous", identity, func(ctx context.Context, session *Session) error {
		return session.SkipPrevious(ctx)
	})
}

// Recommendations requests limit tracks for identity from the given seeds.
func (s *SpotifyService) Recommendations(ctx context.Context, identity string, limit int, seedTracks, seedArtists []string) ([]SpotifyTrack, error) {
	return invoke(ctx, s, "recommendations", identity, func(ctx context.Context, session *Session) ([]SpotifyTrack, error) {
		return session.Recommendations(ctx, limit, seedTracks, seedArtists)
	})
}

// Enqueue appends trackURI to the queue of identity.
func (s *SpotifyService) Enqueue(ctx context.Context, identity, trackURI string) error {
	return s.exec(ctx, "enqueue", identity, func(ctx context.Context, session *Session) error {
		return session.Enqueue(ctx, trackURI)
	})
}
