package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/spotybot/internal/shared"
)

// Session issues Spotify Web API requests with one access token.
//
// A Session lives for a single adapter call; [SpotifyService] builds a new one every time.
type Session struct {
	accessToken string
	httpClient  *http.Client
	baseURL     string
}

// NewSession binds accessToken to the API at baseURL.
func NewSession(accessToken string, httpClient *http.Client, baseURL string) *Session {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Session{accessToken: accessToken, httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// doRequest performs an authenticated request and decodes a JSON answer into result when it is non-nil.
//
// It returns the HTTP status so callers can distinguish 204 No Content.
func (s *Session) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) (int, error) {
	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %w", shared.ErrUpstream, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, newAPIError(resp, endpoint)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
			return resp.StatusCode, fmt.Errorf("%w: failed to decode response: %v", shared.ErrUpstream, err)
		}
	}

	return resp.StatusCode, nil
}

func limitQuery(limit int) url.Values {
	return url.Values{"limit": {strconv.Itoa(limit)}}
}

// Profile retrieves the current user's profile.
func (s *Session) Profile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if _, err := s.doRequest(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// NowPlaying retrieves the currently playing track. The returned Item is nil when nothing plays.
func (s *Session) NowPlaying(ctx context.Context) (*CurrentlyPlaying, error) {
	var playing CurrentlyPlaying
	if _, err := s.doRequest(ctx, http.MethodGet, "/me/player/currently-playing", nil, nil, &playing); err != nil {
		return nil, err
	}
	return &playing, nil
}

// TopArtists retrieves the user's top artists, ranked #1 first.
func (s *Session) TopArtists(ctx context.Context, limit int) ([]SpotifyArtist, error) {
	var page pagedArtists
	if _, err := s.doRequest(ctx, http.MethodGet, "/me/top/artists", limitQuery(limit), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// TopTracks retrieves the user's top tracks, ranked #1 first.
func (s *Session) TopTracks(ctx context.Context, limit int) ([]SpotifyTrack, error) {
	var page pagedTracks
	if _, err := s.doRequest(ctx, http.MethodGet, "/me/top/tracks", limitQuery(limit), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// RecentlyPlayed retrieves the user's play history, most recent first.
func (s *Session) RecentlyPlayed(ctx context.Context, limit int) ([]PlayHistory, error) {
	var page pagedHistory
	if _, err := s.doRequest(ctx, http.MethodGet, "/me/player/recently-played", limitQuery(limit), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// SetVolume sets the playback volume in percent.
func (s *Session) SetVolume(ctx context.Context, percent int) error {
	query := url.Values{"volume_percent": {strconv.Itoa(percent)}}
	_, err := s.doRequest(ctx, http.MethodPut, "/me/player/volume", query, nil, nil)
	return err
}

// Pause pauses playback on the active device.
func (s *Session) Pause(ctx context.Context) error {
	_, err := s.doRequest(ctx, http.MethodPut, "/me/player/pause", nil, nil, nil)
	return err
}

// Resume starts or resumes playback on the active device.
func (s *Session) Resume(ctx context.Context) error {
	_, err := s.doRequest(ctx, http.MethodPut, "/me/player/play", nil, nil, nil)
	return err
}

// Devices lists the user's Spotify Connect devices.
func (s *Session) Devices(ctx context.Context) ([]SpotifyDevice, error) {
	var resp devicesResponse
	if _, err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// TransferPlayback moves playback to deviceID.
func (s *Session) TransferPlayback(ctx context.Context, deviceID string) error {
	body := map[string][]string{"device_ids": {deviceID}}
	_, err := s.doRequest(ctx, http.MethodPut, "/me/player", nil, body, nil)
	return err
}

// Seek moves the playhead of the current track to offsetMS.
func (s *Session) Seek(ctx context.Context, offsetMS int) error {
	query := url.Values{"position_ms": {strconv.Itoa(offsetMS)}}
	_, err := s.doRequest(ctx, http.MethodPut, "/me/player/seek", query, nil, nil)
	return err
}

// SkipNext skips to the next track.
func (s *Session) SkipNext(ctx context.Context) error {
	_, err := s.doRequest(ctx, http.MethodPost, "/me/player/next", nil, nil, nil)
	return err
}

// SkipPrevious skips to the previous track.
func (s *Session) SkipPrevious(ctx context.Context) error {
	_, err := s.doRequest(ctx, http.MethodPost, "/me/player/previous", nil, nil, nil)
	return err
}

// Recommendations requests limit tracks seeded by the given track and artist IDs.
func (s *Session) Recommendations(ctx context.Context, limit int, seedTracks, seedArtists []string) ([]SpotifyTrack, error) {
	query := limitQuery(limit)
	if len(seedTracks) > 0 {
		query.Set("seed_tracks", strings.Join(seedTracks, ","))
	}
	if len(seedArtists) > 0 {
		query.Set("seed_artists", strings.Join(seedArtists, ","))
	}

	var resp recommendationsResponse
	if _, err := s.doRequest(ctx, http.MethodGet, "/recommendations", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// Enqueue adds trackURI to the end of the user's playback queue.
func (s *Session) Enqueue(ctx context.Context, trackURI string) error {
	query := url.Values{"uri": {trackURI}}
	_, err := s.doRequest(ctx, http.MethodPost, "/me/player/queue", query, nil, nil)
	return err
}
