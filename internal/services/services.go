// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import "time"

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
	PreviewURL *string         `json:"preview_url"` // null when the track has no preview
	URI        string          `json:"uri"`
}

// Preview returns the audio preview URL, or "" when there is none.
func (t SpotifyTrack) Preview() string {
	if t.PreviewURL == nil {
		return ""
	}
	return *t.PreviewURL
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Genres     []string       `json:"genres"`
	Followers  followers      `json:"followers"`
	Popularity int            `json:"popularity"`
	Images     []SpotifyImage `json:"images"`
	URI        string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// SpotifyDevice is a Spotify Connect device.
type SpotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	IsRestricted  bool   `json:"is_restricted"`
	VolumePercent *int   `json:"volume_percent"`
}

// CurrentlyPlaying is the user's playback state. Item is nil when nothing is playing.
type CurrentlyPlaying struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMS int           `json:"progress_ms"`
	Item       *SpotifyTrack `json:"item"`
}

// PlayHistory is one entry of the recently played list.
type PlayHistory struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt time.Time    `json:"played_at"`
}

type pagedArtists struct {
	Items []SpotifyArtist `json:"items"`
}

type pagedTracks struct {
	Items []SpotifyTrack `json:"items"`
}

type pagedHistory struct {
	Items []PlayHistory `json:"items"`
}

type devicesResponse struct {
	Devices []SpotifyDevice `json:"devices"`
}

type recommendationsResponse struct {
	Tracks []SpotifyTrack `json:"tracks"`
}

// FirstImage returns the URL of the first (largest) image, or "".
func FirstImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
