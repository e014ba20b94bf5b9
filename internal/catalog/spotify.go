// Package catalog talks to the Spotify Web API: the OAuth code
// exchange for room hosts, and track lookup/search scoped to a host's
// access token.
package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/auxroom/internal/domain"
)

const (
	accountsURL = "https://accounts.spotify.com"
	apiURL      = "https://api.spotify.com"

	// Permissions requested from the host: see what is playing and
	// control playback from the room.
	authScopes = "user-read-playback-state user-modify-playback-state user-read-currently-playing streaming"

	searchLimit = 10
)

type SpotifyClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// AccountsBase and APIBase exist so tests can point the client at
	// a local server. Empty means the real endpoints.
	AccountsBase string
	APIBase      string

	HTTP *http.Client
}

func NewSpotifyClient(clientID, clientSecret, redirectURI string) *SpotifyClient {
	return &SpotifyClient{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		HTTP:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *SpotifyClient) accounts() string {
	if c.AccountsBase != "" {
		return c.AccountsBase
	}
	return accountsURL
}

func (c *SpotifyClient) api() string {
	if c.APIBase != "" {
		return c.APIBase
	}
	return apiURL
}

// AuthorizeURL builds the page the host's browser is sent to. The room
// code rides in the OAuth state parameter so the callback knows which
// room to attach the tokens to.
func (c *SpotifyClient) AuthorizeURL(code domain.RoomCode) string {
	q := url.Values{}
	q.Set("client_id", c.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("state", string(code))
	q.Set("scope", authScopes)
	return c.accounts() + "/authorize?" + q.Encode()
}

// Tokens is the result of the authorization-code exchange.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// ExchangeCode trades the temporary authorization code for access and
// refresh tokens.
func (c *SpotifyClient) ExchangeCode(ctx context.Context, authCode string) (Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", authCode)
	form.Set("redirect_uri", c.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accounts()+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// The token endpoint wants Basic auth with "clientID:clientSecret".
	basic := base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Tokens{}, fmt.Errorf("token exchange: unexpected status %d", resp.StatusCode)
	}

	var tokens Tokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return Tokens{}, fmt.Errorf("decode token response: %w", err)
	}
	return tokens, nil
}

// trackItem mirrors the slice of Spotify's track object we care about.
type trackItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	DurationMs int `json:"duration_ms"`
}

func (it trackItem) toTrack() domain.Track {
	names := make([]string, 0, len(it.Artists))
	for _, a := range it.Artists {
		names = append(names, a.Name)
	}
	art := ""
	if len(it.Album.Images) > 0 {
		art = it.Album.Images[0].URL
	}
	return domain.Track{
		SpotifyTrackID: it.ID,
		Title:          it.Name,
		Artist:         strings.Join(names, ", "),
		AlbumArtURL:    art,
		DurationMs:     it.DurationMs,
	}
}

// LookupTrack fetches one track by id. A 401 from the API maps to
// domain.ErrCredentialsExpired so callers can tell the host to
// re-authorize; a 404 maps to domain.ErrTrackNotFound.
func (c *SpotifyClient) LookupTrack(ctx context.Context, trackID, accessToken string) (domain.Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.api()+"/v1/tracks/"+url.PathEscape(trackID), nil)
	if err != nil {
		return domain.Track{}, fmt.Errorf("build track request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return domain.Track{}, fmt.Errorf("track lookup: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return domain.Track{}, domain.ErrCredentialsExpired
	case http.StatusNotFound:
		return domain.Track{}, domain.ErrTrackNotFound
	default:
		log.Warn().Str("module", "catalog").Str("track", trackID).Int("status", resp.StatusCode).Msg("track lookup failed")
		return domain.Track{}, domain.ErrTrackNotFound
	}

	var item trackItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return domain.Track{}, fmt.Errorf("decode track response: %w", err)
	}
	return item.toTrack(), nil
}

// Search returns up to ten simplified tracks matching the query.
func (c *SpotifyClient) Search(ctx context.Context, query, accessToken string) ([]domain.Track, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", fmt.Sprint(searchLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.api()+"/v1/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, domain.ErrCredentialsExpired
	default:
		return nil, fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Tracks struct {
			Items []trackItem `json:"items"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.Track, 0, len(body.Tracks.Items))
	for _, it := range body.Tracks.Items {
		out = append(out, it.toTrack())
	}
	return out, nil
}
