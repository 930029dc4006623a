package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
	"github.com/samber/lo"
)

const (
	defaultConnectURL = "https://connect.monstercat.com"
	sessionCookie     = "connect.sid"
	catalogPageSize   = 100
)

// ConnectTrack is a track as returned by the connect API.
type ConnectTrack struct {
	ID           string   `json:"_id"`
	Title        string   `json:"title"`
	ArtistsTitle string   `json:"artistsTitle"`
	Genre        string   `json:"genrePrimary"`
	Genres       []string `json:"genres"`
	Duration     float64  `json:"duration"`
	Release      struct {
		CatalogID string `json:"catalogId"`
		Title     string `json:"title"`
	} `json:"release"`
}

// Track converts to the domain model.
func (t ConnectTrack) Track() models.Track {
	genre := t.Genre
	if genre == "" && len(t.Genres) > 0 {
		genre = t.Genres[0]
	}
	return models.Track{
		ID:        t.ID,
		CatalogID: t.Release.CatalogID,
		Title:     t.Title,
		Artists:   t.ArtistsTitle,
		Album:     t.Release.Title,
		Genre:     genre,
		Duration:  int(t.Duration),
	}
}

type connectPage struct {
	Results []ConnectTrack `json:"results"`
	Total   int            `json:"total"`
}

type connectPlaylistTrack struct {
	TrackID string `json:"trackId"`
}

type connectPlaylist struct {
	ID     string                 `json:"_id"`
	Name   string                 `json:"name"`
	Public bool                   `json:"public"`
	Tracks []connectPlaylistTrack `json:"tracks"`
}

func (p connectPlaylist) playlist() models.RemotePlaylist {
	return models.RemotePlaylist{
		ID:       p.ID,
		Name:     p.Name,
		Public:   p.Public,
		TrackIDs: lo.Map(p.Tracks, func(t connectPlaylistTrack, _ int) string { return t.TrackID }),
	}
}

func playlistTracks(ids []string) []connectPlaylistTrack {
	return lo.Map(ids, func(id string, _ int) connectPlaylistTrack { return connectPlaylistTrack{TrackID: id} })
}

// ConnectService reads playlists and the catalog from the connect API, and manages the playlists of the signed-in
// account.
type ConnectService struct {
	client
	baseURL  string
	signedIn bool
}

// NewConnectService creates a service for baseURL. sid is the session cookie; empty means anonymous.
func NewConnectService(baseURL, sid string, opts ...Option) *ConnectService {
	if baseURL == "" {
		baseURL = defaultConnectURL
	}
	s := &ConnectService{client: newClient("connect", opts), baseURL: strings.TrimRight(baseURL, "/")}
	if sid != "" {
		s.signedIn = true
		s.prepare = func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sid})
		}
	}
	return s
}

func (s *ConnectService) Name() string { return "connect" }

// PlaylistTracks returns the tracks of a remote playlist in order.
//
// Calls GET /api/playlist/{id}/tracks.
func (s *ConnectService) PlaylistTracks(ctx context.Context, id string) ([]models.Track, error) {
	endpoint := fmt.Sprintf("%s/api/playlist/%s/tracks", s.baseURL, url.PathEscape(id))

	var page connectPage
	if err := s.getJSON(ctx, endpoint, &page); err != nil {
		var status *statusError
		if errors.As(err, &status) && status.status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", id, err)
	}

	return lo.Map(page.Results, func(t ConnectTrack, _ int) models.Track { return t.Track() }), nil
}

// CatalogTracks pages through the whole catalog.
//
// Calls GET /api/catalog/browse?limit=&skip= until total is reached or a page comes back empty.
func (s *ConnectService) CatalogTracks(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	for skip := 0; ; {
		q := url.Values{"limit": {strconv.Itoa(catalogPageSize)}, "skip": {strconv.Itoa(skip)}}
		endpoint := s.baseURL + "/api/catalog/browse?" + q.Encode()

		var page connectPage
		if err := s.getJSON(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("failed to browse catalog: %w", err)
		}
		for _, t := range page.Results {
			tracks = append(tracks, t.Track())
		}

		skip += len(page.Results)
		s.logger.Debug("catalog page", "fetched", skip, "total", page.Total)
		if len(page.Results) == 0 || skip >= page.Total {
			break
		}
	}
	return tracks, nil
}

// Playlists lists the playlists of the signed-in account.
//
// Calls GET /api/playlist.
func (s *ConnectService) Playlists(ctx context.Context) ([]models.RemotePlaylist, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}

	var page struct {
		Results []connectPlaylist `json:"results"`
	}
	if err := s.getJSON(ctx, s.baseURL+"/api/playlist", &page); err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return lo.Map(page.Results, func(p connectPlaylist, _ int) models.RemotePlaylist { return p.playlist() }), nil
}

// CreatePlaylist creates a playlist holding trackIDs in order and returns it as stored.
//
// Calls POST /api/playlist.
func (s *ConnectService) CreatePlaylist(ctx context.Context, name string, trackIDs []string, public bool) (models.RemotePlaylist, error) {
	if err := s.requireSession(); err != nil {
		return models.RemotePlaylist{}, err
	}

	body := map[string]any{"name": name, "public": public, "tracks": playlistTracks(trackIDs)}
	var created connectPlaylist
	if err := s.doJSON(ctx, http.MethodPost, s.baseURL+"/api/playlist", body, &created); err != nil {
		return models.RemotePlaylist{}, fmt.Errorf("failed to create playlist %q: %w", name, err)
	}
	if created.ID == "" {
		return models.RemotePlaylist{}, fmt.Errorf("%w: created playlist has no ID", shared.ErrAPIRequest)
	}
	return created.playlist(), nil
}

// EditPlaylist applies edit to the playlist id. Setting Deleted removes the playlist.
//
// Calls PATCH /api/playlist/{id} with only the fields that change.
func (s *ConnectService) EditPlaylist(ctx context.Context, id string, edit models.PlaylistEdit) error {
	if err := s.requireSession(); err != nil {
		return err
	}

	body := map[string]any{}
	if edit.Name != nil {
		body["name"] = *edit.Name
	}
	if edit.Public != nil {
		body["public"] = *edit.Public
	}
	if edit.TrackIDs != nil {
		body["tracks"] = playlistTracks(edit.TrackIDs)
	}
	if edit.Deleted {
		body["deleted"] = true
	}
	if len(body) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("%s/api/playlist/%s", s.baseURL, url.PathEscape(id))
	if err := s.doJSON(ctx, http.MethodPatch, endpoint, body, nil); err != nil {
		var status *statusError
		if errors.As(err, &status) && status.status == http.StatusNotFound {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}
		return fmt.Errorf("failed to edit playlist %s: %w", id, err)
	}
	return nil
}

// DeletePlaylist removes the playlist id.
func (s *ConnectService) DeletePlaylist(ctx context.Context, id string) error {
	return s.EditPlaylist(ctx, id, models.PlaylistEdit{Deleted: true})
}

func (s *ConnectService) requireSession() error {
	if !s.signedIn {
		return fmt.Errorf("%w: account playlists need a session, set api.connect_sid", shared.ErrServiceUnavailable)
	}
	return nil
}
