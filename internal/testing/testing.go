// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
)

// MockSource is a test double for the remote playlist and catalog sources.
//
// Tracklists maps playlist IDs to their tracks; an unknown ID returns NotFound (or a generic error when unset).
// Account holds the playlists of the signed-in account; creating one also makes its tracks loadable by ID.
type MockSource struct {
	mu         sync.Mutex
	Tracklists map[string][]models.Track
	Catalog    []models.Track
	Account    []models.RemotePlaylist
	Err        error
	NotFound   error
	calls      int
}

func (m *MockSource) PlaylistTracks(ctx context.Context, id string) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	tracks, ok := m.Tracklists[id]
	if !ok {
		if m.NotFound != nil {
			return nil, m.NotFound
		}
		return nil, errors.New("no such playlist")
	}
	return append([]models.Track(nil), tracks...), nil
}

func (m *MockSource) CatalogTracks(ctx context.Context) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Track(nil), m.Catalog...), nil
}

func (m *MockSource) Playlists(ctx context.Context) ([]models.RemotePlaylist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.RemotePlaylist(nil), m.Account...), nil
}

func (m *MockSource) CreatePlaylist(ctx context.Context, name string, trackIDs []string, public bool) (models.RemotePlaylist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return models.RemotePlaylist{}, m.Err
	}
	p := models.RemotePlaylist{
		ID:       fmt.Sprintf("%024x", len(m.Account)+1),
		Name:     name,
		Public:   public,
		TrackIDs: append([]string(nil), trackIDs...),
	}
	m.Account = append(m.Account, p)
	m.setTracks(p)
	return p, nil
}

func (m *MockSource) EditPlaylist(ctx context.Context, id string, edit models.PlaylistEdit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Account {
		p := &m.Account[i]
		if p.ID != id {
			continue
		}
		if edit.Deleted {
			m.Account = append(m.Account[:i], m.Account[i+1:]...)
			delete(m.Tracklists, id)
			return nil
		}
		if edit.Name != nil {
			p.Name = *edit.Name
		}
		if edit.Public != nil {
			p.Public = *edit.Public
		}
		if edit.TrackIDs != nil {
			p.TrackIDs = append([]string(nil), edit.TrackIDs...)
			m.setTracks(*p)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
}

func (m *MockSource) setTracks(p models.RemotePlaylist) {
	if m.Tracklists == nil {
		m.Tracklists = map[string][]models.Track{}
	}
	tracks := make([]models.Track, len(p.TrackIDs))
	for i, id := range p.TrackIDs {
		tracks[i] = models.Track{ID: id}
	}
	m.Tracklists[p.ID] = tracks
}

// Calls returns how many times any source method was called.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockProvider returns canned row-sets, one per call, repeating the last. Err, when set, wins.
type MockProvider struct {
	mu      sync.Mutex
	Results []models.RowSet
	Err     error
	Sources []string
	calls   int
}

func (m *MockProvider) FetchRows(ctx context.Context, source string) (models.RowSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.Sources = append(m.Sources, source)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Results) == 0 {
		return nil, nil
	}
	i := min(m.calls-1, len(m.Results)-1)
	return m.Results[i].Clone(), nil
}

func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
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
