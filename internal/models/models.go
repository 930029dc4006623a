// package models defines the data model for the catalog browser
package models

import (
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Track represents a catalog track. Two tracks are the same track when their IDs match.
type Track struct {
	ID        string `json:"id"`
	CatalogID string `json:"catalog_id,omitempty"` // Release catalog number, e.g. MCS123
	Title     string `json:"title"`
	Artists   string `json:"artists"`
	Album     string `json:"album,omitempty"`
	Genre     string `json:"genre,omitempty"`
	Duration  int    `json:"duration,omitempty"` // Duration in seconds
}

// Is reports whether t and other have the same identity.
func (t Track) Is(other Track) bool {
	return t.ID == other.ID
}

// String renders "Artists - Title".
func (t Track) String() string {
	if t.Artists == "" {
		return t.Title
	}
	return t.Artists + " - " + t.Title
}

// RemotePlaylist is a playlist kept on the remote account.
type RemotePlaylist struct {
	ID       string
	Name     string
	Public   bool
	TrackIDs []string
}

// PlaylistEdit describes a change to a remote playlist. Nil fields are left as they are.
type PlaylistEdit struct {
	Name     *string
	Public   *bool
	TrackIDs []string // Replaces the tracks when non-nil
	Deleted  bool
}

// RowSet is an ordered sequence of rows, each an ordered sequence of fields.
//
// Row-sets produced from sheets carry the header as row 0.
type RowSet [][]string

// Header returns row 0, or nil for an empty row-set.
func (r RowSet) Header() []string {
	if len(r) == 0 {
		return nil
	}
	return r[0]
}

// Body returns every row after the header.
func (r RowSet) Body() RowSet {
	if len(r) <= 1 {
		return nil
	}
	return r[1:]
}

// Clone returns a deep copy.
func (r RowSet) Clone() RowSet {
	if r == nil {
		return nil
	}
	out := make(RowSet, len(r))
	for i, row := range r {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Equal reports whether r and other hold the same fields in the same order.
func (r RowSet) Equal(other RowSet) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if len(r[i]) != len(other[i]) {
			return false
		}
		for j := range r[i] {
			if r[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// Columns maps header names to their index.
type Columns struct {
	names []string
	index map[string]int
}

// NewColumns builds a [Columns] from a header row. Later duplicates do not override earlier names.
func NewColumns(header []string) Columns {
	c := Columns{names: append([]string(nil), header...), index: make(map[string]int, len(header))}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := c.index[key]; !ok {
			c.index[key] = i
		}
	}
	return c
}

// Names returns the header names in order.
func (c Columns) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of columns.
func (c Columns) Len() int {
	return len(c.names)
}

// Find returns the index of the column named name, ignoring case and surrounding whitespace.
// When there is no exact match, the first column whose name contains name is used.
func (c Columns) Find(name string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return 0, false
	}
	if i, ok := c.index[key]; ok {
		return i, true
	}
	for i, n := range c.names {
		if strings.Contains(strings.ToLower(n), key) {
			return i, true
		}
	}
	return 0, false
}

// FindAll returns the indexes of every column whose name contains name, ignoring case.
func (c Columns) FindAll(name string) []int {
	key := strings.ToLower(strings.TrimSpace(name))
	var out []int
	for i, n := range c.names {
		if key != "" && strings.Contains(strings.ToLower(n), key) {
			out = append(out, i)
		}
	}
	return out
}

// Value returns the field of row at the named column, or "" when absent.
func (c Columns) Value(row []string, name string) string {
	i, ok := c.Find(name)
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
