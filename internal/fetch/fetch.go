package fetch

import (
	"context"

	"github.com/desertthunder/mcb/internal/models"
)

// Provider fetches the rows of a remote source. Nil or empty rows mean "no update", not an error.
type Provider interface {
	FetchRows(ctx context.Context, source string) (models.RowSet, error)
}

// ProviderFunc adapts a function to [Provider].
type ProviderFunc func(ctx context.Context, source string) (models.RowSet, error)

func (f ProviderFunc) FetchRows(ctx context.Context, source string) (models.RowSet, error) {
	return f(ctx, source)
}

// Reference is the dataset fetched rows are validated against.
type Reference interface {
	Contains(key string) bool
	Len() int
}

// Cache is the fallback store. [*cache.Disk] implements it.
type Cache interface {
	Read(key string) (models.RowSet, error)
	Write(key string, rows models.RowSet) error
	Clear(key string) error
}

// Consumer is the view of a source. Its methods are only called through the [Dispatcher].
type Consumer interface {
	SetRows(rows models.RowSet)
	SetPlaceholder(p Placeholder)
	Notify(message string)
}

// State is the fetch state of a coordinator.
type State int

const (
	Idle State = iota
	Fetching
	Succeeded
	FailedWithFallback
	FailedEmpty
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Succeeded:
		return "succeeded"
	case FailedWithFallback:
		return "restored from cache"
	case FailedEmpty:
		return "no data"
	default:
		return "unknown"
	}
}

// Placeholder is what a consumer shows while it has no rows to display.
type Placeholder int

const (
	PlaceholderLoading Placeholder = iota
	PlaceholderFetching
	// PlaceholderRetry is shown only when a source has no data, live or cached.
	PlaceholderRetry
	// PlaceholderNoMatches is shown when data is loaded but a filter leaves nothing.
	PlaceholderNoMatches
)

func (p Placeholder) String() string {
	switch p {
	case PlaceholderLoading:
		return "Loading..."
	case PlaceholderFetching:
		return "Fetching..."
	case PlaceholderRetry:
		return "Nothing to show. Press r to retry."
	case PlaceholderNoMatches:
		return "No matches found"
	default:
		return ""
	}
}

// RestoredMessage is the notification published when a source falls back to its cached rows.
func RestoredMessage(name string) string {
	return name + " was restored from cache"
}
