package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Cache errors
	ErrCacheNotFound = fmt.Errorf("cache entry not found")
	ErrCacheCorrupt  = fmt.Errorf("cache entry corrupt")
	ErrCacheDisabled = fmt.Errorf("caching disabled")
	ErrInvalidKey    = fmt.Errorf("invalid cache key")

	// Fetch and API errors
	ErrFetchFailed        = fmt.Errorf("fetch failed")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrUnknownSource      = fmt.Errorf("unknown data source")

	// Catalog and playlist errors
	ErrTrackNotInCatalog  = fmt.Errorf("track not found in catalog")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrInvalidPlaylistURL = fmt.Errorf("invalid playlist URL")
	ErrQueueEmpty         = fmt.Errorf("queue is empty")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
