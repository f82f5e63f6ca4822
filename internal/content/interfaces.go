package content

import (
	"context"
	"time"
)

// Store persists imported records. Records are immutable once created;
// there is no update or delete path.
type Store interface {
	// Create persists the record and returns it as stored.
	Create(ctx context.Context, rec SiteContent) (SiteContent, error)

	// Latest returns up to limit records ordered newest first by CreatedAt.
	Latest(ctx context.Context, limit int) ([]SiteContent, error)

	// Ping verifies connectivity to the backing storage.
	Ping(ctx context.Context) error

	// Name identifies the provider for diagnostics ("mongo", "postgres", "memory").
	Name() string

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}

// CollectionLister is implemented by stores that can enumerate their
// backing collections; the /test diagnostic endpoint uses it when present.
type CollectionLister interface {
	Collections(ctx context.Context) ([]string, error)
}

// Fetcher retrieves a URL and returns its body plus metadata. Any non-200
// final status or network failure is returned as a *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Hasher computes digests over fetched bodies for integrity metadata.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
