package offline

import "context"

// Bucket is one named, versioned cache: request URL -> stored response.
type Bucket interface {
	Name() string
	// Match returns the entry stored for key or ErrNotFound.
	Match(ctx context.Context, key string) (*Entry, error)
	// Put stores or overwrites a single entry.
	Put(ctx context.Context, e *Entry) error
	// PutAll stores every entry or none of them.
	PutAll(ctx context.Context, entries []*Entry) error
	// Keys lists stored URLs.
	Keys(ctx context.Context) ([]string, error)
}

// Storage holds every bucket of the cache, like the browser's CacheStorage.
type Storage interface {
	// Open returns the named bucket, creating it if needed.
	Open(ctx context.Context, name string) (Bucket, error)
	Has(ctx context.Context, name string) (bool, error)
	// Names lists existing buckets in lexical order.
	Names(ctx context.Context) ([]string, error)
	// Delete removes a bucket and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
}
