package ports

import "context"

// KeyValueStore is the durable store that backs every visitor's storage.
type KeyValueStore interface {
	// Get returns ok=false when the key does not exist.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// LocalStorage is one visitor's durable key/value space. It mirrors the
// browser storage the session and avatars were originally kept in.
type LocalStorage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, keys ...string) error
}
