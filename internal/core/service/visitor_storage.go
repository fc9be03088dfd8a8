package service

import (
	"context"

	"github.com/99minutos/reservation-console/internal/core/ports"
)

// VisitorStorage namespaces a shared KeyValueStore to one visitor.
// Key format: <visitor>:<key>
type VisitorStorage struct {
	kv      ports.KeyValueStore
	visitor string
}

func NewVisitorStorage(kv ports.KeyValueStore, visitor string) *VisitorStorage {
	return &VisitorStorage{kv: kv, visitor: visitor}
}

func (s *VisitorStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	return s.kv.Get(ctx, s.key(key))
}

func (s *VisitorStorage) SetItem(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.key(key), value)
}

func (s *VisitorStorage) RemoveItem(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = s.key(k)
	}
	return s.kv.Delete(ctx, scoped...)
}

func (s *VisitorStorage) key(k string) string {
	return s.visitor + ":" + k
}
