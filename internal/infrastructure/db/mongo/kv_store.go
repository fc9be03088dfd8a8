package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// KVStore keeps visitor storage as one document per key.
type KVStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func newKVStore(coll *mongo.Collection) *KVStore {
	return &KVStore{coll: coll, now: time.Now}
}

type mongoItem struct {
	Key       string `bson:"_id"`
	Value     string `bson:"value"`
	UpdatedAt int64  `bson:"updated_at"`
}

// ensureIndexes expires documents ttl after their last write. A zero ttl
// keeps them forever.
func (s *KVStore) ensureIndexes(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("create ttl index: %w", err)
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var it mongoItem
	if err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&it); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find item: %w", err)
	}
	return it.Value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	now := s.now().UTC()
	update := bson.M{"$set": bson.M{
		"value":      value,
		"updated_at": now.Unix(),
		"expires_at": now,
	}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}}); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

// Close disconnects the client the store was opened with.
func (s *KVStore) Close(ctx context.Context) error {
	return s.coll.Database().Client().Disconnect(ctx)
}
