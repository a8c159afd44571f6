package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "movie-dropoff/internal/common/errors"
	"movie-dropoff/internal/models"
)

// DataKey is the per-session slot the submitted vector is written to.
const DataKey = "userSurveyData"

type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, sessionID, DataKey)
}

func (s *RedisStore) SaveVector(ctx context.Context, sessionID string, v models.FeatureVector) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.NewInvalidFeatureVectorError(err.Error())
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return apperrors.NewSessionStoreFailedError("write", err)
	}
	return nil
}

// LoadVector returns ErrNotFound for a missing key and a SCHEMA_FAILURE
// error when the stored blob no longer decodes into a full vector.
func (s *RedisStore) LoadVector(ctx context.Context, sessionID string) (models.FeatureVector, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.FeatureVector{}, ErrNotFound
	}
	if err != nil {
		return models.FeatureVector{}, apperrors.NewSessionStoreFailedError("read", err)
	}

	var v models.FeatureVector
	if err := json.Unmarshal(data, &v); err != nil {
		return models.FeatureVector{}, apperrors.NewSchemaFailureError("session store", err.Error())
	}
	return v, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return apperrors.NewSessionStoreFailedError("delete", err)
	}
	return nil
}
