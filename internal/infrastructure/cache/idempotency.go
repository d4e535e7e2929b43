package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"retailcore/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// IdempotencyRecord is the JSON value stored under an idempotency key.
type IdempotencyRecord struct {
	UserID      string            `json:"userId"`
	Operation   string            `json:"operation"`
	RequestHash string            `json:"requestHash"`
	Status      IdempotencyStatus `json:"status"`
	StatusCode  int               `json:"statusCode,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
	Body        []byte            `json:"body,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore keeps idempotency keys in Redis. Keys expire after ttl;
// a pending key older than lockTimeout is treated as abandoned and reclaimed.
type IdempotencyStore struct {
	client      redis.UniversalClient
	ttl         time.Duration
	lockTimeout time.Duration
	now         func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(client redis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		client:      client,
		ttl:         ttl,
		lockTimeout: time.Minute,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func redisKey(scope, key string) string {
	return "idem:" + scope + ":" + key
}

// Acquire claims key within scope (usually the tenant).
// Returns:
//   - (nil, nil) if the key was claimed by this request
//   - (replay, nil) if the operation already finished
//   - (nil, error) if the key is held by a concurrent request or was used for a different request
func (s *IdempotencyStore) Acquire(ctx context.Context, scope, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	rk := redisKey(scope, key)
	fresh, err := json.Marshal(IdempotencyRecord{
		UserID:      userID,
		Operation:   operation,
		RequestHash: requestHash,
		Status:      IdempotencyStatusPending,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal idempotency record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, rk, fresh, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	var replay *IdempotencyReplay
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		existing, err := s.load(ctx, tx, rk)
		if err != nil {
			return err
		}
		if existing == nil {
			return s.claim(ctx, tx, rk, fresh)
		}

		if existing.UserID != userID || existing.Operation != operation || existing.RequestHash != requestHash {
			return apperror.NewIdempotencyMismatch(key).
				WithDetail("stored_operation", existing.Operation).
				WithDetail("request_operation", operation)
		}

		switch existing.Status {
		case IdempotencyStatusSuccess, IdempotencyStatusFailed:
			replay = &IdempotencyReplay{
				StatusCode:  existing.StatusCode,
				ContentType: existing.ContentType,
				Body:        existing.Body,
			}
			return nil
		default:
			if s.now().Sub(existing.UpdatedAt) <= s.lockTimeout {
				return apperror.NewIdempotencyConflict(key)
			}
			return s.claim(ctx, tx, rk, fresh)
		}
	}, rk)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	if err != nil {
		if _, ok := apperror.AsAppError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	return replay, nil
}

func (s *IdempotencyStore) load(ctx context.Context, c redis.Cmdable, rk string) (*IdempotencyRecord, error) {
	raw, err := c.Get(ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &rec, nil
}

func (s *IdempotencyStore) claim(ctx context.Context, tx *redis.Tx, rk string, data []byte) error {
	_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, rk, data, s.ttl)
		return nil
	})
	return err
}

// Complete stores the final response of a successful operation.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, scope, key, IdempotencyStatusSuccess, statusCode, contentType, body)
}

// Fail stores the response of an operation rejected by the domain so a retry
// replays the same error.
func (s *IdempotencyStore) Fail(ctx context.Context, scope, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, scope, key, IdempotencyStatusFailed, statusCode, contentType, body)
}

// Release drops the key so the request may be retried.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, redisKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) finish(ctx context.Context, scope, key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	rk := redisKey(scope, key)
	rec, err := s.load(ctx, s.client, rk)
	if err != nil {
		return fmt.Errorf("load idempotency key: %w", err)
	}
	if rec == nil {
		return nil
	}
	rec.Status = status
	rec.StatusCode = statusCode
	rec.ContentType = contentType
	rec.Body = body
	rec.UpdatedAt = s.now()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, rk, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("store idempotency response: %w", err)
	}
	return nil
}
