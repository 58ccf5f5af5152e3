package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"answerhub.dev/scribe/internal/model"
)

const pendingKeyPrefix = "scribe:pending:"

// redisPendingActionStore keeps one JSON value per user under a TTL'd key.
// Redis expiry and the record's own ExpiresAt are both enforced: the key TTL
// reclaims storage, the field check guarantees a read moments after expiry
// never resurrects the action.
type redisPendingActionStore struct {
	client *redis.Client
}

func newRedisPendingActionStore(client *redis.Client) PendingActionStore {
	return &redisPendingActionStore{client: client}
}

func (s *redisPendingActionStore) Get(ctx context.Context, userID string) (*model.PendingAction, error) {
	raw, err := s.client.Get(ctx, pendingKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading pending action: %w", err)
	}

	var action model.PendingAction
	if err := json.Unmarshal(raw, &action); err != nil {
		return nil, fmt.Errorf("decoding pending action: %w", err)
	}

	if action.Expired(time.Now()) {
		// Lazy expiry: discard and report absent.
		_ = s.client.Del(ctx, pendingKeyPrefix+userID).Err()
		return nil, nil
	}
	return &action, nil
}

func (s *redisPendingActionStore) Put(ctx context.Context, action model.PendingAction) error {
	raw, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encoding pending action: %w", err)
	}

	ttl := time.Until(action.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("pending action already expired")
	}
	return s.client.Set(ctx, pendingKeyPrefix+action.UserID, raw, ttl).Err()
}

func (s *redisPendingActionStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, pendingKeyPrefix+userID).Err()
}

func (s *redisPendingActionStore) DeleteByCorrectionID(ctx context.Context, correctionID string) (int, error) {
	var (
		cleared int
		cursor  uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pendingKeyPrefix+"*", 100).Result()
		if err != nil {
			return cleared, fmt.Errorf("scanning pending actions: %w", err)
		}

		for _, key := range keys {
			raw, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return cleared, err
			}

			var action model.PendingAction
			if err := json.Unmarshal(raw, &action); err != nil {
				continue
			}
			if action.Intent != model.PendingIntentCorrectionApproval {
				continue
			}

			var payload model.CorrectionApprovalPayload
			if err := json.Unmarshal(action.Payload, &payload); err != nil {
				continue
			}
			if payload.CorrectionID != correctionID {
				continue
			}

			if err := s.client.Del(ctx, key).Err(); err != nil {
				return cleared, err
			}
			cleared++
		}

		cursor = next
		if cursor == 0 {
			return cleared, nil
		}
	}
}
