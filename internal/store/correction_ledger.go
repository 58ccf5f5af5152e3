package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const appliedKeyPrefix = "scribe:corrections:applied:"

// redisCorrectionLedger records applied correction ids as persistent keys.
// SET NX makes MarkApplied a single-winner gate under concurrent approval,
// and the ledger survives process restarts.
type redisCorrectionLedger struct {
	client *redis.Client
}

func newRedisCorrectionLedger(client *redis.Client) CorrectionLedger {
	return &redisCorrectionLedger{client: client}
}

func (l *redisCorrectionLedger) MarkApplied(ctx context.Context, correctionID string) (bool, error) {
	first, err := l.client.SetNX(ctx, appliedKeyPrefix+correctionID, "1", 0).Result()
	if err != nil {
		return false, fmt.Errorf("marking correction applied: %w", err)
	}
	return first, nil
}

func (l *redisCorrectionLedger) IsApplied(ctx context.Context, correctionID string) (bool, error) {
	n, err := l.client.Exists(ctx, appliedKeyPrefix+correctionID).Result()
	if err != nil {
		return false, fmt.Errorf("checking correction ledger: %w", err)
	}
	return n > 0, nil
}

func (l *redisCorrectionLedger) Clear(ctx context.Context, correctionID string) error {
	return l.client.Del(ctx, appliedKeyPrefix+correctionID).Err()
}
