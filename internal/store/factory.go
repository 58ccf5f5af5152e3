package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Stores bundles the record stores behind their contracts.
type Stores struct {
	escalations EscalationStore
	answers     TrackedAnswerStore
	pending     PendingActionStore
	ledger      CorrectionLedger
}

// NewStores wires the production backends: postgres for the lifecycle
// records, redis for pending actions and the correction ledger.
func NewStores(pool *pgxpool.Pool, client *redis.Client) *Stores {
	return &Stores{
		escalations: newEscalationStore(pool),
		answers:     newTrackedAnswerStore(pool),
		pending:     newRedisPendingActionStore(client),
		ledger:      newRedisCorrectionLedger(client),
	}
}

// NewMemoryStores wires the in-memory backends for tests and local runs.
func NewMemoryStores() *Stores {
	return &Stores{
		escalations: NewMemoryEscalationStore(),
		answers:     NewMemoryTrackedAnswerStore(),
		pending:     NewMemoryPendingActionStore(),
		ledger:      NewMemoryCorrectionLedger(),
	}
}

func (s *Stores) Escalations() EscalationStore {
	return s.escalations
}

func (s *Stores) TrackedAnswers() TrackedAnswerStore {
	return s.answers
}

func (s *Stores) PendingActions() PendingActionStore {
	return s.pending
}

func (s *Stores) Corrections() CorrectionLedger {
	return s.ledger
}
