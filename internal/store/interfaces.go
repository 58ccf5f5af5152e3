package store

import (
	"context"
	"errors"
	"time"

	"answerhub.dev/scribe/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// EscalationStore defines the contract for escalation record access.
// All transition operations are guarded compare-and-set: they check the
// current status and only then write the next one, so a race between two
// concurrent transitions resolves as first-wins, second no-ops.
type EscalationStore interface {
	Create(ctx context.Context, esc *model.Escalation) error
	GetByID(ctx context.Context, id int64) (*model.Escalation, error)
	// FindLiveByThread returns the non-terminal escalation for a
	// conversation thread, if any.
	FindLiveByThread(ctx context.Context, channel, threadID string) (*model.Escalation, error)
	// RecordResponse transitions awaiting_response -> ready_to_synthesize
	// and arms the synthesis deadline. Returns false without side effects
	// when the record is not in awaiting_response.
	RecordResponse(ctx context.Context, id int64, delay time.Duration) (bool, error)
	// ReadyToSynthesize lists records whose synthesis deadline has passed.
	ReadyToSynthesize(ctx context.Context) ([]model.Escalation, error)
	// Complete is a terminal transition. Returns false when the record is
	// missing or already terminal.
	Complete(ctx context.Context, id int64, documentURL *string) (bool, error)
	// Skip is a terminal transition with a reason. Returns false when the
	// record is missing or already terminal.
	Skip(ctx context.Context, id int64, reason string) (bool, error)
	// PruneOlderThan removes terminal records whose terminal timestamp is
	// older than the cutoff. Non-terminal records are never removed.
	PruneOlderThan(ctx context.Context, days int) (int64, error)
	// OpenOlderThan lists non-terminal records opened before the cutoff,
	// regardless of whether their deadline has passed.
	OpenOlderThan(ctx context.Context, cutoff time.Time) ([]model.Escalation, error)
}

// TrackedAnswerStore defines the contract for tracked-answer record access.
type TrackedAnswerStore interface {
	Create(ctx context.Context, ans *model.TrackedAnswer) error
	GetByID(ctx context.Context, id int64) (*model.TrackedAnswer, error)
	FindLiveByThread(ctx context.Context, channel, threadID string) (*model.TrackedAnswer, error)
	// RecordResponse adds userID to the responder set. The first response
	// arms the processing deadline and moves the record to
	// pending_correction; later responses only grow the responder set.
	// Returns false when the record is missing or already terminal.
	RecordResponse(ctx context.Context, id int64, userID string, delay time.Duration) (bool, error)
	// ReadyToProcess lists records whose processing deadline has passed.
	ReadyToProcess(ctx context.Context) ([]model.TrackedAnswer, error)
	// MarkProcessed is a terminal transition for answers that ended without
	// a correction. Returns false when missing or already terminal.
	MarkProcessed(ctx context.Context, id int64, outcome, detail string) (bool, error)
	// MarkCorrected is a terminal transition for answers whose correction
	// flow was opened. Returns false when missing or already terminal.
	MarkCorrected(ctx context.Context, id int64, detail string) (bool, error)
	PruneOlderThan(ctx context.Context, days int) (int64, error)
	// OpenOlderThan lists non-terminal records opened before the cutoff.
	OpenOlderThan(ctx context.Context, cutoff time.Time) ([]model.TrackedAnswer, error)
}

// PendingActionStore holds per-user conversational state with lazy expiry:
// a read past the action's expiry returns nil and discards the entry.
type PendingActionStore interface {
	// Get returns nil when no live action exists for the user.
	Get(ctx context.Context, userID string) (*model.PendingAction, error)
	Put(ctx context.Context, action model.PendingAction) error
	Delete(ctx context.Context, userID string) error
	// DeleteByCorrectionID clears every pending action referencing the
	// correction id, across users. Returns the number cleared.
	DeleteByCorrectionID(ctx context.Context, correctionID string) (int, error)
}

// CorrectionLedger is the durable set of correction ids that have already
// produced a document mutation. MarkApplied is the idempotency gate: within
// the set of concurrent approvers, exactly one caller observes true.
type CorrectionLedger interface {
	// MarkApplied records the correction id and reports whether this call
	// was the first to do so.
	MarkApplied(ctx context.Context, correctionID string) (bool, error)
	IsApplied(ctx context.Context, correctionID string) (bool, error)
	// Clear releases a claim when the mutation it guarded failed, so a
	// later approval can retry.
	Clear(ctx context.Context, correctionID string) error
}
