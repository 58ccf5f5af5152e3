package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"answerhub.dev/scribe/common/id"
	"answerhub.dev/scribe/internal/model"
)

// In-memory implementations of the store contracts, used by tests and local
// development. They enforce the same guarded transitions as the SQL-backed
// stores; a mutex stands in for row-level atomicity.

type MemoryEscalationStore struct {
	mu      sync.Mutex
	records map[int64]*model.Escalation
	now     func() time.Time
}

func NewMemoryEscalationStore() *MemoryEscalationStore {
	return &MemoryEscalationStore{
		records: make(map[int64]*model.Escalation),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *MemoryEscalationStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryEscalationStore) Create(_ context.Context, esc *model.Escalation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if esc.ID == 0 {
		esc.ID = id.New()
	}
	esc.Status = model.EscalationStatusAwaitingResponse
	esc.EscalatedAt = s.now()

	stored := *esc
	s.records[esc.ID] = &stored
	return nil
}

func (s *MemoryEscalationStore) GetByID(_ context.Context, escID int64) (*model.Escalation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[escID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryEscalationStore) FindLiveByThread(_ context.Context, channel, threadID string) (*model.Escalation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.Channel == channel && rec.ThreadID == threadID && !rec.Status.Terminal() {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryEscalationStore) RecordResponse(_ context.Context, escID int64, delay time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[escID]
	if !ok || rec.Status != model.EscalationStatusAwaitingResponse {
		return false, nil
	}

	now := s.now()
	after := now.Add(delay)
	rec.Status = model.EscalationStatusReadyToSynthesize
	rec.FirstResponseAt = &now
	rec.SynthesizeAfter = &after
	return true, nil
}

func (s *MemoryEscalationStore) ReadyToSynthesize(_ context.Context) ([]model.Escalation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []model.Escalation
	for _, rec := range s.records {
		if rec.Status == model.EscalationStatusReadyToSynthesize &&
			rec.SynthesizeAfter != nil && !rec.SynthesizeAfter.After(now) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *MemoryEscalationStore) Complete(_ context.Context, escID int64, documentURL *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[escID]
	if !ok || rec.Status.Terminal() {
		return false, nil
	}

	now := s.now()
	rec.Status = model.EscalationStatusCompleted
	rec.CompletedAt = &now
	rec.DocumentURL = documentURL
	return true, nil
}

func (s *MemoryEscalationStore) Skip(_ context.Context, escID int64, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[escID]
	if !ok || rec.Status.Terminal() {
		return false, nil
	}

	now := s.now()
	rec.Status = model.EscalationStatusSkipped
	rec.SkippedAt = &now
	rec.SkipReason = &reason
	return true, nil
}

func (s *MemoryEscalationStore) PruneOlderThan(_ context.Context, days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().AddDate(0, 0, -days)
	var pruned int64
	for escID, rec := range s.records {
		if !rec.Status.Terminal() {
			continue
		}
		ts := rec.EscalatedAt
		if rec.CompletedAt != nil {
			ts = *rec.CompletedAt
		} else if rec.SkippedAt != nil {
			ts = *rec.SkippedAt
		}
		if ts.Before(cutoff) {
			delete(s.records, escID)
			pruned++
		}
	}
	return pruned, nil
}

func (s *MemoryEscalationStore) OpenOlderThan(_ context.Context, cutoff time.Time) ([]model.Escalation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Escalation
	for _, rec := range s.records {
		if !rec.Status.Terminal() && rec.EscalatedAt.Before(cutoff) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type MemoryTrackedAnswerStore struct {
	mu      sync.Mutex
	records map[int64]*model.TrackedAnswer
	now     func() time.Time
}

func NewMemoryTrackedAnswerStore() *MemoryTrackedAnswerStore {
	return &MemoryTrackedAnswerStore{
		records: make(map[int64]*model.TrackedAnswer),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *MemoryTrackedAnswerStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryTrackedAnswerStore) Create(_ context.Context, ans *model.TrackedAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ans.ID == 0 {
		ans.ID = id.New()
	}
	ans.Status = model.TrackedAnswerStatusActive
	ans.CreatedAt = s.now()

	stored := *ans
	s.records[ans.ID] = &stored
	return nil
}

func (s *MemoryTrackedAnswerStore) GetByID(_ context.Context, ansID int64) (*model.TrackedAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[ansID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryTrackedAnswerStore) FindLiveByThread(_ context.Context, channel, threadID string) (*model.TrackedAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.Channel == channel && rec.ThreadID == threadID && !rec.Status.Terminal() {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryTrackedAnswerStore) RecordResponse(_ context.Context, ansID int64, userID string, delay time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[ansID]
	if !ok || rec.Status.Terminal() {
		return false, nil
	}

	if !contains(rec.RespondingOwnerIDs, userID) {
		rec.RespondingOwnerIDs = append(rec.RespondingOwnerIDs, userID)
	}

	now := s.now()
	if rec.FirstResponseAt == nil {
		rec.FirstResponseAt = &now
	}
	// The deadline is armed from the first response only; later responders
	// never reset it.
	if rec.Status == model.TrackedAnswerStatusActive {
		after := now.Add(delay)
		rec.ProcessAfter = &after
		rec.Status = model.TrackedAnswerStatusPendingCorrection
	}
	return true, nil
}

func (s *MemoryTrackedAnswerStore) ReadyToProcess(_ context.Context) ([]model.TrackedAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []model.TrackedAnswer
	for _, rec := range s.records {
		if rec.Status == model.TrackedAnswerStatusPendingCorrection &&
			rec.ProcessAfter != nil && !rec.ProcessAfter.After(now) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *MemoryTrackedAnswerStore) MarkProcessed(_ context.Context, ansID int64, outcome, detail string) (bool, error) {
	return s.finalize(ansID, model.TrackedAnswerStatusProcessed, outcome, detail)
}

func (s *MemoryTrackedAnswerStore) MarkCorrected(_ context.Context, ansID int64, detail string) (bool, error) {
	return s.finalize(ansID, model.TrackedAnswerStatusCorrected, model.OutcomeCorrected, detail)
}

func (s *MemoryTrackedAnswerStore) finalize(ansID int64, status model.TrackedAnswerStatus, outcome, detail string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[ansID]
	if !ok || rec.Status.Terminal() {
		return false, nil
	}

	now := s.now()
	rec.Status = status
	rec.ResolvedAt = &now
	rec.Outcome = &outcome
	rec.OutcomeDetail = &detail
	return true, nil
}

func (s *MemoryTrackedAnswerStore) PruneOlderThan(_ context.Context, days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().AddDate(0, 0, -days)
	var pruned int64
	for ansID, rec := range s.records {
		if !rec.Status.Terminal() {
			continue
		}
		ts := rec.CreatedAt
		if rec.ResolvedAt != nil {
			ts = *rec.ResolvedAt
		}
		if ts.Before(cutoff) {
			delete(s.records, ansID)
			pruned++
		}
	}
	return pruned, nil
}

func (s *MemoryTrackedAnswerStore) OpenOlderThan(_ context.Context, cutoff time.Time) ([]model.TrackedAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.TrackedAnswer
	for _, rec := range s.records {
		if !rec.Status.Terminal() && rec.CreatedAt.Before(cutoff) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type MemoryPendingActionStore struct {
	mu      sync.Mutex
	actions map[string]model.PendingAction
	now     func() time.Time
}

func NewMemoryPendingActionStore() *MemoryPendingActionStore {
	return &MemoryPendingActionStore{
		actions: make(map[string]model.PendingAction),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *MemoryPendingActionStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryPendingActionStore) Get(_ context.Context, userID string) (*model.PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	action, ok := s.actions[userID]
	if !ok {
		return nil, nil
	}
	if action.Expired(s.now()) {
		delete(s.actions, userID)
		return nil, nil
	}
	cp := action
	return &cp, nil
}

func (s *MemoryPendingActionStore) Put(_ context.Context, action model.PendingAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[action.UserID] = action
	return nil
}

func (s *MemoryPendingActionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.actions, userID)
	return nil
}

func (s *MemoryPendingActionStore) DeleteByCorrectionID(_ context.Context, correctionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := 0
	for userID, action := range s.actions {
		if action.Intent != model.PendingIntentCorrectionApproval {
			continue
		}
		var payload model.CorrectionApprovalPayload
		if err := json.Unmarshal(action.Payload, &payload); err != nil {
			continue
		}
		if payload.CorrectionID == correctionID {
			delete(s.actions, userID)
			cleared++
		}
	}
	return cleared, nil
}

type MemoryCorrectionLedger struct {
	mu      sync.Mutex
	applied map[string]struct{}
}

func NewMemoryCorrectionLedger() *MemoryCorrectionLedger {
	return &MemoryCorrectionLedger{applied: make(map[string]struct{})}
}

func (l *MemoryCorrectionLedger) MarkApplied(_ context.Context, correctionID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.applied[correctionID]; ok {
		return false, nil
	}
	l.applied[correctionID] = struct{}{}
	return true, nil
}

func (l *MemoryCorrectionLedger) IsApplied(_ context.Context, correctionID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.applied[correctionID]
	return ok, nil
}

func (l *MemoryCorrectionLedger) Clear(_ context.Context, correctionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.applied, correctionID)
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
