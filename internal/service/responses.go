package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"answerhub.dev/scribe/common/logger"
	"answerhub.dev/scribe/internal/store"
)

// ResponseService records owner activity in tracked threads. A thread reply
// arms the synthesis timer on a live escalation, or grows the responder set
// on a live tracked answer.
type ResponseService struct {
	escalations store.EscalationStore
	answers     store.TrackedAnswerStore

	escalationDelay time.Duration
	correctionDelay time.Duration
	botUserID       string
}

func NewResponseService(
	escalations store.EscalationStore,
	answers store.TrackedAnswerStore,
	escalationDelay, correctionDelay time.Duration,
	botUserID string,
) *ResponseService {
	return &ResponseService{
		escalations:     escalations,
		answers:         answers,
		escalationDelay: escalationDelay,
		correctionDelay: correctionDelay,
		botUserID:       botUserID,
	}
}

// RecordThreadReply notes that userID replied in a thread. Replies from the
// bot itself or from users outside the record's owner set are ignored;
// threads with no live record are a no-op.
func (s *ResponseService) RecordThreadReply(ctx context.Context, channel, threadID, userID string) error {
	if userID == "" || userID == s.botUserID {
		return nil
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Channel: logger.Ptr(channel),
		UserID:  logger.Ptr(userID),
	})

	esc, err := s.escalations.FindLiveByThread(ctx, channel, threadID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if esc != nil {
		if !isOwner(esc.OwnerUserIDs, userID) {
			slog.DebugContext(ctx, "thread reply from non-owner ignored",
				"escalation_id", esc.ID)
			return nil
		}
		armed, err := s.escalations.RecordResponse(ctx, esc.ID, s.escalationDelay)
		if err != nil {
			return err
		}
		if armed {
			slog.InfoContext(ctx, "escalation response recorded",
				"escalation_id", esc.ID)
		}
		return nil
	}

	ans, err := s.answers.FindLiveByThread(ctx, channel, threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if !isOwner(ans.OwnerUserIDs, userID) {
		slog.DebugContext(ctx, "thread reply from non-owner ignored",
			"answer_id", ans.ID)
		return nil
	}
	recorded, err := s.answers.RecordResponse(ctx, ans.ID, userID, s.correctionDelay)
	if err != nil {
		return err
	}
	if recorded {
		slog.InfoContext(ctx, "tracked-answer response recorded", "answer_id", ans.ID)
	}
	return nil
}

func isOwner(owners []string, userID string) bool {
	for _, id := range owners {
		if id == userID {
			return true
		}
	}
	return false
}
