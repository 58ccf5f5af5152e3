package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"answerhub.dev/scribe/common/id"
	"answerhub.dev/scribe/common/logger"
	"answerhub.dev/scribe/internal/directory"
	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/store"
)

// IntakeService opens lifecycle records on behalf of the question-answering
// front end: an escalation when a question was handed to the domain's owners,
// a tracked answer when the bot answered and the answer should be watched for
// corrections.
type IntakeService struct {
	escalations store.EscalationStore
	answers     store.TrackedAnswerStore
	directory   directory.Directory
}

func NewIntakeService(
	escalations store.EscalationStore,
	answers store.TrackedAnswerStore,
	dir directory.Directory,
) *IntakeService {
	return &IntakeService{
		escalations: escalations,
		answers:     answers,
		directory:   dir,
	}
}

// OpenEscalationRequest carries the fields of a question handed to owners.
type OpenEscalationRequest struct {
	Channel         string `json:"channel"`
	ThreadID        string `json:"thread_id"`
	OriginMessageID string `json:"origin_message_id"`
	DomainID        string `json:"domain_id"`
	Question        string `json:"question"`
}

// TrackAnswerRequest carries the fields of a bot answer to watch.
type TrackAnswerRequest struct {
	Channel           string   `json:"channel"`
	ThreadID          string   `json:"thread_id"`
	AnswerMessageID   string   `json:"answer_message_id"`
	DomainID          string   `json:"domain_id"`
	Question          string   `json:"question"`
	Answer            string   `json:"answer"`
	Evidence          []string `json:"evidence,omitempty"`
	DocumentSourceIDs []string `json:"document_source_ids,omitempty"`
}

// OpenEscalation creates an awaiting_response escalation for the thread. A
// thread can carry at most one live escalation; a duplicate request returns
// the existing record.
func (s *IntakeService) OpenEscalation(ctx context.Context, req OpenEscalationRequest) (*model.Escalation, error) {
	if err := requireFields(map[string]string{
		"channel":   req.Channel,
		"thread_id": req.ThreadID,
		"domain_id": req.DomainID,
		"question":  req.Question,
	}); err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		DomainID: logger.Ptr(req.DomainID),
		Channel:  logger.Ptr(req.Channel),
	})

	if existing, err := s.escalations.FindLiveByThread(ctx, req.Channel, req.ThreadID); err == nil {
		slog.InfoContext(ctx, "thread already has a live escalation",
			"escalation_id", existing.ID)
		return existing, nil
	}

	domain, err := s.directory.Resolve(ctx, req.DomainID)
	if err != nil {
		return nil, fmt.Errorf("resolving domain: %w", err)
	}

	esc := &model.Escalation{
		ID:               id.New(),
		Channel:          req.Channel,
		ThreadID:         req.ThreadID,
		OriginMessageID:  req.OriginMessageID,
		DomainID:         req.DomainID,
		OriginalQuestion: req.Question,
		OwnerUserIDs:     domain.OwnerUserIDs,
		Status:           model.EscalationStatusAwaitingResponse,
		EscalatedAt:      time.Now(),
	}
	if err := s.escalations.Create(ctx, esc); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "escalation opened", "escalation_id", esc.ID)
	return esc, nil
}

// TrackAnswer creates an active tracked answer for the thread. A thread can
// carry at most one live tracked answer; a duplicate request returns the
// existing record.
func (s *IntakeService) TrackAnswer(ctx context.Context, req TrackAnswerRequest) (*model.TrackedAnswer, error) {
	if err := requireFields(map[string]string{
		"channel":   req.Channel,
		"thread_id": req.ThreadID,
		"domain_id": req.DomainID,
		"question":  req.Question,
		"answer":    req.Answer,
	}); err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		DomainID: logger.Ptr(req.DomainID),
		Channel:  logger.Ptr(req.Channel),
	})

	if existing, err := s.answers.FindLiveByThread(ctx, req.Channel, req.ThreadID); err == nil {
		slog.InfoContext(ctx, "thread already has a live tracked answer",
			"answer_id", existing.ID)
		return existing, nil
	}

	domain, err := s.directory.Resolve(ctx, req.DomainID)
	if err != nil {
		return nil, fmt.Errorf("resolving domain: %w", err)
	}

	ans := &model.TrackedAnswer{
		ID:                id.New(),
		Channel:           req.Channel,
		ThreadID:          req.ThreadID,
		AnswerMessageID:   req.AnswerMessageID,
		DomainID:          req.DomainID,
		OriginalQuestion:  req.Question,
		BotAnswer:         req.Answer,
		Evidence:          req.Evidence,
		OwnerUserIDs:      domain.OwnerUserIDs,
		DocumentSourceIDs: req.DocumentSourceIDs,
		Status:            model.TrackedAnswerStatusActive,
		CreatedAt:         time.Now(),
	}
	if err := s.answers.Create(ctx, ans); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "tracked answer opened", "answer_id", ans.ID)
	return ans, nil
}

func requireFields(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
		}
	}
	return nil
}
