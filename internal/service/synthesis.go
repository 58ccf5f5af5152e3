package service

import (
	"context"
	"fmt"
	"log/slog"

	"answerhub.dev/scribe/common/logger"
	"answerhub.dev/scribe/internal/directory"
	"answerhub.dev/scribe/internal/docstore"
	"answerhub.dev/scribe/internal/messaging"
	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/oracle"
	"answerhub.dev/scribe/internal/store"
)

// SynthesisService resolves ready escalations: it collects the owners'
// replies, judges them, and either folds a synthesized entry into the
// domain's document or closes the escalation without one.
type SynthesisService struct {
	escalations store.EscalationStore
	messenger   messaging.Messenger
	oracle      oracle.Oracle
	docs        docstore.Store
	directory   directory.Directory

	// generalDomainID marks the catch-all domain, which never gets the
	// "recorded but not published" notification.
	generalDomainID string
}

func NewSynthesisService(
	escalations store.EscalationStore,
	messenger messaging.Messenger,
	orc oracle.Oracle,
	docs docstore.Store,
	dir directory.Directory,
	generalDomainID string,
) *SynthesisService {
	return &SynthesisService{
		escalations:     escalations,
		messenger:       messenger,
		oracle:          orc,
		docs:            docs,
		directory:       dir,
		generalDomainID: generalDomainID,
	}
}

// ProcessEscalation drives one ready escalation to a terminal state. Any
// upstream failure leaves the record untouched so the next sweep retries it.
func (s *SynthesisService) ProcessEscalation(ctx context.Context, esc model.Escalation) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EscalationID: logger.Ptr(esc.ID),
		DomainID:     logger.Ptr(esc.DomainID),
		Channel:      logger.Ptr(esc.Channel),
	})

	replies, err := s.ownerReplies(ctx, esc)
	if err != nil {
		return err
	}
	if len(replies) == 0 {
		if _, err := s.escalations.Skip(ctx, esc.ID, model.SkipReasonNoResponses); err != nil {
			return err
		}
		slog.InfoContext(ctx, "escalation skipped, no owner responses")
		return nil
	}

	substantive, err := s.oracle.CheckSubstantive(ctx, esc.OriginalQuestion, replies)
	if err != nil {
		return fmt.Errorf("checking substantive replies: %w", err)
	}
	if !substantive.Substantive {
		if _, err := s.escalations.Skip(ctx, esc.ID, model.SkipReasonNonSubstantive); err != nil {
			return err
		}
		slog.InfoContext(ctx, "escalation skipped, replies not substantive",
			"rationale", substantive.Rationale)
		return nil
	}

	synthesis, err := s.oracle.Synthesize(ctx, esc.OriginalQuestion, replies)
	if err != nil {
		return fmt.Errorf("synthesizing entry: %w", err)
	}

	if !synthesis.ShouldPublish {
		if esc.DomainID != s.generalDomainID {
			if err := s.messenger.PostReply(ctx, esc.Channel, esc.ThreadID,
				"Thanks, the discussion was recorded but was too situational to add to the knowledge base."); err != nil {
				return fmt.Errorf("notifying thread: %w", err)
			}
		}
		if _, err := s.escalations.Complete(ctx, esc.ID, nil); err != nil {
			return err
		}
		slog.InfoContext(ctx, "escalation completed without document change")
		return nil
	}

	domain, err := s.directory.Resolve(ctx, esc.DomainID)
	if err != nil {
		return fmt.Errorf("resolving domain: %w", err)
	}

	style, err := s.docs.AnalyzeFormat(ctx, domain.DocumentRef)
	if err != nil {
		return fmt.Errorf("analyzing document format: %w", err)
	}

	entryURL, err := s.docs.AppendEntry(ctx, domain.DocumentRef, synthesis.Question, synthesis.Answer, style)
	if err != nil {
		return fmt.Errorf("appending entry: %w", err)
	}
	s.docs.Invalidate(ctx, domain.DocumentRef)

	if err := s.messenger.PostReply(ctx, esc.Channel, esc.ThreadID,
		"This thread's answer was added to the knowledge base: "+entryURL); err != nil {
		// The entry landed; the link announcement is not worth a retry
		// that would append it twice.
		slog.WarnContext(ctx, "failed to announce new entry", "error", err)
	}

	if _, err := s.escalations.Complete(ctx, esc.ID, &entryURL); err != nil {
		return err
	}
	slog.InfoContext(ctx, "escalation completed with new entry", "url", entryURL)
	return nil
}

// ownerReplies fetches thread replies since the escalated question, keeping
// only those from owners and dropping automated senders.
func (s *SynthesisService) ownerReplies(ctx context.Context, esc model.Escalation) ([]string, error) {
	replies, err := s.messenger.FetchReplies(ctx, esc.Channel, esc.ThreadID, esc.OriginMessageID)
	if err != nil {
		return nil, fmt.Errorf("fetching replies: %w", err)
	}

	owners := make(map[string]struct{}, len(esc.OwnerUserIDs))
	for _, userID := range esc.OwnerUserIDs {
		owners[userID] = struct{}{}
	}

	var texts []string
	for _, reply := range replies {
		if reply.IsAutomated {
			continue
		}
		if _, ok := owners[reply.UserID]; !ok {
			continue
		}
		texts = append(texts, reply.Text)
	}
	return texts, nil
}
