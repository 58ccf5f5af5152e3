package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"answerhub.dev/scribe/common/logger"
	"answerhub.dev/scribe/internal/directory"
	"answerhub.dev/scribe/internal/docstore"
	"answerhub.dev/scribe/internal/messaging"
	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/oracle"
	"answerhub.dev/scribe/internal/store"
)

// CorrectionService resolves ready tracked answers: it reads the owners'
// replies to a bot answer and, when they amount to a correction, opens an
// approval request with each candidate approver.
type CorrectionService struct {
	answers   store.TrackedAnswerStore
	pending   store.PendingActionStore
	messenger messaging.Messenger
	oracle    oracle.Oracle
	docs      docstore.Store
	directory directory.Directory

	fallbackApproverIDs []string
	pendingTTL          time.Duration
}

func NewCorrectionService(
	answers store.TrackedAnswerStore,
	pending store.PendingActionStore,
	messenger messaging.Messenger,
	orc oracle.Oracle,
	docs docstore.Store,
	dir directory.Directory,
	fallbackApproverIDs []string,
	pendingTTL time.Duration,
) *CorrectionService {
	return &CorrectionService{
		answers:             answers,
		pending:             pending,
		messenger:           messenger,
		oracle:              orc,
		docs:                docs,
		directory:           dir,
		fallbackApproverIDs: fallbackApproverIDs,
		pendingTTL:          pendingTTL,
	}
}

// ProcessAnswer drives one ready tracked answer to a terminal state. Any
// upstream failure leaves the record untouched so the next sweep retries it.
func (s *CorrectionService) ProcessAnswer(ctx context.Context, ans model.TrackedAnswer) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AnswerID: logger.Ptr(ans.ID),
		DomainID: logger.Ptr(ans.DomainID),
		Channel:  logger.Ptr(ans.Channel),
	})

	replies, err := s.ownerReplies(ctx, ans)
	if err != nil {
		return err
	}
	if len(replies) == 0 {
		if _, err := s.answers.MarkProcessed(ctx, ans.ID, model.OutcomeNoOwnerReplies, ""); err != nil {
			return err
		}
		slog.InfoContext(ctx, "tracked answer processed, no owner replies")
		return nil
	}

	result, err := s.oracle.CheckCorrection(ctx, oracle.CorrectionCheckRequest{
		Question:    ans.OriginalQuestion,
		PriorAnswer: ans.BotAnswer,
		Evidence:    ans.Evidence,
		Replies:     replies,
	})
	if err != nil {
		return fmt.Errorf("checking for correction: %w", err)
	}
	if !result.IsCorrection {
		if _, err := s.answers.MarkProcessed(ctx, ans.ID, model.OutcomeNotACorrection, result.Rationale); err != nil {
			return err
		}
		slog.InfoContext(ctx, "tracked answer processed, replies are not a correction")
		return nil
	}

	domain, err := s.directory.Resolve(ctx, ans.DomainID)
	if err != nil {
		return fmt.Errorf("resolving domain: %w", err)
	}

	match, matchedRef, err := s.locatePassage(ctx, ans, domain)
	if err != nil {
		return fmt.Errorf("locating passage: %w", err)
	}

	// Derived from the answer id so a retry after a partial fan-out reissues
	// the same correction rather than minting a competing one.
	correctionID := fmt.Sprintf("corr_%d", ans.ID)
	ctx = logger.WithLogFields(ctx, logger.LogFields{CorrectionID: logger.Ptr(correctionID)})

	payload := model.CorrectionApprovalPayload{
		CorrectionID: correctionID,
		AnswerID:     ans.ID,
		DomainID:     ans.DomainID,
		Question:     ans.OriginalQuestion,
		PriorAnswer:  ans.BotAnswer,
		ProposedText: result.ProposedText,
		DocumentRef:  domain.DocumentRef,
	}
	if match != nil {
		payload.BlockID = match.BlockID
		payload.BlockURL = match.URL
		payload.MatchedText = match.MatchedText
		if matchedRef != domain.DocumentRef {
			payload.AltDocumentRef = matchedRef
		}
	}

	approvers := ans.RespondingOwnerIDs
	if len(approvers) == 0 {
		approvers = s.fallbackApproverIDs
	}

	raw, err := model.MarshalPayload(payload)
	if err != nil {
		return fmt.Errorf("encoding approval payload: %w", err)
	}

	message := s.approvalMessage(payload)
	var delivered int
	for _, userID := range approvers {
		if err := s.pending.Put(ctx, model.PendingAction{
			UserID:    userID,
			Intent:    model.PendingIntentCorrectionApproval,
			Payload:   raw,
			ExpiresAt: time.Now().Add(s.pendingTTL),
		}); err != nil {
			return fmt.Errorf("storing pending approval for %s: %w", userID, err)
		}
		ok, err := s.messenger.SendDirect(ctx, userID, message)
		if err != nil {
			return fmt.Errorf("requesting approval from %s: %w", userID, err)
		}
		if !ok {
			slog.WarnContext(ctx, "approver unreachable", "user_id", userID)
			continue
		}
		delivered++
	}

	if _, err := s.answers.MarkCorrected(ctx, ans.ID, result.CorrectedAspect); err != nil {
		return err
	}
	slog.InfoContext(ctx, "correction opened for approval",
		"approvers", len(approvers), "delivered", delivered, "auto_apply", match != nil)
	return nil
}

// locatePassage finds the block backing the answer, trying the stored
// alternate source documents before the domain's primary document. Returns
// the matching document reference alongside the match.
func (s *CorrectionService) locatePassage(ctx context.Context, ans model.TrackedAnswer, domain *model.KnowledgeDomain) (*docstore.BlockMatch, string, error) {
	refs := make([]string, 0, len(ans.DocumentSourceIDs)+1)
	for _, ref := range ans.DocumentSourceIDs {
		if ref != domain.DocumentRef {
			refs = append(refs, ref)
		}
	}
	refs = append(refs, domain.DocumentRef)

	for _, ref := range refs {
		match, err := docstore.FindBlock(ctx, s.docs, ref, ans.Evidence)
		if err != nil {
			return nil, "", err
		}
		if match != nil {
			return match, ref, nil
		}
	}
	return nil, "", nil
}

func (s *CorrectionService) approvalMessage(p model.CorrectionApprovalPayload) string {
	var b strings.Builder
	b.WriteString("A correction to a published answer needs your review.\n\n")
	b.WriteString("Question: " + p.Question + "\n")
	b.WriteString("Current answer: " + p.PriorAnswer + "\n")
	b.WriteString("Proposed replacement: " + p.ProposedText + "\n\n")
	if p.BlockID != "" {
		b.WriteString("Passage: " + p.BlockURL + "\n\n")
	} else {
		b.WriteString("Document: " + s.docs.DocumentURL(p.DocumentRef) + "\n")
		b.WriteString("No exact passage was found, so this cannot be applied automatically.\n\n")
	}
	b.WriteString("Reply \"approve\" to apply, \"reject\" to discard, or describe changes to revise the proposal.")
	return b.String()
}

// ownerReplies fetches thread replies since the bot's answer, keeping only
// those from owners and dropping automated senders.
func (s *CorrectionService) ownerReplies(ctx context.Context, ans model.TrackedAnswer) ([]string, error) {
	replies, err := s.messenger.FetchReplies(ctx, ans.Channel, ans.ThreadID, ans.AnswerMessageID)
	if err != nil {
		return nil, fmt.Errorf("fetching replies: %w", err)
	}

	owners := make(map[string]struct{}, len(ans.OwnerUserIDs))
	for _, userID := range ans.OwnerUserIDs {
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
