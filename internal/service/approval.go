package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"answerhub.dev/scribe/common/logger"
	"answerhub.dev/scribe/internal/docstore"
	"answerhub.dev/scribe/internal/messaging"
	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/oracle"
	"answerhub.dev/scribe/internal/store"
)

type approvalDecision int

const (
	decisionRevise approvalDecision = iota
	decisionApprove
	decisionReject
)

// ApprovalService resolves a user's reply to a correction approval request.
// Across all approvers of one correction, at most one document mutation
// happens; the applied-correction ledger is claimed before mutating so the
// losing side of a race sees "already applied".
type ApprovalService struct {
	pending   store.PendingActionStore
	ledger    store.CorrectionLedger
	messenger messaging.Messenger
	oracle    oracle.Oracle
	docs      docstore.Store

	pendingTTL time.Duration
}

func NewApprovalService(
	pending store.PendingActionStore,
	ledger store.CorrectionLedger,
	messenger messaging.Messenger,
	orc oracle.Oracle,
	docs docstore.Store,
	pendingTTL time.Duration,
) *ApprovalService {
	return &ApprovalService{
		pending:    pending,
		ledger:     ledger,
		messenger:  messenger,
		oracle:     orc,
		docs:       docs,
		pendingTTL: pendingTTL,
	}
}

// HandleReply consumes one direct-message reply against the user's pending
// correction approval. Upstream failures reply with an apology and leave the
// pending action intact so the user can retry.
func (s *ApprovalService) HandleReply(ctx context.Context, action *model.PendingAction, text string) error {
	var payload model.CorrectionApprovalPayload
	if err := json.Unmarshal(action.Payload, &payload); err != nil {
		// Undecodable state is unrecoverable for this flow; drop it
		// rather than reprompting forever.
		s.pending.Delete(ctx, action.UserID)
		return fmt.Errorf("decoding approval payload: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		CorrectionID: logger.Ptr(payload.CorrectionID),
		AnswerID:     logger.Ptr(payload.AnswerID),
		DomainID:     logger.Ptr(payload.DomainID),
		UserID:       logger.Ptr(action.UserID),
	})

	switch classifyDecision(text) {
	case decisionApprove:
		return s.approve(ctx, action.UserID, payload)
	case decisionReject:
		return s.reject(ctx, action.UserID)
	default:
		return s.revise(ctx, action, payload, text)
	}
}

func (s *ApprovalService) approve(ctx context.Context, userID string, payload model.CorrectionApprovalPayload) error {
	applied, err := s.ledger.IsApplied(ctx, payload.CorrectionID)
	if err != nil {
		return s.apologize(ctx, userID, fmt.Errorf("checking applied ledger: %w", err))
	}
	if applied {
		if err := s.pending.Delete(ctx, userID); err != nil {
			slog.WarnContext(ctx, "failed to clear pending approval", "error", err)
		}
		_, err := s.messenger.SendDirect(ctx, userID, "This correction was already applied by another reviewer. Nothing left to do.")
		return err
	}

	if payload.BlockID == "" {
		if err := s.pending.Delete(ctx, userID); err != nil {
			slog.WarnContext(ctx, "failed to clear pending approval", "error", err)
		}
		_, err := s.messenger.SendDirect(ctx, userID,
			"I couldn't pin down the exact passage, so this can't be applied automatically. Please edit the document directly: "+s.docs.DocumentURL(payload.DocumentRef))
		return err
	}

	// Claiming the ledger entry before mutating is what makes concurrent
	// approvals resolve to exactly one mutation.
	won, err := s.ledger.MarkApplied(ctx, payload.CorrectionID)
	if err != nil {
		return s.apologize(ctx, userID, fmt.Errorf("claiming applied ledger: %w", err))
	}
	if !won {
		if err := s.pending.Delete(ctx, userID); err != nil {
			slog.WarnContext(ctx, "failed to clear pending approval", "error", err)
		}
		_, err := s.messenger.SendDirect(ctx, userID, "This correction was already applied by another reviewer. Nothing left to do.")
		return err
	}

	blockURL, err := s.docs.UpdateBlock(ctx, payload.BlockID, payload.ProposedText)
	if err != nil {
		// Release the claim so a later approval can retry the mutation.
		if clearErr := s.ledger.Clear(ctx, payload.CorrectionID); clearErr != nil {
			slog.ErrorContext(ctx, "failed to release applied-ledger claim", "error", clearErr)
		}
		return s.apologize(ctx, userID, fmt.Errorf("updating block: %w", err))
	}

	s.docs.Invalidate(ctx, payload.DocumentRef)
	if payload.AltDocumentRef != "" && payload.AltDocumentRef != payload.DocumentRef {
		s.docs.Invalidate(ctx, payload.AltDocumentRef)
	}

	// Best effort: an audit note failing must not undo the content change.
	if _, err := s.docs.Annotate(ctx, payload.BlockID,
		fmt.Sprintf("Corrected on approval by %s (correction %s).", userID, payload.CorrectionID)); err != nil {
		slog.WarnContext(ctx, "failed to annotate corrected passage", "error", err)
	}

	cleared, err := s.pending.DeleteByCorrectionID(ctx, payload.CorrectionID)
	if err != nil {
		slog.WarnContext(ctx, "failed to clear sibling pending approvals", "error", err)
	}

	slog.InfoContext(ctx, "correction applied", "siblings_cleared", cleared)
	_, err = s.messenger.SendDirect(ctx, userID, "Applied. The passage now carries the corrected text: "+blockURL)
	return err
}

func (s *ApprovalService) reject(ctx context.Context, userID string) error {
	if err := s.pending.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clearing pending approval: %w", err)
	}
	slog.InfoContext(ctx, "correction rejected")
	_, err := s.messenger.SendDirect(ctx, userID, "Understood, the proposal is discarded. The document is unchanged.")
	return err
}

func (s *ApprovalService) revise(ctx context.Context, action *model.PendingAction, payload model.CorrectionApprovalPayload, feedback string) error {
	revised, err := s.oracle.ReviseProposal(ctx, payload.Question, payload.ProposedText, feedback)
	if err != nil {
		return s.apologize(ctx, action.UserID, fmt.Errorf("revising proposal: %w", err))
	}

	payload.ProposedText = revised
	raw, err := model.MarshalPayload(payload)
	if err != nil {
		return fmt.Errorf("encoding approval payload: %w", err)
	}
	if err := s.pending.Put(ctx, model.PendingAction{
		UserID:    action.UserID,
		Intent:    model.PendingIntentCorrectionApproval,
		Payload:   raw,
		ExpiresAt: time.Now().Add(s.pendingTTL),
	}); err != nil {
		return s.apologize(ctx, action.UserID, fmt.Errorf("storing revised approval: %w", err))
	}

	slog.InfoContext(ctx, "correction proposal revised")
	_, err = s.messenger.SendDirect(ctx, action.UserID,
		"Revised proposal:\n\n"+revised+"\n\nReply \"approve\" to apply, \"reject\" to discard, or describe further changes.")
	return err
}

// apologize reports an upstream failure back to the user while leaving the
// pending action in place for retry.
func (s *ApprovalService) apologize(ctx context.Context, userID string, cause error) error {
	slog.ErrorContext(ctx, "approval step failed", "error", cause)
	if _, err := s.messenger.SendDirect(ctx, userID,
		"Something went wrong on my side. Your request is still open, please try again in a moment."); err != nil {
		slog.WarnContext(ctx, "failed to send apology", "error", err)
	}
	return cause
}

var (
	approveWords = map[string]struct{}{
		"approve": {}, "approved": {}, "yes": {}, "y": {}, "apply": {},
		"ok": {}, "okay": {}, "confirm": {}, "lgtm": {}, "ship it": {},
	}
	rejectWords = map[string]struct{}{
		"reject": {}, "rejected": {}, "no": {}, "n": {}, "discard": {},
		"cancel": {}, "drop": {}, "nope": {},
	}
)

// classifyDecision maps a reply onto approve/reject; anything longer-form is
// treated as revision feedback.
func classifyDecision(text string) approvalDecision {
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".! "))
	if _, ok := approveWords[normalized]; ok {
		return decisionApprove
	}
	if _, ok := rejectWords[normalized]; ok {
		return decisionReject
	}
	return decisionRevise
}
