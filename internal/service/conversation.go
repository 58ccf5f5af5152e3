package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"answerhub.dev/scribe/common/logger"
	"answerhub.dev/scribe/internal/messaging"
	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/store"
)

// ErrInvalidRequest marks a request rejected before any state change.
var ErrInvalidRequest = errors.New("invalid request")

// Trigger phrases that open a knowledge-area creation flow from a cold DM.
var addDomainTriggers = []string{
	"add domain", "new domain", "add knowledge area", "new knowledge area",
}

// ConversationService routes a direct message to the user's in-flight flow:
// an open pending action dispatches on its intent, otherwise a trigger phrase
// may start a new flow.
type ConversationService struct {
	pending    store.PendingActionStore
	messenger  messaging.Messenger
	approval   *ApprovalService
	domainFlow *DomainFlowService
	botUserID  string
}

func NewConversationService(
	pending store.PendingActionStore,
	messenger messaging.Messenger,
	approval *ApprovalService,
	domainFlow *DomainFlowService,
	botUserID string,
) *ConversationService {
	return &ConversationService{
		pending:    pending,
		messenger:  messenger,
		approval:   approval,
		domainFlow: domainFlow,
		botUserID:  botUserID,
	}
}

// HandleDirectMessage consumes one inbound DM. Messages from the bot itself
// are ignored.
func (s *ConversationService) HandleDirectMessage(ctx context.Context, userID, text string) error {
	if userID == "" || userID == s.botUserID {
		return nil
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: logger.Ptr(userID)})

	action, err := s.pending.Get(ctx, userID)
	if err != nil {
		return err
	}
	if action == nil {
		if isAddDomainTrigger(text) {
			return s.domainFlow.Start(ctx, userID)
		}
		slog.DebugContext(ctx, "direct message with no pending action, ignored")
		return nil
	}

	switch action.Intent {
	case model.PendingIntentCorrectionApproval:
		return s.approval.HandleReply(ctx, action, text)
	case model.PendingIntentAddDomain:
		return s.domainFlow.HandleReply(ctx, action, text)
	default:
		// Unknown intents are stale state from an older version; drop
		// them instead of wedging the user's DM channel.
		slog.WarnContext(ctx, "pending action with unknown intent discarded",
			"intent", string(action.Intent))
		return s.pending.Delete(ctx, userID)
	}
}

func isAddDomainTrigger(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, trigger := range addDomainTriggers {
		if strings.HasPrefix(normalized, trigger) {
			return true
		}
	}
	return false
}
