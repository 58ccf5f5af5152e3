package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"answerhub.dev/scribe/common/logger"
	"answerhub.dev/scribe/internal/directory"
	"answerhub.dev/scribe/internal/docstore"
	"answerhub.dev/scribe/internal/messaging"
	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/store"
)

const cancelPhrase = "cancel"

// DomainFlowService drives the multi-turn knowledge-area creation exchange:
// each reply fills the next missing field, and supplying a valid document
// reference finalizes the domain through the directory.
type DomainFlowService struct {
	pending   store.PendingActionStore
	messenger messaging.Messenger
	docs      docstore.Store
	directory directory.Directory

	pendingTTL time.Duration
}

func NewDomainFlowService(
	pending store.PendingActionStore,
	messenger messaging.Messenger,
	docs docstore.Store,
	dir directory.Directory,
	pendingTTL time.Duration,
) *DomainFlowService {
	return &DomainFlowService{
		pending:    pending,
		messenger:  messenger,
		docs:       docs,
		directory:  dir,
		pendingTTL: pendingTTL,
	}
}

// Start opens a fresh creation flow for the user and prompts for the first
// field.
func (s *DomainFlowService) Start(ctx context.Context, userID string) error {
	raw, err := model.MarshalPayload(model.AddDomainPayload{})
	if err != nil {
		return fmt.Errorf("encoding domain payload: %w", err)
	}
	if err := s.pending.Put(ctx, model.PendingAction{
		UserID:    userID,
		Intent:    model.PendingIntentAddDomain,
		Payload:   raw,
		ExpiresAt: time.Now().Add(s.pendingTTL),
	}); err != nil {
		return fmt.Errorf("storing domain flow state: %w", err)
	}
	_, err = s.messenger.SendDirect(ctx, userID,
		"Let's set up a new knowledge area. What should it be called? (Reply \"cancel\" at any point to stop.)")
	return err
}

// HandleReply consumes one reply against the user's in-flight creation flow.
// Validation problems reprompt without committing anything; only the final
// valid document reference creates the domain.
func (s *DomainFlowService) HandleReply(ctx context.Context, action *model.PendingAction, text string) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: logger.Ptr(action.UserID)})

	text = strings.TrimSpace(text)
	if strings.EqualFold(text, cancelPhrase) {
		if err := s.pending.Delete(ctx, action.UserID); err != nil {
			return fmt.Errorf("clearing domain flow state: %w", err)
		}
		slog.InfoContext(ctx, "domain creation cancelled")
		_, err := s.messenger.SendDirect(ctx, action.UserID, "Okay, nothing was created.")
		return err
	}

	var payload model.AddDomainPayload
	if err := json.Unmarshal(action.Payload, &payload); err != nil {
		s.pending.Delete(ctx, action.UserID)
		return fmt.Errorf("decoding domain payload: %w", err)
	}

	prompt, done, err := s.advance(ctx, &payload, text)
	if err != nil {
		return s.apologize(ctx, action.UserID, err)
	}

	if done {
		created, err := s.directory.Create(ctx, model.KnowledgeDomain{
			Name:         payload.Name,
			Description:  payload.Description,
			Keywords:     payload.Keywords,
			OwnerUserIDs: payload.LeadUserIDs,
			LeadUserIDs:  payload.LeadUserIDs,
			DocumentRef:  payload.DocumentRef,
		})
		if err != nil {
			return s.apologize(ctx, action.UserID, fmt.Errorf("creating domain: %w", err))
		}
		if err := s.pending.Delete(ctx, action.UserID); err != nil {
			slog.WarnContext(ctx, "failed to clear domain flow state", "error", err)
		}
		slog.InfoContext(ctx, "knowledge domain created",
			"domain_id", created.ID, "name", created.Name)
		_, err = s.messenger.SendDirect(ctx, action.UserID,
			fmt.Sprintf("Done. %q is live and backed by %s", created.Name, s.docs.DocumentURL(created.DocumentRef)))
		return err
	}

	raw, err := model.MarshalPayload(payload)
	if err != nil {
		return fmt.Errorf("encoding domain payload: %w", err)
	}
	if err := s.pending.Put(ctx, model.PendingAction{
		UserID:    action.UserID,
		Intent:    model.PendingIntentAddDomain,
		Payload:   raw,
		ExpiresAt: time.Now().Add(s.pendingTTL),
	}); err != nil {
		return s.apologize(ctx, action.UserID, fmt.Errorf("storing domain flow state: %w", err))
	}
	_, err = s.messenger.SendDirect(ctx, action.UserID, prompt)
	return err
}

// advance fills the next missing field from the reply and returns the next
// prompt, or done=true once the document reference validates.
func (s *DomainFlowService) advance(ctx context.Context, payload *model.AddDomainPayload, text string) (prompt string, done bool, err error) {
	switch {
	case payload.Name == "":
		if text == "" {
			return "The name can't be empty. What should the area be called?", false, nil
		}
		payload.Name = text
		return "Got it. Describe what this area covers in a sentence or two.", false, nil

	case payload.Description == "":
		if text == "" {
			return "I need a short description. What does this area cover?", false, nil
		}
		payload.Description = text
		return "What keywords should route questions here? (comma-separated)", false, nil

	case len(payload.Keywords) == 0:
		keywords := splitList(text)
		if len(keywords) == 0 {
			return "I need at least one keyword. Which terms should route here? (comma-separated)", false, nil
		}
		payload.Keywords = keywords
		return "Who leads this area? Mention them or list their user ids.", false, nil

	case len(payload.LeadUserIDs) == 0:
		leads := splitMentions(text)
		if len(leads) == 0 {
			return "I need at least one lead. Who should own this area?", false, nil
		}
		payload.LeadUserIDs = leads
		return "Last step: what's the document reference for this area's knowledge base?", false, nil

	default:
		if text == "" {
			return "I need the document reference to finish. Which document backs this area?", false, nil
		}
		if _, err := s.docs.FetchContent(ctx, text); err != nil {
			slog.WarnContext(ctx, "document reference failed validation", "ref", text, "error", err)
			return "I couldn't read that document. Double-check the reference and send it again.", false, nil
		}
		payload.DocumentRef = text
		return "", true, nil
	}
}

func (s *DomainFlowService) apologize(ctx context.Context, userID string, cause error) error {
	slog.ErrorContext(ctx, "domain flow step failed", "error", cause)
	if _, err := s.messenger.SendDirect(ctx, userID,
		"Something went wrong on my side. Your progress is saved, please try again in a moment."); err != nil {
		slog.WarnContext(ctx, "failed to send apology", "error", err)
	}
	return cause
}

func splitList(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitMentions parses user references, accepting both <@U123> mention markup
// and bare ids separated by commas or whitespace.
func splitMentions(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, "<>@")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
