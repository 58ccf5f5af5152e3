package model

import (
	"encoding/json"
	"time"
)

type PendingIntent string

const (
	PendingIntentAddDomain          PendingIntent = "add_domain"
	PendingIntentCorrectionApproval PendingIntent = "correction_approval"
)

// PendingAction is durable per-user conversational state awaiting a follow-up
// message. The payload is intent-specific and opaque to the store. Any read
// past ExpiresAt yields absent and discards the entry.
type PendingAction struct {
	UserID    string          `json:"user_id"`
	Intent    PendingIntent   `json:"intent"`
	Payload   json.RawMessage `json:"payload"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired reports whether the action has passed its absolute expiry.
func (a PendingAction) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// CorrectionApprovalPayload carries everything the approval flow needs to
// apply a correction without re-reading the tracked answer.
type CorrectionApprovalPayload struct {
	CorrectionID   string   `json:"correction_id"`
	AnswerID       int64    `json:"answer_id"`
	DomainID       string   `json:"domain_id"`
	Question       string   `json:"question"`
	PriorAnswer    string   `json:"prior_answer"`
	ProposedText   string   `json:"proposed_text"`
	DocumentRef    string   `json:"document_ref"`
	AltDocumentRef string   `json:"alt_document_ref,omitempty"`
	// BlockID is empty when no passage matched; approval then reports that
	// auto-apply is unavailable.
	BlockID     string `json:"block_id,omitempty"`
	BlockURL    string `json:"block_url,omitempty"`
	MatchedText string `json:"matched_text,omitempty"`
}

// AddDomainPayload holds the partial fields of the knowledge-area creation
// flow until a document reference is supplied.
type AddDomainPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	LeadUserIDs []string `json:"lead_user_ids,omitempty"`
	DocumentRef string   `json:"document_ref,omitempty"`
}

func MarshalPayload(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
