package model

import "time"

type EscalationStatus string

const (
	EscalationStatusAwaitingResponse  EscalationStatus = "awaiting_response"
	EscalationStatusReadyToSynthesize EscalationStatus = "ready_to_synthesize"
	EscalationStatusCompleted         EscalationStatus = "completed"
	EscalationStatusSkipped           EscalationStatus = "skipped"
)

// Terminal reports whether the status admits no further transitions.
func (s EscalationStatus) Terminal() bool {
	return s == EscalationStatusCompleted || s == EscalationStatusSkipped
}

// Skip reasons recorded when an escalation ends without a knowledge-base entry.
const (
	SkipReasonNoResponses    = "no_responses_found"
	SkipReasonNonSubstantive = "non_substantive_responses"
)

// Escalation tracks a question routed to responsible humans pending their
// reply. Status only ever advances along
// awaiting_response -> ready_to_synthesize -> {completed, skipped}.
type Escalation struct {
	ID               int64            `json:"id"`
	Channel          string           `json:"channel"`
	ThreadID         string           `json:"thread_id"`
	OriginMessageID  string           `json:"origin_message_id"`
	DomainID         string           `json:"domain_id"`
	OriginalQuestion string           `json:"original_question"`
	OwnerUserIDs     []string         `json:"owner_user_ids"`
	Status           EscalationStatus `json:"status"`
	EscalatedAt      time.Time        `json:"escalated_at"`
	FirstResponseAt  *time.Time       `json:"first_response_at,omitempty"`
	SynthesizeAfter  *time.Time       `json:"synthesize_after,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	SkippedAt        *time.Time       `json:"skipped_at,omitempty"`
	DocumentURL      *string          `json:"document_url,omitempty"`
	SkipReason       *string          `json:"skip_reason,omitempty"`
}
