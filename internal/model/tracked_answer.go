package model

import "time"

type TrackedAnswerStatus string

const (
	TrackedAnswerStatusActive            TrackedAnswerStatus = "active"
	TrackedAnswerStatusPendingCorrection TrackedAnswerStatus = "pending_correction"
	TrackedAnswerStatusCorrected         TrackedAnswerStatus = "corrected"
	TrackedAnswerStatusProcessed         TrackedAnswerStatus = "processed"
)

// Terminal reports whether the status admits no further transitions.
func (s TrackedAnswerStatus) Terminal() bool {
	return s == TrackedAnswerStatusCorrected || s == TrackedAnswerStatusProcessed
}

// Outcomes recorded when a tracked answer reaches a terminal state.
const (
	OutcomeNoOwnerReplies = "no_owner_replies_found"
	OutcomeNotACorrection = "not_a_correction"
	OutcomeCorrected      = "correction_detected"
)

// TrackedAnswer tracks a bot-given answer pending possible correction by the
// domain's owners. RespondingOwnerIDs accumulates distinct responders; the
// process_after timer is set once, from the first response only. Status only
// ever advances along active -> pending_correction -> {corrected, processed}.
type TrackedAnswer struct {
	ID                 int64               `json:"id"`
	Channel            string              `json:"channel"`
	ThreadID           string              `json:"thread_id"`
	AnswerMessageID    string              `json:"answer_message_id"`
	DomainID           string              `json:"domain_id"`
	OriginalQuestion   string              `json:"original_question"`
	BotAnswer          string              `json:"bot_answer"`
	Evidence           []string            `json:"evidence"`
	OwnerUserIDs       []string            `json:"owner_user_ids"`
	DocumentSourceIDs  []string            `json:"document_source_ids"`
	Status             TrackedAnswerStatus `json:"status"`
	RespondingOwnerIDs []string            `json:"responding_owner_ids"`
	CreatedAt          time.Time           `json:"created_at"`
	FirstResponseAt    *time.Time          `json:"first_response_at,omitempty"`
	ProcessAfter       *time.Time          `json:"process_after,omitempty"`
	ResolvedAt         *time.Time          `json:"resolved_at,omitempty"`
	Outcome            *string             `json:"outcome,omitempty"`
	OutcomeDetail      *string             `json:"outcome_detail,omitempty"`
}
