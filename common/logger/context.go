package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Record and correction identifiers flow through context enrichment
// so individual log statements never need to repeat them.
type LogFields struct {
	EscalationID *int64  // Escalation record ID
	AnswerID     *int64  // Tracked-answer record ID
	CorrectionID *string // Correction ID for an approval flow
	DomainID     *string // Knowledge-domain ID
	Channel      *string // Conversation channel
	UserID       *string // User driving a conversation flow
	Component    string  // Component name (e.g., "scribe.worker.sweeper")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, incoming LogFields) LogFields {
	result := existing

	if incoming.EscalationID != nil {
		result.EscalationID = incoming.EscalationID
	}
	if incoming.AnswerID != nil {
		result.AnswerID = incoming.AnswerID
	}
	if incoming.CorrectionID != nil {
		result.CorrectionID = incoming.CorrectionID
	}
	if incoming.DomainID != nil {
		result.DomainID = incoming.DomainID
	}
	if incoming.Channel != nil {
		result.Channel = incoming.Channel
	}
	if incoming.UserID != nil {
		result.UserID = incoming.UserID
	}
	if incoming.Component != "" {
		result.Component = incoming.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging potentially long strings like proposals.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
