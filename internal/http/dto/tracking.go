package dto

// OpenEscalationResponse reports the record opened (or found) for a thread.
type OpenEscalationResponse struct {
	EscalationID int64  `json:"escalation_id"`
	Status       string `json:"status"`
}

// TrackAnswerResponse reports the record opened (or found) for a thread.
type TrackAnswerResponse struct {
	AnswerID int64  `json:"answer_id"`
	Status   string `json:"status"`
}
