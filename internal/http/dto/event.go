package dto

// Conversation event kinds accepted by the ingest webhook.
const (
	EventDirectMessage = "direct_message"
	EventThreadReply   = "thread_reply"
)

// ConversationEventRequest is one messaging-layer event pushed to the
// webhook.
type ConversationEventRequest struct {
	Type        string `json:"type" binding:"required"`
	Channel     string `json:"channel"`
	ThreadID    string `json:"thread_id"`
	MessageID   string `json:"message_id"`
	UserID      string `json:"user_id" binding:"required"`
	Text        string `json:"text"`
	IsAutomated bool   `json:"is_automated"`
}

type ConversationEventResponse struct {
	Accepted bool `json:"accepted"`
}
