package messaging

import "context"

// Reply is one inbound conversation message.
type Reply struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Text        string `json:"text"`
	IsAutomated bool   `json:"is_automated"`
}

// Messenger is the conversation transport, consumed as an external
// collaborator.
type Messenger interface {
	// FetchReplies returns thread messages posted after sinceID.
	FetchReplies(ctx context.Context, channel, threadID, sinceID string) ([]Reply, error)
	PostReply(ctx context.Context, channel, threadID, text string) error
	// SendDirect delivers a direct message; false means the user was not
	// reachable.
	SendDirect(ctx context.Context, userID, text string) (bool, error)
}
