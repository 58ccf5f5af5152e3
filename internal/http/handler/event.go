package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"answerhub.dev/scribe/internal/http/dto"
)

type ConversationHandler interface {
	HandleDirectMessage(ctx context.Context, userID, text string) error
}

type ResponseRecorder interface {
	RecordThreadReply(ctx context.Context, channel, threadID, userID string) error
}

// EventHandler ingests messaging-layer events: direct messages feed the
// conversation flows, thread replies feed response recording.
type EventHandler struct {
	conversation ConversationHandler
	responses    ResponseRecorder
}

func NewEventHandler(conversation ConversationHandler, responses ResponseRecorder) *EventHandler {
	return &EventHandler{conversation: conversation, responses: responses}
}

func (h *EventHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ConversationEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid conversation event", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.IsAutomated {
		c.JSON(http.StatusOK, dto.ConversationEventResponse{Accepted: false})
		return
	}

	var err error
	switch req.Type {
	case dto.EventDirectMessage:
		err = h.conversation.HandleDirectMessage(ctx, req.UserID, req.Text)
	case dto.EventThreadReply:
		if req.Channel == "" || req.ThreadID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "channel and thread_id are required for thread replies"})
			return
		}
		err = h.responses.RecordThreadReply(ctx, req.Channel, req.ThreadID, req.UserID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type"})
		return
	}

	if err != nil {
		slog.ErrorContext(ctx, "failed to handle conversation event",
			"type", req.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to handle event"})
		return
	}
	c.JSON(http.StatusAccepted, dto.ConversationEventResponse{Accepted: true})
}
