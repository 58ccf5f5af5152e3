package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"answerhub.dev/scribe/internal/directory"
	"answerhub.dev/scribe/internal/http/dto"
	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/service"
)

type TrackingIntake interface {
	OpenEscalation(ctx context.Context, req service.OpenEscalationRequest) (*model.Escalation, error)
	TrackAnswer(ctx context.Context, req service.TrackAnswerRequest) (*model.TrackedAnswer, error)
}

// TrackingHandler opens lifecycle records on behalf of the answering front
// end.
type TrackingHandler struct {
	intake TrackingIntake
}

func NewTrackingHandler(intake TrackingIntake) *TrackingHandler {
	return &TrackingHandler{intake: intake}
}

func (h *TrackingHandler) OpenEscalation(c *gin.Context) {
	ctx := c.Request.Context()

	var req service.OpenEscalationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	esc, err := h.intake.OpenEscalation(ctx, req)
	if err != nil {
		h.writeError(c, err, "failed to open escalation")
		return
	}
	c.JSON(http.StatusCreated, dto.OpenEscalationResponse{
		EscalationID: esc.ID,
		Status:       string(esc.Status),
	})
}

func (h *TrackingHandler) TrackAnswer(c *gin.Context) {
	ctx := c.Request.Context()

	var req service.TrackAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ans, err := h.intake.TrackAnswer(ctx, req)
	if err != nil {
		h.writeError(c, err, "failed to track answer")
		return
	}
	c.JSON(http.StatusCreated, dto.TrackAnswerResponse{
		AnswerID: ans.ID,
		Status:   string(ans.Status),
	})
}

func (h *TrackingHandler) writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, directory.ErrDomainNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "domain not found"})
	default:
		slog.ErrorContext(c.Request.Context(), msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
