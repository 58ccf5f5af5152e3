package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"answerhub.dev/scribe/internal/http/handler"
)

type mockConversation struct {
	handleFn func(ctx context.Context, userID, text string) error
	calls    int
}

func (m *mockConversation) HandleDirectMessage(ctx context.Context, userID, text string) error {
	m.calls++
	if m.handleFn != nil {
		return m.handleFn(ctx, userID, text)
	}
	return nil
}

type mockResponses struct {
	recordFn func(ctx context.Context, channel, threadID, userID string) error
	calls    int
}

func (m *mockResponses) RecordThreadReply(ctx context.Context, channel, threadID, userID string) error {
	m.calls++
	if m.recordFn != nil {
		return m.recordFn(ctx, channel, threadID, userID)
	}
	return nil
}

var _ = Describe("EventHandler", func() {
	var (
		router       *gin.Engine
		conversation *mockConversation
		responses    *mockResponses
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		conversation = &mockConversation{}
		responses = &mockResponses{}
		h := handler.NewEventHandler(conversation, responses)
		router.POST("/webhooks/events", h.Ingest)
	})

	post := func(body map[string]any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, "/webhooks/events", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("routes a direct message to the conversation handler", func() {
		conversation.handleFn = func(_ context.Context, userID, text string) error {
			Expect(userID).To(Equal("alice"))
			Expect(text).To(Equal("approve"))
			return nil
		}

		w := post(map[string]any{
			"type": "direct_message", "user_id": "alice", "text": "approve",
		})

		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(conversation.calls).To(Equal(1))
		Expect(responses.calls).To(BeZero())
	})

	It("routes a thread reply to response recording", func() {
		responses.recordFn = func(_ context.Context, channel, threadID, userID string) error {
			Expect(channel).To(Equal("C1"))
			Expect(threadID).To(Equal("T1"))
			Expect(userID).To(Equal("owner1"))
			return nil
		}

		w := post(map[string]any{
			"type": "thread_reply", "channel": "C1", "thread_id": "T1", "user_id": "owner1",
		})

		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(responses.calls).To(Equal(1))
	})

	It("drops automated events without touching any service", func() {
		w := post(map[string]any{
			"type": "direct_message", "user_id": "some-bot", "text": "hi", "is_automated": true,
		})

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(conversation.calls).To(BeZero())
		Expect(responses.calls).To(BeZero())
	})

	It("rejects a thread reply without thread coordinates", func() {
		w := post(map[string]any{"type": "thread_reply", "user_id": "owner1"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects an unknown event type", func() {
		w := post(map[string]any{"type": "reaction_added", "user_id": "alice"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 500 when the service fails", func() {
		conversation.handleFn = func(_ context.Context, _, _ string) error {
			return errors.New("redis unavailable")
		}
		w := post(map[string]any{"type": "direct_message", "user_id": "alice", "text": "approve"})
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
