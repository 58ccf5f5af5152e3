package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/service"
	"answerhub.dev/scribe/internal/store"
)

var _ = Describe("ConversationService", func() {
	var (
		ctx       context.Context
		stores    *store.Stores
		messenger *mockMessenger
		svc       *service.ConversationService
	)

	BeforeEach(func() {
		ctx = context.Background()
		stores = store.NewMemoryStores()
		messenger = &mockMessenger{}
		orc := &mockOracle{}
		docs := &mockDocStore{}
		dir := &mockDirectory{}
		approval := service.NewApprovalService(
			stores.PendingActions(), stores.Corrections(), messenger, orc, docs, 10*time.Minute,
		)
		domainFlow := service.NewDomainFlowService(
			stores.PendingActions(), messenger, docs, dir, 10*time.Minute,
		)
		svc = service.NewConversationService(
			stores.PendingActions(), messenger, approval, domainFlow, "bot-user",
		)
	})

	It("ignores messages from the bot itself", func() {
		Expect(svc.HandleDirectMessage(ctx, "bot-user", "approve")).To(Succeed())
		Expect(messenger.directs).To(BeEmpty())
	})

	It("ignores a cold message with no trigger phrase", func() {
		Expect(svc.HandleDirectMessage(ctx, "alice", "hello there")).To(Succeed())
		Expect(messenger.directs).To(BeEmpty())
	})

	It("starts the knowledge-area flow on a trigger phrase", func() {
		Expect(svc.HandleDirectMessage(ctx, "alice", "Add knowledge area please")).To(Succeed())

		action, err := stores.PendingActions().Get(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(action).NotTo(BeNil())
		Expect(action.Intent).To(Equal(model.PendingIntentAddDomain))
		Expect(messenger.directsTo("alice")[0]).To(ContainSubstring("What should it be called"))
	})

	It("dispatches an open approval to the approval flow", func() {
		raw, err := model.MarshalPayload(model.CorrectionApprovalPayload{
			CorrectionID: "corr_9",
			DocumentRef:  "doc-1",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(stores.PendingActions().Put(ctx, model.PendingAction{
			UserID:    "alice",
			Intent:    model.PendingIntentCorrectionApproval,
			Payload:   raw,
			ExpiresAt: time.Now().Add(time.Minute),
		})).To(Succeed())

		Expect(svc.HandleDirectMessage(ctx, "alice", "reject")).To(Succeed())

		remaining, err := stores.PendingActions().Get(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(remaining).To(BeNil())
		Expect(messenger.directsTo("alice")[0]).To(ContainSubstring("discarded"))
	})

	It("treats an expired pending action as absent", func() {
		raw, err := model.MarshalPayload(model.CorrectionApprovalPayload{CorrectionID: "corr_9"})
		Expect(err).NotTo(HaveOccurred())
		Expect(stores.PendingActions().Put(ctx, model.PendingAction{
			UserID:    "alice",
			Intent:    model.PendingIntentCorrectionApproval,
			Payload:   raw,
			ExpiresAt: time.Now().Add(-time.Second),
		})).To(Succeed())

		Expect(svc.HandleDirectMessage(ctx, "alice", "approve")).To(Succeed())

		// The expired approval must not run; the message is simply ignored.
		Expect(messenger.directs).To(BeEmpty())
	})

	It("discards a pending action with an unknown intent", func() {
		Expect(stores.PendingActions().Put(ctx, model.PendingAction{
			UserID:    "alice",
			Intent:    model.PendingIntent("legacy_intent"),
			Payload:   []byte(`{}`),
			ExpiresAt: time.Now().Add(time.Minute),
		})).To(Succeed())

		Expect(svc.HandleDirectMessage(ctx, "alice", "anything")).To(Succeed())

		remaining, err := stores.PendingActions().Get(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(remaining).To(BeNil())
	})
})
