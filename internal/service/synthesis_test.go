package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"answerhub.dev/scribe/internal/docstore"
	"answerhub.dev/scribe/internal/messaging"
	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/oracle"
	"answerhub.dev/scribe/internal/service"
	"answerhub.dev/scribe/internal/store"
)

var _ = Describe("SynthesisService", func() {
	var (
		ctx       context.Context
		stores    *store.Stores
		messenger *mockMessenger
		orc       *mockOracle
		docs      *mockDocStore
		dir       *mockDirectory
		svc       *service.SynthesisService
		esc       model.Escalation
	)

	BeforeEach(func() {
		ctx = context.Background()
		stores = store.NewMemoryStores()
		messenger = &mockMessenger{}
		orc = &mockOracle{}
		docs = &mockDocStore{}
		dir = &mockDirectory{}
		svc = service.NewSynthesisService(
			stores.Escalations(), messenger, orc, docs, dir, "dom-general",
		)

		esc = model.Escalation{
			ID:               1,
			Channel:          "C1",
			ThreadID:         "T1",
			OriginMessageID:  "M1",
			DomainID:         "dom-1",
			OriginalQuestion: "How do refunds work?",
			OwnerUserIDs:     []string{"owner1", "owner2"},
			Status:           model.EscalationStatusAwaitingResponse,
			EscalatedAt:      time.Now().Add(-time.Hour),
		}
		Expect(stores.Escalations().Create(ctx, &esc)).To(Succeed())
		armed, err := stores.Escalations().RecordResponse(ctx, esc.ID, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(armed).To(BeTrue())
	})

	get := func() *model.Escalation {
		rec, err := stores.Escalations().GetByID(ctx, esc.ID)
		Expect(err).NotTo(HaveOccurred())
		return rec
	}

	ownerReplies := func(replies ...messaging.Reply) {
		messenger.fetchRepliesFn = func(_ context.Context, channel, threadID, sinceID string) ([]messaging.Reply, error) {
			Expect(channel).To(Equal("C1"))
			Expect(threadID).To(Equal("T1"))
			Expect(sinceID).To(Equal("M1"))
			return replies, nil
		}
	}

	It("skips when no owner responded", func() {
		ownerReplies(
			messaging.Reply{ID: "r1", UserID: "bystander", Text: "following"},
			messaging.Reply{ID: "r2", UserID: "owner1", Text: "ack", IsAutomated: true},
		)

		Expect(svc.ProcessEscalation(ctx, esc)).To(Succeed())

		rec := get()
		Expect(rec.Status).To(Equal(model.EscalationStatusSkipped))
		Expect(*rec.SkipReason).To(Equal(model.SkipReasonNoResponses))
	})

	It("skips when the replies are not substantive", func() {
		ownerReplies(messaging.Reply{ID: "r1", UserID: "owner1", Text: "let me check"})
		orc.checkSubstantiveFn = func(_ context.Context, _ string, replies []string) (*oracle.SubstantiveResult, error) {
			Expect(replies).To(Equal([]string{"let me check"}))
			return &oracle.SubstantiveResult{Substantive: false, Rationale: "deflection"}, nil
		}

		Expect(svc.ProcessEscalation(ctx, esc)).To(Succeed())

		rec := get()
		Expect(rec.Status).To(Equal(model.EscalationStatusSkipped))
		Expect(*rec.SkipReason).To(Equal(model.SkipReasonNonSubstantive))
	})

	It("appends a synthesized entry and completes with its link", func() {
		ownerReplies(messaging.Reply{ID: "r1", UserID: "owner1", Text: "30 days, per policy"})
		orc.synthesizeFn = func(_ context.Context, question string, _ []string) (*oracle.SynthesisResult, error) {
			return &oracle.SynthesisResult{
				Question:      question,
				Answer:        "Refunds are honored within 30 days.",
				ShouldPublish: true,
			}, nil
		}
		docs.appendEntryFn = func(_ context.Context, ref, _, _ string, _ *docstore.StyleDescriptor) (string, error) {
			Expect(ref).To(Equal("doc-dom-1"))
			return "https://docs.example/doc-dom-1#entry", nil
		}

		Expect(svc.ProcessEscalation(ctx, esc)).To(Succeed())

		rec := get()
		Expect(rec.Status).To(Equal(model.EscalationStatusCompleted))
		Expect(*rec.DocumentURL).To(Equal("https://docs.example/doc-dom-1#entry"))
		Expect(docs.invalidated).To(ConsistOf("doc-dom-1"))

		Expect(messenger.posted).To(HaveLen(1))
		Expect(messenger.posted[0].text).To(ContainSubstring("https://docs.example/doc-dom-1#entry"))
	})

	It("completes without a document change when the synthesis is too situational", func() {
		ownerReplies(messaging.Reply{ID: "r1", UserID: "owner1", Text: "for that one customer, refund manually"})
		orc.synthesizeFn = func(_ context.Context, _ string, _ []string) (*oracle.SynthesisResult, error) {
			return &oracle.SynthesisResult{ShouldPublish: false}, nil
		}

		Expect(svc.ProcessEscalation(ctx, esc)).To(Succeed())

		rec := get()
		Expect(rec.Status).To(Equal(model.EscalationStatusCompleted))
		Expect(rec.DocumentURL).To(BeNil())
		Expect(docs.updates).To(BeEmpty())
		Expect(messenger.posted).To(HaveLen(1))
		Expect(messenger.posted[0].text).To(ContainSubstring("too situational"))
	})

	It("stays silent about unpublished synthesis in the general domain", func() {
		general := esc
		general.ID = 2
		general.ThreadID = "T2"
		general.DomainID = "dom-general"
		Expect(stores.Escalations().Create(ctx, &general)).To(Succeed())
		_, err := stores.Escalations().RecordResponse(ctx, general.ID, 0)
		Expect(err).NotTo(HaveOccurred())

		messenger.fetchRepliesFn = func(_ context.Context, _, _, _ string) ([]messaging.Reply, error) {
			return []messaging.Reply{{ID: "r1", UserID: "owner1", Text: "depends on the case"}}, nil
		}
		orc.synthesizeFn = func(_ context.Context, _ string, _ []string) (*oracle.SynthesisResult, error) {
			return &oracle.SynthesisResult{ShouldPublish: false}, nil
		}

		Expect(svc.ProcessEscalation(ctx, general)).To(Succeed())

		rec, err := stores.Escalations().GetByID(ctx, general.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(model.EscalationStatusCompleted))
		Expect(messenger.posted).To(BeEmpty())
	})

	It("leaves the record untouched when the oracle fails", func() {
		ownerReplies(messaging.Reply{ID: "r1", UserID: "owner1", Text: "30 days"})
		orc.checkSubstantiveFn = func(_ context.Context, _ string, _ []string) (*oracle.SubstantiveResult, error) {
			return nil, errors.New("oracle timeout")
		}

		Expect(svc.ProcessEscalation(ctx, esc)).To(HaveOccurred())

		rec := get()
		Expect(rec.Status).To(Equal(model.EscalationStatusReadyToSynthesize))
	})
})
