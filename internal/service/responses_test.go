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

var _ = Describe("ResponseService", func() {
	var (
		ctx    context.Context
		stores *store.Stores
		svc    *service.ResponseService
	)

	BeforeEach(func() {
		ctx = context.Background()
		stores = store.NewMemoryStores()
		svc = service.NewResponseService(
			stores.Escalations(), stores.TrackedAnswers(),
			30*time.Minute, 30*time.Minute, "bot-user",
		)
	})

	It("arms the synthesis timer once for a live escalation", func() {
		esc := model.Escalation{
			ID: 1, Channel: "C1", ThreadID: "T1",
			OwnerUserIDs: []string{"owner1", "owner2"},
			Status:       model.EscalationStatusAwaitingResponse,
			EscalatedAt:  time.Now(),
		}
		Expect(stores.Escalations().Create(ctx, &esc)).To(Succeed())

		Expect(svc.RecordThreadReply(ctx, "C1", "T1", "owner1")).To(Succeed())

		rec, err := stores.Escalations().GetByID(ctx, esc.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(model.EscalationStatusReadyToSynthesize))
		firstDeadline := *rec.SynthesizeAfter

		// A later reply must not reset the deadline.
		Expect(svc.RecordThreadReply(ctx, "C1", "T1", "owner2")).To(Succeed())
		rec, err = stores.Escalations().GetByID(ctx, esc.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*rec.SynthesizeAfter).To(Equal(firstDeadline))
	})

	It("accumulates distinct responders on a live tracked answer", func() {
		ans := model.TrackedAnswer{
			ID: 1, Channel: "C1", ThreadID: "T2",
			OwnerUserIDs: []string{"owner1", "owner2"},
			Status:       model.TrackedAnswerStatusActive,
			CreatedAt:    time.Now(),
		}
		Expect(stores.TrackedAnswers().Create(ctx, &ans)).To(Succeed())

		Expect(svc.RecordThreadReply(ctx, "C1", "T2", "owner1")).To(Succeed())
		Expect(svc.RecordThreadReply(ctx, "C1", "T2", "owner2")).To(Succeed())
		Expect(svc.RecordThreadReply(ctx, "C1", "T2", "owner1")).To(Succeed())

		rec, err := stores.TrackedAnswers().GetByID(ctx, ans.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(model.TrackedAnswerStatusPendingCorrection))
		Expect(rec.RespondingOwnerIDs).To(ConsistOf("owner1", "owner2"))
	})

	It("ignores the bot's own replies", func() {
		esc := model.Escalation{
			ID: 1, Channel: "C1", ThreadID: "T1",
			OwnerUserIDs: []string{"owner1"},
			Status:       model.EscalationStatusAwaitingResponse,
			EscalatedAt:  time.Now(),
		}
		Expect(stores.Escalations().Create(ctx, &esc)).To(Succeed())

		Expect(svc.RecordThreadReply(ctx, "C1", "T1", "bot-user")).To(Succeed())

		rec, err := stores.Escalations().GetByID(ctx, esc.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(model.EscalationStatusAwaitingResponse))
	})

	It("ignores escalation replies from non-owners", func() {
		esc := model.Escalation{
			ID: 1, Channel: "C1", ThreadID: "T1",
			OwnerUserIDs: []string{"owner1"},
			Status:       model.EscalationStatusAwaitingResponse,
			EscalatedAt:  time.Now(),
		}
		Expect(stores.Escalations().Create(ctx, &esc)).To(Succeed())

		Expect(svc.RecordThreadReply(ctx, "C1", "T1", "bystander")).To(Succeed())

		// A bystander reply must not arm the synthesis timer.
		rec, err := stores.Escalations().GetByID(ctx, esc.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(model.EscalationStatusAwaitingResponse))
		Expect(rec.SynthesizeAfter).To(BeNil())
	})

	It("ignores tracked-answer replies from non-owners", func() {
		ans := model.TrackedAnswer{
			ID: 1, Channel: "C1", ThreadID: "T2",
			OwnerUserIDs: []string{"owner1"},
			Status:       model.TrackedAnswerStatusActive,
			CreatedAt:    time.Now(),
		}
		Expect(stores.TrackedAnswers().Create(ctx, &ans)).To(Succeed())

		Expect(svc.RecordThreadReply(ctx, "C1", "T2", "bystander")).To(Succeed())

		// A bystander must never enter the responder set that later
		// receives correction-approval power.
		rec, err := stores.TrackedAnswers().GetByID(ctx, ans.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(model.TrackedAnswerStatusActive))
		Expect(rec.RespondingOwnerIDs).To(BeEmpty())
	})

	It("is a no-op for threads with no live record", func() {
		Expect(svc.RecordThreadReply(ctx, "C1", "T-unknown", "owner1")).To(Succeed())
	})
})
