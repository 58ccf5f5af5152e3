package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"answerhub.dev/scribe/common/id"
	"answerhub.dev/scribe/internal/directory"
	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/service"
	"answerhub.dev/scribe/internal/store"
)

var _ = Describe("IntakeService", func() {
	var (
		ctx    context.Context
		stores *store.Stores
		dir    *mockDirectory
		svc    *service.IntakeService
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(id.Init(1)).To(Succeed())
		stores = store.NewMemoryStores()
		dir = &mockDirectory{}
		svc = service.NewIntakeService(stores.Escalations(), stores.TrackedAnswers(), dir)
	})

	Describe("OpenEscalation", func() {
		req := service.OpenEscalationRequest{
			Channel:         "C1",
			ThreadID:        "T1",
			OriginMessageID: "M1",
			DomainID:        "dom-1",
			Question:        "How do refunds work?",
		}

		It("creates an awaiting-response record with the domain's owners", func() {
			dir.resolveFn = func(_ context.Context, domainID string) (*model.KnowledgeDomain, error) {
				return &model.KnowledgeDomain{
					ID: domainID, OwnerUserIDs: []string{"owner1"}, DocumentRef: "doc-1",
				}, nil
			}

			esc, err := svc.OpenEscalation(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(esc.ID).NotTo(BeZero())
			Expect(esc.Status).To(Equal(model.EscalationStatusAwaitingResponse))
			Expect(esc.OwnerUserIDs).To(Equal([]string{"owner1"}))
		})

		It("returns the existing record when the thread already has a live escalation", func() {
			first, err := svc.OpenEscalation(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			second, err := svc.OpenEscalation(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))
		})

		It("rejects a request with missing fields before any state change", func() {
			bad := req
			bad.Question = ""
			_, err := svc.OpenEscalation(ctx, bad)
			Expect(errors.Is(err, service.ErrInvalidRequest)).To(BeTrue())
		})

		It("propagates an unknown domain", func() {
			dir.resolveFn = func(_ context.Context, _ string) (*model.KnowledgeDomain, error) {
				return nil, directory.ErrDomainNotFound
			}
			_, err := svc.OpenEscalation(ctx, req)
			Expect(errors.Is(err, directory.ErrDomainNotFound)).To(BeTrue())
		})
	})

	Describe("TrackAnswer", func() {
		It("creates an active record carrying evidence and source documents", func() {
			ans, err := svc.TrackAnswer(ctx, service.TrackAnswerRequest{
				Channel:           "C1",
				ThreadID:          "T2",
				AnswerMessageID:   "M2",
				DomainID:          "dom-1",
				Question:          "How do refunds work?",
				Answer:            "Within 30 days.",
				Evidence:          []string{"refunds are honored within 30 days"},
				DocumentSourceIDs: []string{"doc-alt"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ans.Status).To(Equal(model.TrackedAnswerStatusActive))
			Expect(ans.Evidence).To(HaveLen(1))
			Expect(ans.DocumentSourceIDs).To(Equal([]string{"doc-alt"}))
		})
	})
})
