package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/service"
	"answerhub.dev/scribe/internal/store"
)

var _ = Describe("DomainFlowService", func() {
	var (
		ctx       context.Context
		stores    *store.Stores
		messenger *mockMessenger
		docs      *mockDocStore
		dir       *mockDirectory
		svc       *service.DomainFlowService
	)

	BeforeEach(func() {
		ctx = context.Background()
		stores = store.NewMemoryStores()
		messenger = &mockMessenger{}
		docs = &mockDocStore{}
		dir = &mockDirectory{}
		svc = service.NewDomainFlowService(
			stores.PendingActions(), messenger, docs, dir, 10*time.Minute,
		)
	})

	reply := func(text string) {
		action, err := stores.PendingActions().Get(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(action).NotTo(BeNil())
		Expect(svc.HandleReply(ctx, action, text)).To(Succeed())
	}

	It("walks through every field and creates the domain", func() {
		var created model.KnowledgeDomain
		dir.createFn = func(_ context.Context, domain model.KnowledgeDomain) (*model.KnowledgeDomain, error) {
			created = domain
			out := domain
			out.ID = "dom-billing"
			return &out, nil
		}
		docs.fetchContentFn = func(_ context.Context, ref string) (string, error) {
			Expect(ref).To(Equal("doc-billing"))
			return "# Billing", nil
		}

		Expect(svc.Start(ctx, "alice")).To(Succeed())
		reply("Billing")
		reply("Invoices, payments, and refunds.")
		reply("invoice, payment, refund")
		reply("<@U100>, U200")
		reply("doc-billing")

		Expect(created.Name).To(Equal("Billing"))
		Expect(created.Description).To(Equal("Invoices, payments, and refunds."))
		Expect(created.Keywords).To(Equal([]string{"invoice", "payment", "refund"}))
		Expect(created.LeadUserIDs).To(Equal([]string{"U100", "U200"}))
		Expect(created.DocumentRef).To(Equal("doc-billing"))

		remaining, err := stores.PendingActions().Get(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(remaining).To(BeNil())

		last := messenger.directsTo("alice")
		Expect(last[len(last)-1]).To(ContainSubstring("Billing"))
	})

	It("reprompts without committing when the document reference is unreadable", func() {
		docs.fetchContentFn = func(_ context.Context, _ string) (string, error) {
			return "", errors.New("404")
		}
		dir.createFn = func(_ context.Context, _ model.KnowledgeDomain) (*model.KnowledgeDomain, error) {
			Fail("no domain should be created")
			return nil, nil
		}

		Expect(svc.Start(ctx, "alice")).To(Succeed())
		reply("Billing")
		reply("Invoices and payments.")
		reply("invoice")
		reply("U100")
		reply("doc-missing")

		action, err := stores.PendingActions().Get(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(action).NotTo(BeNil())

		last := messenger.directsTo("alice")
		Expect(last[len(last)-1]).To(ContainSubstring("couldn't read that document"))
	})

	It("cancels at any point and clears the flow", func() {
		Expect(svc.Start(ctx, "alice")).To(Succeed())
		reply("Billing")
		reply("cancel")

		remaining, err := stores.PendingActions().Get(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(remaining).To(BeNil())

		last := messenger.directsTo("alice")
		Expect(last[len(last)-1]).To(ContainSubstring("nothing was created"))
	})

	It("reprompts on an empty required field", func() {
		Expect(svc.Start(ctx, "alice")).To(Succeed())
		reply("   ")

		action, err := stores.PendingActions().Get(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(action).NotTo(BeNil())

		var payload model.AddDomainPayload
		Expect(json.Unmarshal(action.Payload, &payload)).To(Succeed())
		Expect(payload.Name).To(BeEmpty())
	})
})
