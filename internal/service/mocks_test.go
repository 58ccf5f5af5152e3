package service_test

import (
	"context"
	"sync"

	"answerhub.dev/scribe/internal/docstore"
	"answerhub.dev/scribe/internal/messaging"
	"answerhub.dev/scribe/internal/model"
	"answerhub.dev/scribe/internal/oracle"
)

type sentMessage struct {
	userID string
	text   string
}

type postedReply struct {
	channel  string
	threadID string
	text     string
}

type mockMessenger struct {
	mu sync.Mutex

	fetchRepliesFn func(ctx context.Context, channel, threadID, sinceID string) ([]messaging.Reply, error)
	postReplyFn    func(ctx context.Context, channel, threadID, text string) error
	sendDirectFn   func(ctx context.Context, userID, text string) (bool, error)

	posted  []postedReply
	directs []sentMessage
}

func (m *mockMessenger) FetchReplies(ctx context.Context, channel, threadID, sinceID string) ([]messaging.Reply, error) {
	if m.fetchRepliesFn != nil {
		return m.fetchRepliesFn(ctx, channel, threadID, sinceID)
	}
	return nil, nil
}

func (m *mockMessenger) PostReply(ctx context.Context, channel, threadID, text string) error {
	m.mu.Lock()
	m.posted = append(m.posted, postedReply{channel, threadID, text})
	m.mu.Unlock()
	if m.postReplyFn != nil {
		return m.postReplyFn(ctx, channel, threadID, text)
	}
	return nil
}

func (m *mockMessenger) SendDirect(ctx context.Context, userID, text string) (bool, error) {
	m.mu.Lock()
	m.directs = append(m.directs, sentMessage{userID, text})
	m.mu.Unlock()
	if m.sendDirectFn != nil {
		return m.sendDirectFn(ctx, userID, text)
	}
	return true, nil
}

func (m *mockMessenger) directsTo(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, d := range m.directs {
		if d.userID == userID {
			out = append(out, d.text)
		}
	}
	return out
}

type mockOracle struct {
	classifyFn         func(ctx context.Context, text string, domains []model.KnowledgeDomain) (string, error)
	answerFn           func(ctx context.Context, question, threadContext, document string) (*oracle.AnswerResult, error)
	checkSubstantiveFn func(ctx context.Context, question string, replies []string) (*oracle.SubstantiveResult, error)
	synthesizeFn       func(ctx context.Context, question string, replies []string) (*oracle.SynthesisResult, error)
	checkCorrectionFn  func(ctx context.Context, req oracle.CorrectionCheckRequest) (*oracle.CorrectionResult, error)
	reviseProposalFn   func(ctx context.Context, question, currentText, feedback string) (string, error)
}

func (m *mockOracle) Classify(ctx context.Context, text string, domains []model.KnowledgeDomain) (string, error) {
	if m.classifyFn != nil {
		return m.classifyFn(ctx, text, domains)
	}
	return "", nil
}

func (m *mockOracle) Answer(ctx context.Context, question, threadContext, document string) (*oracle.AnswerResult, error) {
	if m.answerFn != nil {
		return m.answerFn(ctx, question, threadContext, document)
	}
	return &oracle.AnswerResult{}, nil
}

func (m *mockOracle) CheckSubstantive(ctx context.Context, question string, replies []string) (*oracle.SubstantiveResult, error) {
	if m.checkSubstantiveFn != nil {
		return m.checkSubstantiveFn(ctx, question, replies)
	}
	return &oracle.SubstantiveResult{Substantive: true}, nil
}

func (m *mockOracle) Synthesize(ctx context.Context, question string, replies []string) (*oracle.SynthesisResult, error) {
	if m.synthesizeFn != nil {
		return m.synthesizeFn(ctx, question, replies)
	}
	return &oracle.SynthesisResult{Question: question, Answer: "synthesized", ShouldPublish: true}, nil
}

func (m *mockOracle) CheckCorrection(ctx context.Context, req oracle.CorrectionCheckRequest) (*oracle.CorrectionResult, error) {
	if m.checkCorrectionFn != nil {
		return m.checkCorrectionFn(ctx, req)
	}
	return &oracle.CorrectionResult{}, nil
}

func (m *mockOracle) ReviseProposal(ctx context.Context, question, currentText, feedback string) (string, error) {
	if m.reviseProposalFn != nil {
		return m.reviseProposalFn(ctx, question, currentText, feedback)
	}
	return currentText, nil
}

type blockUpdate struct {
	blockID string
	text    string
}

type mockDocStore struct {
	mu sync.Mutex

	fetchContentFn  func(ctx context.Context, ref string) (string, error)
	fetchBlocksFn   func(ctx context.Context, ref string) ([]docstore.Block, error)
	analyzeFormatFn func(ctx context.Context, ref string) (*docstore.StyleDescriptor, error)
	appendEntryFn   func(ctx context.Context, ref, question, answer string, style *docstore.StyleDescriptor) (string, error)
	updateBlockFn   func(ctx context.Context, blockID, text string) (string, error)
	annotateFn      func(ctx context.Context, blockID, text string) (string, error)

	updates     []blockUpdate
	annotations []blockUpdate
	invalidated []string
}

func (m *mockDocStore) FetchContent(ctx context.Context, ref string) (string, error) {
	if m.fetchContentFn != nil {
		return m.fetchContentFn(ctx, ref)
	}
	return "", nil
}

func (m *mockDocStore) FetchBlocks(ctx context.Context, ref string) ([]docstore.Block, error) {
	if m.fetchBlocksFn != nil {
		return m.fetchBlocksFn(ctx, ref)
	}
	return nil, nil
}

func (m *mockDocStore) AnalyzeFormat(ctx context.Context, ref string) (*docstore.StyleDescriptor, error) {
	if m.analyzeFormatFn != nil {
		return m.analyzeFormatFn(ctx, ref)
	}
	return &docstore.StyleDescriptor{EntryFormat: "qa"}, nil
}

func (m *mockDocStore) AppendEntry(ctx context.Context, ref, question, answer string, style *docstore.StyleDescriptor) (string, error) {
	if m.appendEntryFn != nil {
		return m.appendEntryFn(ctx, ref, question, answer, style)
	}
	return "https://docs.example/" + ref + "#new", nil
}

func (m *mockDocStore) UpdateBlock(ctx context.Context, blockID, text string) (string, error) {
	m.mu.Lock()
	m.updates = append(m.updates, blockUpdate{blockID, text})
	m.mu.Unlock()
	if m.updateBlockFn != nil {
		return m.updateBlockFn(ctx, blockID, text)
	}
	return "https://docs.example/block/" + blockID, nil
}

func (m *mockDocStore) Annotate(ctx context.Context, blockID, text string) (string, error) {
	m.mu.Lock()
	m.annotations = append(m.annotations, blockUpdate{blockID, text})
	m.mu.Unlock()
	if m.annotateFn != nil {
		return m.annotateFn(ctx, blockID, text)
	}
	return "note-1", nil
}

func (m *mockDocStore) DocumentURL(ref string) string {
	return "https://docs.example/" + ref
}

func (m *mockDocStore) Invalidate(_ context.Context, ref string) {
	m.mu.Lock()
	m.invalidated = append(m.invalidated, ref)
	m.mu.Unlock()
}

func (m *mockDocStore) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}

type mockDirectory struct {
	resolveFn func(ctx context.Context, domainID string) (*model.KnowledgeDomain, error)
	listFn    func(ctx context.Context) ([]model.KnowledgeDomain, error)
	createFn  func(ctx context.Context, domain model.KnowledgeDomain) (*model.KnowledgeDomain, error)
}

func (m *mockDirectory) Resolve(ctx context.Context, domainID string) (*model.KnowledgeDomain, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, domainID)
	}
	return &model.KnowledgeDomain{ID: domainID, DocumentRef: "doc-" + domainID}, nil
}

func (m *mockDirectory) List(ctx context.Context) ([]model.KnowledgeDomain, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockDirectory) Create(ctx context.Context, domain model.KnowledgeDomain) (*model.KnowledgeDomain, error) {
	if m.createFn != nil {
		return m.createFn(ctx, domain)
	}
	created := domain
	created.ID = "dom-created"
	return &created, nil
}
