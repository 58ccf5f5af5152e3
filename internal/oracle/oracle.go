package oracle

import (
	"context"
	"fmt"
	"strings"

	"answerhub.dev/scribe/internal/model"
)

// MaxEvidence bounds the evidence snippets accepted from any oracle response.
const MaxEvidence = 3

// Oracle is the language-model capability consumed as an external function.
// Every result is validated at this boundary; an unvalidated payload never
// propagates past the adapter.
type Oracle interface {
	// Classify maps free text onto one of the known domains. Returns the
	// empty string when no domain fits.
	Classify(ctx context.Context, text string, domains []model.KnowledgeDomain) (string, error)
	// Answer attempts to answer a question from the given document.
	Answer(ctx context.Context, question, threadContext, document string) (*AnswerResult, error)
	// CheckSubstantive judges whether any reply is a reusable,
	// self-contained answer rather than an acknowledgment, deflection, or
	// counter-question.
	CheckSubstantive(ctx context.Context, question string, replies []string) (*SubstantiveResult, error)
	// Synthesize turns owner replies into a generalized question/answer
	// pair and judges whether it is broadly reusable.
	Synthesize(ctx context.Context, question string, replies []string) (*SynthesisResult, error)
	// CheckCorrection judges whether the replies, taken together, correct
	// the prior answer, and drafts the replacement text if so.
	CheckCorrection(ctx context.Context, req CorrectionCheckRequest) (*CorrectionResult, error)
	// ReviseProposal regenerates proposed replacement text incorporating
	// reviewer feedback.
	ReviseProposal(ctx context.Context, question, currentText, feedback string) (string, error)
}

type AnswerResult struct {
	Found           bool
	Text            string
	Evidence        []string
	Followups       []string
	NeedsEscalation bool
}

type SubstantiveResult struct {
	Substantive bool
	Rationale   string
}

type SynthesisResult struct {
	Question      string
	Answer        string
	ShouldPublish bool
}

type CorrectionCheckRequest struct {
	Question    string
	PriorAnswer string
	Evidence    []string
	Replies     []string
}

type CorrectionResult struct {
	IsCorrection    bool
	CorrectedAspect string
	ProposedText    string
	Rationale       string
}

func (r *AnswerResult) validate() error {
	r.Text = strings.TrimSpace(r.Text)
	if len(r.Evidence) > MaxEvidence {
		r.Evidence = r.Evidence[:MaxEvidence]
	}
	if r.Found && r.Text == "" {
		return fmt.Errorf("answer marked found but text is empty")
	}
	return nil
}

func (r *SynthesisResult) validate() error {
	r.Question = strings.TrimSpace(r.Question)
	r.Answer = strings.TrimSpace(r.Answer)
	if r.ShouldPublish && (r.Question == "" || r.Answer == "") {
		return fmt.Errorf("synthesis marked publishable but question or answer is empty")
	}
	return nil
}

func (r *CorrectionResult) validate() error {
	r.ProposedText = strings.TrimSpace(r.ProposedText)
	if r.IsCorrection && r.ProposedText == "" {
		return fmt.Errorf("correction detected but proposed text is empty")
	}
	return nil
}
