package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"answerhub.dev/scribe/core/config"
	"answerhub.dev/scribe/internal/model"
)

type openAIOracle struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAI creates the production oracle over the OpenAI chat completions
// API with structured (JSON-schema constrained) outputs.
func NewOpenAI(cfg config.OracleConfig) (Oracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("oracle API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	m := cfg.Model
	if m == "" {
		m = "gpt-4o-mini"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	return &openAIOracle{
		client:    openai.NewClient(opts...),
		model:     m,
		maxTokens: maxTokens,
	}, nil
}

// chatJSON runs one structured-output completion and unmarshals the model's
// JSON into result.
func (o *openAIOracle) chatJSON(ctx context.Context, schemaName, systemPrompt, userPrompt string, schema, result any) error {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		MaxTokens:   openai.Int(int64(o.maxTokens)),
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        schemaName,
					Description: openai.String("Structured response schema"),
					Schema:      schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return fmt.Errorf("openai chat: %w", err)
	}

	slog.DebugContext(ctx, "oracle call completed",
		"schema", schemaName,
		"model", o.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return fmt.Errorf("no choices in response")
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

type classifyResponse struct {
	DomainID string `json:"domain_id" jsonschema_description:"ID of the matching domain, or empty when none fits"`
}

func (o *openAIOracle) Classify(ctx context.Context, text string, domains []model.KnowledgeDomain) (string, error) {
	var sb strings.Builder
	for _, d := range domains {
		fmt.Fprintf(&sb, "- %s: %s (keywords: %s)\n", d.ID, d.Name, strings.Join(d.Keywords, ", "))
	}

	var resp classifyResponse
	err := o.chatJSON(ctx, "classify_domain", promptClassify,
		fmt.Sprintf("Known domains:\n%s\nMessage:\n%s", sb.String(), text),
		generateSchema[classifyResponse](), &resp)
	if err != nil {
		return "", err
	}

	// Only a known domain id may leave the adapter.
	for _, d := range domains {
		if resp.DomainID == d.ID {
			return d.ID, nil
		}
	}
	return "", nil
}

type answerResponse struct {
	Found           bool     `json:"found"`
	Text            string   `json:"text"`
	Evidence        []string `json:"evidence" jsonschema_description:"Verbatim snippets from the document backing the answer, at most 3"`
	Followups       []string `json:"followups"`
	NeedsEscalation bool     `json:"needs_escalation"`
}

func (o *openAIOracle) Answer(ctx context.Context, question, threadContext, document string) (*AnswerResult, error) {
	var resp answerResponse
	err := o.chatJSON(ctx, "answer_question", promptAnswer,
		fmt.Sprintf("Question:\n%s\n\nThread context:\n%s\n\nDocument:\n%s", question, threadContext, document),
		generateSchema[answerResponse](), &resp)
	if err != nil {
		return nil, err
	}

	result := &AnswerResult{
		Found:           resp.Found,
		Text:            resp.Text,
		Evidence:        resp.Evidence,
		Followups:       resp.Followups,
		NeedsEscalation: resp.NeedsEscalation,
	}
	if err := result.validate(); err != nil {
		return nil, fmt.Errorf("invalid answer payload: %w", err)
	}
	return result, nil
}

type substantiveResponse struct {
	Substantive bool   `json:"substantive"`
	Rationale   string `json:"rationale"`
}

func (o *openAIOracle) CheckSubstantive(ctx context.Context, question string, replies []string) (*SubstantiveResult, error) {
	var resp substantiveResponse
	err := o.chatJSON(ctx, "check_substantive", promptCheckSubstantive,
		fmt.Sprintf("Question:\n%s\n\nReplies:\n%s", question, numberList(replies)),
		generateSchema[substantiveResponse](), &resp)
	if err != nil {
		return nil, err
	}
	return &SubstantiveResult{
		Substantive: resp.Substantive,
		Rationale:   strings.TrimSpace(resp.Rationale),
	}, nil
}

type synthesizeResponse struct {
	Question      string `json:"question" jsonschema_description:"Generalized form of the question, stripped of incident-specific detail"`
	Answer        string `json:"answer"`
	ShouldPublish bool   `json:"should_publish" jsonschema_description:"Whether the pair is broadly reusable knowledge"`
}

func (o *openAIOracle) Synthesize(ctx context.Context, question string, replies []string) (*SynthesisResult, error) {
	var resp synthesizeResponse
	err := o.chatJSON(ctx, "synthesize_entry", promptSynthesize,
		fmt.Sprintf("Original question:\n%s\n\nOwner replies:\n%s", question, numberList(replies)),
		generateSchema[synthesizeResponse](), &resp)
	if err != nil {
		return nil, err
	}

	result := &SynthesisResult{
		Question:      resp.Question,
		Answer:        resp.Answer,
		ShouldPublish: resp.ShouldPublish,
	}
	if err := result.validate(); err != nil {
		return nil, fmt.Errorf("invalid synthesis payload: %w", err)
	}
	return result, nil
}

type correctionResponse struct {
	IsCorrection    bool   `json:"is_correction"`
	CorrectedAspect string `json:"corrected_aspect"`
	ProposedText    string `json:"proposed_text" jsonschema_description:"Replacement text for the backing passage when is_correction is true"`
	Rationale       string `json:"rationale"`
}

func (o *openAIOracle) CheckCorrection(ctx context.Context, req CorrectionCheckRequest) (*CorrectionResult, error) {
	evidence := req.Evidence
	if len(evidence) > MaxEvidence {
		evidence = evidence[:MaxEvidence]
	}

	var resp correctionResponse
	err := o.chatJSON(ctx, "check_correction", promptCheckCorrection,
		fmt.Sprintf("Question:\n%s\n\nBot answer:\n%s\n\nEvidence:\n%s\n\nOwner replies:\n%s",
			req.Question, req.PriorAnswer, numberList(evidence), numberList(req.Replies)),
		generateSchema[correctionResponse](), &resp)
	if err != nil {
		return nil, err
	}

	result := &CorrectionResult{
		IsCorrection:    resp.IsCorrection,
		CorrectedAspect: strings.TrimSpace(resp.CorrectedAspect),
		ProposedText:    resp.ProposedText,
		Rationale:       strings.TrimSpace(resp.Rationale),
	}
	if err := result.validate(); err != nil {
		return nil, fmt.Errorf("invalid correction payload: %w", err)
	}
	return result, nil
}

type reviseResponse struct {
	Text string `json:"text"`
}

func (o *openAIOracle) ReviseProposal(ctx context.Context, question, currentText, feedback string) (string, error) {
	var resp reviseResponse
	err := o.chatJSON(ctx, "revise_proposal", promptRevise,
		fmt.Sprintf("Question:\n%s\n\nCurrent proposal:\n%s\n\nReviewer feedback:\n%s", question, currentText, feedback),
		generateSchema[reviseResponse](), &resp)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("revision produced empty text")
	}
	return text, nil
}

func numberList(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
	}
	return sb.String()
}
