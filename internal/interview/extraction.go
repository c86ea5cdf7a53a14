package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/attento-ai/interview-platform/pkg/logging"
)

var extractionTracer = otel.Tracer("attento/extraction")

// FieldExtraction is the model's attempt at one structured field value.
type FieldExtraction struct {
	Field      string     `json:"field"`
	Value      string     `json:"value"`
	Confidence Confidence `json:"confidence"`
}

// FactExtraction is the list of facts pulled from one free-text reply.
type FactExtraction struct {
	Facts []CollectedFact `json:"facts"`
}

// ConfirmationJudgment is the model's reading of a deep-offer reply.
type ConfirmationJudgment struct {
	Valid      bool       `json:"valid"`
	Accepted   bool       `json:"accepted"`
	Confidence Confidence `json:"confidence"`
}

const fieldExtractionPrompt = `Extract the value of the field %q from the user's reply.
Reply with JSON only: {"field": "<name>", "value": "<extracted or empty>", "confidence": "none|low|medium|high"}.
Use "none" only when the reply carries no signal at all for this field.

User reply: %s`

const factExtractionPrompt = `Extract factual statements relevant to these research topics from the user's reply.
Topics:
%s
Reply with JSON only:
{"facts": [{"content": "<statement>", "topic": "<topic id>", "confidence": <0..1>, "keywords": ["..."]}]}
Return an empty list when nothing relevant was said.

User reply: %s`

const confirmationPrompt = `The assistant asked the user whether to extend the interview with more questions.
Judge the user's reply. Reply with JSON only:
{"valid": <true if the reply clearly answers>, "accepted": <true if the user agrees>, "confidence": "none|low|medium|high"}

User reply: %s`

const nextQuestionPrompt = `You are conducting a qualitative interview. Based on the topics still missing
sub-goals below and the conversation so far, write the single next question to ask. Plain text only.

Missing areas:
%s`

// Extractor wraps the completion capability behind schema-validated result
// types so the core only ever sees well-formed variants.
type Extractor struct {
	llm    LLMClient
	logger *logging.Logger
}

// NewExtractor creates an extractor over the given completion client.
func NewExtractor(llm LLMClient, logger *logging.Logger) *Extractor {
	if llm == nil {
		panic("interview: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{llm: llm, logger: logger}
}

// ExtractField asks the model for one field value from the user's reply.
func (x *Extractor) ExtractField(ctx context.Context, field, reply string) (FieldExtraction, error) {
	ctx, span := extractionTracer.Start(ctx, "extraction.field")
	defer span.End()
	span.SetAttributes(attribute.String("extraction.field", field))

	prompt := fmt.Sprintf(fieldExtractionPrompt, field, reply)
	raw, err := x.complete(ctx, prompt, 120)
	if err != nil {
		span.RecordError(err)
		return FieldExtraction{}, err
	}

	var out FieldExtraction
	if err := decodeJSONPayload(raw, &out); err != nil {
		span.RecordError(err)
		return FieldExtraction{}, err
	}
	if out.Field == "" {
		out.Field = field
	}
	if !validConfidence(out.Confidence) {
		return FieldExtraction{}, fmt.Errorf("%w: bad confidence %q", ErrMalformedExtraction, out.Confidence)
	}
	return out, nil
}

// ExtractFacts asks the model for topic-relevant facts in the reply.
func (x *Extractor) ExtractFacts(ctx context.Context, topics []Topic, reply string) (FactExtraction, error) {
	ctx, span := extractionTracer.Start(ctx, "extraction.facts")
	defer span.End()

	var lines []string
	for _, t := range topics {
		lines = append(lines, fmt.Sprintf("- %s: %s (%s)", t.ID, t.Label, strings.Join(t.SubGoals, "; ")))
	}
	prompt := fmt.Sprintf(factExtractionPrompt, strings.Join(lines, "\n"), reply)

	raw, err := x.complete(ctx, prompt, 512)
	if err != nil {
		span.RecordError(err)
		return FactExtraction{}, err
	}

	var out FactExtraction
	if err := decodeJSONPayload(raw, &out); err != nil {
		span.RecordError(err)
		return FactExtraction{}, err
	}
	for i, f := range out.Facts {
		if strings.TrimSpace(f.Content) == "" {
			return FactExtraction{}, fmt.Errorf("%w: fact %d has empty content", ErrMalformedExtraction, i)
		}
		if f.Confidence < 0 || f.Confidence > 1 {
			return FactExtraction{}, fmt.Errorf("%w: fact %d confidence out of range", ErrMalformedExtraction, i)
		}
	}
	span.SetAttributes(attribute.Int("extraction.facts", len(out.Facts)))
	return out, nil
}

// JudgeConfirmation asks the model whether a deep-offer reply is a clear
// yes or no.
func (x *Extractor) JudgeConfirmation(ctx context.Context, reply string) (ConfirmationJudgment, error) {
	ctx, span := extractionTracer.Start(ctx, "extraction.confirmation")
	defer span.End()

	raw, err := x.complete(ctx, fmt.Sprintf(confirmationPrompt, reply), 60)
	if err != nil {
		span.RecordError(err)
		return ConfirmationJudgment{}, err
	}

	var out ConfirmationJudgment
	if err := decodeJSONPayload(raw, &out); err != nil {
		span.RecordError(err)
		return ConfirmationJudgment{}, err
	}
	if !validConfidence(out.Confidence) {
		return ConfirmationJudgment{}, fmt.Errorf("%w: bad confidence %q", ErrMalformedExtraction, out.Confidence)
	}
	return out, nil
}

// NextQuestion asks the model for the next exploration question given the
// areas still missing coverage. The wording is opaque to the core; the
// caller renders it after duplicate screening.
func (x *Extractor) NextQuestion(ctx context.Context, memory *ConversationMemory, history []ChatMessage) (string, error) {
	ctx, span := extractionTracer.Start(ctx, "extraction.next_question")
	defer span.End()

	var missing []string
	if memory != nil {
		for _, t := range memory.TopicsExplored {
			if len(t.SubGoalsMissing) > 0 {
				missing = append(missing, fmt.Sprintf("- %s: %s", t.TopicLabel, strings.Join(t.SubGoalsMissing, "; ")))
			}
		}
	}
	if len(missing) == 0 {
		missing = []string{"- anything the user hinted at but did not elaborate on"}
	}

	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{
		Role:    ChatRoleUser,
		Content: fmt.Sprintf(nextQuestionPrompt, strings.Join(missing, "\n")),
	})

	resp, err := x.llm.Complete(ctx, LLMRequest{Messages: messages, MaxTokens: 160})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("interview: next question generation failed: %w", err)
	}
	question := strings.TrimSpace(resp.Text)
	if question == "" {
		return "", fmt.Errorf("%w: empty question", ErrMalformedExtraction)
	}
	return question, nil
}

func (x *Extractor) complete(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	// Structured payloads are decoded strictly, so extraction runs at
	// temperature zero; question generation keeps the model default.
	resp, err := x.llm.Complete(ctx, LLMRequest{
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: TemperaturePtr(0),
	})
	if err != nil {
		return "", fmt.Errorf("interview: extraction call failed: %w", err)
	}
	return resp.Text, nil
}

// decodeJSONPayload pulls the JSON object out of the model's reply (models
// sometimes wrap it in prose or code fences) and decodes it strictly.
func decodeJSONPayload(raw string, v any) error {
	content := strings.TrimSpace(raw)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("%w: no JSON object in reply", ErrMalformedExtraction)
	}
	dec := json.NewDecoder(strings.NewReader(content[start : end+1]))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	return nil
}

func validConfidence(c Confidence) bool {
	switch c {
	case ConfidenceNone, ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	default:
		return false
	}
}
