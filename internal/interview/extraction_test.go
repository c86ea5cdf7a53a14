package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM returns canned completions in order, recording the requests.
type scriptedLLM struct {
	replies  []string
	err      error
	requests []LLMRequest
}

func (s *scriptedLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	reply := ""
	if len(s.replies) > 0 {
		reply = s.replies[0]
		if len(s.replies) > 1 {
			s.replies = s.replies[1:]
		}
	}
	return LLMResponse{Text: reply}, nil
}

func TestExtractorExtractField(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{"field": "email", "value": "mario@example.com", "confidence": "high"}`}}
	x := NewExtractor(llm, nil)

	got, err := x.ExtractField(context.Background(), "email", "it's mario@example.com")
	require.NoError(t, err)
	assert.Equal(t, "email", got.Field)
	assert.Equal(t, "mario@example.com", got.Value)
	assert.Equal(t, ConfidenceHigh, got.Confidence)
}

func TestExtractorExtractFieldToleratesProseWrapping(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"Sure! Here is the JSON:\n```json\n{\"field\": \"name\", \"value\": \"Mario\", \"confidence\": \"medium\"}\n```",
	}}
	x := NewExtractor(llm, nil)

	got, err := x.ExtractField(context.Background(), "name", "I'm Mario")
	require.NoError(t, err)
	assert.Equal(t, "Mario", got.Value)
}

func TestExtractorExtractFieldRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json", "I could not find anything"},
		{"bad confidence", `{"field": "email", "value": "x", "confidence": "huge"}`},
		{"unknown fields", `{"field": "email", "value": "x", "confidence": "low", "extra": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &scriptedLLM{replies: []string{tt.reply}}
			x := NewExtractor(llm, nil)
			_, err := x.ExtractField(context.Background(), "email", "hello")
			assert.ErrorIs(t, err, ErrMalformedExtraction)
		})
	}
}

func TestExtractorExtractFacts(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"facts": [{"content": "Buys coffee weekly", "topic": "pricing", "confidence": 0.8, "keywords": ["coffee"]}]}`,
	}}
	x := NewExtractor(llm, nil)

	got, err := x.ExtractFacts(context.Background(), testTopics(), "I buy coffee every week")
	require.NoError(t, err)
	require.Len(t, got.Facts, 1)
	assert.Equal(t, "pricing", got.Facts[0].Topic)
}

func TestExtractorExtractFactsValidatesRanges(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"facts": [{"content": "x", "topic": "pricing", "confidence": 1.7}]}`,
	}}
	x := NewExtractor(llm, nil)

	_, err := x.ExtractFacts(context.Background(), testTopics(), "hello")
	assert.ErrorIs(t, err, ErrMalformedExtraction)
}

func TestExtractorJudgeConfirmation(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{"valid": true, "accepted": false, "confidence": "high"}`}}
	x := NewExtractor(llm, nil)

	got, err := x.JudgeConfirmation(context.Background(), "no thanks, I'm done")
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.False(t, got.Accepted)
}

func TestExtractorNextQuestion(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"  How did you first hear about the brand?  "}}
	x := NewExtractor(llm, nil)

	mem := NewConversationMemory(testTopics())
	got, err := x.NextQuestion(context.Background(), mem, []ChatMessage{{Role: ChatRoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "How did you first hear about the brand?", got)

	// The missing sub-goal areas are part of the prompt.
	require.NotEmpty(t, llm.requests)
	last := llm.requests[len(llm.requests)-1].Messages
	assert.Contains(t, last[len(last)-1].Content, "Brand image")
}

func TestExtractorPinsTemperatureForStructuredCalls(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"field": "email", "value": "mario@example.com", "confidence": "high"}`,
		"How often do you buy coffee online?",
	}}
	x := NewExtractor(llm, nil)

	_, err := x.ExtractField(context.Background(), "email", "mario@example.com")
	require.NoError(t, err)
	_, err = x.NextQuestion(context.Background(), NewConversationMemory(testTopics()), nil)
	require.NoError(t, err)

	require.Len(t, llm.requests, 2)
	// Strict JSON decoding wants deterministic output; free-form question
	// generation defers to the model default.
	require.NotNil(t, llm.requests[0].Temperature)
	assert.Equal(t, float32(0), *llm.requests[0].Temperature)
	assert.Nil(t, llm.requests[1].Temperature)
}

func TestExtractorPropagatesLLMFailure(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("boom")}
	x := NewExtractor(llm, nil)

	_, err := x.ExtractField(context.Background(), "email", "hello")
	assert.Error(t, err)
	_, err = x.NextQuestion(context.Background(), nil, nil)
	assert.Error(t, err)
}
