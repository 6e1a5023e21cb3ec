package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModel struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func response(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestComplete(t *testing.T) {
	model := &fakeModel{resp: response(genai.Text(`{"topics":`), genai.Text(`[]}`))}
	c := &GeminiClient{model: model, modelName: "gemini-2.0-flash-lite", logger: zap.NewNop()}

	got, err := c.Complete(context.Background(), "system", "prompt")

	require.NoError(t, err)
	assert.Equal(t, `{"topics":[]}`, got)
	assert.Equal(t, []genai.Part{genai.Text("system"), genai.Text("prompt")}, model.parts)
	assert.NoError(t, c.Close())
}

func TestCompleteErrors(t *testing.T) {
	c := &GeminiClient{logger: zap.NewNop()}

	c.model = &fakeModel{err: errors.New("blocked")}
	_, err := c.Complete(context.Background(), "s", "p")
	assert.ErrorContains(t, err, "blocked")

	c.model = &fakeModel{resp: &genai.GenerateContentResponse{}}
	_, err = c.Complete(context.Background(), "s", "p")
	assert.ErrorContains(t, err, "empty response")

	c.model = &fakeModel{resp: response(genai.Blob{MIMEType: "image/png"})}
	_, err = c.Complete(context.Background(), "s", "p")
	assert.ErrorContains(t, err, "no text")
}
