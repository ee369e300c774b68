package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/talkrag/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestGeneratorComplete(t *testing.T) {
	t.Run("sends system then human message and trims answer", func(t *testing.T) {
		model := &fakeModel{resp: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "  The speaker is Ken Robinson.\n"}},
		}}
		gen := newGeneratorWithModel(model, 1)

		answer, err := gen.Complete(context.Background(), "system text", "user text")
		require.NoError(t, err)
		assert.Equal(t, "The speaker is Ken Robinson.", answer)

		require.Len(t, model.messages, 2)
		assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
		assert.Equal(t, llms.TextPart("system text"), model.messages[0].Parts[0])
		assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
		assert.Equal(t, llms.TextPart("user text"), model.messages[1].Parts[0])
		assert.Equal(t, 1.0, model.options.Temperature)
	})

	t.Run("no choices yields empty answer", func(t *testing.T) {
		gen := newGeneratorWithModel(&fakeModel{resp: &llms.ContentResponse{}}, 0.5)

		answer, err := gen.Complete(context.Background(), "s", "u")
		require.NoError(t, err)
		assert.Empty(t, answer)
	})

	t.Run("model error is returned", func(t *testing.T) {
		boom := errors.New("rate limited")
		gen := newGeneratorWithModel(&fakeModel{err: boom}, 1)

		_, err := gen.Complete(context.Background(), "s", "u")
		assert.ErrorIs(t, err, boom)
	})
}

func TestNewProviderRejectsInvalidConfig(t *testing.T) {
	_, err := NewProvider(&ai.Config{})
	assert.Error(t, err)
}
