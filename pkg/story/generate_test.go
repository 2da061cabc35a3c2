package story

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyteller/pkg/inference"
)

func TestGenerateNormalizes(t *testing.T) {
	mock := inference.NewMockInferencer("**The Storm**\n***\n\n\n\nNarrator: Thunder rolls.\nAnna: Ben?\n")
	g := NewGenerator(mock, log.New(io.Discard))

	text, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "The Storm\n\nNarrator: Thunder rolls.\nAnna: Ben?", text)
	assert.Equal(t, []string{GeneratePrompt}, mock.Prompts)
}

func TestGenerateFallback(t *testing.T) {
	g := NewGenerator(inference.NewMockInferencer(""), log.New(io.Discard))
	text, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NoStoryGenerated, text)
}

func TestGenerateError(t *testing.T) {
	mock := &inference.MockInferencer{
		InferFunc: func(context.Context, *inference.Options, string) (string, error) {
			return "", errors.New("unavailable")
		},
	}
	_, err := NewGenerator(mock, log.New(io.Discard)).Generate(context.Background())
	assert.ErrorContains(t, err, "unavailable")
}
