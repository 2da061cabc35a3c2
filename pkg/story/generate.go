package story

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"storyteller/pkg/inference"
)

type Generator struct {
	inf inference.Inferencer
	log *log.Logger
}

func NewGenerator(inf inference.Inferencer, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{inf: inf, log: logger}
}

// Generate asks the model for a new story and returns it normalized.
// An empty response becomes NoStoryGenerated.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	raw, err := g.inf.Infer(ctx, nil, GeneratePrompt)
	if err != nil {
		return "", fmt.Errorf("story generation failed: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		g.log.Warn("model returned no story text")
		raw = NoStoryGenerated
	}
	return Normalize(raw), nil
}
