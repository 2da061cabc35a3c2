package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"storyteller/pkg/inference"
	"storyteller/pkg/schema"
	"storyteller/pkg/utils"
)

var ErrMalformedExtraction = errors.New("malformed extraction response")

// Extractor turns story text into an ordered list of dialogue entries.
// On failure it returns an empty result together with the error.
type Extractor interface {
	Extract(ctx context.Context, text string) (schema.ExtractionResult, error)
}

type LLMExtractor struct {
	inf       inference.Inferencer
	gender    bool
	logTokens bool
	log       *log.Logger
}

type ExtractorOption func(*LLMExtractor)

// WithGender asks the model to predict each speaker's gender.
func WithGender(enabled bool) ExtractorOption {
	return func(e *LLMExtractor) { e.gender = enabled }
}

// WithTokenLogging logs the prompt size in tokens at debug level.
func WithTokenLogging(enabled bool) ExtractorOption {
	return func(e *LLMExtractor) { e.logTokens = enabled }
}

func NewLLMExtractor(inf inference.Inferencer, logger *log.Logger, opts ...ExtractorOption) *LLMExtractor {
	if logger == nil {
		logger = log.Default()
	}
	e := &LLMExtractor{inf: inf, log: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *LLMExtractor) Extract(ctx context.Context, text string) (schema.ExtractionResult, error) {
	prompt := ExtractionPrompt(text, e.gender)
	if e.logTokens {
		if n, err := utils.CountTokens(prompt); err == nil {
			e.log.Debug("extraction prompt", "tokens", n)
		} else {
			e.log.Debug("token count unavailable", "error", err)
		}
	}

	raw, err := e.inf.Infer(ctx, &inference.Options{
		JSON:       true,
		Schema:     schema.ExtractionSchema,
		SchemaName: "dialogue_extraction",
	}, prompt)
	if err != nil {
		return schema.EmptyExtraction(), fmt.Errorf("extraction request failed: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		raw = EmptyJSONResponse
	}

	result, err := ParseExtraction(raw)
	if err != nil {
		e.log.Debug("unparseable extraction response", "response", utils.LimitStr(raw, 200))
		return result, err
	}
	e.log.Debug("extracted dialogues", "entries", len(result.Dialogues), "speakers", len(schema.Speakers(result.Dialogues)))
	return result, nil
}

var extractionValidator = sync.OnceValues(func() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema.ExtractionSchema)
	if err != nil {
		return nil, err
	}
	return jsonschema.CompileString("extraction.json", string(raw))
})

// ParseExtraction strips code fences from a model response, checks it against
// the extraction schema and decodes it. Any failure yields an empty result
// and an error wrapping ErrMalformedExtraction.
func ParseExtraction(raw string) (schema.ExtractionResult, error) {
	cleaned := []byte(StripFences(raw))

	var doc any
	if err := json.Unmarshal(cleaned, &doc); err != nil {
		return schema.EmptyExtraction(), fmt.Errorf("%w: %w", ErrMalformedExtraction, err)
	}

	validator, err := extractionValidator()
	if err != nil {
		return schema.EmptyExtraction(), fmt.Errorf("failed to compile extraction schema: %w", err)
	}
	if err := validator.Validate(doc); err != nil {
		return schema.EmptyExtraction(), fmt.Errorf("%w: %w", ErrMalformedExtraction, err)
	}

	var result schema.ExtractionResult
	if err := json.Unmarshal(cleaned, &result); err != nil {
		return schema.EmptyExtraction(), fmt.Errorf("%w: %w", ErrMalformedExtraction, err)
	}
	result.Dialogues = schema.Entries(result.Dialogues)
	return result, nil
}
