package inference

import (
	"cmp"
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

type GeminiInferencer struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGeminiInferencer creates an inferencer backed by the Gemini generateContent API.
func NewGeminiInferencer(apiKey string, model string) (*GeminiInferencer, error) {
	g := &GeminiInferencer{
		apiKey: apiKey,
		model:  cmp.Or(model, defaultGeminiModel),
	}
	if err := g.ChangeBaseURL(""); err != nil {
		return nil, err
	}
	return g, nil
}

// ChangeBaseURL points the client at a different API root. An empty URL restores the default.
func (o *GeminiInferencer) ChangeBaseURL(baseURL string) error {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      o.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	o.client = client
	return nil
}

func (o *GeminiInferencer) Model() string {
	return o.model
}

func (o *GeminiInferencer) Infer(ctx context.Context, opts *Options, prompt string) (string, error) {
	if opts == nil {
		opts = new(Options)
	}
	config := &genai.GenerateContentConfig{}
	if opts.JSON {
		config.ResponseMIMEType = "application/json"
	}
	if opts.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}
	if opts.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(opts.Temperature))
	}

	result, err := o.client.Models.GenerateContent(
		ctx,
		cmp.Or(opts.Model, o.model),
		genai.Text(prompt),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return firstCandidateText(result), nil
}

// firstCandidateText reads candidates[0].content.parts[0].text, tolerating
// any missing link in that path.
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil || len(c.Content.Parts) == 0 || c.Content.Parts[0] == nil {
		return ""
	}
	return c.Content.Parts[0].Text
}
