package inference

import (
	"cmp"
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

// OpenAIInferencer implements Inferencer for any OpenAI-compatible chat completions API.
type OpenAIInferencer struct {
	client *openai.Client
	apiKey string
	model  string
}

func NewOpenAIInferencer(apiKey string, model string) *OpenAIInferencer {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIInferencer{
		client: &client,
		apiKey: apiKey,
		model:  model,
	}
}

func (o *OpenAIInferencer) ChangeBaseURL(baseURL string) {
	client := openai.NewClient(
		option.WithAPIKey(o.apiKey),
		option.WithBaseURL(baseURL),
	)
	o.client = &client
}

func (o *OpenAIInferencer) Model() string {
	return o.model
}

func (o *OpenAIInferencer) Infer(ctx context.Context, opts *Options, prompt string) (string, error) {
	if opts == nil {
		opts = new(Options)
	}
	params := openai.ChatCompletionNewParams{
		Model: cmp.Or(opts.Model, o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Role: "user",
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: param.Opt[string]{Value: prompt},
					},
				},
			},
		},
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(opts.MaxOutputTokens)
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.JSON {
		params.ResponseFormat = responseFormat(opts)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai inference error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func responseFormat(opts *Options) openai.ChatCompletionNewParamsResponseFormatUnion {
	if opts.Schema == nil {
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   cmp.Or(opts.SchemaName, "response"),
		Schema: opts.Schema,
		// Nullable optional fields are not expressible in strict mode.
		Strict: openai.Bool(false),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}
