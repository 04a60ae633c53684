package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// formCueGenerator generates exercise form cues using the OpenAI API.
type formCueGenerator struct {
	client *openai.Client
}

// newFormCueGenerator creates a new form cue generator.
func newFormCueGenerator(openaiAPIKey string) *formCueGenerator {
	client := openai.NewClient(option.WithAPIKey(openaiAPIKey))
	return &formCueGenerator{
		client: client,
	}
}

// formCueResponse is the JSON shape requested from the model.
type formCueResponse struct {
	Cue                 string `json:"cue"`
	DescriptionMarkdown string `json:"description_markdown"`
}

// formCueJSONSchema implements json.Marshaler to produce a strict JSON schema
// for the structured output request.
type formCueJSONSchema struct{}

func (formCueJSONSchema) MarshalJSON() ([]byte, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cue": map[string]any{
				"type":        "string",
				"description": "A single short coaching cue, at most one sentence",
			},
			"description_markdown": map[string]any{
				"type":        "string",
				"description": "Markdown description of how to perform the exercise",
			},
		},
		"required":             []string{"cue", "description_markdown"},
		"additionalProperties": false,
	}
	return json.Marshal(schema) //nolint:wrapcheck // marshalling a literal map.
}

// Generate produces a short form cue and a markdown description for the named
// exercise.
func (fg *formCueGenerator) Generate(ctx context.Context, name string) (cue string, markdown string, err error) {
	if name == "" {
		return "", "", errors.New("exercise name cannot be empty")
	}

	prompt := fmt.Sprintf(`Generate form guidance for the strength exercise "%s".

Return a single short coaching cue (one sentence, imperative mood) and a
markdown description following this exact structure:

## Instructions
[Provide 3-5 numbered steps explaining how to perform the exercise correctly]

## Common Mistakes
[List 3-4 common form errors as bullet points]

Important guidelines:
- Instructions should be clear, concise, and focus on proper form
- Use simple, direct language that beginners can understand
- Highlight safety considerations where relevant

The description should be comprehensive yet concise, totaling around 100-150 words.`, name)

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        openai.F("form_cue"),
		Description: openai.F("Form guidance for a strength exercise"),
		Schema:      openai.F(interface{}(formCueJSONSchema{})),
		Strict:      openai.Bool(true),
	}

	chat, err := fg.client.Chat.Completions.New(ctx,
		openai.ChatCompletionNewParams{ //nolint:exhaustruct // only need to set a few fields.
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			}),
			ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
				openai.ResponseFormatJSONSchemaParam{
					Type:       openai.F(openai.ResponseFormatJSONSchemaTypeJSONSchema),
					JSONSchema: openai.F(schemaParam),
				},
			),
			Model: openai.F(openai.ChatModelGPT4o2024_08_06),
		})
	if err != nil {
		return "", "", fmt.Errorf("chat completion: %w", err)
	}

	var response formCueResponse
	if err = json.Unmarshal([]byte(chat.Choices[0].Message.Content), &response); err != nil {
		return "", "", fmt.Errorf("parse form cue response: %w", err)
	}

	response.Cue = strings.TrimSpace(response.Cue)
	response.DescriptionMarkdown = strings.TrimSpace(response.DescriptionMarkdown)
	if response.Cue == "" || response.DescriptionMarkdown == "" {
		return "", "", errors.New("generated form cue is missing required fields")
	}

	return response.Cue, response.DescriptionMarkdown, nil
}
