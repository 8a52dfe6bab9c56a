package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/tcb-dev/claudebridge/internal/models"
)

const visionModel = "gpt-4o-mini"

// Client wraps the OpenAI API for the two optional pipeline stages: vision
// description of downloaded images and structured extraction over general
// page content. Construct with New; a nil *Client means the capability is
// not configured and every call degrades to ErrUnavailable.
type Client struct {
	client openai.Client
}

// New probes the capability once at startup: an empty API key yields nil.
func New(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{client: openai.NewClient(option.WithAPIKey(apiKey))}
}

// Available reports whether the optional AI stages can run.
func (c *Client) Available() bool {
	return c != nil
}

// DescribeImage sends one in-memory image (as a base64 data URI) to the
// vision model. contextText disambiguates, e.g. the tweet the image came
// from.
func (c *Client) DescribeImage(ctx context.Context, b64Data, mimeType, contextText string) (string, error) {
	if c == nil {
		return "", models.ErrUnavailable
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, b64Data)

	response, err := c.client.Chat.Completions.New(ctx, visionParams(dataURI, contextText))
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from vision model")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// Extract runs the structured-extraction pass over page text and returns
// topic, key data points, entities and a conclusion.
func (c *Client) Extract(ctx context.Context, text string) (*models.Extraction, error) {
	if c == nil {
		return nil, models.ErrUnavailable
	}

	response, err := c.client.Chat.Completions.New(ctx, extractionParams(text))
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response from extraction model")
	}

	var extraction models.Extraction
	content := stripCodeFence(response.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &extraction); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}
	return &extraction, nil
}

func visionParams(dataURI, contextText string) openai.ChatCompletionNewParams {
	prompt := "Describe this image in detail. Include any visible text, numbers, charts or other visual information."
	if contextText != "" {
		prompt = fmt.Sprintf(
			"This image comes from a social media post that says: %s\n\nUsing that context, describe the image in detail. Include any visible text, numbers, charts or other visual information.",
			truncateRunes(contextText, 500))
	}

	return openai.ChatCompletionNewParams{
		Model: visionModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							{
								OfText: &openai.ChatCompletionContentPartTextParam{Text: prompt},
							},
							{
								OfImageURL: &openai.ChatCompletionContentPartImageParam{
									ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURI},
								},
							},
						},
					},
				},
			},
		},
		MaxTokens: openai.Int(800),
	}
}

func extractionParams(text string) openai.ChatCompletionNewParams {
	prompt := fmt.Sprintf(`Extract key information from this page content.
Respond with JSON only, in this shape:
{"topic": "main topic", "key_data": ["claim or number", ...], "entities": ["person or org", ...], "conclusion": "one-sentence conclusion"}

Content:
%s`, truncateRunes(text, 8000))

	return openai.ChatCompletionNewParams{
		Model: visionModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("You are an information extraction engine. Respond only with the requested JSON."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(1000),
	}
}

// truncateRunes caps text at rune boundaries so multi-byte characters are
// never split.
func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// Models sometimes wrap JSON answers in a markdown fence despite the
// instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
