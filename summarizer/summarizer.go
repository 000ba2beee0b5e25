package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"trip-letter/models"
)

// Client wraps the generative model behind the structured contracts the
// aggregation core depends on. It is constructed once at process start and
// passed by reference, never held in package state.
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
}

func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("summarizer: api key is not set")
	}
	cl, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{genai: cl, model: model, timeout: timeout}, nil
}

const SUMMARIZE_INSTRUCTION = `
You are a summarization assistant for travel-related social posts.
Analyze the provided post and produce a summary a traveler can act on.
The response MUST be a valid JSON object with one key:
1. summary: A concise summary of the post, no more than 250 characters,
   written in English regardless of the source language.
You MUST NOT wrap the JSON output in a markdown code block. The response
should contain ONLY the raw JSON string.
`

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// SummarizeText produces a short English summary of one post.
func (c *Client) SummarizeText(ctx context.Context, title, body, sourceLanguage string) (string, error) {
	prompt := fmt.Sprintf("Source language: %s\nTitle: %s\n\n%s", sourceLanguage, title, body)

	raw, err := c.generate(ctx, SUMMARIZE_INSTRUCTION, prompt)
	if err != nil {
		return "", err
	}

	var resp summarizeResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		return "", fmt.Errorf("summarizer: unparseable summary response: %w", err)
	}
	if resp.Summary == "" {
		return "", fmt.Errorf("summarizer: empty summary")
	}
	return resp.Summary, nil
}

const EXTRACT_INSTRUCTION = `
You are a travel activity extraction assistant. Given one social post about
a destination, extract 1-2 discrete, actionable activities a traveler could
add to an itinerary.
The response MUST be a valid JSON array of objects with these keys:
1. name: A specific, actionable activity name (e.g. "Hike Rainbow Mountain
   at sunrise"), NEVER generic advice (e.g. "enjoy the local food").
2. type: One category, e.g. "sightseeing", "hiking", "food", "culture".
3. description: One or two sentences, no more than 200 characters.
4. long_description: Optional richer description, up to 600 characters.
5. photo_keywords: 2-4 search keywords for finding photos of the activity.
6. location: Optional place name if the post names one.
7. duration: Optional, e.g. "2-3 hours".
8. best_time: Optional, e.g. "early morning".
9. tips: Optional free-text practical tips from the post.
Only extract activities the post actually describes. Return [] when the
post contains none. Do not wrap the JSON in a markdown code block.
`

// ExtractActivities asks the model for discrete activities found in one
// post. Markdown code fences around the JSON payload are tolerated.
func (c *Client) ExtractActivities(ctx context.Context, title, body, platform, destination string) ([]models.ExtractedActivity, error) {
	prompt := fmt.Sprintf("Destination: %s\nPlatform: %s\nTitle: %s\n\n%s", destination, platform, title, body)

	raw, err := c.generate(ctx, EXTRACT_INSTRUCTION, prompt)
	if err != nil {
		return nil, err
	}

	var activities []models.ExtractedActivity
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &activities); err != nil {
		return nil, fmt.Errorf("summarizer: unparseable extraction response: %w", err)
	}
	return activities, nil
}

const CARD_INSTRUCTION = `
You are a travel recommendation assistant. Given an activity and context
snippets from real social posts, synthesize one recommendation card.
The response MUST be a valid JSON object with these keys:
1. summary: Engaging summary of the activity, no more than 300 characters.
2. long_description: Richer description, up to 800 characters.
3. quotes: Up to 2 short quotes lifted from the context, each an object
   with "original" (verbatim source text) and "translated" (English).
4. photo_query: A short photo search query for the activity.
5. duration: Optional, e.g. "half day".
6. best_time: Optional, e.g. "sunset".
7. location: Optional specific place name.
Do not wrap the JSON in a markdown code block.
`

// CardSynthesis is the structured detail-card response.
type CardSynthesis struct {
	Summary         string         `json:"summary"`
	LongDescription string         `json:"long_description"`
	Quotes          []models.Quote `json:"quotes"`
	PhotoQuery      string         `json:"photo_query"`
	Duration        string         `json:"duration"`
	BestTime        string         `json:"best_time"`
	Location        string         `json:"location"`
}

// SynthesizeCard builds the structured content of one detail card from an
// activity title and context gathered from aggregated posts.
func (c *Client) SynthesizeCard(ctx context.Context, title, destination, contextText string) (*CardSynthesis, error) {
	prompt := fmt.Sprintf("Activity: %s\nDestination: %s\n\nContext from travelers:\n%s", title, destination, contextText)

	raw, err := c.generate(ctx, CARD_INSTRUCTION, prompt)
	if err != nil {
		return nil, err
	}

	var card CardSynthesis
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &card); err != nil {
		return nil, fmt.Errorf("summarizer: unparseable card response: %w", err)
	}
	if card.Summary == "" {
		return nil, fmt.Errorf("summarizer: card response missing summary")
	}
	if len(card.Quotes) > 2 {
		card.Quotes = card.Quotes[:2]
	}
	return &card, nil
}

const SUGGEST_INSTRUCTION = `
You are a knowledgeable travel guide. Suggest destination activities for
the requested destination and activity type.
The response MUST be a valid JSON array of objects with these keys:
1. title: A specific activity name.
2. description: Two or three sentences about the activity.
3. location: The specific place, if any.
4. duration: Optional, e.g. "2 hours".
5. best_time: Optional, e.g. "April to June".
6. tips: Optional practical tips.
7. photo_keywords: 2-4 photo search keywords.
8. tags: 2-5 short tags.
Do not wrap the JSON in a markdown code block.
`

// Suggestion is one model-authored destination activity, the raw material
// of the model-as-source provider.
type Suggestion struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	Duration      string   `json:"duration"`
	BestTime      string   `json:"best_time"`
	Tips          string   `json:"tips"`
	PhotoKeywords string   `json:"photo_keywords"`
	Tags          []string `json:"tags"`
}

// GenerateSuggestions asks the model itself for destination activities.
func (c *Client) GenerateSuggestions(ctx context.Context, destination, activityType string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = 5
	}
	prompt := fmt.Sprintf("Destination: %s\nActivity type: %s\nSuggest up to %d activities.", destination, activityType, limit)

	raw, err := c.generate(ctx, SUGGEST_INSTRUCTION, prompt)
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &suggestions); err != nil {
		return nil, fmt.Errorf("summarizer: unparseable suggestions response: %w", err)
	}
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func (c *Client) generate(ctx context.Context, instruction, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.genai.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
		},
	)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// stripCodeFence removes a wrapping markdown code fence, which some model
// responses add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
