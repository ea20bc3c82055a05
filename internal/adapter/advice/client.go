// Package advice implements domain.AdviceProvider with an OpenAI-compatible
// chat completions API and a rule-based local provider.
package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"kittenfeed/internal/domain"
)

const systemPrompt = `You are a veterinary nutrition assistant for a household raising a kitten.
Answer in at most three short sentences of plain Markdown. Use grams of dry-equivalent food.`

// Client asks a chat completions endpoint for advice.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	limiter *rate.Limiter
}

var _ domain.AdviceProvider = (*Client)(nil)

// NewClient creates a Client. Outbound calls are limited to perMinute, with a
// burst of one.
func NewClient(baseURL, apiKey, model string, perMinute int) *Client {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Advice implements domain.AdviceProvider. It waits for the rate limiter
// and fails when ctx ends first.
func (c *Client) Advice(ctx context.Context, in domain.AdviceInput) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("advice: rate limit: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: Prompt(in)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("advice: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("advice: status %d: %s", resp.StatusCode, b)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("advice: decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("advice: no choices in response")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Prompt renders the user message for in.
func Prompt(in domain.AdviceInput) string {
	rateKind := "age-based default"
	if in.PersonalRate {
		rateKind = "measured"
	}
	return fmt.Sprintf(
		"Kitten age: %.1f months. Estimated weight: %.2f kg. Growth: %.1f g/day (%s). "+
			"Daily norm: %.0f g, eaten today: %.0f g. What should we feed for the rest of the day?",
		in.AgeMonths, in.WeightKg, in.GrowthRateGrams, rateKind, in.DailyNormGrams, in.ConsumedGrams)
}
