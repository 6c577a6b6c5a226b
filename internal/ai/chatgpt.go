package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/suhailxyz/aipacdle/pkg/models"
)

// ChatGPT represents a client for the OpenAI ChatGPT API
type ChatGPT struct {
	apiKey      string
	apiURL      string
	maxTokens   int
	temperature float64
}

// New creates a new ChatGPT client
func New() (*ChatGPT, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	return &ChatGPT{
		apiKey:      apiKey,
		apiURL:      "https://api.openai.com/v1/chat/completions",
		maxTokens:   100,
		temperature: 0.7,
	}, nil
}

// Message represents a message in the ChatGPT conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the ChatGPT API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the ChatGPT API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateHint asks for a one-sentence nudge about the puzzle's
// subject. The prompt forbids numbers and the reply is scrubbed
// anyway, so the true amount cannot leak.
func (c *ChatGPT) GenerateHint(puzzle *models.Puzzle) (string, error) {
	prompt := fmt.Sprintf(
		"The puzzle of the day asks players to guess a dollar amount for: '%s' (%s). "+
			"Write one short, playful hint that points at the general scale of the answer "+
			"(pocket change? a house? a fortune?) WITHOUT using any digits, numbers written as words, "+
			"dollar figures, or the answer itself.",
		puzzle.Title, puzzle.Subject,
	)

	messages := []Message{
		{Role: "system", Content: "You are the host of a daily guessing game about political spending. You tease players with vague, witty hints and never reveal numbers."},
		{Role: "user", Content: prompt},
	}

	request := ChatRequest{
		Model:       "gpt-3.5-turbo",
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	hint := strings.TrimSpace(response.Choices[0].Message.Content)
	return ScrubDigits(hint), nil
}

// GenerateHintWithFallback generates a hint, falling back to the
// stored description when the API is unavailable. Safe to call on a
// nil client, so callers need no guard when the API key is absent.
func (c *ChatGPT) GenerateHintWithFallback(puzzle *models.Puzzle) string {
	if c == nil {
		return fallbackHint(puzzle)
	}

	hint, err := c.GenerateHint(puzzle)
	if err != nil {
		// Log the error and fall back to stored puzzle data
		fmt.Printf("Error generating hint for '%s': %v\n", puzzle.Title, err)
		return fallbackHint(puzzle)
	}

	return hint
}

// fallbackHint builds a hint from the stored puzzle data alone
func fallbackHint(puzzle *models.Puzzle) string {
	if puzzle.Description != "" {
		return ScrubDigits(puzzle.Description)
	}
	return fmt.Sprintf("Think about the usual scale of '%s' and aim for the middle.", puzzle.Subject)
}

// ScrubDigits masks any run of three or more digits, the only shapes
// that could plausibly spell out a dollar amount. One- and two-digit
// numbers survive untouched.
func ScrubDigits(s string) string {
	var b strings.Builder
	runStart := -1

	flush := func(end int) {
		if runStart < 0 {
			return
		}
		if end-runStart >= 3 {
			b.WriteString("###")
		} else {
			b.WriteString(s[runStart:end])
		}
		runStart = -1
	}

	for i, r := range s {
		if r >= '0' && r <= '9' {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		flush(i)
		b.WriteRune(r)
	}
	flush(len(s))

	return b.String()
}
