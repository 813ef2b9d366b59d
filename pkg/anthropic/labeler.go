package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

const defaultLabelPrompt = `You label competitive gaming events. Given a tournament name and an
event name, respond with a single JSON object describing the event. Use these keys:
"series" (the tournament series name, or null), "format" (one of "singles",
"doubles", "crew", "other"), "tier" (one of "major", "regional", "local",
"online", "unknown"). Respond with ONLY the JSON object, no prose.`

// Labeler classifies events into structured labels via the Anthropic API.
type Labeler struct {
	client    Client
	model     string
	maxTokens int64
	prompt    string
}

// NewLabeler builds a Labeler. An empty prompt falls back to the built-in one.
func NewLabeler(client Client, model string, maxTokens int64, prompt string) *Labeler {
	if prompt == "" {
		prompt = defaultLabelPrompt
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Labeler{client: client, model: model, maxTokens: maxTokens, prompt: prompt}
}

// Classify asks the model to label one event and returns the parsed JSON object.
func (l *Labeler) Classify(ctx context.Context, tournamentName, eventName string, eventID int64) (map[string]any, error) {
	req := MessageRequest{
		Model:     l.model,
		MaxTokens: l.maxTokens,
		System:    l.prompt,
		Messages: []Message{{
			Role:    "user",
			Content: fmt.Sprintf("Tournament: %s\nEvent: %s\nEvent ID: %d", tournamentName, eventName, eventID),
		}},
	}

	resp, err := l.client.CreateMessage(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: classify event")
	}
	resp.Usage.LogUsage(l.model, "label")

	labels, err := parseLabelJSON(resp.Text())
	if err != nil {
		return nil, eris.Wrapf(err, "anthropic: parse labels for event %d", eventID)
	}
	return labels, nil
}

// parseLabelJSON extracts the first JSON object from model output. Models
// occasionally wrap the object in code fences despite the prompt.
func parseLabelJSON(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, eris.Errorf("no JSON object in response: %q", truncate(text, 200))
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, eris.Wrap(err, "unmarshal label object")
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
