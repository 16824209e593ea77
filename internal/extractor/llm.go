package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeanpaul/shelver/internal/criteria"
)

// ClassifierPrompt instructs the model to emit exactly one criteria
// object. Every enum is spelled out so the model has no room to invent
// values; anything undeclared fails validation and triggers a
// corrective reprompt.
const ClassifierPrompt = `You are a storage routing classifier. Your ONLY job is to classify the storage request below and output valid JSON.

CRITICAL RULES:
1. Output ONLY valid JSON - no explanations, no markdown, no extra text
2. Use ONLY the exact field names and values specified
3. Do NOT add any fields not in the schema

Required JSON format:
{
  "storage_intent": "memory|database|vector|file",
  "access_pattern": "crud|query|search|filter",
  "analytic_intent": true|false,
  "data_type": "structured|numeric|text|binary",
  "search_intensity": "none|low|high"
}

Field meanings:
- storage_intent: memory = small facts to recall later; database = transactional records; vector = similarity/semantic content; file = documents and blobs
- access_pattern: crud = direct create/read/update/delete; query = aggregation or reporting; search = locating items; filter = narrowing a known set
- analytic_intent: true when the user wants trends, aggregates, or statistics
- data_type: structured = rows/fields; numeric = measurements/metrics; text = prose; binary = images/audio/blobs
- search_intensity: high = semantic or fuzzy matching; low = simple lookups; none = no retrieval emphasis

Now classify this storage request and output ONLY the JSON:`

// ChatClient is the single round trip the LLM extractor needs.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMExtractor classifies requests through a chat-completion endpoint.
// Model output is cleaned, parsed, and validated against the criteria
// vocabulary; invalid output triggers a corrective reprompt up to
// maxRetries attempts before the request is rejected with *ParseError.
type LLMExtractor struct {
	client     ChatClient
	maxRetries int
}

// NewLLM creates an LLM-backed extractor.
func NewLLM(client ChatClient, maxRetries int) *LLMExtractor {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &LLMExtractor{client: client, maxRetries: maxRetries}
}

// criteriaWire keeps enum fields as strings so undeclared values
// surface as SchemaErrors instead of zero values.
type criteriaWire struct {
	StorageIntent   string `json:"storage_intent"`
	AccessPattern   string `json:"access_pattern"`
	AnalyticIntent  bool   `json:"analytic_intent"`
	DataType        string `json:"data_type"`
	SearchIntensity string `json:"search_intensity"`
}

// Extract classifies one request.
func (l *LLMExtractor) Extract(ctx context.Context, request string) (criteria.Criteria, error) {
	prompt := ClassifierPrompt + "\n\nRequest: " + request

	var lastErr error
	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		output, err := l.client.Complete(ctx, prompt)
		if err != nil {
			return criteria.Criteria{}, fmt.Errorf("classifier call: %w", err)
		}

		c, err := parseClassifierOutput(output)
		if err == nil {
			return c, nil
		}
		lastErr = err

		prompt = fmt.Sprintf(`%s

Previous attempt produced invalid output: %s
Error: %s

Please output ONLY valid JSON matching the schema exactly.

Request: %s`, ClassifierPrompt, output, err.Error(), request)
	}

	return criteria.Criteria{}, &ParseError{
		Request: request,
		Reason:  fmt.Sprintf("classification failed after %d attempts: %v", l.maxRetries, lastErr),
	}
}

// parseClassifierOutput cleans and validates one model response.
func parseClassifierOutput(output string) (criteria.Criteria, error) {
	output = cleanJSONOutput(output)

	var wire criteriaWire
	if err := json.Unmarshal([]byte(output), &wire); err != nil {
		return criteria.Criteria{}, fmt.Errorf("invalid JSON: %w", err)
	}

	c := criteria.Criteria{
		StorageIntent:   criteria.StorageIntent(wire.StorageIntent),
		AccessPattern:   criteria.AccessPattern(wire.AccessPattern),
		AnalyticIntent:  wire.AnalyticIntent,
		DataType:        criteria.DataType(wire.DataType),
		SearchIntensity: criteria.SearchIntensity(wire.SearchIntensity),
	}
	if err := c.Validate(); err != nil {
		return criteria.Criteria{}, err
	}
	return c, nil
}

// cleanJSONOutput removes common artifacts from LLM JSON output.
func cleanJSONOutput(output string) string {
	// Remove markdown code blocks
	output = strings.TrimSpace(output)
	output = strings.TrimPrefix(output, "```json")
	output = strings.TrimPrefix(output, "```")
	output = strings.TrimSuffix(output, "```")
	output = strings.TrimSpace(output)

	// Keep only the outermost JSON object if the model was chatty
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start != -1 && end != -1 && end > start {
		output = output[start : end+1]
	}

	return output
}
