package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fintask/fintask-go/internal/ports"
)

const (
	defaultEndpoint   = "https://generativelanguage.googleapis.com/v1beta"
	defaultAPIKeyEnv  = "GEMINI_API_KEY"
	defaultAnswerPath = "candidates[0].content.parts[0].text"

	httpClientTimeout = 60 * time.Second
)

// HTTPTransport posts a single text prompt to a generateContent-style
// endpoint and extracts the text-bearing answer field from the JSON envelope.
// The answer location is a configurable JSON path so alternate envelopes need
// no code change.
type HTTPTransport struct {
	httpClient *http.Client
	endpoint   string
	apiKeyEnv  string
	answerPath string
}

// NewHTTPTransport builds the production transport. Empty arguments fall back
// to the Gemini defaults.
func NewHTTPTransport(endpoint, apiKeyEnv string) *HTTPTransport {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if apiKeyEnv == "" {
		apiKeyEnv = defaultAPIKeyEnv
	}
	return &HTTPTransport{
		httpClient: &http.Client{Timeout: httpClientTimeout},
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiKeyEnv:  apiKeyEnv,
		answerPath: defaultAnswerPath,
	}
}

// Generate implements ports.ModelTransport.
func (t *HTTPTransport) Generate(ctx context.Context, model string, prompt string) (string, error) {
	apiKey := os.Getenv(t.apiKeyEnv)
	if apiKey == "" {
		return "", fmt.Errorf("missing API key: set %s environment variable", t.apiKeyEnv)
	}

	body, err := json.Marshal(map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", t.endpoint, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	var responseBody bytes.Buffer
	if _, err := responseBody.ReadFrom(resp.Body); err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", &ports.TransportError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(responseBody.Bytes(), resp.Status),
		}
	}

	var envelope map[string]interface{}
	if err := json.Unmarshal(responseBody.Bytes(), &envelope); err != nil {
		return "", fmt.Errorf("unmarshal JSON: %w", err)
	}
	answer, err := extractJSONPath(envelope, t.answerPath)
	if err != nil {
		return "", fmt.Errorf("extract from path '%s': %w", t.answerPath, err)
	}
	return strings.TrimSpace(answer), nil
}

// errorMessage pulls the provider's error.message out of a failure body,
// falling back to the HTTP status line.
func errorMessage(body []byte, status string) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return status
}

// extractJSONPath extracts a string value from a nested JSON structure using
// a simple path notation: "field", "field.nested", "field[0].nested".
func extractJSONPath(data map[string]interface{}, path string) (string, error) {
	parts := parseJSONPath(path)
	var current interface{} = data

	for _, part := range parts {
		switch part.kind {
		case "field":
			obj, ok := current.(map[string]interface{})
			if !ok {
				return "", fmt.Errorf("expected object at '%s'", part.value)
			}
			var found bool
			current, found = obj[part.value]
			if !found {
				return "", fmt.Errorf("field '%s' not found", part.value)
			}
		case "index":
			arr, ok := current.([]interface{})
			if !ok {
				return "", fmt.Errorf("expected array at index %s", part.value)
			}
			var idx int
			fmt.Sscanf(part.value, "%d", &idx)
			if idx < 0 || idx >= len(arr) {
				return "", fmt.Errorf("index %d out of bounds (len=%d)", idx, len(arr))
			}
			current = arr[idx]
		}
	}

	if str, ok := current.(string); ok {
		return str, nil
	}
	return "", fmt.Errorf("final value is not a string: %T", current)
}

type pathPart struct {
	kind  string // "field" or "index"
	value string
}

func parseJSONPath(path string) []pathPart {
	var parts []pathPart
	current := ""

	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch ch {
		case '.':
			if current != "" {
				parts = append(parts, pathPart{kind: "field", value: current})
				current = ""
			}
		case '[':
			if current != "" {
				parts = append(parts, pathPart{kind: "field", value: current})
				current = ""
			}
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			if j < len(path) {
				parts = append(parts, pathPart{kind: "index", value: path[i+1 : j]})
				i = j
			}
		default:
			current += string(ch)
		}
	}

	if current != "" {
		parts = append(parts, pathPart{kind: "field", value: current})
	}
	return parts
}

var _ ports.ModelTransport = (*HTTPTransport)(nil)
