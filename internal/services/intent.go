// Package services orchestrates the intent pipeline end-to-end: safety
// filter, bulk matching, model-assisted classification, fallback pattern
// matching, and structured-action execution against the data facade.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/ports"
)

// minModelInterval is the client-side self-throttle between model calls.
// Calls arriving sooner skip the model entirely and use the fallback path.
const minModelInterval = 2 * time.Second

// complexity heuristics for generation hints.
const complexQueryLength = 800

// IntentProcessor is the model-assisted classification path. Its Process
// method is the one place in the pipeline that must never let an error
// escape: every query resolves to either a model-assisted result or a
// fallback-matcher result.
type IntentProcessor struct {
	Store    ports.DataStore
	Model    ports.Generator
	Learned  ports.LearnedStore
	Fallback ports.FallbackClassifier
	Log      zerolog.Logger

	mu            sync.Mutex
	lastModelCall time.Time
	now           func() time.Time
}

// NewIntentProcessor wires the processor. Learned may be nil (resolutions are
// then not remembered).
func NewIntentProcessor(store ports.DataStore, model ports.Generator, learned ports.LearnedStore, fallback ports.FallbackClassifier, log zerolog.Logger) *IntentProcessor {
	return &IntentProcessor{
		Store:    store,
		Model:    model,
		Learned:  learned,
		Fallback: fallback,
		Log:      log,
		now:      time.Now,
	}
}

// SetClock overrides the time source for tests.
func (p *IntentProcessor) SetClock(now func() time.Time) { p.now = now }

// Process classifies and executes query. It always returns a Result; model
// failures, parse failures, and execution errors are redirected to the
// fallback classifier and never surface as errors.
func (p *IntentProcessor) Process(ctx context.Context, query string) domain.Result {
	if !p.reserveModelSlot() {
		p.Log.Debug().Msg("model call throttled, using fallback path")
		return p.fallbackResult(ctx, query)
	}

	result, err := p.modelAssisted(ctx, query)
	if err != nil {
		p.Log.Debug().Err(err).Msg("model path failed, using fallback path")
		return p.fallbackResult(ctx, query)
	}
	result.ProcessingMode = domain.ModeGemini
	return result
}

// reserveModelSlot enforces the minimum spacing between model invocations.
func (p *IntentProcessor) reserveModelSlot() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if !p.lastModelCall.IsZero() && now.Sub(p.lastModelCall) < minModelInterval {
		return false
	}
	p.lastModelCall = now
	return true
}

func (p *IntentProcessor) modelAssisted(ctx context.Context, query string) (domain.Result, error) {
	prompt, err := buildPrompt(query, p.now())
	if err != nil {
		return domain.Result{}, err
	}

	raw, err := p.Model.Generate(ctx, prompt, hintsFor(query))
	if err != nil {
		return domain.Result{}, err
	}

	action, err := parseModelAnswer(raw)
	if err != nil {
		return domain.Result{}, err
	}

	result, err := p.ExecuteAction(ctx, action)
	if err != nil {
		// A fuzzy lookup with zero candidates is an answer, not a failure:
		// report it instead of re-classifying through the fallback path.
		if errors.Is(err, domain.ErrNoMatch) {
			return domain.SoftFailure("I couldn't find a matching record for that."), nil
		}
		return domain.Result{}, err
	}

	p.rememberQuery(query, action)
	return result, nil
}

func (p *IntentProcessor) fallbackResult(ctx context.Context, query string) domain.Result {
	result, err := p.Fallback.Classify(ctx, query)
	if err != nil {
		var miss *domain.ClassificationMissError
		if errors.As(err, &miss) {
			result = domain.SoftFailure(miss.Help)
		} else {
			p.Log.Warn().Err(err).Msg("fallback classification failed")
			result = domain.SoftFailure("Something went wrong handling that request. Please try again.")
		}
	}
	result.ProcessingMode = domain.ModeFallback
	return result
}

// rememberQuery persists the successful resolution for replay by the
// fallback path's learned-query first pass.
func (p *IntentProcessor) rememberQuery(query string, action domain.StructuredAction) {
	if p.Learned == nil {
		return
	}
	normalized := strings.ToLower(strings.TrimSpace(query))
	if err := p.Learned.Save(normalized, action); err != nil {
		p.Log.Warn().Err(err).Msg("failed to persist learned query")
	}
}

// hintsFor derives generation hints from the query text.
func hintsFor(query string) ports.GenerationHints {
	q := strings.ToLower(query)
	return ports.GenerationHints{
		Complex: len(query) > complexQueryLength ||
			strings.Contains(q, "analyze") || strings.Contains(q, "complex") || strings.Contains(q, "detailed"),
		PreferPro: strings.Contains(q, "analyze") ||
			strings.Contains(q, "insights") || strings.Contains(q, "recommendations"),
	}
}

// parseModelAnswer locates the first brace-delimited JSON object in the
// model's free-text answer (tolerating surrounding prose) and decodes it
// into a validated StructuredAction.
func parseModelAnswer(raw string) (domain.StructuredAction, error) {
	object, err := extractJSONObject(raw)
	if err != nil {
		return domain.StructuredAction{}, err
	}

	var decoded struct {
		Action string                 `json:"action"`
		Params map[string]interface{} `json:"params"`
	}
	if err := json.Unmarshal([]byte(object), &decoded); err != nil {
		return domain.StructuredAction{}, err
	}
	return domain.ParseAction(decoded.Action, decoded.Params)
}

// extractJSONObject returns the first balanced {...} span, skipping braces
// inside string literals.
func extractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", errors.New("no JSON object in model answer")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errors.New("unterminated JSON object in model answer")
}
