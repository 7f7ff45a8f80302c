// Package safety rejects internally generated notification-copy prompts
// before they reach any classifier. A scheduled background job builds prompts
// for reminder copy against the same model endpoint; if that text is ever fed
// back into the chat pipeline it must not be routed as if a user typed it,
// and it must never leak into the learned-query store.
package safety

import (
	"errors"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/fintask/fintask-go/internal/domain"
)

// Filter implements the prompt safety check.
type Filter struct {
	signatures []compiledSignature
}

type compiledSignature struct {
	re   *regexp.Regexp
	rule Signature
}

// Signature describes one regex rule identifying internal prompt text.
type Signature struct {
	Pattern     string `yaml:"pattern"`
	Description string `yaml:"description"`
}

// RulesFile is the YAML schema root for signature overrides.
type RulesFile struct {
	Rules struct {
		NotificationPrompts []Signature `yaml:"notification_prompts"`
	} `yaml:"rules"`
}

// NewFilter loads signatures from disk (or compiled-in defaults when the file
// is missing or empty).
func NewFilter(path string) (*Filter, error) {
	rules, err := loadRules(path)
	if err != nil {
		return nil, err
	}

	var compiled []compiledSignature
	for _, sig := range rules.Rules.NotificationPrompts {
		re, err := regexp.Compile(sig.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledSignature{re: re, rule: sig})
	}
	return &Filter{signatures: compiled}, nil
}

// Check returns a *domain.BlockedPromptError when query matches any
// signature, nil otherwise.
func (f *Filter) Check(query string) error {
	if f == nil {
		return errors.New("safety filter nil")
	}
	for _, sig := range f.signatures {
		if sig.re.MatchString(query) {
			return &domain.BlockedPromptError{Signature: sig.rule.Pattern}
		}
	}
	return nil
}

func loadRules(path string) (RulesFile, error) {
	var rules RulesFile
	if path == "" {
		rules.Rules.NotificationPrompts = defaultSignatures()
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		// fall back to defaults
		rules.Rules.NotificationPrompts = defaultSignatures()
		return rules, nil
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, err
	}
	if len(rules.Rules.NotificationPrompts) == 0 {
		rules.Rules.NotificationPrompts = defaultSignatures()
	}
	return rules, nil
}

func defaultSignatures() []Signature {
	return []Signature{
		{Pattern: `(?is)generate a motivational.*fintask app`, Description: "Daily motivation notification prompt"},
		{Pattern: `(?is)fintask app.*generate a motivational`, Description: "Daily motivation notification prompt (reordered)"},
		{Pattern: `(?i)you are (?:a|the) notification copywriter`, Description: "Notification copywriter system prompt"},
		{Pattern: `(?i)write a (?:short )?(?:push|reminder) notification`, Description: "Push/reminder copy prompt"},
		{Pattern: `(?is)based on the user's pending tasks.*notification`, Description: "Task digest notification prompt"},
		{Pattern: `(?i)daily summary notification`, Description: "Daily summary prompt"},
	}
}
