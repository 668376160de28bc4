// Package rules rewrites spoken farm queries before they reach the backend.
// Speech recognizers routinely split or mishear agronomy terms; a small set of
// deterministic substitutions fixes the common cases.
package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Vocabulary is the built-in rule set. User rules from the rules file are
// applied after it, so they can refine or undo a built-in substitution.
const Vocabulary = `
# units
he tare => hectare
he tares => hectares
s/\bkilo grams?\b/kg/g
s/\bk g\b/kg/g
# inputs
pesti side => pesticide
herbi side => herbicide
fungi side => fungicide
fertile izer => fertilizer
nitro gen => nitrogen
# crops
sor gum => sorghum
cas ava => cassava
`

// Engine applies query vocabulary rules.
type Engine struct {
	rules     []compiledRule
	loopLimit int
	source    string
}

// Options configures NewEngine.
type Options struct {
	// Path is an optional user rules file. A missing file is not an error.
	Path           string
	IterationLimit int
	// SkipVocabulary disables the built-in rules.
	SkipVocabulary bool
	Parsers        []RuleParser
	Logger         *slog.Logger
}

// NewEngine compiles the built-in vocabulary plus the user rules file.
func NewEngine(opts Options) (*Engine, error) {
	if opts.IterationLimit <= 0 {
		opts.IterationLimit = 30
	}
	if len(opts.Parsers) == 0 {
		opts.Parsers = defaultRuleParsers()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	engine := &Engine{loopLimit: opts.IterationLimit}
	if !opts.SkipVocabulary {
		builtin, err := parseRules(Vocabulary, opts.Parsers)
		if err != nil {
			return nil, fmt.Errorf("built-in vocabulary: %w", err)
		}
		engine.rules = append(engine.rules, builtin...)
	}

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return engine, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			opts.Logger.Debug("query rules file not found", "path", path)
			return engine, nil
		}
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	custom, err := parseRules(string(contents), opts.Parsers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}
	engine.rules = append(engine.rules, custom...)
	engine.source = path
	opts.Logger.Info("query rules loaded", "path", path, "rules", len(custom))
	return engine, nil
}

// Len reports how many rules are active.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Source is the rules file that was loaded, if any.
func (e *Engine) Source() string {
	return e.source
}

// Apply rewrites text until no rule changes it or the iteration limit is hit.
// Leading and trailing whitespace of the input is preserved.
func (e *Engine) Apply(text string) (string, error) {
	if len(e.rules) == 0 {
		return text, nil
	}

	body := strings.TrimSpace(text)
	if body == "" {
		return text, nil
	}
	start := strings.Index(text, body)
	prefix, suffix := text[:start], text[start+len(body):]

	result := body
	for i := 0; i < e.loopLimit; i++ {
		changed := false
		for _, rule := range e.rules {
			next, ruleChanged := rule.Apply(result)
			if ruleChanged {
				result = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	return prefix + result + suffix, nil
}
