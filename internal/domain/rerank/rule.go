// Package rerank reorders retrieval candidates with per-domain keyword rules.
//
// A rule is plain data: whole-word trigger terms decide whether a query
// belongs to the domain, weighted whole-word signals on product name and
// description add score, a category list adds a fixed boost, and substring
// penalties demote accessories whose names merely contain a domain word
// ("headphones" for "phone").
package rerank

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Signal is a group of whole-word terms worth Weight points when any matches.
type Signal struct {
	Terms  []string `yaml:"terms"`
	Weight int      `yaml:"weight"`
}

// Rule describes one product domain.
type Rule struct {
	Name          string   `yaml:"name"`
	Triggers      []string `yaml:"triggers"`
	NameSignals   []Signal `yaml:"name_signals"`
	DescSignals   []Signal `yaml:"desc_signals"`
	Categories    []string `yaml:"categories"`
	CategoryBoost int      `yaml:"category_boost"`
	Penalties     []string `yaml:"penalties"`
	NamePenalty   int      `yaml:"name_penalty"`
	DescPenalty   int      `yaml:"desc_penalty"`
}

// Validate checks that the rule can be compiled into a matcher.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("rule name is required")
	}
	if len(nonBlank(r.Triggers)) == 0 {
		return fmt.Errorf("rule %q: at least one trigger is required", r.Name)
	}
	for _, s := range append(append([]Signal{}, r.NameSignals...), r.DescSignals...) {
		if len(nonBlank(s.Terms)) == 0 {
			return fmt.Errorf("rule %q: signal without terms", r.Name)
		}
	}
	return nil
}

// wordRegexp builds a case-insensitive \b(t1|t2|...)\b pattern.
func wordRegexp(terms []string) *regexp.Regexp {
	terms = nonBlank(terms)
	if len(terms) == 0 {
		return nil
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(t))
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}

func nonBlank(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func lowerAll(terms []string) []string {
	out := nonBlank(terms)
	for i, t := range out {
		out[i] = strings.ToLower(t)
	}
	return out
}
