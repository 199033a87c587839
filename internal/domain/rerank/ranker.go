package rerank

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/kailas-cloud/shopchat/internal/domain/product"
)

type weighted struct {
	re     *regexp.Regexp
	weight int
}

// Matcher is a compiled Rule.
type Matcher struct {
	rule       Rule
	trigger    *regexp.Regexp
	name       []weighted
	desc       []weighted
	categories []string
	penalties  []string
}

// Compile validates r and prepares its regular expressions.
func Compile(r Rule) (*Matcher, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	m := &Matcher{
		rule:       r,
		trigger:    wordRegexp(r.Triggers),
		categories: lowerAll(r.Categories),
		penalties:  lowerAll(r.Penalties),
	}
	for _, s := range r.NameSignals {
		m.name = append(m.name, weighted{re: wordRegexp(s.Terms), weight: s.Weight})
	}
	for _, s := range r.DescSignals {
		m.desc = append(m.desc, weighted{re: wordRegexp(s.Terms), weight: s.Weight})
	}
	return m, nil
}

// Name returns the rule name.
func (m *Matcher) Name() string { return m.rule.Name }

// Matches reports whether text contains a whole-word trigger.
func (m *Matcher) Matches(text string) bool {
	return m.trigger.MatchString(strings.ToLower(text))
}

// Score rates how well p fits the rule's domain.
func (m *Matcher) Score(p product.Product) int {
	name := strings.ToLower(p.Name)
	desc := strings.ToLower(p.Description)
	category := strings.ToLower(strings.TrimSpace(p.Category))

	score := 0
	for _, s := range m.name {
		if s.re.MatchString(name) {
			score += s.weight
		}
	}
	for _, s := range m.desc {
		if s.re.MatchString(desc) {
			score += s.weight
		}
	}
	if category != "" && slices.Contains(m.categories, category) {
		score += m.rule.CategoryBoost
	}
	if containsAny(name, m.penalties) {
		score += m.rule.NamePenalty
	}
	if containsAny(desc, m.penalties) {
		score += m.rule.DescPenalty
	}
	return score
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Ranker applies the first matching rule of an ordered table.
type Ranker struct {
	matchers []*Matcher
}

// NewRanker compiles rules in order. Duplicate names are rejected.
func NewRanker(rules []Rule) (*Ranker, error) {
	seen := make(map[string]struct{}, len(rules))
	r := &Ranker{matchers: make([]*Matcher, 0, len(rules))}
	for _, rule := range rules {
		m, err := Compile(rule)
		if err != nil {
			return nil, fmt.Errorf("compile rule: %w", err)
		}
		if _, dup := seen[m.Name()]; dup {
			return nil, fmt.Errorf("duplicate rule %q", m.Name())
		}
		seen[m.Name()] = struct{}{}
		r.matchers = append(r.matchers, m)
	}
	return r, nil
}

// Match returns the first rule whose triggers occur in raw.
func (r *Ranker) Match(raw string) (*Matcher, bool) {
	for _, m := range r.matchers {
		if m.Matches(raw) {
			return m, true
		}
	}
	return nil, false
}

// Apply reorders products by (score, rating, reviews) descending under the
// first rule matching raw. Without a match the input order is kept.
// The result is always a new slice holding the same products.
func (r *Ranker) Apply(raw string, products []product.Product) []product.Product {
	out := slices.Clone(products)
	m, ok := r.Match(raw)
	if !ok {
		return out
	}

	scores := make(map[string]int, len(out))
	for _, p := range out {
		scores[p.ID] = m.Score(p)
	}
	slices.SortStableFunc(out, func(a, b product.Product) int {
		if d := scores[b.ID] - scores[a.ID]; d != 0 {
			return d
		}
		if a.Rating != b.Rating {
			if b.Rating > a.Rating {
				return 1
			}
			return -1
		}
		return b.NumReviews - a.NumReviews
	})
	return out
}
