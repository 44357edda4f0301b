package validation

import (
	"fmt"
	"strings"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
)

// Func is a rule: a pure function of the document. It must not mutate doc and returns nil when
// the document satisfies the rule.
type Func func(doc csaf.Document) []ValidationError

// Rule is a catalogue entry.
type Rule struct {
	ID    string
	Name  string
	Check Func
}

// Catalogue is an ordered, immutable list of rules.
type Catalogue struct {
	rules []Rule
}

// NewCatalogue builds a catalogue in the given order. Rule IDs must be unique and every rule
// needs a check function.
func NewCatalogue(rules ...Rule) (Catalogue, error) {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.ID) == "" {
			return Catalogue{}, fmt.Errorf("rule at position %d has no id", i)
		}
		if r.Check == nil {
			return Catalogue{}, fmt.Errorf("rule %s has no check function", r.ID)
		}
		if seen[r.ID] {
			return Catalogue{}, fmt.Errorf("duplicate rule id %s", r.ID)
		}
		seen[r.ID] = true
	}
	return Catalogue{rules: append([]Rule(nil), rules...)}, nil
}

// MustCatalogue is NewCatalogue for statically known rule sets.
func MustCatalogue(rules ...Rule) Catalogue {
	c, err := NewCatalogue(rules...)
	if err != nil {
		panic(err)
	}
	return c
}

// Rules returns a copy of the rules in catalogue order.
func (c Catalogue) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

func (c Catalogue) Len() int { return len(c.rules) }

// Lookup finds a rule by id.
func (c Catalogue) Lookup(id string) (Rule, bool) {
	for _, r := range c.rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// Select keeps only the listed rule ids, preserving catalogue order. Unknown ids are an error.
func (c Catalogue) Select(ids ...string) (Catalogue, error) {
	if len(ids) == 0 {
		return c, nil
	}
	want, err := c.idSet(ids)
	if err != nil {
		return Catalogue{}, err
	}
	var out []Rule
	for _, r := range c.rules {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return Catalogue{rules: out}, nil
}

// Skip drops the listed rule ids, preserving catalogue order. Unknown ids are an error.
func (c Catalogue) Skip(ids ...string) (Catalogue, error) {
	if len(ids) == 0 {
		return c, nil
	}
	drop, err := c.idSet(ids)
	if err != nil {
		return Catalogue{}, err
	}
	var out []Rule
	for _, r := range c.rules {
		if !drop[r.ID] {
			out = append(out, r)
		}
	}
	return Catalogue{rules: out}, nil
}

func (c Catalogue) idSet(ids []string) (map[string]bool, error) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := c.Lookup(id); !ok {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
		set[id] = true
	}
	return set, nil
}
