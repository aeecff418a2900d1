package policy

import (
	"fmt"
	"net/http"
	"strings"
)

// AnyMethod matches every HTTP verb.
const AnyMethod = "*"

var knownMethods = map[string]struct{}{
	http.MethodGet: {}, http.MethodHead: {}, http.MethodPost: {}, http.MethodPut: {},
	http.MethodPatch: {}, http.MethodDelete: {}, http.MethodOptions: {}, AnyMethod: {},
}

// Rule is one (method, pattern) -> requirement entry.
type Rule struct {
	Method      string
	Pattern     Pattern
	Requirement Requirement
}

// RuleSpec is the uncompiled form of a Rule.
type RuleSpec struct {
	Method  string
	Path    string
	Require Requirement
}

// Table is an immutable, compiled set of rules. It is safe for concurrent use.
type Table struct {
	rules []Rule
}

// Compile validates and compiles specs in declaration order. Duplicate
// (method, pattern) pairs are rejected.
func Compile(specs []RuleSpec) (*Table, error) {
	rules := make([]Rule, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))

	for i, s := range specs {
		method := strings.ToUpper(strings.TrimSpace(s.Method))
		if _, ok := knownMethods[method]; !ok {
			return nil, fmt.Errorf("rule %d: unsupported method %q", i, s.Method)
		}
		pattern, err := CompilePattern(s.Path)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		key := method + " " + pattern.String()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("rule %d: duplicate rule for %s", i, key)
		}
		seen[key] = struct{}{}
		rules = append(rules, Rule{Method: method, Pattern: pattern, Requirement: s.Require})
	}

	return &Table{rules: rules}, nil
}

// Lookup returns the best rule for method and path. Among matching rules the
// one with more literal segments wins, then an exact method beats "*", then
// the earlier declaration.
func (t *Table) Lookup(method, path string) (Rule, bool) {
	method = strings.ToUpper(method)
	path = NormalizePath(path)

	best, found := Rule{}, false
	bestScore := -1
	for _, r := range t.rules {
		if r.Method != AnyMethod && r.Method != method {
			continue
		}
		if !r.Pattern.Match(path) {
			continue
		}
		score := r.Pattern.literals() * 2
		if r.Method != AnyMethod {
			score++
		}
		if score > bestScore {
			best, bestScore, found = r, score, true
		}
	}
	return best, found
}

// Resolve is Lookup with the deny-by-default fallback applied.
func (t *Table) Resolve(method, path string) Requirement {
	if r, ok := t.Lookup(method, path); ok {
		return r.Requirement
	}
	return Authenticated
}

// Rules returns a copy of the compiled rules.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}
