// Package match implements the search-expression language plugins use to
// claim statement files. Expressions are substring literals combined with &&
// and ||, grouped by parentheses. Operators are resolved strictly in the
// order they are encountered, left to right: "a" || "b" && "c" evaluates as
// (("a" || "b") && "c"). Existing plugin expressions depend on this, so it
// must not be replaced with conventional precedence.
package match

import (
	"fmt"
	"strings"

	"github.com/tbrownhe/guibank/internal/common"
)

type itemKind int

const (
	kindLiteral itemKind = iota
	kindOperator
	kindGroup
)

type item struct {
	lit  string
	op   string
	sub  []item
	kind itemKind
}

// Expression is a parsed search expression.
type Expression struct {
	raw   string
	items []item
}

// Parse compiles a search expression. An empty expression or unbalanced
// parentheses are errors; the plugin load step rejects such plugins.
func Parse(raw string) (*Expression, error) {
	tokens, err := tokenize(raw)
	if err != nil {
		return nil, err
	}

	items, rest, err := parseGroup(tokens, false)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected %q in expression %q", rest[0].text, raw)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty search expression")
	}
	if err := checkShape(items); err != nil {
		return nil, fmt.Errorf("%w in expression %q", err, raw)
	}

	return &Expression{raw: raw, items: items}, nil
}

// Match evaluates the expression against the candidate text. Literal tests
// are case-insensitive substring membership.
func (e *Expression) Match(text string) bool {
	return evalItems(e.items, strings.ToLower(text))
}

func (e *Expression) String() string {
	return e.raw
}

// Candidate is one loaded plugin offered to SelectPlugin, in registry order.
type Candidate struct {
	PluginID   string
	Suffix     string
	Expression string
}

// SelectPlugin picks the plugin that authored the given text. Candidates are
// filtered to the file suffix and tried in order; the first whose expression
// matches wins. Mutual exclusivity of expressions is an authoring invariant
// of the plugin set, not something enforced here.
func SelectPlugin(text, suffix string, candidates []Candidate) (string, error) {
	suffix = strings.ToLower(suffix)
	for _, cand := range candidates {
		if !strings.EqualFold(cand.Suffix, suffix) {
			continue
		}
		expr, err := Parse(cand.Expression)
		if err != nil {
			// Expressions are validated at load time; a bad one here means
			// the candidate list bypassed the registry. Skip it.
			continue
		}
		if expr.Match(text) {
			return cand.PluginID, nil
		}
	}
	return "", fmt.Errorf("%w: suffix %s", common.ErrNoMatchingPlugin, suffix)
}

// evalItems runs the stack machine over one nesting level. The accumulator
// combines with each operand using whatever operator was seen immediately
// before it, which yields the documented encounter-order semantics.
func evalItems(items []item, lowerText string) bool {
	result := false
	first := true
	pending := ""

	for _, it := range items {
		if it.kind == kindOperator {
			pending = it.op
			continue
		}

		var val bool
		if it.kind == kindGroup {
			val = evalItems(it.sub, lowerText)
		} else {
			val = strings.Contains(lowerText, strings.ToLower(it.lit))
		}

		if first {
			result = val
			first = false
			continue
		}
		if pending == "||" {
			result = result || val
		} else {
			result = result && val
		}
		pending = ""
	}

	return result
}

type token struct {
	text string
	kind itemKind
	open bool // "(" when kind is group
}

// tokenize splits the expression into literals, operators, and parentheses.
// A bare literal greedily captures everything that is not an operator, so
// spaces and single & or | characters stay inside the literal.
func tokenize(raw string) ([]token, error) {
	var tokens []token
	runes := []rune(raw)
	var lit strings.Builder

	flush := func() {
		s := strings.TrimSpace(lit.String())
		lit.Reset()
		if s != "" {
			tokens = append(tokens, token{kind: kindLiteral, text: s})
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			flush()
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '"' {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, fmt.Errorf("unterminated quote in expression %q", raw)
			}
			tokens = append(tokens, token{kind: kindLiteral, text: string(runes[i+1 : end])})
			i = end
		case r == '(':
			flush()
			tokens = append(tokens, token{kind: kindGroup, open: true})
		case r == ')':
			flush()
			tokens = append(tokens, token{kind: kindGroup, open: false})
		case (r == '&' || r == '|') && i+1 < len(runes) && runes[i+1] == r:
			flush()
			tokens = append(tokens, token{kind: kindOperator, text: string([]rune{r, r})})
			i++
		default:
			lit.WriteRune(r)
		}
	}
	flush()

	return tokens, nil
}

// parseGroup builds the nested-list tree mirroring parenthesis structure.
func parseGroup(tokens []token, nested bool) ([]item, []token, error) {
	var items []item
	for len(tokens) > 0 {
		tok := tokens[0]
		switch tok.kind {
		case kindLiteral:
			items = append(items, item{kind: kindLiteral, lit: tok.text})
			tokens = tokens[1:]
		case kindOperator:
			items = append(items, item{kind: kindOperator, op: tok.text})
			tokens = tokens[1:]
		case kindGroup:
			if !tok.open {
				if !nested {
					return nil, nil, fmt.Errorf("unbalanced closing parenthesis")
				}
				return items, tokens[1:], nil
			}
			sub, rest, err := parseGroup(tokens[1:], true)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, item{kind: kindGroup, sub: sub})
			tokens = rest
		}
	}
	if nested {
		return nil, nil, fmt.Errorf("unbalanced opening parenthesis")
	}
	return items, tokens, nil
}

// checkShape verifies the flat list alternates operand, operator, operand.
func checkShape(items []item) error {
	wantOperand := true
	for _, it := range items {
		isOperand := it.kind != kindOperator
		if isOperand != wantOperand {
			if isOperand {
				return fmt.Errorf("missing operator between literals")
			}
			return fmt.Errorf("misplaced operator")
		}
		if it.kind == kindGroup {
			if len(it.sub) == 0 {
				return fmt.Errorf("empty group")
			}
			if err := checkShape(it.sub); err != nil {
				return err
			}
		}
		wantOperand = !wantOperand
	}
	if wantOperand {
		return fmt.Errorf("trailing operator")
	}
	return nil
}
