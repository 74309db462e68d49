package chromium

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/sjc5/critical/internal/ic"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type matcher func(string) bool

/*
ignoreRules drops parts of the critical CSS:
  - atrule: at-rule names ("@font-face" or "font-face"), whole blocks
  - rule: selector patterns, whole rulesets
  - decl: declaration patterns, matched against "prop:value" and "prop"

A pattern written as /expr/flags is a regular expression (only the i flag
is honoured); any other string must match exactly.
*/
type ignoreRules struct {
	atRules map[string]bool
	rules   []matcher
	decls   []matcher
}

func compileIgnore(ig *ic.Ignore) (*ignoreRules, error) {
	r := &ignoreRules{atRules: map[string]bool{}}
	if ig == nil {
		return r, nil
	}
	for _, a := range ig.AtRule {
		s, ok := a.(string)
		if !ok {
			return nil, fmt.Errorf("ignore.atrule entries must be strings, got %T", a)
		}
		r.atRules[normalizeAtRule(s)] = true
	}
	for _, p := range ig.Rule {
		m, err := compileMatcher(p)
		if err != nil {
			return nil, fmt.Errorf("ignore.rule: %w", err)
		}
		r.rules = append(r.rules, m)
	}
	var decls []any
	switch d := ig.Decl.(type) {
	case nil:
	case []any:
		decls = d
	default:
		decls = []any{d}
	}
	for _, p := range decls {
		m, err := compileMatcher(p)
		if err != nil {
			return nil, fmt.Errorf("ignore.decl: %w", err)
		}
		r.decls = append(r.decls, m)
	}
	return r, nil
}

func (ig *ignoreRules) empty() bool {
	return len(ig.atRules) == 0 && len(ig.rules) == 0 && len(ig.decls) == 0
}

func compileMatcher(p any) (matcher, error) {
	s, ok := p.(string)
	if !ok {
		return nil, fmt.Errorf("patterns must be strings, got %T", p)
	}
	if len(s) >= 2 && s[0] == '/' {
		if end := strings.LastIndex(s, "/"); end > 0 {
			expr, flags := s[1:end], s[end+1:]
			if strings.Contains(flags, "i") {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %s: %w", s, err)
			}
			return re.MatchString, nil
		}
	}
	return func(v string) bool { return v == s }, nil
}

func normalizeAtRule(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
}

func matchesAny(ms []matcher, values ...string) bool {
	for _, m := range ms {
		for _, v := range values {
			if m(v) {
				return true
			}
		}
	}
	return false
}

// apply filters each rule. Rules that lost anything are also returned in
// dropped, unmodified, so they can stay with the uncritical CSS.
func (ig *ignoreRules) apply(rules []string) (kept, dropped []string) {
	if ig.empty() {
		return rules, nil
	}
	for _, r := range rules {
		out, changed := ig.filter(r)
		if out != "" {
			kept = append(kept, out)
		}
		if changed {
			dropped = append(dropped, r)
		}
	}
	return kept, dropped
}

type frame struct {
	start    int
	children int
}

// filter re-serializes sheet without the ignored parts. Blocks left with no
// content are removed entirely.
func (ig *ignoreRules) filter(sheet string) (string, bool) {
	p := css.NewParser(parse.NewInputString(sheet), false)

	var buf bytes.Buffer
	var stack []frame
	var selectors []string
	skipDepth := 0
	changed := false

	child := func() {
		if len(stack) > 0 {
			stack[len(stack)-1].children++
		}
	}
	open := func(prelude string) {
		stack = append(stack, frame{start: buf.Len()})
		buf.WriteString(prelude)
		buf.WriteByte('{')
	}

	for {
		gt, _, data := p.Next()
		if gt == css.ErrorGrammar {
			break
		}

		if skipDepth > 0 {
			switch gt {
			case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
				skipDepth++
			case css.EndAtRuleGrammar, css.EndRulesetGrammar:
				skipDepth--
			}
			continue
		}

		switch gt {
		case css.AtRuleGrammar:
			if ig.atRules[normalizeAtRule(string(data))] {
				changed = true
				continue
			}
			buf.WriteString(atRulePrelude(data, p.Values()))
			buf.WriteByte(';')
			child()

		case css.BeginAtRuleGrammar:
			if ig.atRules[normalizeAtRule(string(data))] {
				changed = true
				skipDepth = 1
				continue
			}
			open(atRulePrelude(data, p.Values()))

		case css.QualifiedRuleGrammar:
			selectors = append(selectors, strings.TrimSpace(tokensString(p.Values())))

		case css.BeginRulesetGrammar:
			selectors = append(selectors, strings.TrimSpace(tokensString(p.Values())))
			sel := strings.Join(selectors, ",")
			values := append([]string{sel}, selectors...)
			selectors = selectors[:0]
			if matchesAny(ig.rules, values...) {
				changed = true
				skipDepth = 1
				continue
			}
			open(sel)

		case css.DeclarationGrammar:
			prop := string(data)
			val := strings.TrimSpace(tokensString(p.Values()))
			if matchesAny(ig.decls, prop+":"+val, prop+": "+val, prop) {
				changed = true
				continue
			}
			buf.WriteString(prop)
			buf.WriteByte(':')
			buf.WriteString(val)
			buf.WriteByte(';')
			child()

		case css.CustomPropertyGrammar:
			buf.Write(data)
			buf.WriteByte(':')
			buf.WriteString(tokensString(p.Values()))
			buf.WriteByte(';')
			child()

		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.children == 0 {
				buf.Truncate(top.start)
				continue
			}
			buf.WriteByte('}')
			child()

		case css.TokenGrammar:
			buf.Write(data)
		}
	}
	return buf.String(), changed
}

func atRulePrelude(name []byte, values []css.Token) string {
	prelude := strings.TrimSpace(tokensString(values))
	if prelude == "" {
		return string(name)
	}
	return string(name) + " " + prelude
}

func tokensString(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	return sb.String()
}
