package prolog

import (
	"regexp"
	"strings"
)

var (
	atomNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	variablePattern = regexp.MustCompile(`^[A-Z_][A-Za-z0-9_]*$`)
)

func isAtomName(s string) bool { return atomNamePattern.MatchString(s) }

func isVariableName(s string) bool { return variablePattern.MatchString(s) }

func unifyLists(l1, l2 []Term) *Bindings {
	b := NewBindings()
	for i, t := range l1 {
		b = Merge(b, t.Unify(l2[i]))
		if b == nil {
			return nil
		}
	}
	return b
}

func substituteList(l []Term, b *Bindings) []Term {
	r := make([]Term, len(l))
	for i, t := range l {
		r[i] = t.Substitute(b)
	}
	return r
}

func writeTerms(sb *strings.Builder, l []Term) {
	for i, t := range l {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
}

// scope maps variable names to the variables of one clause.
type scope map[string]*Var

func (s scope) variable(name string) *Var {
	if v, ok := s[name]; ok {
		return v
	}
	v := NewVar(name)
	if !v.Anonymous() {
		s[name] = v
	}
	return v
}
