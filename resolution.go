// Package prolog provides a small Prolog interpreter.
// It parses facts and rules into an immutable clause database and answers queries by SLD-resolution.
//
// # Terms
//
// Several kinds of terms can be used in facts, rules and queries:
//   - atoms,
//   - compound terms,
//   - variables,
//   - conjunctions,
//   - the distinguished term true, which is the tail of every fact.
//
// # Variables
//
// A variable is identified by an identity allocated when its clause is parsed.
// Two occurrences of the same name within one clause denote the same variable,
// while equal names in different clauses never do.
// The anonymous variable _ is fresh on every occurrence.
//
// # Unification
//
// Unification compares the structures of two terms and finds the bindings
// that make them equal, in case they exist.
// For example, the following two terms can be unified using the given bindings:
//
//	f(a, X), f(Y, b)
//	Y = a, X = b
//
// Bindings are values: unification and merging always produce new bindings
// and never change the ones they were given.
//
// # Inference
//
// The algorithm used for inference is based on [SLD-resolution].
// Solutions are produced lazily in declaration order, depth first.
// Clause variables are not renamed when a clause is reused.
//
// [SLD-resolution]: https://en.wikipedia.org/wiki/SLD_resolution
package prolog

import (
	"strings"
	"sync/atomic"
)

// Term is a term handled by the interpreter.
type Term interface {
	String() string
	// Unify unifies the term with another term. It returns nil if the terms don't unify.
	Unify(Term) *Bindings
	// Substitute returns the term with bound variables replaced by their values.
	Substitute(*Bindings) Term
}

var lastVarID atomic.Uint64

// Var is a variable.
type Var struct {
	Name string
	id   uint64
}

// NewVar returns a variable with a fresh identity.
func NewVar(name string) *Var {
	return &Var{Name: name, id: lastVarID.Add(1)}
}

func (v *Var) String() string { return v.Name }

// Anonymous returns whether the variable is the anonymous variable.
func (v *Var) Anonymous() bool { return v.Name == "_" }

// Same returns whether two variables share their identity.
func (v *Var) Same(v2 *Var) bool { return v.id == v2.id }

// Unify binds the variable to a term unless the term is the variable itself.
func (v *Var) Unify(t Term) *Bindings {
	if x, ok := t.(*Var); ok && x.Same(v) {
		return NewBindings()
	}
	return NewBindings().Bind(v, t)
}

// Substitute returns the value the variable is bound to, itself substituted.
func (v *Var) Substitute(b *Bindings) Term {
	if t, ok := b.Lookup(v); ok {
		return t.Substitute(b)
	}
	return v
}

// Atom is a nullary constant.
type Atom string

func (a Atom) String() string { return string(a) }

// Unify unifies the atom with a term.
func (a Atom) Unify(t Term) *Bindings {
	switch x := t.(type) {
	case *Var:
		return x.Unify(a)
	case Atom:
		if x == a {
			return NewBindings()
		}
	case *Compound:
		if len(x.Args) == 0 && x.Functor == string(a) {
			return NewBindings()
		}
	}
	return nil
}

// Substitute returns the atom itself.
func (a Atom) Substitute(*Bindings) Term { return a }

// Compound is a compound term.
type Compound struct {
	Functor string
	Args    []Term
}

func (t *Compound) String() string {
	var sb strings.Builder
	sb.WriteString(t.Functor)
	if len(t.Args) > 0 {
		sb.WriteRune('(')
		writeTerms(&sb, t.Args)
		sb.WriteRune(')')
	}
	return sb.String()
}

// Unify unifies the compound term with a term.
func (t *Compound) Unify(t2 Term) *Bindings {
	switch x := t2.(type) {
	case *Var:
		return x.Unify(t)
	case Atom:
		return x.Unify(t)
	case *Compound:
		if t.Functor == x.Functor && len(t.Args) == len(x.Args) {
			return unifyLists(t.Args, x.Args)
		}
	}
	return nil
}

// Substitute substitutes the arguments of the compound term.
func (t *Compound) Substitute(b *Bindings) Term {
	if b.Len() == 0 {
		return t
	}
	return &Compound{Functor: t.Functor, Args: substituteList(t.Args, b)}
}

// Conjunction is a list of goals which have to hold under the same bindings.
type Conjunction struct {
	Goals []Term
}

func (c *Conjunction) String() string {
	var sb strings.Builder
	sb.WriteRune('(')
	writeTerms(&sb, c.Goals)
	sb.WriteRune(')')
	return sb.String()
}

// Unify unifies the conjunction with a term.
func (c *Conjunction) Unify(t Term) *Bindings {
	switch x := t.(type) {
	case *Var:
		return x.Unify(c)
	case *Conjunction:
		if len(c.Goals) == len(x.Goals) {
			return unifyLists(c.Goals, x.Goals)
		}
	}
	return nil
}

// Substitute substitutes the goals of the conjunction.
func (c *Conjunction) Substitute(b *Bindings) Term {
	if b.Len() == 0 {
		return c
	}
	return &Conjunction{Goals: substituteList(c.Goals, b)}
}

// True is the goal which always holds. Facts are rules with true as their tail.
type True struct{}

func (True) String() string { return "true" }

// Unify unifies true with a term.
func (tr True) Unify(t Term) *Bindings {
	switch x := t.(type) {
	case *Var:
		return x.Unify(tr)
	case True:
		return NewBindings()
	}
	return nil
}

// Substitute returns true.
func (tr True) Substitute(*Bindings) Term { return tr }

// Rule is a Horn clause.
type Rule struct {
	Head Term
	Tail Term
}

// IsFact returns whether the rule is a fact.
func (r *Rule) IsFact() bool {
	_, ok := r.Tail.(True)
	return ok
}

func (r *Rule) String() string {
	var sb strings.Builder
	sb.WriteString(r.Head.String())
	switch tail := r.Tail.(type) {
	case True:
	case *Conjunction:
		sb.WriteString(" :- ")
		writeTerms(&sb, tail.Goals)
	default:
		sb.WriteString(" :- ")
		sb.WriteString(tail.String())
	}
	sb.WriteRune('.')
	return sb.String()
}
