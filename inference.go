package prolog

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mailstepcz/sexpr"
	"gopkg.in/yaml.v3"
)

// Database is an immutable, ordered list of rules.
type Database struct {
	rules []*Rule
}

// NewDatabase creates a database from the rules in declaration order.
func NewDatabase(rules []*Rule) *Database {
	return &Database{rules: slices.Clone(rules)}
}

// Rules returns the rules of the database.
func (db *Database) Rules() []*Rule { return slices.Clone(db.rules) }

// Len returns the number of rules.
func (db *Database) Len() int { return len(db.rules) }

func (db *Database) String() string {
	var sb strings.Builder
	for i, r := range db.rules {
		if i > 0 {
			sb.WriteRune('\n')
		}
		sb.WriteString(r.String())
	}
	return sb.String()
}

// Query returns the range function over the terms matching the goal.
// Every call returns an independent sequence.
func (db *Database) Query(goal Term) func(func(Term) bool) {
	return db.QueryContext(context.Background(), goal)
}

// QueryContext is like Query but stops trying further rules once the context is done.
func (db *Database) QueryContext(ctx context.Context, goal Term) func(func(Term) bool) {
	return func(yield func(Term) bool) {
		db.query(ctx, goal, yield)
	}
}

// query reports whether the consumer wants more solutions.
func (db *Database) query(ctx context.Context, goal Term, yield func(Term) bool) bool {
	switch g := goal.(type) {
	case True:
		return yield(g)
	case *Conjunction:
		return db.solveConjunction(ctx, g, 0, NewBindings(), yield)
	}
	for _, r := range db.rules {
		if ctx.Err() != nil {
			return false
		}
		b := r.Head.Unify(goal)
		if b == nil {
			continue
		}
		head := r.Head.Substitute(b)
		tail := r.Tail.Substitute(b)
		more := db.query(ctx, tail, func(item Term) bool {
			tb := tail.Unify(item)
			if tb == nil {
				return true
			}
			return yield(head.Substitute(tb))
		})
		if !more {
			return false
		}
	}
	return true
}

func (db *Database) solveConjunction(ctx context.Context, c *Conjunction, i int, b *Bindings, yield func(Term) bool) bool {
	if i >= len(c.Goals) {
		return yield(c.Substitute(b))
	}
	goal := c.Goals[i]
	return db.query(ctx, goal.Substitute(b), func(item Term) bool {
		merged := Merge(goal.Unify(item), b)
		if merged == nil {
			return true
		}
		return db.solveConjunction(ctx, c, i+1, merged, yield)
	})
}

type source struct {
	Predicates []predicate `yaml:"predicates"`
}

type predicate struct {
	Functor string   `yaml:"functor"`
	Args    []string `yaml:"args"`
}

// LoadYAML loads a set of facts from a YAML reader.
// Every argument is a term in the usual syntax; variables are scoped to their fact.
func LoadYAML(r io.Reader) ([]*Rule, error) {
	var source source
	if err := yaml.NewDecoder(r).Decode(&source); err != nil {
		return nil, err
	}
	rules := make([]*Rule, 0, len(source.Predicates))
	for _, pred := range source.Predicates {
		if !isAtomName(pred.Functor) || isVariableName(pred.Functor) {
			return nil, fmt.Errorf("invalid functor '%s': %w", pred.Functor, ErrIllFormed)
		}
		if len(pred.Args) == 0 {
			rules = append(rules, &Rule{Head: Atom(pred.Functor), Tail: True{}})
			continue
		}
		vars := make(scope)
		args := make([]Term, len(pred.Args))
		for i, arg := range pred.Args {
			p := &Parser{tokens: Tokenize(arg), scope: vars}
			t, err := p.parseTerm()
			if err == nil && !p.done() {
				err = p.unexpected("end of input")
			}
			if err != nil {
				return nil, fmt.Errorf("argument '%s' of '%s': %w", arg, pred.Functor, err)
			}
			args[i] = t
		}
		rules = append(rules, &Rule{Head: &Compound{Functor: pred.Functor, Args: args}, Tail: True{}})
	}
	return rules, nil
}

// ParseSymbolicExpression parses rules written as symbolic expressions.
// Each clause is a list of terms, the first one being the head:
//
//	(
//		((father_child eric sarah))
//		((parent_child X Y) (father_child X Y))
//	)
//
// Clauses starting with an identifier, such as (# comment), are skipped.
func ParseSymbolicExpression(code string) ([]*Rule, error) {
	expr, err := sexpr.Parse(code)
	if err != nil {
		return nil, err
	}
	var rules []*Rule
	for _, clause := range expr {
		clause, ok := clause.([]interface{})
		if !ok || len(clause) == 0 {
			return nil, ErrIllFormed
		}
		if _, ok := clause[0].(sexpr.Identifier); ok {
			continue
		}
		vars := make(scope)
		ex, ok := clause[0].([]interface{})
		if !ok {
			return nil, ErrIllFormed
		}
		head, err := exprToTerm(ex, vars)
		if err != nil {
			return nil, err
		}
		if len(clause) == 1 {
			rules = append(rules, &Rule{Head: head, Tail: True{}})
			continue
		}
		goals := make([]Term, 0, len(clause)-1)
		for _, ex := range clause[1:] {
			switch x := ex.(type) {
			case sexpr.Identifier:
				t, err := identToTerm(string(x), vars)
				if err != nil {
					return nil, err
				}
				goals = append(goals, t)
			case []interface{}:
				t, err := exprToTerm(x, vars)
				if err != nil {
					return nil, err
				}
				goals = append(goals, t)
			default:
				return nil, ErrIllFormed
			}
		}
		rules = append(rules, &Rule{Head: head, Tail: &Conjunction{Goals: goals}})
	}
	return rules, nil
}

func exprToTerm(expr []interface{}, vars scope) (Term, error) {
	if len(expr) == 0 {
		return nil, ErrIllFormed
	}
	functor, ok := expr[0].(sexpr.Identifier)
	if !ok || !isAtomName(string(functor)) || isVariableName(string(functor)) {
		return nil, ErrIllFormed
	}
	if len(expr) == 1 {
		return Atom(functor), nil
	}
	args := make([]Term, 0, len(expr)-1)
	for _, arg := range expr[1:] {
		switch x := arg.(type) {
		case sexpr.Identifier:
			t, err := identToTerm(string(x), vars)
			if err != nil {
				return nil, err
			}
			args = append(args, t)
		case []interface{}:
			t, err := exprToTerm(x, vars)
			if err != nil {
				return nil, err
			}
			args = append(args, t)
		default:
			return nil, fmt.Errorf("unsupported argument '%v': %w", arg, ErrIllFormed)
		}
	}
	return &Compound{Functor: string(functor), Args: args}, nil
}

func identToTerm(name string, vars scope) (Term, error) {
	if !isAtomName(name) {
		return nil, fmt.Errorf("invalid name '%s': %w", name, ErrIllFormed)
	}
	if isVariableName(name) {
		return vars.variable(name), nil
	}
	return Atom(name), nil
}
