package prolog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrIllFormed signifies a parse error.
var ErrIllFormed = errors.New("parse error")

// SyntaxError is a parse error with the offending token.
type SyntaxError struct {
	// Token is the offending token, empty at the end of input.
	Token string
	// Pos is the index of the offending token.
	Pos int
	// Expected lists the alternatives the parser would have accepted.
	Expected []string
}

func (e *SyntaxError) Error() string {
	got := "end of input"
	if e.Token != "" {
		got = strconv.Quote(e.Token)
	}
	return fmt.Sprintf("syntax error at token %d: expected %s but got %s", e.Pos, strings.Join(e.Expected, " or "), got)
}

// Unwrap makes syntax errors match ErrIllFormed.
func (e *SyntaxError) Unwrap() error { return ErrIllFormed }

// Parser is a recursive descent parser of rules and queries.
type Parser struct {
	tokens []string
	pos    int
	scope  scope
}

// NewParser creates a parser for the source text.
func NewParser(text string) *Parser {
	return &Parser{tokens: Tokenize(text)}
}

// ParseRules parses the source text as a list of facts and rules.
func ParseRules(text string) ([]*Rule, error) {
	return NewParser(text).ParseRules()
}

// ParseQuery parses the source text as a single query term.
func ParseQuery(text string) (Term, error) {
	return NewParser(text).ParseQuery()
}

// ParseRules parses rules until the tokens are exhausted.
func (p *Parser) ParseRules() ([]*Rule, error) {
	var rules []*Rule
	for !p.done() {
		p.scope = make(scope)
		r, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// ParseQuery parses one term, optionally terminated by a period.
func (p *Parser) ParseQuery() (Term, error) {
	p.scope = make(scope)
	t, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.current() == "." {
		p.pos++
	}
	if !p.done() {
		return nil, p.unexpected("end of input")
	}
	return t, nil
}

func (p *Parser) done() bool { return p.pos >= len(p.tokens) }

func (p *Parser) current() string {
	if p.done() {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *Parser) unexpected(expected ...string) *SyntaxError {
	return &SyntaxError{Token: p.current(), Pos: p.pos, Expected: expected}
}

func (p *Parser) parseAtom() (string, error) {
	name := p.current()
	if !isAtomName(name) {
		return "", p.unexpected("atom")
	}
	p.pos++
	return name, nil
}

func (p *Parser) parseTerm() (Term, error) {
	if p.current() == "(" {
		p.pos++
		goals, err := p.parseList(")")
		if err != nil {
			return nil, err
		}
		return &Conjunction{Goals: goals}, nil
	}
	functor, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if isVariableName(functor) {
		return p.scope.variable(functor), nil
	}
	if p.current() != "(" {
		return Atom(functor), nil
	}
	p.pos++
	args, err := p.parseList(")")
	if err != nil {
		return nil, err
	}
	return &Compound{Functor: functor, Args: args}, nil
}

// parseList parses a non-empty comma-separated list of terms and consumes the terminator.
func (p *Parser) parseList(terminator string) ([]Term, error) {
	var terms []Term
	for {
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
		switch p.current() {
		case ",":
			p.pos++
		case terminator:
			p.pos++
			return terms, nil
		default:
			return nil, p.unexpected(",", terminator)
		}
	}
}

func (p *Parser) parseRule() (*Rule, error) {
	head, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	switch p.current() {
	case ".":
		p.pos++
		return &Rule{Head: head, Tail: True{}}, nil
	case ":-":
		p.pos++
		goals, err := p.parseList(".")
		if err != nil {
			return nil, err
		}
		// A single goal is kept in a conjunction too.
		return &Rule{Head: head, Tail: &Conjunction{Goals: goals}}, nil
	default:
		return nil, p.unexpected(".", ":-")
	}
}
