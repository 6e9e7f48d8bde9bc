package prolog

import (
	"slices"
	"strings"
)

type binding struct {
	v *Var
	t Term
}

// Bindings is an immutable mapping from variables to the terms they are bound to.
// A nil *Bindings stands for failed unification.
type Bindings struct {
	list  []binding
	index map[uint64]int
}

// NewBindings returns empty bindings.
func NewBindings() *Bindings {
	return &Bindings{}
}

// Bind returns new bindings with the variable bound to the term.
func (b *Bindings) Bind(v *Var, t Term) *Bindings {
	b2 := b.clone()
	b2.set(v, t)
	return b2
}

// Lookup returns the term the variable is bound to.
func (b *Bindings) Lookup(v *Var) (Term, bool) {
	if b == nil {
		return nil, false
	}
	i, ok := b.index[v.id]
	if !ok {
		return nil, false
	}
	return b.list[i].t, true
}

// Len returns the number of bound variables.
func (b *Bindings) Len() int {
	if b == nil {
		return 0
	}
	return len(b.list)
}

// Each calls the function for every binding in the order the variables were bound.
func (b *Bindings) Each(f func(*Var, Term)) {
	if b == nil {
		return
	}
	for _, e := range b.list {
		f(e.v, e.t)
	}
}

func (b *Bindings) String() string {
	if b == nil {
		return "fail"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	b.Each(func(v *Var, t Term) {
		if sb.Len() > 1 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.Name)
		sb.WriteString(" = ")
		sb.WriteString(t.String())
	})
	sb.WriteByte('}')
	return sb.String()
}

func (b *Bindings) clone() *Bindings {
	b2 := &Bindings{index: make(map[uint64]int, b.Len()+1)}
	if b == nil {
		return b2
	}
	b2.list = slices.Clone(b.list)
	for k, i := range b.index {
		b2.index[k] = i
	}
	return b2
}

// set must only be called on bindings nobody else has seen yet.
func (b *Bindings) set(v *Var, t Term) {
	if i, ok := b.index[v.id]; ok {
		b.list[i].t = t
		return
	}
	b.index[v.id] = len(b.list)
	b.list = append(b.list, binding{v: v, t: t})
}

// Merge combines two sets of bindings. A variable bound in both is reconciled
// by unifying its two values; if they don't unify, Merge returns nil.
// Merge returns nil if either argument is nil.
func Merge(b1, b2 *Bindings) *Bindings {
	if b1 == nil || b2 == nil {
		return nil
	}
	if b2.Len() == 0 {
		return b1
	}
	m := b1.clone()
	for _, e := range b2.list {
		existing, ok := m.Lookup(e.v)
		if !ok {
			m.set(e.v, e.t)
			continue
		}
		shared := existing.Unify(e.t)
		if shared == nil {
			return nil
		}
		for _, s := range shared.list {
			m.set(s.v, s.t)
		}
	}
	return m
}
