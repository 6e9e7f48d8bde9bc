package prolog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mailstepcz/slice"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, rules, query string) *Result {
	t.Helper()
	s, err := NewSolver(rules)
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), query)
	require.NoError(t, err)
	return res
}

func values(res *Result, name string) []string {
	return slice.Fmap(func(t Term) string { return t.String() }, res.Values[name])
}

const siblings = `
	brother_sister(joe, monica).
	brother_sister(eric, erica).
	brother_sister(jim, rebecca).
`

func TestSolverGoalQuery(t *testing.T) {
	req := require.New(t)

	res := solve(t, siblings, `brother_sister(jim, rebecca).`)
	req.Equal(ResultBool, res.Kind)
	req.True(res.Truth)
	req.Equal("true", res.String())

	res = solve(t, siblings, `brother_sister(joe, rebecca).`)
	req.Equal(ResultBool, res.Kind)
	req.False(res.Truth)
	req.Equal("false", res.String())
}

func TestSolverVariableQuery(t *testing.T) {
	req := require.New(t)

	res := solve(t, `
		father_child(mike, john).
		father_child(eric, sarah).
		father_child(bob, jim).
	`, `father_child(X, sarah).`)
	req.Equal(ResultBindings, res.Kind)
	req.Equal([]string{"X"}, res.Vars)
	req.Equal([]string{"eric"}, values(res, "X"))
	req.Equal(1, res.Solutions())
	req.Equal("X = eric", res.String())

	res = solve(t, `
		is_tall(jack, yes).
		is_tall(eric, no).
		is_tall(johnny, yes).
		is_tall(mark, no).
	`, `is_tall(Y, yes)`)
	req.Equal([]string{"jack", "johnny"}, values(res, "Y"))
}

func TestSolverNoSolutions(t *testing.T) {
	req := require.New(t)

	res := solve(t, siblings, `brother_sister(X, nobody)`)
	req.Equal(ResultNone, res.Kind)
	req.Equal(0, res.Solutions())
	req.Equal("no solutions", res.String())
}

func TestSolverAnonymousQueryVariable(t *testing.T) {
	t.Run("reported like any variable", func(t *testing.T) {
		req := require.New(t)

		res := solve(t, siblings, `brother_sister(_, rebecca)`)
		req.Equal(ResultBindings, res.Kind)
		req.Equal([]string{"_"}, res.Vars)
		req.Equal([]string{"jim"}, values(res, "_"))
		req.Equal("_ = jim", res.String())
	})

	t.Run("no solutions", func(t *testing.T) {
		req := require.New(t)

		res := solve(t, `p(a). q(a). r(b).`, `p1(_)`)
		req.Equal(ResultNone, res.Kind)
		req.Equal("no solutions", res.String())

		res = solve(t, `p(a). q(a). r(b).`, `p(_)`)
		req.Equal(ResultBindings, res.Kind)
		req.Equal([]string{"a"}, values(res, "_"))
	})

	t.Run("last occurrence names the column", func(t *testing.T) {
		req := require.New(t)

		res := solve(t, siblings, `brother_sister(_, _)`)
		req.Equal([]string{"_"}, res.Vars)
		req.Equal([]string{"monica", "erica", "rebecca"}, values(res, "_"))
	})

	t.Run("fresh in every goal of a rule", func(t *testing.T) {
		req := require.New(t)

		rules := `
			t :- q(_), r(_).
			u :- q(X), r(X).
			q(a).
			r(b).
		`
		res := solve(t, rules, `t`)
		req.Equal(ResultBool, res.Kind)
		req.True(res.Truth)

		res = solve(t, rules, `u`)
		req.Equal(ResultBool, res.Kind)
		req.False(res.Truth)
	})
}

func TestSolverUnboundVariable(t *testing.T) {
	req := require.New(t)

	res := solve(t, `f(Y).`, `f(X)`)
	req.Equal(ResultBindings, res.Kind)
	req.Equal(1, res.Solutions())
	v, ok := res.Values["X"][0].(*Var)
	req.True(ok)
	req.Equal("X", v.Name)
}

func TestSolverRules(t *testing.T) {
	t.Run("bad dog", func(t *testing.T) {
		req := require.New(t)

		res := solve(t, `
			bad_dog(Dog) :-
			   bites(Dog, Person),
			   is_person(Person),
			   is_dog(Dog).

			bites(fido, postman).
			is_person(postman).
			is_dog(fido).
		`, `bad_dog( X )`)
		req.Equal([]string{"fido"}, values(res, "X"))
	})

	t.Run("recursion", func(t *testing.T) {
		req := require.New(t)

		res := solve(t, `
			descendant(X, Y) :- offspring(X, Y).
			descendant(X, Z) :- offspring(X, Y), descendant(Y, Z).

			offspring(abraham, ishmael).
			offspring(abraham, isaac).
			offspring(isaac, esau).
			offspring(isaac, jacob).
		`, `descendant(abraham, X).`)
		req.Equal([]string{"ishmael", "isaac", "esau", "jacob"}, values(res, "X"))
	})

	t.Run("shared parent", func(t *testing.T) {
		req := require.New(t)

		res := solve(t, `
			father_child(massimo, ridge).
			father_child(eric, thorne).
			father_child(thorne, alexandria).

			mother_child(stephanie, chloe).
			mother_child(stephanie, kristen).
			mother_child(stephanie, felicia).

			parent_child(X, Y) :- father_child(X, Y).
			parent_child(X, Y) :- mother_child(X, Y).

			sibling(X, Y) :- parent_child(Z, X), parent_child(Z, Y).
		`, `sibling(X, felicia)`)
		req.Equal([]string{"chloe", "kristen", "felicia"}, values(res, "X"))
	})
}

func TestSolverMultipleVariables(t *testing.T) {
	req := require.New(t)

	res := solve(t, `
		father(jack, susan).
		father(jack, ray).
		father(david, liza).
		father(david, john).
		father(john, peter).
		father(john, mary).
		mother(karen, susan).
		mother(karen, ray).
		mother(amy, liza).
		mother(amy, john).
		mother(susan, peter).
		mother(susan, mary).

		parent(X, Y) :- father(X, Y).
		parent(X, Y) :- mother(X, Y).
		grandfather(X, Y) :- father(X, Z), parent(Z, Y).
		grandmother(X, Y) :- mother(X, Z), parent(Z, Y).
		grandparent(X, Y) :- parent(X, Z), parent(Z, Y).
	`, `grandparent(X, Y)`)
	req.Equal([]string{"X", "Y"}, res.Vars)
	req.Equal(8, res.Solutions())
	req.Equal([]string{"jack", "jack", "david", "david", "karen", "karen", "amy", "amy"}, values(res, "X"))
	req.Equal([]string{"peter", "mary", "peter", "mary", "peter", "mary", "peter", "mary"}, values(res, "Y"))
	req.True(strings.HasPrefix(res.String(), "X = jack, Y = peter\nX = jack, Y = mary\n"))
}

const houses = `
	exists(A, list(A, _, _, _, _)).
	exists(A, list(_, A, _, _, _)).
	exists(A, list(_, _, A, _, _)).
	exists(A, list(_, _, _, A, _)).
	exists(A, list(_, _, _, _, A)).

	rightOf(R, L, list(L, R, _, _, _)).
	rightOf(R, L, list(_, L, R, _, _)).
	rightOf(R, L, list(_, _, L, R, _)).
	rightOf(R, L, list(_, _, _, L, R)).

	middle(A, list(_, _, A, _, _)).

	first(A, list(A, _, _, _, _)).

	nextTo(A, B, list(B, A, _, _, _)).
	nextTo(A, B, list(_, B, A, _, _)).
	nextTo(A, B, list(_, _, B, A, _)).
	nextTo(A, B, list(_, _, _, B, A)).
	nextTo(A, B, list(A, B, _, _, _)).
	nextTo(A, B, list(_, A, B, _, _)).
	nextTo(A, B, list(_, _, A, B, _)).
	nextTo(A, B, list(_, _, _, A, B)).
`

func TestSolverZebraPuzzle(t *testing.T) {
	if testing.Short() {
		t.Skip("slow")
	}

	t.Run("zebra", func(t *testing.T) {
		req := require.New(t)

		res := solve(t, houses+`
			puzzle(Houses) :-
				exists(house(red, english, _, _, _), Houses),
				exists(house(_, spaniard, _, _, dog), Houses),
				exists(house(green, _, coffee, _, _), Houses),
				exists(house(_, ukrainian, tea, _, _), Houses),
				rightOf(house(green, _, _, _, _), house(ivory, _, _, _, _), Houses),
				exists(house(_, _, _, oldgold, snails), Houses),
				exists(house(yellow, _, _, kools, _), Houses),
				middle(house(_, _, milk, _, _), Houses),
				first(house(_, norwegian, _, _, _), Houses),
				nextTo(house(_, _, _, chesterfield, _), house(_, _, _, _, fox), Houses),
				nextTo(house(_, _, _, kools, _), house(_, _, _, _, horse), Houses),
				exists(house(_, _, orangejuice, luckystrike, _), Houses),
				exists(house(_, japanese, _, parliament, _), Houses),
				nextTo(house(_, norwegian, _, _, _), house(blue, _, _, _, _), Houses),
				exists(house(_, _, water, _, _), Houses),
				exists(house(_, _, _, _, zebra), Houses).

			solution(WaterDrinker, ZebraOwner) :-
				puzzle(Houses),
				exists(house(_, WaterDrinker, water, _, _), Houses),
				exists(house(_, ZebraOwner, _, _, zebra), Houses).
		`, `solution(WaterDrinker, ZebraOwner)`)
		req.Equal([]string{"norwegian"}, values(res, "WaterDrinker"))
		req.Equal([]string{"japanese"}, values(res, "ZebraOwner"))
	})

	t.Run("fish", func(t *testing.T) {
		req := require.New(t)

		res := solve(t, houses+`
			puzzle(Houses) :-
				exists(house(red, british, _, _, _), Houses),
				exists(house(_, swedish, _, _, dog), Houses),
				exists(house(green, _, coffee, _, _), Houses),
				exists(house(_, danish, tea, _, _), Houses),
				rightOf(house(white, _, _, _, _), house(green, _, _, _, _), Houses),
				exists(house(_, _, _, pall_mall, bird), Houses),
				exists(house(yellow, _, _, dunhill, _), Houses),
				middle(house(_, _, milk, _, _), Houses),
				first(house(_, norwegian, _, _, _), Houses),
				nextTo(house(_, _, _, blend, _), house(_, _, _, _, cat), Houses),
				nextTo(house(_, _, _, dunhill, _), house(_, _, _, _, horse), Houses),
				exists(house(_, _, beer, bluemaster, _), Houses),
				exists(house(_, german, _, prince, _), Houses),
				nextTo(house(_, norwegian, _, _, _), house(blue, _, _, _, _), Houses),
				nextTo(house(_, _, _, blend, _), house(_, _, water, _, _), Houses).

			solution(FishOwner) :-
				puzzle(Houses),
				exists(house(_, FishOwner, _, _, fish), Houses).
		`, `solution(FishOwner)`)
		req.Equal([]string{"german"}, values(res, "FishOwner"))
	})
}

func TestSolverErrors(t *testing.T) {
	t.Run("rules", func(t *testing.T) {
		req := require.New(t)

		_, err := NewSolver(`p(a`)
		req.Error(err)
		var serr *Error
		req.True(errors.As(err, &serr))
		req.Equal("processing rules", serr.Message)
		req.True(errors.Is(err, ErrIllFormed))
	})

	t.Run("query", func(t *testing.T) {
		req := require.New(t)

		s, err := NewSolver(siblings)
		req.NoError(err)
		_, err = s.Solve(context.Background(), `brother_sister(jim rebecca)`)
		req.Error(err)
		var serr *Error
		req.True(errors.As(err, &serr))
		req.Equal("processing query", serr.Message)
		var synerr *SyntaxError
		req.True(errors.As(err, &synerr))
		req.Equal("rebecca", synerr.Token)
	})

	t.Run("cancelled", func(t *testing.T) {
		req := require.New(t)

		s, err := NewSolver(`loop(X) :- loop(X).`)
		req.NoError(err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = s.Solve(ctx, `loop(a)`)
		req.True(errors.Is(err, context.Canceled))
	})
}

func TestSolverOptions(t *testing.T) {
	req := require.New(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := NewSolver(siblings, WithLogger(logger), WithSessionID("s1"))
	req.NoError(err)
	req.Equal("s1", s.Session())
	req.Equal(3, s.Database().Len())

	_, err = s.Solve(context.Background(), `brother_sister(X, Y)`)
	req.NoError(err)
	out := buf.String()
	req.Contains(out, "rules loaded")
	req.Contains(out, "query solved")
	req.Contains(out, "session=s1")

	s, err = NewSolver(siblings)
	req.NoError(err)
	req.NotEmpty(s.Session())
}
