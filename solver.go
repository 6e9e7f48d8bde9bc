package prolog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Error is an error returned by the solver. It carries a message for the user
// and the underlying cause, typically a *SyntaxError.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message + ": " + e.Err.Error() }

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// ResultKind is the shape of a query result.
type ResultKind int

const (
	// ResultBool is the result of a query without variables.
	ResultBool ResultKind = iota
	// ResultBindings is the result of a query with variables which has solutions.
	ResultBindings
	// ResultNone is the result of a query with variables which has no solutions.
	ResultNone
)

func (k ResultKind) String() string {
	switch k {
	case ResultBool:
		return "bool"
	case ResultBindings:
		return "bindings"
	case ResultNone:
		return "none"
	}
	return "unknown"
}

// Result is the answer to a query.
type Result struct {
	Kind ResultKind
	// Truth is set for ResultBool.
	Truth bool
	// Vars are the names of the query variables in order of appearance.
	Vars []string
	// Values maps every variable name to its value in each solution, in solution order.
	Values map[string][]Term
}

// Solutions returns the number of solutions held by the result.
func (r *Result) Solutions() int {
	if r.Kind != ResultBindings || len(r.Vars) == 0 {
		return 0
	}
	return len(r.Values[r.Vars[0]])
}

func (r *Result) String() string {
	switch r.Kind {
	case ResultBool:
		if r.Truth {
			return "true"
		}
		return "false"
	case ResultNone:
		return "no solutions"
	}
	var sb strings.Builder
	for i := range r.Solutions() {
		if i > 0 {
			sb.WriteRune('\n')
		}
		for j, name := range r.Vars {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(name)
			sb.WriteString(" = ")
			sb.WriteString(r.Values[name][i].String())
		}
	}
	return sb.String()
}

// Option configures a solver.
type Option func(*Solver)

// WithLogger sets the logger used by the solver.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Solver) { s.logger = logger }
}

// WithSessionID sets the session identifier attached to logs and traces.
func WithSessionID(id string) Option {
	return func(s *Solver) { s.session = id }
}

// WithTracerProvider sets the tracer provider. The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Solver) { s.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider. The global provider is used by default.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Solver) { s.meterProvider = mp }
}

// Solver answers queries against a database built from a rule set.
// It is safe for concurrent use.
type Solver struct {
	db      *Database
	logger  *slog.Logger
	session string

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	telemetry      *telemetry
}

// NewSolver parses the rules text and builds the database.
func NewSolver(rulesText string, opts ...Option) (*Solver, error) {
	rules, err := ParseRules(rulesText)
	if err != nil {
		return nil, &Error{Message: "processing rules", Err: err}
	}
	return NewSolverFromRules(rules, opts...), nil
}

// NewSolverFromRules builds a solver from rules that were already loaded.
func NewSolverFromRules(rules []*Rule, opts ...Option) *Solver {
	s := &Solver{
		db:      NewDatabase(rules),
		logger:  slog.Default(),
		session: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.session)
	tm, err := newTelemetry(s.tracerProvider, s.meterProvider)
	if err != nil {
		s.logger.Warn("failed to create metrics", "error", err)
	}
	s.telemetry = tm
	s.logger.Debug("rules loaded", "rules", s.db.Len())
	return s
}

// Database returns the database of the solver.
func (s *Solver) Database() *Database { return s.db }

// Session returns the session identifier.
func (s *Solver) Session() string { return s.session }

// Solve parses the query text and collects all its solutions.
func (s *Solver) Solve(ctx context.Context, queryText string) (*Result, error) {
	start := time.Now()
	ctx, span := s.telemetry.startSolveSpan(ctx, s.session, queryText)
	defer span.End()

	res, err := s.solve(ctx, queryText)
	if err != nil {
		failSolveSpan(span, err)
		s.telemetry.recordSolve(ctx, time.Since(start), "error")
		s.logger.Debug("query failed", "query", queryText, "error", err)
		return nil, err
	}
	setSolveSpanResult(span, res)
	s.telemetry.recordSolve(ctx, time.Since(start), res.Kind.String())
	s.logger.Debug("query solved",
		"query", queryText,
		"kind", res.Kind.String(),
		"solutions", res.Solutions(),
		"duration", time.Since(start))
	return res, nil
}

func (s *Solver) solve(ctx context.Context, queryText string) (*Result, error) {
	query, err := ParseQuery(queryText)
	if err != nil {
		return nil, &Error{Message: "processing query", Err: err}
	}
	names, vars := queryVariables(query)

	var solutions []Term
	for t := range s.db.QueryContext(ctx, query) {
		solutions = append(solutions, t)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(names) == 0:
		return &Result{Kind: ResultBool, Truth: len(solutions) > 0}, nil
	case len(solutions) == 0:
		return &Result{Kind: ResultNone, Vars: names}, nil
	}
	values := make(map[string][]Term, len(names))
	for _, sol := range solutions {
		b := query.Unify(sol)
		for _, name := range names {
			v := vars[name]
			t, ok := b.Lookup(v)
			if !ok {
				t = v
			}
			values[name] = append(values[name], t)
		}
	}
	return &Result{Kind: ResultBindings, Vars: names, Values: values}, nil
}

// queryVariables collects the variables found directly among the arguments of the query.
// The anonymous variable is collected too; its last occurrence stands for the name.
func queryVariables(query Term) ([]string, map[string]*Var) {
	var args []Term
	switch q := query.(type) {
	case *Compound:
		args = q.Args
	case *Conjunction:
		args = q.Goals
	}
	var names []string
	vars := make(map[string]*Var)
	for _, arg := range args {
		v, ok := arg.(*Var)
		if !ok {
			continue
		}
		if _, ok := vars[v.Name]; !ok {
			names = append(names, v.Name)
		}
		vars[v.Name] = v
	}
	return names, vars
}
