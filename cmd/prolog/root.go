package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mailstepcz/prolog"
	"github.com/spf13/cobra"

	// import PG
	_ "github.com/lib/pq"
)

type options struct {
	configPath string
	logLevel   string
	logFormat  string
	rules      []string
	facts      []string
	sexpr      []string
	sqlDSN     string
	trace      bool
}

func newRootCmd() *cobra.Command {
	opts := new(options)
	cmd := &cobra.Command{
		Use:           "prolog",
		Short:         "Answer queries against Prolog rule sets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := cmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "", "log format (text, json)")
	f.StringSliceVarP(&opts.rules, "rules", "r", nil, "rules file in Prolog syntax (repeatable)")
	f.StringSliceVar(&opts.facts, "facts", nil, "YAML fact file (repeatable)")
	f.StringSliceVar(&opts.sexpr, "sexpr", nil, "rules file of symbolic expressions (repeatable)")
	f.StringVar(&opts.sqlDSN, "sql-dsn", "", "DSN of the SQL fact source")
	f.BoolVar(&opts.trace, "trace", false, "print spans to stderr")

	cmd.AddCommand(newSolveCmd(opts), newCheckCmd(opts))
	return cmd
}

// setup merges flags into the configuration and builds the logger.
func (o *options) setup(stderr io.Writer) (*Config, *slog.Logger, error) {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.Rules = append(cfg.Rules, o.rules...)
	cfg.Facts = append(cfg.Facts, o.facts...)
	cfg.Sexpr = append(cfg.Sexpr, o.sexpr...)
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.sqlDSN != "" {
		if cfg.SQL == nil {
			cfg.SQL = &SQLConfig{Driver: "postgres"}
		}
		cfg.SQL.DSN = o.sqlDSN
	}
	cfg.Trace = cfg.Trace || o.trace
	logger, err := newLogger(stderr, cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func loadRules(ctx context.Context, cfg *Config, logger *slog.Logger) ([]*prolog.Rule, error) {
	var rules []*prolog.Rule
	for _, path := range cfg.Rules {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		r, err := prolog.ParseRules(string(text))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("rules file loaded", "path", path, "rules", len(r))
		rules = append(rules, r...)
	}
	for _, path := range cfg.Facts {
		r, err := loadYAMLFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("fact file loaded", "path", path, "rules", len(r))
		rules = append(rules, r...)
	}
	for _, path := range cfg.Sexpr {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		r, err := prolog.ParseSymbolicExpression(string(text))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("symbolic expressions loaded", "path", path, "rules", len(r))
		rules = append(rules, r...)
	}
	if cfg.SQL != nil && len(cfg.SQL.Relations) > 0 {
		r, err := loadSQL(ctx, cfg.SQL)
		if err != nil {
			return nil, err
		}
		logger.Debug("SQL facts loaded", "relations", len(cfg.SQL.Relations), "rules", len(r))
		rules = append(rules, r...)
	}
	return rules, nil
}

func loadYAMLFile(path string) ([]*prolog.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return prolog.LoadYAML(f)
}

func loadSQL(ctx context.Context, cfg *SQLConfig) ([]*prolog.Rule, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return prolog.LoadSQLFacts(ctx, db, cfg.Relations)
}

func newSolveCmd(opts *options) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "solve [query]",
		Short: "Solve a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				query = strings.Join(args, " ")
			}
			if strings.TrimSpace(query) == "" {
				return errors.New("no query given")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSolve(ctx, opts, query, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "query to solve")
	return cmd
}

func runSolve(ctx context.Context, opts *options, query string, stdout, stderr io.Writer) error {
	cfg, logger, err := opts.setup(stderr)
	if err != nil {
		return report(stderr, "Error in configuration.", err)
	}
	rules, err := loadRules(ctx, cfg, logger)
	if err != nil {
		return report(stderr, "Error processing prolog rules.", err)
	}
	solverOpts := []prolog.Option{prolog.WithLogger(logger)}
	if cfg.Trace {
		tp, err := newTracerProvider(stderr)
		if err != nil {
			return report(stderr, "Error in configuration.", err)
		}
		defer shutdownTracing(tp)
		solverOpts = append(solverOpts, prolog.WithTracerProvider(tp))
	}
	s := prolog.NewSolverFromRules(rules, solverOpts...)
	res, err := s.Solve(ctx, query)
	if err != nil {
		var perr *prolog.Error
		if errors.As(err, &perr) {
			return report(stderr, "Error processing prolog query.", perr.Err)
		}
		return report(stderr, "Error processing prolog query.", err)
	}
	fmt.Fprintln(stdout, res)
	return nil
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the rules and print the program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stderr := cmd.ErrOrStderr()
			cfg, logger, err := opts.setup(stderr)
			if err != nil {
				return report(stderr, "Error in configuration.", err)
			}
			rules, err := loadRules(cmd.Context(), cfg, logger)
			if err != nil {
				return report(stderr, "Error processing prolog rules.", err)
			}
			db := prolog.NewDatabase(rules)
			facts := 0
			for _, r := range db.Rules() {
				if r.IsFact() {
					facts++
				}
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			logger.Info("rules checked", "rules", db.Len(), "facts", facts)
			return nil
		},
	}
}

func report(w io.Writer, msg string, err error) error {
	fmt.Fprintln(w, msg)
	fmt.Fprintln(w, err)
	return err
}
