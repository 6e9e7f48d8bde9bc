package prolog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fealsamh/go-utils/dbutils"
	"github.com/mailstepcz/slice"
)

// SQLRelation maps a table to a predicate. Each row becomes a fact whose arguments
// are the values of the columns in the given order.
type SQLRelation struct {
	Functor string   `yaml:"functor"`
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
}

// DB is the database the facts are loaded from.
type DB interface {
	dbutils.Querier
	dbutils.Txer
}

// LoadSQLFacts loads facts from SQL tables within a single read-only transaction.
// Rows containing NULL are skipped.
func LoadSQLFacts(ctx context.Context, db DB, relations []SQLRelation) (rules []*Rule, err error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) && err == nil {
			err = rerr
		}
	}()

	for _, rel := range relations {
		facts, err := loadRelation(ctx, tx, rel)
		if err != nil {
			return nil, fmt.Errorf("loading '%s' from '%s': %w", rel.Functor, rel.Table, err)
		}
		rules = append(rules, facts...)
	}
	return rules, nil
}

func loadRelation(ctx context.Context, tx *sql.Tx, rel SQLRelation) ([]*Rule, error) {
	if !isAtomName(rel.Functor) || isVariableName(rel.Functor) {
		return nil, fmt.Errorf("invalid functor: %w", ErrIllFormed)
	}
	if len(rel.Columns) == 0 {
		return nil, errors.New("no columns")
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+
		strings.Join(slice.Fmap(func(name string) string {
			return strconv.Quote(name)
		}, rel.Columns), ", ")+
		` FROM `+strconv.Quote(rel.Table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*Rule
	r := make([]interface{}, len(rel.Columns))
	for i := range r {
		r[i] = new(sql.NullString)
	}
	for rows.Next() {
		if err := rows.Scan(r...); err != nil {
			return nil, err
		}
		null := false
		args := slice.Fmap(func(x interface{}) Term {
			s := x.(*sql.NullString)
			if !s.Valid {
				null = true
			}
			return Atom(s.String)
		}, r)
		if null {
			continue
		}
		rules = append(rules, &Rule{Head: &Compound{Functor: rel.Functor, Args: args}, Tail: True{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}
