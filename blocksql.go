// Package blocksql is a single-file, embedded relational store with a
// small SQL-like query language: CREATE TABLE, INSERT, and SELECT with
// projection, aliasing, and cross-join over a comma-separated table
// list. It has no transactions, no concurrent writers, no secondary
// indexes over row data, no predicated joins, no UPDATE/DELETE, and no
// crash-durability guarantees — see DESIGN.md for the full rationale.
package blocksql

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/arjadhav/blocksql/internal/db"
	"github.com/arjadhav/blocksql/internal/plan"
	"github.com/arjadhav/blocksql/internal/sql/ast"
	"github.com/arjadhav/blocksql/internal/sql/parser"
)

// DB is an open database file.
type DB struct {
	inner *db.Database
}

// WithLogger attaches a structured logger; operations are logged at
// debug level.
func WithLogger(l *log.Logger) db.Option {
	return db.WithLogger(l)
}

// Create initializes a new database file at path with the given block
// size exponent. Use db.DefaultBlockSizeExp for the standard 64-byte
// block size unless there's a specific reason not to.
func Create(path string, blockSizeExp uint8, opts ...db.Option) (*DB, error) {
	inner, err := db.Create(path, blockSizeExp, opts...)
	if err != nil {
		return nil, err
	}
	return &DB{inner: inner}, nil
}

// Open loads an existing database file at path.
func Open(path string, opts ...db.Option) (*DB, error) {
	inner, err := db.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return &DB{inner: inner}, nil
}

// Close releases the underlying file handle.
func (d *DB) Close() error {
	return d.inner.Close()
}

// StatementResult is the outcome of executing one statement: either a
// mutation acknowledgement (Rows == nil) or a query result set the
// caller pulls rows from.
type StatementResult struct {
	// Rows is non-nil only for a SELECT statement.
	Rows *ResultSet
}

// Execute parses sql (one or more ';'-terminated statements) and runs
// each in order, stopping at the first error.
func (d *DB) Execute(sql string) ([]StatementResult, error) {
	statements, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	results := make([]StatementResult, 0, len(statements))
	for _, stmt := range statements {
		res, err := d.executeOne(stmt)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (d *DB) executeOne(stmt ast.Statement) (StatementResult, error) {
	switch s := stmt.(type) {
	case *ast.CreateTableStatement:
		schema, err := plan.BuildSchema(s)
		if err != nil {
			return StatementResult{}, err
		}
		if err := d.inner.CreateTable(schema); err != nil {
			return StatementResult{}, err
		}
		return StatementResult{}, nil
	case *ast.InsertStatement:
		entry, err := d.inner.LookupTable(s.Table)
		if err != nil {
			return StatementResult{}, err
		}
		rows, err := plan.BuildInsertRows(entry.Schema, s)
		if err != nil {
			return StatementResult{}, err
		}
		if err := d.inner.Insert(s.Table, rows); err != nil {
			return StatementResult{}, err
		}
		return StatementResult{}, nil
	case *ast.SelectStatement:
		table, err := plan.BuildSelect(d.inner, d.inner.LookupTable, s)
		if err != nil {
			return StatementResult{}, err
		}
		return StatementResult{Rows: newResultSet(table)}, nil
	default:
		return StatementResult{}, fmt.Errorf("blocksql: unhandled statement type %T", stmt)
	}
}
