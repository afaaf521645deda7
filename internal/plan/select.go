package plan

import (
	"fmt"

	"github.com/arjadhav/blocksql/internal/catalog"
	"github.com/arjadhav/blocksql/internal/plan/op"
	"github.com/arjadhav/blocksql/internal/sql/ast"
	"github.com/arjadhav/blocksql/internal/storage"
)

// TableLookup resolves a table name to its on-disk schema, matching
// (*db.Database).LookupTable's signature without importing package db
// here — plan/select stays usable against anything that can both
// allocate/read/write blocks and look up table schemas.
type TableLookup func(name string) (catalog.OnDiskSchema, error)

// BuildSelect lowers a SELECT statement into an operator tree: a single
// table, a left-folded chain of CrossJoins over the FROM list, or (with
// no FROM clause at all) a one-row literal-only projection — capped by
// exactly one SchemaMap at the top.
func BuildSelect(alloc storage.BlockAllocator, lookup TableLookup, stmt *ast.SelectStatement) (op.Table, error) {
	var source op.Table
	if len(stmt.Tables) == 0 {
		if err := requireNoColumnRefs(stmt.Columns); err != nil {
			return nil, err
		}
		source = newUnitTable()
	} else {
		for i, name := range stmt.Tables {
			entry, err := lookup(name)
			if err != nil {
				return nil, err
			}
			scan := op.NewScan(alloc, entry)
			if i == 0 {
				source = scan
			} else {
				source = op.NewCrossJoin(source, scan)
			}
		}
	}

	columns, err := resolveResultColumns(source.Schema(), stmt.Columns)
	if err != nil {
		return nil, err
	}
	return op.NewSchemaMap(source, columns), nil
}

func requireNoColumnRefs(columns []ast.ResultColumn) error {
	for _, c := range columns {
		if c.Asterisk || c.TableAsterisk != "" || (c.Expr != nil && c.Expr.Column != nil) {
			return fmt.Errorf("%w", op.ErrMissingFrom)
		}
	}
	return nil
}

func resolveResultColumns(childSchema []op.TableField, columns []ast.ResultColumn) ([]op.ColumnSpec, error) {
	var out []op.ColumnSpec
	for _, col := range columns {
		switch {
		case col.Asterisk:
			for i, f := range childSchema {
				out = append(out, op.ColumnSpec{Field: f, SourceIndex: i})
			}
		case col.TableAsterisk != "":
			found := false
			for i, f := range childSchema {
				if f.Ident.Table == col.TableAsterisk {
					out = append(out, op.ColumnSpec{Field: f, SourceIndex: i})
					found = true
				}
			}
			if !found {
				return nil, fmt.Errorf("plan: unknown table %q in %q.*", col.TableAsterisk, col.TableAsterisk)
			}
		case col.Expr != nil && col.Expr.Column != nil:
			idx, field, err := resolveColumnIdent(childSchema, *col.Expr.Column)
			if err != nil {
				return nil, err
			}
			if col.Alias != "" {
				field.Ident = op.ColumnIdent{Name: col.Alias}
			}
			out = append(out, op.ColumnSpec{Field: field, SourceIndex: idx})
		case col.Expr != nil && col.Expr.Literal != nil:
			cell, kind, err := literalToNaturalCell(*col.Expr.Literal)
			if err != nil {
				return nil, err
			}
			field := op.TableField{Ident: op.ColumnIdent{Name: col.Alias}, Kind: kind}
			out = append(out, op.ColumnSpec{Field: field, Literal: &cell})
		default:
			return nil, fmt.Errorf("plan: empty result column")
		}
	}
	return out, nil
}

// resolveColumnIdent matches a (possibly qualified) column reference
// against the child schema. An unqualified name must be unique across
// every source table to resolve; a qualified name matches exactly one
// field by (table, name).
func resolveColumnIdent(childSchema []op.TableField, ident ast.ColumnIdent) (int, op.TableField, error) {
	var matchIdx = -1
	for i, f := range childSchema {
		if ident.Table != "" {
			if f.Ident.Table == ident.Table && f.Ident.Name == ident.Name {
				return i, f, nil
			}
			continue
		}
		if f.Ident.Name == ident.Name {
			if matchIdx != -1 {
				return 0, op.TableField{}, fmt.Errorf("plan: column %q is ambiguous", ident.Name)
			}
			matchIdx = i
		}
	}
	if ident.Table != "" {
		return 0, op.TableField{}, fmt.Errorf("plan: unknown column %q.%q", ident.Table, ident.Name)
	}
	if matchIdx == -1 {
		return 0, op.TableField{}, fmt.Errorf("plan: unknown column %q", ident.Name)
	}
	return matchIdx, childSchema[matchIdx], nil
}
