package plan

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/arjadhav/blocksql/internal/catalog"
	"github.com/arjadhav/blocksql/internal/rowcodec"
	"github.com/arjadhav/blocksql/internal/sql/ast"
)

// ErrTypeMismatch is returned when an INSERT value's literal kind
// doesn't match its target column's kind.
var ErrTypeMismatch = fmt.Errorf("plan: literal type does not match column type")

// BuildInsertRows lowers an INSERT statement's value rows into schema's
// cell layout, validating column names, column counts, and per-cell
// types along the way. The named column list (or, if omitted, the
// schema's own field list) must cover every field — a short list is a
// column count mismatch, not a request to zero-fill the rest.
func BuildInsertRows(schema catalog.Schema, stmt *ast.InsertStatement) ([][]rowcodec.Cell, error) {
	targetIndex, err := resolveInsertColumns(schema, stmt.Columns)
	if err != nil {
		return nil, err
	}
	if len(targetIndex) != len(schema.Fields) {
		return nil, fmt.Errorf("plan: INSERT names %d columns, table %q has %d", len(targetIndex), schema.Name, len(schema.Fields))
	}

	rows := make([][]rowcodec.Cell, len(stmt.Values.Rows))
	for rowIdx, exprs := range stmt.Values.Rows {
		if len(exprs) != len(targetIndex) {
			return nil, fmt.Errorf("plan: row %d has %d values, expected %d", rowIdx, len(exprs), len(targetIndex))
		}
		cells := make([]rowcodec.Cell, len(schema.Fields))
		for i, expr := range exprs {
			fieldIdx := targetIndex[i]
			if expr.Literal == nil {
				return nil, fmt.Errorf("plan: row %d: INSERT values must be literals, not column references", rowIdx)
			}
			cell, err := literalToCellForField(schema.Fields[fieldIdx], *expr.Literal)
			if err != nil {
				return nil, fmt.Errorf("plan: row %d, column %q: %w", rowIdx, schema.Fields[fieldIdx].Name, err)
			}
			cells[fieldIdx] = cell
		}
		rows[rowIdx] = cells
	}
	return rows, nil
}

// resolveInsertColumns maps the INSERT statement's column list (or, if
// omitted, every schema field in order) to field indices, rejecting
// unknown or duplicate column names.
func resolveInsertColumns(schema catalog.Schema, columns []string) ([]int, error) {
	if columns == nil {
		all := make([]int, len(schema.Fields))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	seen := bitset.New(uint(len(schema.Fields)))
	out := make([]int, len(columns))
	for i, name := range columns {
		idx, _, ok := schema.FieldByName(name)
		if !ok {
			return nil, fmt.Errorf("plan: unknown column %q", name)
		}
		if seen.Test(uint(idx)) {
			return nil, fmt.Errorf("plan: column %q specified more than once", name)
		}
		seen.Set(uint(idx))
		out[i] = idx
	}
	return out, nil
}

func literalToCellForField(field catalog.Field, lit ast.LiteralValue) (rowcodec.Cell, error) {
	switch lit.Kind {
	case ast.LiteralNumeric:
		if field.Kind.Tag != catalog.KindNumber {
			return rowcodec.Cell{}, fmt.Errorf("%w: got number, column %q is not", ErrTypeMismatch, field.Name)
		}
		return rowcodec.NumberCell(lit.Numeric), nil
	case ast.LiteralString:
		if field.Kind.Tag != catalog.KindStr {
			return rowcodec.Cell{}, fmt.Errorf("%w: got string, column %q is not", ErrTypeMismatch, field.Name)
		}
		return rowcodec.StrCell(lit.Str), nil
	case ast.LiteralBlob:
		if field.Kind.Tag != catalog.KindBlob {
			return rowcodec.Cell{}, fmt.Errorf("%w: got blob, column %q is not", ErrTypeMismatch, field.Name)
		}
		return rowcodec.BlobCell(lit.Blob), nil
	default:
		return rowcodec.Cell{}, fmt.Errorf("plan: unknown literal kind %d", lit.Kind)
	}
}
