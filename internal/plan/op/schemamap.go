package op

import "github.com/arjadhav/blocksql/internal/rowcodec"

// ColumnSpec describes one output column of a SchemaMap: either a
// literal value materialized independently of the child row (Literal
// non-nil; SourceIndex is then ignored) or a reference into the child's
// current row at SourceIndex (Literal nil).
type ColumnSpec struct {
	Field       TableField
	SourceIndex int
	Literal     *rowcodec.Cell
}

// SchemaMap projects, renames, and injects literals over a single child
// table. It never advances the child on its own — NextRow delegates
// straight through to the child's NextRow, and CurrentRow only
// re-reads the child's already-current row. This "non-advancing"
// discipline matters when SchemaMap sits above a CrossJoin: if
// CurrentRow itself called the child's NextRow, every row of the
// product would be read twice and the cross-join's cardinality would be
// corrupted. Exactly one SchemaMap belongs at the top of a folded
// cross-join tree, never one per table, for the same reason — per-table
// SchemaMaps would each maintain their own advance state instead of
// sharing the single child's.
type SchemaMap struct {
	child   Table
	columns []ColumnSpec
}

// NewSchemaMap builds a SchemaMap with the given output columns over
// child.
func NewSchemaMap(child Table, columns []ColumnSpec) *SchemaMap {
	return &SchemaMap{child: child, columns: columns}
}

func (m *SchemaMap) Schema() []TableField {
	out := make([]TableField, len(m.columns))
	for i, c := range m.columns {
		out[i] = c.Field
	}
	return out
}

func (m *SchemaMap) NextRow() error {
	return m.child.NextRow()
}

func (m *SchemaMap) CurrentRow() ([]rowcodec.Cell, error) {
	childRow, err := m.child.CurrentRow()
	if err != nil {
		return nil, err
	}
	if childRow == nil {
		return nil, nil
	}
	out := make([]rowcodec.Cell, len(m.columns))
	for i, c := range m.columns {
		if c.Literal != nil {
			out[i] = *c.Literal
			continue
		}
		out[i] = childRow[c.SourceIndex]
	}
	return out, nil
}

func (m *SchemaMap) Reset() error {
	return m.child.Reset()
}
