// Package op implements the relational operator pipeline: table scans,
// schema mapping (projection, aliasing, literal injection), and
// cross-join, expressed as pull-based iterators that share one contract.
package op

import (
	"fmt"

	"github.com/arjadhav/blocksql/internal/catalog"
	"github.com/arjadhav/blocksql/internal/rowcodec"
)

// ColumnIdent names an output column, optionally qualified by its source
// table.
type ColumnIdent struct {
	Table string
	Name  string
}

func (c ColumnIdent) String() string {
	if c.Table == "" {
		return c.Name
	}
	return c.Table + "." + c.Name
}

// TableField describes one column of an operator's output schema.
type TableField struct {
	Ident ColumnIdent
	Kind  catalog.FieldKind
}

// Table is the shared contract every operator implements: report the
// output schema, and iterate rows by NextRow/CurrentRow. A fresh Table
// starts positioned before its first row — callers must call NextRow
// once before the first CurrentRow.
type Table interface {
	Schema() []TableField
	// NextRow advances to the next row. After the last row, the table
	// becomes exhausted: CurrentRow returns nil, nil until Reset.
	NextRow() error
	// CurrentRow returns the decoded cells of the row at the cursor, or
	// nil if the table is exhausted. It never advances the cursor.
	CurrentRow() ([]rowcodec.Cell, error)
	// Reset rewinds the table to before its first row.
	Reset() error
}

// ErrMissingFrom is returned by the planner when a SELECT has no FROM
// clause but references columns.
var ErrMissingFrom = fmt.Errorf("op: select has columns but no from clause")
