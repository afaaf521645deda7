package plan

import (
	"github.com/arjadhav/blocksql/internal/plan/op"
	"github.com/arjadhav/blocksql/internal/rowcodec"
)

// unitTable is the implicit single-row, zero-column source for a SELECT
// with no FROM clause — just enough of a Table to let SchemaMap sit
// above it projecting only literals.
type unitTable struct {
	index int
}

func newUnitTable() *unitTable { return &unitTable{index: -1} }

func (u *unitTable) Schema() []op.TableField { return nil }

func (u *unitTable) NextRow() error {
	if u.index < 1 {
		u.index++
	}
	return nil
}

func (u *unitTable) CurrentRow() ([]rowcodec.Cell, error) {
	if u.index != 0 {
		return nil, nil
	}
	return []rowcodec.Cell{}, nil
}

func (u *unitTable) Reset() error {
	u.index = -1
	return nil
}
