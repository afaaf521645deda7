package blocksql

import (
	"github.com/arjadhav/blocksql/internal/plan/op"
	"github.com/arjadhav/blocksql/internal/rowcodec"
)

// ColumnInfo describes one column of a ResultSet.
type ColumnInfo struct {
	Table string
	Name  string
}

// ResultSet is pulled one row at a time via Next/Row. Columns is
// available before the first call to Next.
type ResultSet struct {
	table   op.Table
	columns []ColumnInfo
	current []rowcodec.Cell
}

func newResultSet(table op.Table) *ResultSet {
	fields := table.Schema()
	cols := make([]ColumnInfo, len(fields))
	for i, f := range fields {
		cols[i] = ColumnInfo{Table: f.Ident.Table, Name: f.Ident.Name}
	}
	return &ResultSet{table: table, columns: cols}
}

// Columns reports the result set's column names, in order.
func (r *ResultSet) Columns() []ColumnInfo {
	return r.columns
}

// Next advances to the next row, reporting whether one exists.
func (r *ResultSet) Next() (bool, error) {
	if err := r.table.NextRow(); err != nil {
		return false, err
	}
	row, err := r.table.CurrentRow()
	if err != nil {
		return false, err
	}
	r.current = row
	return row != nil, nil
}

// Row returns the current row's cells, in column order. Valid only
// after a call to Next returned true.
func (r *ResultSet) Row() []rowcodec.Cell {
	return r.current
}
