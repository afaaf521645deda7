package op

import (
	"fmt"

	"github.com/arjadhav/blocksql/internal/catalog"
	"github.com/arjadhav/blocksql/internal/rowcodec"
	"github.com/arjadhav/blocksql/internal/storage"
)

// Scan reads every live row of one table's data chain, in row-index
// order, qualifying each output field with the table's name per the
// output schema contract CrossJoin and SchemaMap rely on.
type Scan struct {
	alloc  storage.BlockAllocator
	entry  catalog.OnDiskSchema
	fields []TableField

	index   int64 // -1 before the first row
	current []rowcodec.Cell
	done    bool
}

// NewScan builds a Scan over entry's data chain.
func NewScan(alloc storage.BlockAllocator, entry catalog.OnDiskSchema) *Scan {
	fields := make([]TableField, len(entry.Schema.Fields))
	for i, f := range entry.Schema.Fields {
		fields[i] = TableField{
			Ident: ColumnIdent{Table: entry.Schema.Name, Name: f.Name},
			Kind:  f.Kind,
		}
	}
	return &Scan{alloc: alloc, entry: entry, fields: fields, index: -1}
}

func (s *Scan) Schema() []TableField { return s.fields }

func (s *Scan) NextRow() error {
	if s.done {
		return nil
	}
	s.index++
	stream, err := storage.Open(s.alloc, s.entry.DataBlockOffset)
	if err != nil {
		return fmt.Errorf("op: scan %q: %w", s.entry.Schema.Name, err)
	}
	cells, ok, err := rowcodec.ReadNthRow(stream, s.entry.Schema, uint64(s.index))
	if err != nil {
		return fmt.Errorf("op: scan %q row %d: %w", s.entry.Schema.Name, s.index, err)
	}
	if !ok {
		s.done = true
		s.current = nil
		return nil
	}
	s.current = cells
	return nil
}

func (s *Scan) CurrentRow() ([]rowcodec.Cell, error) {
	return s.current, nil
}

func (s *Scan) Reset() error {
	s.index = -1
	s.done = false
	s.current = nil
	return nil
}
