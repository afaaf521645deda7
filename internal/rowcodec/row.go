// Package rowcodec serializes typed row values into a table's fixed-width
// row slots and implements the sentinel-row append protocol tables use to
// mark their logical end.
package rowcodec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/arjadhav/blocksql/internal/catalog"
)

// ErrStringTooLong is returned when a Str cell's value exceeds its
// field's capacity.
var ErrStringTooLong = fmt.Errorf("rowcodec: string value exceeds field capacity")

// ErrBlobTooLong is returned when a Blob cell's value exceeds its field's
// capacity.
var ErrBlobTooLong = fmt.Errorf("rowcodec: blob value exceeds field capacity")

// ErrNumberOverflow is returned when a Number cell's value doesn't fit in
// its field's byte width.
var ErrNumberOverflow = fmt.Errorf("rowcodec: number value overflows field width")

// Cell is one decoded or to-be-encoded row value. Exactly one of Number,
// Str, Blob is meaningful, selected by Kind.
type Cell struct {
	Kind   catalog.Kind
	Number int64
	Str    string
	Blob   []byte
}

// NumberCell, StrCell, and BlobCell build Cells of each kind.
func NumberCell(v int64) Cell { return Cell{Kind: catalog.KindNumber, Number: v} }
func StrCell(v string) Cell   { return Cell{Kind: catalog.KindStr, Str: v} }
func BlobCell(v []byte) Cell  { return Cell{Kind: catalog.KindBlob, Blob: v} }

// MetaSize is the on-disk size of a row's meta header.
const MetaSize = 2

const lastRowBit = 1 << 0

// Stride is the total on-disk size of one row slot for schema: 2 bytes of
// meta plus the schema's fixed cell width.
func Stride(schema catalog.Schema) uint64 {
	return MetaSize + schema.RowWidth()
}

// EncodeCell writes one cell coerced to field's kind.
func EncodeCell(w io.Writer, field catalog.Field, cell Cell) error {
	switch field.Kind.Tag {
	case catalog.KindNumber:
		width := field.Kind.N
		if !fitsInWidth(cell.Number, width) {
			return fmt.Errorf("%w: value %d in %d bytes", ErrNumberOverflow, cell.Number, width)
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(cell.Number))
		_, err := w.Write(buf[8-width:])
		return err
	case catalog.KindBlob:
		n := field.Kind.N
		if uint64(len(cell.Blob)) > n {
			return fmt.Errorf("%w: %d > %d", ErrBlobTooLong, len(cell.Blob), n)
		}
		buf := make([]byte, n)
		copy(buf, cell.Blob)
		_, err := w.Write(buf)
		return err
	case catalog.KindStr:
		n := field.Kind.N
		if uint64(len(cell.Str)) > n {
			return fmt.Errorf("%w: %d > %d", ErrStringTooLong, len(cell.Str), n)
		}
		if err := binary.Write(w, binary.BigEndian, uint64(len(cell.Str))); err != nil {
			return err
		}
		buf := make([]byte, n)
		copy(buf, cell.Str)
		_, err := w.Write(buf)
		return err
	default:
		return fmt.Errorf("rowcodec: unknown field kind tag %d", field.Kind.Tag)
	}
}

func fitsInWidth(v int64, width uint64) bool {
	if width >= 8 {
		return true
	}
	bits := width * 8
	min := -(int64(1) << (bits - 1))
	max := int64(1)<<(bits-1) - 1
	return v >= min && v <= max
}

// DecodeCell reads one cell of field's kind.
func DecodeCell(r io.Reader, field catalog.Field) (Cell, error) {
	switch field.Kind.Tag {
	case catalog.KindNumber:
		width := field.Kind.N
		buf := make([]byte, width)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Cell{}, err
		}
		var full [8]byte
		copy(full[8-width:], buf)
		v := int64(binary.BigEndian.Uint64(full[:]))
		// sign-extend for widths below 8 bytes
		if width < 8 {
			shift := uint(64 - width*8)
			v = (v << shift) >> shift
		}
		return NumberCell(v), nil
	case catalog.KindBlob:
		buf := make([]byte, field.Kind.N)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Cell{}, err
		}
		return BlobCell(buf), nil
	case catalog.KindStr:
		var strLen uint64
		if err := binary.Read(r, binary.BigEndian, &strLen); err != nil {
			return Cell{}, err
		}
		buf := make([]byte, field.Kind.N)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Cell{}, err
		}
		if strLen > field.Kind.N {
			return Cell{}, fmt.Errorf("rowcodec: corrupt string length %d exceeds field capacity %d", strLen, field.Kind.N)
		}
		return StrCell(string(buf[:strLen])), nil
	default:
		return Cell{}, fmt.Errorf("rowcodec: unknown field kind tag %d", field.Kind.Tag)
	}
}

// EncodeRow writes one row's meta and cells, in schema field order.
func EncodeRow(w io.Writer, schema catalog.Schema, isLastRow bool, cells []Cell) error {
	if len(cells) != len(schema.Fields) {
		return fmt.Errorf("rowcodec: %d cells for %d fields", len(cells), len(schema.Fields))
	}
	meta := uint16(0)
	if isLastRow {
		meta |= lastRowBit
	}
	if err := binary.Write(w, binary.BigEndian, meta); err != nil {
		return err
	}
	for i, field := range schema.Fields {
		if err := EncodeCell(w, field, cells[i]); err != nil {
			return fmt.Errorf("rowcodec: field %q: %w", field.Name, err)
		}
	}
	return nil
}

// DecodeRow reads one row's meta and cells, reporting whether it is the
// table's sentinel (last) row.
func DecodeRow(r io.Reader, schema catalog.Schema) (cells []Cell, isLastRow bool, err error) {
	var meta uint16
	if err := binary.Read(r, binary.BigEndian, &meta); err != nil {
		return nil, false, err
	}
	isLastRow = meta&lastRowBit != 0
	cells = make([]Cell, len(schema.Fields))
	for i, field := range schema.Fields {
		c, err := DecodeCell(r, field)
		if err != nil {
			return nil, false, fmt.Errorf("rowcodec: field %q: %w", field.Name, err)
		}
		cells[i] = c
	}
	return cells, isLastRow, nil
}

// zeroCells returns a cell vector of schema's shape with zero/empty
// values, used for the sentinel row, whose cell bytes are never read.
func zeroCells(schema catalog.Schema) []Cell {
	cells := make([]Cell, len(schema.Fields))
	for i, f := range schema.Fields {
		switch f.Kind.Tag {
		case catalog.KindNumber:
			cells[i] = NumberCell(0)
		case catalog.KindBlob:
			cells[i] = BlobCell(nil)
		case catalog.KindStr:
			cells[i] = StrCell("")
		}
	}
	return cells
}

// InitTable writes the initial (and only) sentinel row to a freshly
// created table's data stream.
func InitTable(w io.Writer, schema catalog.Schema) error {
	return EncodeRow(w, schema, true, zeroCells(schema))
}

// RowSeeker is the minimal stream a table's data chain needs to expose:
// sequential read/write plus absolute seeking.
type RowSeeker interface {
	io.Reader
	io.Writer
	io.Seeker
}

// AppendRow implements the sentinel protocol: find the current sentinel
// row, overwrite it with the new row, and append a fresh sentinel after
// it.
func AppendRow(stream RowSeeker, schema catalog.Schema, cells []Cell) error {
	stride := Stride(schema)
	var offset uint64
	for {
		if _, err := stream.Seek(int64(offset), io.SeekStart); err != nil {
			return fmt.Errorf("rowcodec: seeking to row %d: %w", offset/stride, err)
		}
		_, isLast, err := DecodeRow(stream, schema)
		if err != nil {
			return fmt.Errorf("rowcodec: scanning for sentinel row: %w", err)
		}
		if isLast {
			break
		}
		offset += stride
	}

	if _, err := stream.Seek(int64(offset), io.SeekStart); err != nil {
		return err
	}
	if err := EncodeRow(stream, schema, false, cells); err != nil {
		return fmt.Errorf("rowcodec: overwriting sentinel with new row: %w", err)
	}
	if err := EncodeRow(stream, schema, true, zeroCells(schema)); err != nil {
		return fmt.Errorf("rowcodec: appending new sentinel row: %w", err)
	}
	return nil
}

// ReadNthRow seeks directly to row index (using the schema's fixed
// stride) and decodes it. It returns ok == false once index reaches the
// sentinel row, meaning there is no such live row.
func ReadNthRow(stream RowSeeker, schema catalog.Schema, index uint64) (cells []Cell, ok bool, err error) {
	stride := Stride(schema)
	if _, err := stream.Seek(int64(index*stride), io.SeekStart); err != nil {
		return nil, false, err
	}
	cells, isLast, err := DecodeRow(stream, schema)
	if err != nil {
		return nil, false, err
	}
	if isLast {
		return nil, false, nil
	}
	return cells, true, nil
}
