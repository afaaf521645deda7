package rowcodec

import (
	"bytes"
	"io"
	"testing"

	"github.com/arjadhav/blocksql/internal/catalog"
)

func must[T any](t *testing.T, v T, err error) T {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func testSchema(t *testing.T) catalog.Schema {
	t.Helper()
	idKind := must(t, catalog.Number(2))
	return catalog.Schema{
		Name: "users",
		Fields: []catalog.Field{
			must(t, catalog.NewField(idKind, "id")),
			must(t, catalog.NewField(catalog.Str(10), "username")),
		},
	}
}

func TestEncodeDecodeCellRoundTrip(t *testing.T) {
	schema := testSchema(t)
	var buf bytes.Buffer
	cells := []Cell{NumberCell(7), StrCell("nlincoln")}
	if err := EncodeRow(&buf, schema, false, cells); err != nil {
		t.Fatal(err)
	}
	got, isLast, err := DecodeRow(&buf, schema)
	if err != nil {
		t.Fatal(err)
	}
	if isLast {
		t.Fatal("expected not sentinel")
	}
	if got[0].Number != 7 || got[1].Str != "nlincoln" {
		t.Fatalf("got %+v", got)
	}
}

func TestNumberEncodingIsBigEndian(t *testing.T) {
	idKind := must(t, catalog.Number(2))
	field := must(t, catalog.NewField(idKind, "id"))
	var buf bytes.Buffer
	if err := EncodeCell(&buf, field, NumberCell(2)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0, 2}) {
		t.Fatalf("got %v, want [0 2]", buf.Bytes())
	}
}

func TestNumberOverflowRejected(t *testing.T) {
	field := must(t, catalog.NewField(must(t, catalog.Number(1)), "id"))
	var buf bytes.Buffer
	if err := EncodeCell(&buf, field, NumberCell(1000)); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestStringTooLongRejected(t *testing.T) {
	field := must(t, catalog.NewField(catalog.Str(3), "name"))
	var buf bytes.Buffer
	if err := EncodeCell(&buf, field, StrCell("abcdef")); err == nil {
		t.Fatal("expected too-long error")
	}
}

// seekBuffer adapts a growable byte slice into the RowSeeker
// interface for append/read tests.
type seekBuffer struct {
	data []byte
	pos  int64
}

func (s *seekBuffer) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	copy(s.data[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}

func TestAppendRowSentinelProtocol(t *testing.T) {
	schema := testSchema(t)
	stream := &seekBuffer{}
	if err := InitTable(stream, schema); err != nil {
		t.Fatal(err)
	}

	for i, name := range []string{"alice", "bob", "carol"} {
		if err := AppendRow(stream, schema, []Cell{NumberCell(int64(i)), StrCell(name)}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	for i, name := range []string{"alice", "bob", "carol"} {
		cells, ok, err := ReadNthRow(stream, schema, uint64(i))
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("row %d missing", i)
		}
		if cells[0].Number != int64(i) || cells[1].Str != name {
			t.Fatalf("row %d = %+v, want id=%d name=%s", i, cells, i, name)
		}
	}

	_, ok, err := ReadNthRow(stream, schema, 3)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected row 3 to be the sentinel, not a live row")
	}
}

func TestAppendIsDeterministicForNInserts(t *testing.T) {
	schema := testSchema(t)
	stream := &seekBuffer{}
	if err := InitTable(stream, schema); err != nil {
		t.Fatal(err)
	}
	const n = 25
	for i := 0; i < n; i++ {
		if err := AppendRow(stream, schema, []Cell{NumberCell(int64(i)), StrCell("x")}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		cells, ok, err := ReadNthRow(stream, schema, uint64(i))
		if err != nil || !ok {
			t.Fatalf("row %d: ok=%v err=%v", i, ok, err)
		}
		if cells[0].Number != int64(i) {
			t.Fatalf("row %d id = %d, want %d", i, cells[0].Number, i)
		}
	}
	if _, ok, _ := ReadNthRow(stream, schema, n); ok {
		t.Fatalf("row %d should be the sentinel", n)
	}
}
