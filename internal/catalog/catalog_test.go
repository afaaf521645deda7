package catalog

import (
	"fmt"
	"testing"

	"github.com/arjadhav/blocksql/internal/storage"
)

type memDisk struct {
	blockSize uint64
	allocated uint64
	blocks    map[uint64]*storage.Block
}

func newMemDisk(blockSize uint64) *memDisk {
	return &memDisk{blockSize: blockSize, blocks: make(map[uint64]*storage.Block)}
}

func (d *memDisk) BlockSize() uint64 { return d.blockSize }

func (d *memDisk) AllocateBlock() (*storage.Block, error) {
	offset := d.allocated * d.blockSize
	d.allocated++
	b, err := storage.NewBlock(offset, d.blockSize)
	if err != nil {
		return nil, err
	}
	d.blocks[offset] = b
	return b, nil
}

func (d *memDisk) ReadBlock(offset uint64) (*storage.Block, error) {
	b, ok := d.blocks[offset]
	if !ok {
		return nil, fmt.Errorf("no block at %d", offset)
	}
	return &storage.Block{Meta: b.Meta, Data: append([]byte(nil), b.Data...)}, nil
}

func (d *memDisk) WriteBlock(b *storage.Block) error {
	d.blocks[b.Meta.Offset] = &storage.Block{Meta: b.Meta, Data: append([]byte(nil), b.Data...)}
	return nil
}

func mustField(t *testing.T, kind FieldKind, name string) Field {
	t.Helper()
	f, err := NewField(kind, name)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// TestCreatingManyTables replicates the reference scenario: creating 100
// tables under the same schema name pattern and confirming the full table
// list round-trips correctly after each creation.
func TestCreatingManyTables(t *testing.T) {
	disk := newMemDisk(64)
	if _, err := disk.AllocateBlock(); err != nil { // root block, offset 0
		t.Fatal(err)
	}
	catalogHead, err := disk.AllocateBlock()
	if err != nil {
		t.Fatal(err)
	}

	cat, err := Open(disk, catalogHead.Meta.Offset)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		schema := Schema{
			Name: fmt.Sprintf("the_name_%d", i),
			Fields: []Field{
				mustField(t, Blob(10), "a"),
				mustField(t, Blob(10), "b"),
				mustField(t, Blob(10), "c"),
				mustField(t, Blob(10), "d"),
				mustField(t, Blob(10), "e"),
			},
		}
		dataHead, err := disk.AllocateBlock()
		if err != nil {
			t.Fatal(err)
		}
		if err := cat.Create(OnDiskSchema{DataBlockOffset: dataHead.Meta.Offset, Schema: schema}); err != nil {
			t.Fatalf("create table %d: %v", i, err)
		}

		tables, err := cat.Tables()
		if err != nil {
			t.Fatal(err)
		}
		if len(tables) != i+1 {
			t.Fatalf("after creating table %d: have %d tables, want %d", i, len(tables), i+1)
		}
		for j, table := range tables {
			wantName := fmt.Sprintf("the_name_%d", j)
			if table.Schema.Name != wantName {
				t.Fatalf("table %d: name = %q, want %q", j, table.Schema.Name, wantName)
			}
			if len(table.Schema.Fields) != 5 {
				t.Fatalf("table %d: field count = %d, want 5", j, len(table.Schema.Fields))
			}
		}
	}
}

func TestCreateTableDuplicateName(t *testing.T) {
	disk := newMemDisk(64)
	if _, err := disk.AllocateBlock(); err != nil {
		t.Fatal(err)
	}
	catalogHead, err := disk.AllocateBlock()
	if err != nil {
		t.Fatal(err)
	}
	cat, err := Open(disk, catalogHead.Meta.Offset)
	if err != nil {
		t.Fatal(err)
	}

	dataHead, err := disk.AllocateBlock()
	if err != nil {
		t.Fatal(err)
	}
	schema := Schema{Name: "users", Fields: []Field{mustField(t, Blob(4), "id")}}
	if err := cat.Create(OnDiskSchema{DataBlockOffset: dataHead.Meta.Offset, Schema: schema}); err != nil {
		t.Fatal(err)
	}
	if err := cat.Create(OnDiskSchema{DataBlockOffset: dataHead.Meta.Offset, Schema: schema}); err == nil {
		t.Fatal("expected error creating duplicate table name")
	}
}

func TestLookupUnknownTable(t *testing.T) {
	disk := newMemDisk(64)
	if _, err := disk.AllocateBlock(); err != nil {
		t.Fatal(err)
	}
	catalogHead, err := disk.AllocateBlock()
	if err != nil {
		t.Fatal(err)
	}
	cat, err := Open(disk, catalogHead.Meta.Offset)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Lookup("nope"); err == nil {
		t.Fatal("expected error looking up unknown table")
	}
}
