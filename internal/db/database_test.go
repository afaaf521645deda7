package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arjadhav/blocksql/internal/catalog"
	"github.com/arjadhav/blocksql/internal/rowcodec"
	"github.com/arjadhav/blocksql/internal/storage"
)

func mustField(t *testing.T, kind catalog.FieldKind, name string) catalog.Field {
	t.Helper()
	f, err := catalog.NewField(kind, name)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func TestFreshDatabaseHasTwoBlocks(t *testing.T) {
	path := tempDBPath(t)
	database, err := Create(path, DefaultBlockSizeExp)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if database.header.NumAllocatedBlocks != 2 {
		t.Fatalf("NumAllocatedBlocks = %d, want 2", database.header.NumAllocatedBlocks)
	}
	if database.header.SchemaBlockOffset != database.BlockSize() {
		t.Fatalf("SchemaBlockOffset = %d, want %d", database.header.SchemaBlockOffset, database.BlockSize())
	}
}

func TestCreateAndReopenPreservesSchema(t *testing.T) {
	path := tempDBPath(t)
	database, err := Create(path, DefaultBlockSizeExp)
	if err != nil {
		t.Fatal(err)
	}
	idKind, err := catalog.Number(4)
	if err != nil {
		t.Fatal(err)
	}
	schema := catalog.Schema{
		Name: "users",
		Fields: []catalog.Field{
			mustField(t, idKind, "id"),
			mustField(t, catalog.Str(16), "name"),
		},
	}
	if err := database.CreateTable(schema); err != nil {
		t.Fatal(err)
	}
	if err := database.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	entry, err := reopened.LookupTable("users")
	if err != nil {
		t.Fatal(err)
	}
	if len(entry.Schema.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(entry.Schema.Fields))
	}
}

func TestEmptyTableScanYieldsZeroRows(t *testing.T) {
	path := tempDBPath(t)
	database, err := Create(path, DefaultBlockSizeExp)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	idKind, err := catalog.Number(4)
	if err != nil {
		t.Fatal(err)
	}
	schema := catalog.Schema{Name: "empty", Fields: []catalog.Field{mustField(t, idKind, "id")}}
	if err := database.CreateTable(schema); err != nil {
		t.Fatal(err)
	}

	entry, err := database.LookupTable("empty")
	if err != nil {
		t.Fatal(err)
	}
	// there should be no live row at index 0 — only the sentinel
	stream, err := storage.Open(database, entry.DataBlockOffset)
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := rowcodec.ReadNthRow(stream, entry.Schema, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no live rows in a freshly created table")
	}
}

func TestInsertAndReadBack(t *testing.T) {
	path := tempDBPath(t)
	database, err := Create(path, DefaultBlockSizeExp)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	idKind, err := catalog.Number(4)
	if err != nil {
		t.Fatal(err)
	}
	schema := catalog.Schema{
		Name:   "nums",
		Fields: []catalog.Field{mustField(t, idKind, "n")},
	}
	if err := database.CreateTable(schema); err != nil {
		t.Fatal(err)
	}

	rows := [][]rowcodec.Cell{
		{rowcodec.NumberCell(1)},
		{rowcodec.NumberCell(2)},
		{rowcodec.NumberCell(3)},
	}
	if err := database.Insert("nums", rows); err != nil {
		t.Fatal(err)
	}

	entry, err := database.LookupTable("nums")
	if err != nil {
		t.Fatal(err)
	}
	stream, err := storage.Open(database, entry.DataBlockOffset)
	if err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < 3; i++ {
		cells, ok, err := rowcodec.ReadNthRow(stream, entry.Schema, i)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("row %d missing", i)
		}
		if cells[0].Number != int64(i+1) {
			t.Fatalf("row %d = %d, want %d", i, cells[0].Number, i+1)
		}
	}
}

func TestCreateTableDuplicateNameRejected(t *testing.T) {
	path := tempDBPath(t)
	database, err := Create(path, DefaultBlockSizeExp)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	idKind, err := catalog.Number(4)
	if err != nil {
		t.Fatal(err)
	}
	schema := catalog.Schema{Name: "dup", Fields: []catalog.Field{mustField(t, idKind, "id")}}
	if err := database.CreateTable(schema); err != nil {
		t.Fatal(err)
	}
	if err := database.CreateTable(schema); err == nil {
		t.Fatal("expected error creating duplicate table")
	}
}

func TestOpenRejectsMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "does-not-exist.db")); err == nil {
		t.Fatal("expected error opening missing file")
	}
}

var _ = os.ErrNotExist
