package catalog

import (
	"fmt"
	"io"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/arjadhav/blocksql/internal/storage"
)

// ErrTableNotFound is returned when a statement names a table that isn't
// in the catalog.
var ErrTableNotFound = fmt.Errorf("catalog: table not found")

// ErrTableExists is returned by Create when a table with that name is
// already registered.
var ErrTableExists = fmt.Errorf("catalog: table already exists")

// Catalog is the live view of the on-disk table list rooted at a fixed
// block chain. The chain is always rewritten wholesale on every Create —
// there is no incremental catalog update.
type Catalog struct {
	alloc  storage.BlockAllocator
	head   uint64
	known  *bloom.BloomFilter
	bloomN uint
}

// Open loads the catalog chain rooted at headOffset and builds the
// existence-check accelerator from what's currently there.
func Open(alloc storage.BlockAllocator, headOffset uint64) (*Catalog, error) {
	c := &Catalog{alloc: alloc, head: headOffset, bloomN: 1024}
	c.known = bloom.NewWithEstimates(uint(c.bloomN), 0.01)
	tables, err := c.readAll()
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		c.known.AddString(t.Schema.Name)
	}
	return c, nil
}

func (c *Catalog) readAll() ([]OnDiskSchema, error) {
	stream, err := storage.Open(c.alloc, c.head)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	tables, err := ReadTables(stream)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading catalog chain: %w", err)
	}
	return tables, nil
}

// Tables returns every table currently registered, in catalog order.
func (c *Catalog) Tables() ([]OnDiskSchema, error) {
	return c.readAll()
}

// Lookup finds a table by name. The bloom filter is consulted first as a
// pure accelerator: a miss short-circuits straight to ErrTableNotFound
// without walking the chain; a hit still falls through to the exact
// linear scan, since a bloom filter can false-positive but never
// false-negative.
func (c *Catalog) Lookup(name string) (OnDiskSchema, error) {
	if !c.known.TestString(name) {
		return OnDiskSchema{}, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	tables, err := c.readAll()
	if err != nil {
		return OnDiskSchema{}, err
	}
	for _, t := range tables {
		if t.Schema.Name == name {
			return t, nil
		}
	}
	return OnDiskSchema{}, fmt.Errorf("%w: %q", ErrTableNotFound, name)
}

// Create appends a new table record to the catalog, rewriting the whole
// chain, and refreshes the bloom filter.
func (c *Catalog) Create(entry OnDiskSchema) error {
	tables, err := c.readAll()
	if err != nil {
		return err
	}
	for _, t := range tables {
		if t.Schema.Name == entry.Schema.Name {
			return fmt.Errorf("%w: %q", ErrTableExists, entry.Schema.Name)
		}
	}
	tables = append(tables, entry)

	stream, err := storage.Open(c.alloc, c.head)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := WriteTables(stream, tables); err != nil {
		return fmt.Errorf("catalog: writing catalog chain: %w", err)
	}
	c.known.AddString(entry.Schema.Name)
	return nil
}
