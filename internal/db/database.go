// Package db owns the on-disk file: the header, the block allocator, the
// table catalog, and the CREATE TABLE / INSERT entry points the planner
// calls into.
package db

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/arjadhav/blocksql/internal/catalog"
	"github.com/arjadhav/blocksql/internal/rowcodec"
	"github.com/arjadhav/blocksql/internal/storage"
)

// Database is the single owner of an on-disk file for its whole
// lifetime: no other writer may open the same path concurrently, and
// Database itself is not safe for concurrent use from multiple
// goroutines.
type Database struct {
	file   *os.File
	header DatabaseHeader
	cat    *catalog.Catalog
	log    *log.Logger
}

// Option configures a Database at Create/Open time.
type Option func(*Database)

// WithLogger attaches a structured logger; operations are logged at
// debug level. The zero value discards all logging.
func WithLogger(l *log.Logger) Option {
	return func(d *Database) {
		if l != nil {
			d.log = l
		}
	}
}

func newDatabase(f *os.File, opts []Option) *Database {
	d := &Database{file: f, log: log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Create initializes a brand new database file at path with the given
// block size exponent (use DefaultBlockSizeExp unless the caller has a
// reason not to) and an empty table catalog.
func Create(path string, blockSizeExp uint8, opts ...Option) (*Database, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("db: create %s: %w", path, err)
	}
	d := newDatabase(f, opts)
	d.header = DatabaseHeader{Version: currentVersion, BlockSizeExp: blockSizeExp}

	// Block 0 is reserved for the header; allocate and immediately
	// discard its generic block content, since persistHeader overwrites
	// that same byte range afterward.
	if _, err := d.AllocateBlock(); err != nil {
		f.Close()
		return nil, err
	}

	catalogHead, err := d.AllocateBlock()
	if err != nil {
		f.Close()
		return nil, err
	}
	d.header.SchemaBlockOffset = catalogHead.Meta.Offset

	stream := storage.FromBlock(d, catalogHead)
	if err := catalog.WriteTables(stream, nil); err != nil {
		f.Close()
		return nil, fmt.Errorf("db: initializing catalog: %w", err)
	}

	if err := d.persistHeader(); err != nil {
		f.Close()
		return nil, err
	}

	cat, err := catalog.Open(d, d.header.SchemaBlockOffset)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.cat = cat
	d.log.Debug("created database", "path", path, "block_size", d.BlockSize())
	return d, nil
}

// Open loads an existing database file at path.
func Open(path string, opts ...Option) (*Database, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", path, err)
	}
	buf := make([]byte, headerSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("db: reading header of %s: %w", path, err)
	}
	header, err := decodeHeader(buf)
	if err != nil {
		f.Close()
		return nil, err
	}
	d := newDatabase(f, opts)
	d.header = header
	cat, err := catalog.Open(d, d.header.SchemaBlockOffset)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.cat = cat
	d.log.Debug("opened database", "path", path, "block_size", d.BlockSize())
	return d, nil
}

// Close releases the underlying file handle.
func (d *Database) Close() error {
	return d.file.Close()
}

// BlockSize returns the database's fixed block size in bytes.
func (d *Database) BlockSize() uint64 { return d.header.blockSize() }

func (d *Database) persistHeader() error {
	_, err := d.file.WriteAt(d.header.encode(), 0)
	if err != nil {
		return fmt.Errorf("db: persisting header: %w", err)
	}
	return nil
}

// AllocateBlock implements storage.BlockAllocator: grows the file by one
// block at the next monotonically increasing offset.
func (d *Database) AllocateBlock() (*storage.Block, error) {
	offset := d.header.NumAllocatedBlocks * d.BlockSize()
	b, err := storage.NewBlock(offset, d.BlockSize())
	if err != nil {
		return nil, err
	}
	d.header.NumAllocatedBlocks++
	if err := d.WriteBlock(b); err != nil {
		return nil, err
	}
	if err := d.persistHeader(); err != nil {
		return nil, err
	}
	d.log.Debug("allocated block", "offset", offset, "total_blocks", d.header.NumAllocatedBlocks)
	return b, nil
}

// ReadBlock implements storage.BlockAllocator.
func (d *Database) ReadBlock(offset uint64) (*storage.Block, error) {
	return storage.LoadBlock(d.file, offset, d.BlockSize())
}

// WriteBlock implements storage.BlockAllocator.
func (d *Database) WriteBlock(b *storage.Block) error {
	return b.Persist(d.file)
}

// CreateTable allocates a fresh data chain for schema, initializes its
// sentinel row, and registers it in the catalog.
func (d *Database) CreateTable(schema catalog.Schema) error {
	dataHead, err := d.AllocateBlock()
	if err != nil {
		return err
	}
	stream := storage.FromBlock(d, dataHead)
	if err := rowcodec.InitTable(stream, schema); err != nil {
		return fmt.Errorf("db: initializing table %q: %w", schema.Name, err)
	}
	if err := d.cat.Create(catalog.OnDiskSchema{DataBlockOffset: dataHead.Meta.Offset, Schema: schema}); err != nil {
		return err
	}
	d.log.Debug("created table", "name", schema.Name, "fields", len(schema.Fields))
	return nil
}

// LookupTable returns the on-disk schema for name.
func (d *Database) LookupTable(name string) (catalog.OnDiskSchema, error) {
	return d.cat.Lookup(name)
}

// Tables returns every registered table, in catalog order.
func (d *Database) Tables() ([]catalog.OnDiskSchema, error) {
	return d.cat.Tables()
}

// Insert appends each row in rows to table's data chain, in order.
func (d *Database) Insert(table string, rows [][]rowcodec.Cell) error {
	entry, err := d.cat.Lookup(table)
	if err != nil {
		return err
	}
	stream, err := storage.Open(d, entry.DataBlockOffset)
	if err != nil {
		return fmt.Errorf("db: opening data chain for %q: %w", table, err)
	}
	for i, cells := range rows {
		if err := rowcodec.AppendRow(stream, entry.Schema, cells); err != nil {
			return fmt.Errorf("db: inserting row %d into %q: %w", i, table, err)
		}
	}
	d.log.Debug("inserted rows", "table", table, "count", len(rows))
	return nil
}
