package storage

import "fmt"

// memDisk is an in-memory BlockAllocator used only by tests, mirroring the
// teacher's withTempWAL-style test helpers: no real file, just enough of
// the allocator contract to exercise BlockStream.
type memDisk struct {
	blockSize uint64
	allocated uint64
	blocks    map[uint64]*Block
}

func newMemDisk(blockSize uint64) *memDisk {
	return &memDisk{blockSize: blockSize, blocks: make(map[uint64]*Block)}
}

func (d *memDisk) BlockSize() uint64 { return d.blockSize }

func (d *memDisk) AllocateBlock() (*Block, error) {
	offset := d.allocated * d.blockSize
	d.allocated++
	b, err := NewBlock(offset, d.blockSize)
	if err != nil {
		return nil, err
	}
	d.blocks[offset] = b
	return b, nil
}

func (d *memDisk) ReadBlock(offset uint64) (*Block, error) {
	b, ok := d.blocks[offset]
	if !ok {
		return nil, fmt.Errorf("memDisk: no block at %d", offset)
	}
	cp := &Block{Meta: b.Meta, Data: append([]byte(nil), b.Data...)}
	return cp, nil
}

func (d *memDisk) WriteBlock(b *Block) error {
	cp := &Block{Meta: b.Meta, Data: append([]byte(nil), b.Data...)}
	d.blocks[b.Meta.Offset] = cp
	return nil
}
