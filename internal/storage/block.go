// Package storage implements the paged block layer: fixed-size pages with
// a 16-byte header, and the virtual byte stream built on top of a chain of
// them.
package storage

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MetaSize is the on-disk size of a BlockMeta: 8 bytes next-block offset,
// 8 bytes payload size.
const MetaSize = 16

// BlockMeta describes a block's position in its chain and how much of its
// payload is in use. Next == 0 means "no following block" — block offset 0
// is reserved for the database header, so no real block ever has next == 0.
type BlockMeta struct {
	Offset      uint64
	Next        uint64
	PayloadSize uint64
}

// Block is one fixed-size page: a header plus a payload buffer of
// blockSize-MetaSize bytes.
type Block struct {
	Meta BlockMeta
	Data []byte
}

// NewBlock allocates a zeroed block of the given total size (header +
// payload) at offset.
func NewBlock(offset uint64, blockSize uint64) (*Block, error) {
	if blockSize <= MetaSize {
		return nil, fmt.Errorf("storage: block size %d too small for %d-byte header", blockSize, uint64(MetaSize))
	}
	return &Block{
		Meta: BlockMeta{Offset: offset},
		Data: make([]byte, blockSize-MetaSize),
	}, nil
}

// Persist writes the block's header and payload at Meta.Offset.
func (b *Block) Persist(w io.WriterAt) error {
	buf := make([]byte, MetaSize+len(b.Data))
	binary.BigEndian.PutUint64(buf[0:8], b.Meta.Next)
	binary.BigEndian.PutUint64(buf[8:16], b.Meta.PayloadSize)
	copy(buf[MetaSize:], b.Data)
	_, err := w.WriteAt(buf, int64(b.Meta.Offset))
	if err != nil {
		return fmt.Errorf("storage: persist block at %d: %w", b.Meta.Offset, err)
	}
	return nil
}

// LoadBlock reads a full block (header + blockSize-MetaSize payload bytes)
// from offset.
func LoadBlock(r io.ReaderAt, offset uint64, blockSize uint64) (*Block, error) {
	buf := make([]byte, blockSize)
	if _, err := r.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("storage: load block at %d: %w", offset, err)
	}
	b := &Block{
		Meta: BlockMeta{
			Offset:      offset,
			Next:        binary.BigEndian.Uint64(buf[0:8]),
			PayloadSize: binary.BigEndian.Uint64(buf[8:16]),
		},
		Data: make([]byte, blockSize-MetaSize),
	}
	copy(b.Data, buf[MetaSize:])
	return b, nil
}

// View returns a cursor into the block's payload starting at byte start.
func (b *Block) View(start uint64) *BlockView {
	return &BlockView{block: b, pos: start}
}

// BlockView is a Read/Write/Seek cursor confined to a single block's
// payload. Reads never return more than what PayloadSize claims is live;
// writes past the current PayloadSize extend it (and are bounded by
// len(Data)); seeking to a negative position is an error, while seeking
// past the end is allowed and a later Read reports io.EOF and a Write
// io.ErrShortWrite — growth across a block boundary is BlockStream's
// job, not BlockView's.
type BlockView struct {
	block *Block
	pos   uint64
}

func (v *BlockView) Read(p []byte) (int, error) {
	avail := v.block.Meta.PayloadSize
	if v.pos >= avail {
		return 0, io.EOF
	}
	n := copy(p, v.block.Data[v.pos:avail])
	v.pos += uint64(n)
	return n, nil
}

func (v *BlockView) Write(p []byte) (int, error) {
	capacity := uint64(len(v.block.Data))
	if v.pos >= capacity {
		return 0, io.ErrShortWrite
	}
	n := copy(v.block.Data[v.pos:], p)
	v.pos += uint64(n)
	if v.pos > v.block.Meta.PayloadSize {
		v.block.Meta.PayloadSize = v.pos
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (v *BlockView) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = int64(v.pos) + offset
	case io.SeekEnd:
		target = int64(v.block.Meta.PayloadSize) + offset
	default:
		return 0, fmt.Errorf("storage: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("storage: negative seek position %d", target)
	}
	v.pos = uint64(target)
	return target, nil
}

// Remaining reports how many more bytes can be written into this block's
// payload before it is full.
func (v *BlockView) Remaining() uint64 {
	return uint64(len(v.block.Data)) - v.pos
}

// AtCapacity reports whether the view's cursor has reached the block's
// total payload capacity.
func (v *BlockView) AtCapacity() bool {
	return v.pos >= uint64(len(v.block.Data))
}
