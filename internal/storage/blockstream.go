package storage

import (
	"fmt"
	"io"
)

// BlockStream is a virtual byte stream laid over a chain of blocks rooted
// at a head block. Reads follow existing `next` links and never allocate;
// writes grow the chain by allocation when the chain runs out, but follow
// an existing `next` link first so re-opening a stream that already has
// trailing blocks doesn't fork the chain. Addressing is by fixed block
// capacity (blockSize-MetaSize), not by each block's live payload size.
type BlockStream struct {
	alloc  BlockAllocator
	blocks []*Block
	pos    uint64
}

// Open loads the head block of a chain and returns a stream positioned at
// offset 0 within it.
func Open(alloc BlockAllocator, headOffset uint64) (*BlockStream, error) {
	head, err := alloc.ReadBlock(headOffset)
	if err != nil {
		return nil, fmt.Errorf("storage: open block stream at %d: %w", headOffset, err)
	}
	return &BlockStream{alloc: alloc, blocks: []*Block{head}}, nil
}

// FromBlock wraps an already-loaded head block, avoiding a redundant read
// — used right after a block was just allocated or persisted.
func FromBlock(alloc BlockAllocator, head *Block) *BlockStream {
	return &BlockStream{alloc: alloc, blocks: []*Block{head}}
}

func (s *BlockStream) blockCapacity() uint64 {
	return s.alloc.BlockSize() - MetaSize
}

func (s *BlockStream) blockIndexAndOffset(pos uint64) (int, uint64) {
	capacity := s.blockCapacity()
	return int(pos / capacity), pos % capacity
}

func (s *BlockStream) totalPayloadSize() uint64 {
	var total uint64
	for _, b := range s.blocks {
		total += b.Meta.PayloadSize
	}
	return total
}

// extendChain tries to follow the tail block's existing next link; if
// there isn't one and force is set, it allocates a fresh block, links the
// old tail to it, and persists the old tail. Reports whether a block was
// added.
func (s *BlockStream) extendChain(force bool) (bool, error) {
	tail := s.blocks[len(s.blocks)-1]
	if tail.Meta.Next != 0 {
		next, err := s.alloc.ReadBlock(tail.Meta.Next)
		if err != nil {
			return false, err
		}
		s.blocks = append(s.blocks, next)
		return true, nil
	}
	if !force {
		return false, nil
	}
	next, err := s.alloc.AllocateBlock()
	if err != nil {
		return false, err
	}
	tail.Meta.Next = next.Meta.Offset
	if err := s.alloc.WriteBlock(tail); err != nil {
		return false, err
	}
	s.blocks = append(s.blocks, next)
	return true, nil
}

// growTo ensures enough blocks are loaded that position target addresses
// a real (possibly freshly allocated) block.
func (s *BlockStream) growTo(target uint64) error {
	idx, _ := s.blockIndexAndOffset(target)
	for idx >= len(s.blocks) {
		added, err := s.extendChain(true)
		if err != nil {
			return err
		}
		if !added {
			return fmt.Errorf("storage: failed to grow block chain to position %d", target)
		}
	}
	return nil
}

func (s *BlockStream) Read(p []byte) (int, error) {
	var total int
	for len(p) > 0 {
		idx, off := s.blockIndexAndOffset(s.pos)
		if idx >= len(s.blocks) {
			added, err := s.extendChain(false)
			if err != nil {
				return total, err
			}
			if !added {
				break
			}
			continue
		}
		blk := s.blocks[idx]
		if off >= blk.Meta.PayloadSize {
			added, err := s.extendChain(false)
			if err != nil {
				return total, err
			}
			if !added {
				break
			}
			continue
		}
		avail := blk.Meta.PayloadSize - off
		n := copy(p, blk.Data[off:off+avail])
		s.pos += uint64(n)
		p = p[n:]
		total += n
		if uint64(n) < avail {
			break
		}
	}
	if total == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return total, nil
}

func (s *BlockStream) Write(p []byte) (int, error) {
	var total int
	capacity := s.blockCapacity()
	for len(p) > 0 {
		idx, off := s.blockIndexAndOffset(s.pos)
		for idx >= len(s.blocks) {
			if _, err := s.extendChain(true); err != nil {
				return total, err
			}
		}
		blk := s.blocks[idx]
		room := capacity - off
		n := uint64(len(p))
		if n > room {
			n = room
		}
		copy(blk.Data[off:off+n], p[:n])
		if off+n > blk.Meta.PayloadSize {
			blk.Meta.PayloadSize = off + n
		}
		if err := s.alloc.WriteBlock(blk); err != nil {
			return total, err
		}
		s.pos += n
		p = p[n:]
		total += int(n)
	}
	return total, nil
}

func (s *BlockStream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return 0, fmt.Errorf("storage: negative seek position %d", offset)
		}
		target := uint64(offset)
		if err := s.growTo(target); err != nil {
			return 0, err
		}
		s.pos = target
		return int64(target), nil
	case io.SeekCurrent:
		target := int64(s.pos) + offset
		if target < 0 {
			return 0, fmt.Errorf("storage: negative seek position %d", target)
		}
		if err := s.growTo(uint64(target)); err != nil {
			return 0, err
		}
		s.pos = uint64(target)
		return target, nil
	case io.SeekEnd:
		for {
			added, err := s.extendChain(false)
			if err != nil {
				return 0, err
			}
			if !added {
				break
			}
		}
		size := s.totalPayloadSize()
		target := int64(size) + offset
		if target < 0 {
			return 0, fmt.Errorf("storage: negative seek position %d", target)
		}
		s.pos = uint64(target)
		return target, nil
	default:
		return 0, fmt.Errorf("storage: invalid whence %d", whence)
	}
}

// HeadOffset returns the offset of the chain's first block.
func (s *BlockStream) HeadOffset() uint64 {
	return s.blocks[0].Meta.Offset
}
