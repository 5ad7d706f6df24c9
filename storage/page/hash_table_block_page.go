package page

import (
	"encoding/binary"

	"github.com/elidrissi/dbcore/common"
)

// sizeOfHashTablePair is an 8-byte key plus an 8-byte value (a serialized
// RID: page id + slot, each 4 bytes).
const sizeOfHashTablePair = 16

// BlockArraySize is how many (key, value) slots fit in one block page
// alongside its two occupied/readable bitmaps.
const BlockArraySize = common.BlockArraySize

const bitmapBytes = (BlockArraySize-1)/8 + 1

const (
	htBlockOffsetOccupied = 0
	htBlockOffsetReadable = bitmapBytes
	htBlockOffsetArray    = 2 * bitmapBytes
)

// HashTableBlockPage stores (key, value) pairs in order:
//
//	----------------------------------------------------------------
//	| KEY(1) + VALUE(1) | KEY(2) + VALUE(2) | ... | KEY(n) + VALUE(n)
//	----------------------------------------------------------------
//
// plus two bitmaps: occupied (was ever used) and readable (currently live),
// so a remove can leave a tombstone (occupied=1, readable=0) that preserves
// the linear-probe chain for later lookups.
type HashTableBlockPage struct {
	Page
}

func CastAsHashTableBlockPage(p *Page) *HashTableBlockPage {
	if p == nil {
		return nil
	}
	return &HashTableBlockPage{Page: *p}
}

func (bp *HashTableBlockPage) AsPage() *Page { return &bp.Page }

func (bp *HashTableBlockPage) pairOffset(index int) int {
	return htBlockOffsetArray + index*sizeOfHashTablePair
}

func (bp *HashTableBlockPage) KeyAt(index int) int64 {
	off := bp.pairOffset(index)
	return int64(binary.LittleEndian.Uint64(bp.data[off : off+8]))
}

func (bp *HashTableBlockPage) ValueAt(index int) []byte {
	off := bp.pairOffset(index) + 8
	out := make([]byte, 8)
	copy(out, bp.data[off:off+8])
	return out
}

// Insert attempts to place (key, value) at index. Fails (returns false) if
// the slot is already readable.
func (bp *HashTableBlockPage) Insert(index int, key int64, value []byte) bool {
	if bp.IsReadable(index) {
		return false
	}
	off := bp.pairOffset(index)
	binary.LittleEndian.PutUint64(bp.data[off:off+8], uint64(key))
	copy(bp.data[off+8:off+16], value)
	bp.setBit(htBlockOffsetOccupied, index)
	bp.setBit(htBlockOffsetReadable, index)
	return true
}

// Remove clears the readable bit, leaving a tombstone: occupied stays set.
func (bp *HashTableBlockPage) Remove(index int) {
	bp.clearBit(htBlockOffsetReadable, index)
}

func (bp *HashTableBlockPage) IsOccupied(index int) bool { return bp.getBit(htBlockOffsetOccupied, index) }
func (bp *HashTableBlockPage) IsReadable(index int) bool { return bp.getBit(htBlockOffsetReadable, index) }

func (bp *HashTableBlockPage) getBit(base, index int) bool {
	return bp.data[base+index/8]&(1<<(uint(index)%8)) != 0
}

func (bp *HashTableBlockPage) setBit(base, index int) {
	bp.data[base+index/8] |= 1 << (uint(index) % 8)
}

func (bp *HashTableBlockPage) clearBit(base, index int) {
	bp.data[base+index/8] &^= 1 << (uint(index) % 8)
}
