package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestBlockPage() *HashTableBlockPage {
	return CastAsHashTableBlockPage(New(1))
}

func TestHashTableBlockPageInsertAndRead(t *testing.T) {
	bp := newTestBlockPage()

	assert.False(t, bp.IsOccupied(0))
	assert.True(t, bp.Insert(0, 99, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	assert.True(t, bp.IsOccupied(0))
	assert.True(t, bp.IsReadable(0))
	assert.Equal(t, int64(99), bp.KeyAt(0))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, bp.ValueAt(0))

	// Re-inserting into an already-readable slot must fail.
	assert.False(t, bp.Insert(0, 1, []byte{0, 0, 0, 0, 0, 0, 0, 0}))
}

func TestHashTableBlockPageRemoveLeavesTombstone(t *testing.T) {
	bp := newTestBlockPage()
	bp.Insert(2, 7, []byte{0, 0, 0, 0, 0, 0, 0, 0})

	bp.Remove(2)
	assert.True(t, bp.IsOccupied(2), "occupied bit must survive a remove")
	assert.False(t, bp.IsReadable(2))

	// The tombstoned slot can be reused.
	assert.True(t, bp.Insert(2, 11, []byte{1, 0, 0, 0, 0, 0, 0, 0}))
	assert.Equal(t, int64(11), bp.KeyAt(2))
}

func TestHashTableBlockPageBitsAreIndependentPerSlot(t *testing.T) {
	bp := newTestBlockPage()
	bp.Insert(0, 1, make([]byte, 8))
	bp.Insert(1, 2, make([]byte, 8))

	bp.Remove(0)
	assert.False(t, bp.IsReadable(0))
	assert.True(t, bp.IsReadable(1), "removing one slot must not affect another")
}
