package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elidrissi/dbcore/recovery"
	"github.com/elidrissi/dbcore/storage/buffer"
	"github.com/elidrissi/dbcore/storage/disk"
	"github.com/elidrissi/dbcore/storage/page"
	"github.com/elidrissi/dbcore/types"
)

func newTestBPM() *buffer.PoolManager {
	diskManager := disk.NewMemManager(nil)
	logManager := recovery.NewLogManager(diskManager)
	return buffer.NewPoolManager(64, diskManager, logManager)
}

func TestLinearProbeHashTableInsertLookupRemove(t *testing.T) {
	bpm := newTestBPM()
	ht := NewLinearProbeHashTable(bpm, 2, types.InvalidPageID)

	rid1 := page.NewRID(1, 0)
	rid2 := page.NewRID(1, 1)

	assert.True(t, ht.Insert(42, rid1))
	assert.True(t, ht.Insert(42, rid2))
	assert.False(t, ht.Insert(42, rid1), "duplicate (key, value) pairs must be rejected")

	results := ht.Lookup(42)
	assert.Len(t, results, 2)
	assert.Contains(t, results, rid1)
	assert.Contains(t, results, rid2)

	assert.Empty(t, ht.Lookup(7), "an absent key must return no results")

	assert.True(t, ht.Remove(42, rid1))
	results = ht.Lookup(42)
	assert.Len(t, results, 1)
	assert.Equal(t, rid2, results[0])

	assert.False(t, ht.Remove(42, rid1), "removing an already-removed pair must fail")
}

func TestLinearProbeHashTableResizesOnOverflow(t *testing.T) {
	bpm := newTestBPM()
	ht := NewLinearProbeHashTable(bpm, 1, types.InvalidPageID)

	// Insert enough distinct keys to force at least one resize; every one
	// must still be findable afterward.
	n := int64(BlockArraySize + 50)
	for i := int64(0); i < n; i++ {
		rid := page.NewRID(types.PageID(i), 0)
		assert.True(t, ht.Insert(i, rid))
	}
	for i := int64(0); i < n; i++ {
		results := ht.Lookup(i)
		assert.Len(t, results, 1, "key %d should resolve to exactly one RID after resize", i)
	}
}
