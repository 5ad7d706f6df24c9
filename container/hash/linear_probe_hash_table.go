// Package hash implements a disk-backed linear-probing hash index: a
// header page listing block pages, each block page a fixed-capacity array
// of (key, value) slots probed linearly on collision.
package hash

import (
	"github.com/spaolacci/murmur3"

	"github.com/elidrissi/dbcore/common"
	"github.com/elidrissi/dbcore/storage/buffer"
	"github.com/elidrissi/dbcore/storage/page"
	"github.com/elidrissi/dbcore/types"
)

// BlockArraySize mirrors page.BlockArraySize: how many slots live on one
// block page.
const BlockArraySize = page.BlockArraySize

// LinearProbeHashTable maps int64 keys to row locations (RIDs). Duplicate
// keys are allowed; duplicate (key, value) pairs are not.
type LinearProbeHashTable struct {
	headerPageID types.PageID
	bpm          *buffer.PoolManager
	latch        common.ReaderWriterLatch
}

// NewLinearProbeHashTable creates a fresh table with numBuckets block
// pages, or reopens an existing one if headerPageID is valid.
func NewLinearProbeHashTable(bpm *buffer.PoolManager, numBuckets int, headerPageID types.PageID) *LinearProbeHashTable {
	if headerPageID != types.InvalidPageID {
		header := bpm.FetchPage(headerPageID)
		bpm.UnpinPage(header.GetPageId(), false)
		return &LinearProbeHashTable{headerPageID: header.GetPageId(), bpm: bpm, latch: common.NewRWLatch()}
	}

	headerRaw := bpm.NewPage()
	common.Assert(headerRaw != nil, "hash table: could not allocate header page")
	header := page.CastAsHashTableHeaderPage(headerRaw)
	header.Reset(headerRaw.GetPageId(), uint32(numBuckets))

	for i := 0; i < numBuckets; i++ {
		blockRaw := bpm.NewPage()
		common.Assert(blockRaw != nil, "hash table: could not allocate block page")
		header.AddBlockPageId(blockRaw.GetPageId())
		bpm.UnpinPage(blockRaw.GetPageId(), true)
	}
	bpm.UnpinPage(header.GetPageId(), true)

	return &LinearProbeHashTable{headerPageID: header.GetPageId(), bpm: bpm, latch: common.NewRWLatch()}
}

func (ht *LinearProbeHashTable) GetHeaderPageId() types.PageID { return ht.headerPageID }

func (ht *LinearProbeHashTable) hash(key int64) uint64 {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(key >> (8 * i))
	}
	h := murmur3.New64()
	h.Write(buf)
	return h.Sum64()
}

// index returns (slotIndex, blockIndex, bucketIndex) for key, matching the
// layout where slot = blockIndex*BlockArraySize + bucketIndex.
func (ht *LinearProbeHashTable) index(key int64, numBlocks uint32) (slot, blockIndex, bucketIndex int) {
	slot = int(ht.hash(key) % uint64(numBlocks*uint32(BlockArraySize)))
	blockIndex = slot / BlockArraySize
	bucketIndex = slot % BlockArraySize
	return
}

// step advances (blockIndex, bucketIndex) by one slot, wrapping within the
// current block page and rolling over to the next block page (mod
// numBlocks) at the block boundary.
func (ht *LinearProbeHashTable) step(blockIndex, bucketIndex int, numBlocks uint32) (int, int) {
	bucketIndex++
	if bucketIndex == BlockArraySize {
		bucketIndex = 0
		blockIndex = (blockIndex + 1) % int(numBlocks)
	}
	return blockIndex, bucketIndex
}

// Lookup returns every RID stored under key.
func (ht *LinearProbeHashTable) Lookup(key int64) []page.RID {
	ht.latch.RLock()
	defer ht.latch.RUnlock()

	headerRaw := ht.bpm.FetchPage(ht.headerPageID)
	header := page.CastAsHashTableHeaderPage(headerRaw)
	numBlocks := header.NumBlocks()

	slotIndex, blockIndex, bucketIndex := ht.index(key, numBlocks)

	blockRaw := ht.bpm.FetchPage(header.GetBlockPageId(uint32(blockIndex)))
	block := page.CastAsHashTableBlockPage(blockRaw)

	var results []page.RID
	for block.IsOccupied(bucketIndex) {
		if block.IsReadable(bucketIndex) && block.KeyAt(bucketIndex) == key {
			results = append(results, page.NewRIDFromBytes(block.ValueAt(bucketIndex)))
		}
		prevBlockIndex := blockIndex
		blockIndex, bucketIndex = ht.step(blockIndex, bucketIndex, numBlocks)
		if blockIndex != prevBlockIndex {
			ht.bpm.UnpinPage(blockRaw.GetPageId(), false)
			blockRaw = ht.bpm.FetchPage(header.GetBlockPageId(uint32(blockIndex)))
			block = page.CastAsHashTableBlockPage(blockRaw)
		}
		if blockIndex*BlockArraySize+bucketIndex == slotIndex {
			break
		}
	}

	ht.bpm.UnpinPage(blockRaw.GetPageId(), false)
	ht.bpm.UnpinPage(headerRaw.GetPageId(), false)
	return results
}

// Insert adds (key, value). Fails only if the exact pair already exists.
func (ht *LinearProbeHashTable) Insert(key int64, value page.RID) bool {
	ht.latch.WLock()
	headerRaw := ht.bpm.FetchPage(ht.headerPageID)
	header := page.CastAsHashTableHeaderPage(headerRaw)
	numBlocks := header.NumBlocks()

	slotIndex, blockIndex, bucketIndex := ht.index(key, numBlocks)
	blockRaw := ht.bpm.FetchPage(header.GetBlockPageId(uint32(blockIndex)))
	block := page.CastAsHashTableBlockPage(blockRaw)

	valueBytes := value.Serialize()
	success := true
	for !block.Insert(bucketIndex, key, valueBytes) {
		if block.IsOccupied(bucketIndex) && block.KeyAt(bucketIndex) == key &&
			string(block.ValueAt(bucketIndex)) == string(valueBytes) {
			success = false
			break
		}
		prevBlockIndex := blockIndex
		blockIndex, bucketIndex = ht.step(blockIndex, bucketIndex, numBlocks)
		if blockIndex != prevBlockIndex {
			ht.bpm.UnpinPage(blockRaw.GetPageId(), false)
			blockRaw = ht.bpm.FetchPage(header.GetBlockPageId(uint32(blockIndex)))
			block = page.CastAsHashTableBlockPage(blockRaw)
		}
		if blockIndex*BlockArraySize+bucketIndex == slotIndex {
			ht.bpm.UnpinPage(blockRaw.GetPageId(), false)
			ht.bpm.UnpinPage(headerRaw.GetPageId(), false)
			ht.latch.WUnlock()

			ht.Resize(int(numBlocks) * BlockArraySize)

			ht.latch.WLock()
			headerRaw = ht.bpm.FetchPage(ht.headerPageID)
			header = page.CastAsHashTableHeaderPage(headerRaw)
			numBlocks = header.NumBlocks()
			slotIndex, blockIndex, bucketIndex = ht.index(key, numBlocks)
			blockRaw = ht.bpm.FetchPage(header.GetBlockPageId(uint32(blockIndex)))
			block = page.CastAsHashTableBlockPage(blockRaw)
		}
	}

	ht.bpm.UnpinPage(blockRaw.GetPageId(), success)
	ht.bpm.UnpinPage(headerRaw.GetPageId(), false)
	ht.latch.WUnlock()
	return success
}

// Remove deletes (key, value) if present, returning whether it was found.
func (ht *LinearProbeHashTable) Remove(key int64, value page.RID) bool {
	ht.latch.WLock()
	defer ht.latch.WUnlock()

	headerRaw := ht.bpm.FetchPage(ht.headerPageID)
	header := page.CastAsHashTableHeaderPage(headerRaw)
	numBlocks := header.NumBlocks()

	slotIndex, blockIndex, bucketIndex := ht.index(key, numBlocks)
	blockRaw := ht.bpm.FetchPage(header.GetBlockPageId(uint32(blockIndex)))
	block := page.CastAsHashTableBlockPage(blockRaw)

	valueBytes := value.Serialize()
	success := false
	for block.IsOccupied(bucketIndex) {
		if block.KeyAt(bucketIndex) == key && string(block.ValueAt(bucketIndex)) == string(valueBytes) {
			if block.IsReadable(bucketIndex) {
				block.Remove(bucketIndex)
				success = true
			}
			break
		}
		prevBlockIndex := blockIndex
		blockIndex, bucketIndex = ht.step(blockIndex, bucketIndex, numBlocks)
		if blockIndex != prevBlockIndex {
			ht.bpm.UnpinPage(blockRaw.GetPageId(), false)
			blockRaw = ht.bpm.FetchPage(header.GetBlockPageId(uint32(blockIndex)))
			block = page.CastAsHashTableBlockPage(blockRaw)
		}
		if blockIndex*BlockArraySize+bucketIndex == slotIndex {
			break
		}
	}

	ht.bpm.UnpinPage(blockRaw.GetPageId(), success)
	ht.bpm.UnpinPage(headerRaw.GetPageId(), false)
	return success
}

// Resize doubles the table's bucket capacity (to at least initialSize*2
// slots), rehashing every live entry into a fresh set of block pages and
// discarding the old ones. Called automatically by Insert when a probe
// wraps all the way around, but exposed for callers who want to
// preemptively grow before a large bulk load.
func (ht *LinearProbeHashTable) Resize(initialSize int) {
	ht.latch.WLock()

	oldHeaderRaw := ht.bpm.FetchPage(ht.headerPageID)
	oldHeader := page.CastAsHashTableHeaderPage(oldHeaderRaw)
	oldNumBlocks := oldHeader.NumBlocks()
	oldHeaderID := oldHeaderRaw.GetPageId()

	newNumBuckets := (2*initialSize + BlockArraySize - 1) / BlockArraySize
	if newNumBuckets < 1 {
		newNumBuckets = 1
	}

	newHeaderRaw := ht.bpm.NewPage()
	newHeader := page.CastAsHashTableHeaderPage(newHeaderRaw)
	newHeader.Reset(newHeaderRaw.GetPageId(), uint32(newNumBuckets))
	for i := 0; i < newNumBuckets; i++ {
		blockRaw := ht.bpm.NewPage()
		newHeader.AddBlockPageId(blockRaw.GetPageId())
		ht.bpm.UnpinPage(blockRaw.GetPageId(), true)
	}
	ht.headerPageID = newHeaderRaw.GetPageId()

	type pair struct {
		key   int64
		value []byte
	}
	var live []pair
	for bi := uint32(0); bi < oldNumBlocks; bi++ {
		blockRaw := ht.bpm.FetchPage(oldHeader.GetBlockPageId(bi))
		block := page.CastAsHashTableBlockPage(blockRaw)
		for slot := 0; slot < BlockArraySize; slot++ {
			if block.IsReadable(slot) {
				live = append(live, pair{key: block.KeyAt(slot), value: block.ValueAt(slot)})
			}
		}
		ht.bpm.UnpinPage(blockRaw.GetPageId(), false)
		ht.bpm.DeletePage(blockRaw.GetPageId())
	}

	ht.bpm.UnpinPage(newHeaderRaw.GetPageId(), true)
	ht.bpm.UnpinPage(oldHeaderRaw.GetPageId(), false)
	ht.bpm.DeletePage(oldHeaderID)
	ht.latch.WUnlock()

	for _, p := range live {
		ht.Insert(p.key, page.NewRIDFromBytes(p.value))
	}
}
