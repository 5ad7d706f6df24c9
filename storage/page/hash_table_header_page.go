package page

import (
	"encoding/binary"

	"github.com/elidrissi/dbcore/common"
	"github.com/elidrissi/dbcore/types"
)

// Header Page for the linear-probing hash table: overall bucket count and
// the ordered list of block page IDs. Laid out directly over a Page's
// bytes, unlike the plain-struct rendering this was grounded on, so that
// it actually persists through the Buffer Pool Manager like every other
// page in this core.
//
// Header format:
//
//	----------------------------------------------------------
//	| PageId (4) | NumBuckets (4) | NumBlocks (4) | BlockPageIds (4) x N
//	----------------------------------------------------------
const (
	htHeaderOffsetPageId     = 0
	htHeaderOffsetNumBuckets = 4
	htHeaderOffsetNumBlocks  = 8
	htHeaderOffsetBlockIds   = 12
)

// MaxBlockPageIds is how many block page ids fit in the remaining space
// after the fixed 12-byte header.
const MaxBlockPageIds = (common.PageSize - htHeaderOffsetBlockIds) / 4

type HashTableHeaderPage struct {
	Page
}

func CastAsHashTableHeaderPage(p *Page) *HashTableHeaderPage {
	if p == nil {
		return nil
	}
	return &HashTableHeaderPage{Page: *p}
}

func (hp *HashTableHeaderPage) AsPage() *Page { return &hp.Page }

func (hp *HashTableHeaderPage) Reset(pageId types.PageID, numBuckets uint32) {
	hp.setU32(htHeaderOffsetPageId, uint32(int32(pageId)))
	hp.setU32(htHeaderOffsetNumBuckets, numBuckets)
	hp.setU32(htHeaderOffsetNumBlocks, 0)
}

func (hp *HashTableHeaderPage) getU32(off int) uint32 {
	return binary.LittleEndian.Uint32(hp.data[off : off+4])
}

func (hp *HashTableHeaderPage) setU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(hp.data[off:off+4], v)
}

func (hp *HashTableHeaderPage) GetHeaderPageId() types.PageID {
	return types.PageID(int32(hp.getU32(htHeaderOffsetPageId)))
}

func (hp *HashTableHeaderPage) NumBuckets() uint32 {
	return hp.getU32(htHeaderOffsetNumBuckets)
}

func (hp *HashTableHeaderPage) SetNumBuckets(n uint32) {
	hp.setU32(htHeaderOffsetNumBuckets, n)
}

func (hp *HashTableHeaderPage) NumBlocks() uint32 {
	return hp.getU32(htHeaderOffsetNumBlocks)
}

func (hp *HashTableHeaderPage) GetBlockPageId(index uint32) types.PageID {
	common.Assert(index < uint32(MaxBlockPageIds), "hash header page: block index out of range: %d", index)
	return types.PageID(int32(hp.getU32(htHeaderOffsetBlockIds + int(index)*4)))
}

func (hp *HashTableHeaderPage) AddBlockPageId(pageId types.PageID) {
	n := hp.NumBlocks()
	common.Assert(n < uint32(MaxBlockPageIds), "hash header page: block page id list is full")
	hp.setU32(htHeaderOffsetBlockIds+int(n)*4, uint32(int32(pageId)))
	hp.setU32(htHeaderOffsetNumBlocks, n+1)
}
