package page

import (
	"sync/atomic"

	"github.com/elidrissi/dbcore/common"
	"github.com/elidrissi/dbcore/types"
)

const SizePageHeader = 8
const OffsetPageStart = 0

// OffsetLSN is where a page's LSN lives inside its own data bytes, rather
// than as a side field: the LSN travels with the page across writeback and
// read-back, so recovery can compare a record's LSN against the page's own
// on-disk LSN without any extra bookkeeping.
const OffsetLSN = 4

// Page is the in-memory representation of one disk page plus the pool
// bookkeeping the Buffer Pool Manager needs: pin count and dirty bit. A
// *Page is a non-owning handle into the pool's frame array, valid only
// while pinned.
type Page struct {
	id       types.PageID
	pinCount int32 // atomic
	isDirty  bool
	data     *[common.PageSize]byte
	latch    common.ReaderWriterLatch
}

func New(id types.PageID) *Page {
	return &Page{
		id:    id,
		data:  &[common.PageSize]byte{},
		latch: common.NewRWLatch(),
	}
}

func (p *Page) GetPageId() types.PageID    { return p.id }
func (p *Page) SetPageId(id types.PageID)  { p.id = id }
func (p *Page) SetPinCount(count int32)    { atomic.StoreInt32(&p.pinCount, count) }

func (p *Page) Data() *[common.PageSize]byte { return p.data }

func (p *Page) IncPinCount()    { atomic.AddInt32(&p.pinCount, 1) }
func (p *Page) DecPinCount()    { atomic.AddInt32(&p.pinCount, -1) }
func (p *Page) PinCount() int32 { return atomic.LoadInt32(&p.pinCount) }

func (p *Page) IsDirty() bool         { return p.isDirty }
func (p *Page) SetIsDirty(dirty bool) { p.isDirty = dirty }

func (p *Page) GetLSN() types.LSN {
	return types.NewLSNFromBytes(p.data[OffsetLSN : OffsetLSN+types.SizeOfLSN])
}

func (p *Page) SetLSN(lsn types.LSN) {
	copy(p.data[OffsetLSN:OffsetLSN+types.SizeOfLSN], lsn.Serialize())
}

// ResetMemory zeroes the page's data. The buffer pool does not call it: it
// builds a fresh, zeroed Page for every page it loads or creates.
func (p *Page) ResetMemory() {
	for i := range p.data {
		p.data[i] = 0
	}
}

func (p *Page) WLatch()   { p.latch.WLock() }
func (p *Page) WUnlatch() { p.latch.WUnlock() }
func (p *Page) RLatch()   { p.latch.RLock() }
func (p *Page) RUnlatch() { p.latch.RUnlock() }
