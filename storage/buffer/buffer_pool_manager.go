package buffer

import (
	"sync"

	"github.com/ncw/directio"

	"github.com/elidrissi/dbcore/common"
	"github.com/elidrissi/dbcore/recovery"
	"github.com/elidrissi/dbcore/storage/disk"
	"github.com/elidrissi/dbcore/storage/page"
	"github.com/elidrissi/dbcore/types"
)

// PoolManager caches disk pages in a fixed-size array of frames, handing
// out pinned pages to callers and reclaiming unpinned ones through a
// ClockReplacer when the pool is full. Every eviction honors the
// write-ahead-log rule: a dirty page whose LSN is newer than the log
// manager's persistent LSN forces a log flush before the page itself is
// written back.
type PoolManager struct {
	mu sync.Mutex

	diskManager disk.Manager
	logManager  *recovery.LogManager

	pages     []*page.Page
	replacer  *ClockReplacer
	freeList  []types.FrameID
	pageTable map[types.PageID]types.FrameID
}

func NewPoolManager(poolSize int, diskManager disk.Manager, logManager *recovery.LogManager) *PoolManager {
	freeList := make([]types.FrameID, poolSize)
	for i := 0; i < poolSize; i++ {
		freeList[i] = types.FrameID(i)
	}
	return &PoolManager{
		diskManager: diskManager,
		logManager:  logManager,
		pages:       make([]*page.Page, poolSize),
		replacer:    NewClockReplacer(poolSize),
		freeList:    freeList,
		pageTable:   make(map[types.PageID]types.FrameID),
	}
}

func (b *PoolManager) PoolSize() int { return len(b.pages) }

// FetchPage returns the requested page, pinned, reading it from disk into a
// free or victim frame if it isn't already cached.
func (b *PoolManager) FetchPage(pageID types.PageID) *page.Page {
	b.mu.Lock()
	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		pg.IncPinCount()
		b.replacer.Pin(frameID)
		b.mu.Unlock()
		return pg
	}

	frameID, ok := b.getFrameLocked()
	if !ok {
		b.mu.Unlock()
		return nil
	}

	buf := directio.AlignedBlock(common.PageSize)
	if err := b.diskManager.ReadPage(pageID, buf); err != nil {
		b.freeList = append(b.freeList, frameID)
		b.mu.Unlock()
		return nil
	}

	pg := page.New(pageID)
	copy(pg.Data()[:], buf)
	pg.SetPinCount(1)
	b.pageTable[pageID] = frameID
	b.pages[frameID] = pg
	b.mu.Unlock()
	return pg
}

// UnpinPage releases one pin on pageID. isDirty ORs into the page's dirty
// bit — a page once marked dirty stays dirty until it is actually flushed.
func (b *PoolManager) UnpinPage(pageID types.PageID, isDirty bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return false
	}
	pg := b.pages[frameID]
	if pg.PinCount() <= 0 {
		return false
	}
	pg.DecPinCount()
	if isDirty {
		pg.SetIsDirty(true)
	}
	if pg.PinCount() == 0 {
		b.replacer.Unpin(frameID)
	}
	return true
}

// NewPage allocates a fresh page id and gives the caller a pinned, zeroed
// page for it.
func (b *PoolManager) NewPage() *page.Page {
	b.mu.Lock()
	frameID, ok := b.getFrameLocked()
	if !ok {
		b.mu.Unlock()
		return nil
	}

	pageID := b.diskManager.AllocatePage()
	pg := page.New(pageID)
	pg.SetPinCount(1)
	b.pageTable[pageID] = frameID
	b.pages[frameID] = pg
	b.mu.Unlock()
	return pg
}

// DeletePage drops pageID from the pool (if present and unpinned) without
// writing it back, and calls the disk manager's DeallocatePage for it.
func (b *PoolManager) DeletePage(pageID types.PageID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		b.diskManager.DeallocatePage(pageID)
		return true
	}
	pg := b.pages[frameID]
	if pg.PinCount() > 0 {
		return false
	}
	b.replacer.Pin(frameID)
	delete(b.pageTable, pageID)
	b.pages[frameID] = nil
	b.freeList = append(b.freeList, frameID)
	b.diskManager.DeallocatePage(pageID)
	return true
}

// FlushPage writes pageID's current bytes to disk unconditionally,
// regardless of its LSN relative to the log's persistent LSN — the caller
// is explicitly asking for durability now (e.g. checkpoint, shutdown).
func (b *PoolManager) FlushPage(pageID types.PageID) bool {
	b.mu.Lock()
	frameID, ok := b.pageTable[pageID]
	if !ok {
		b.mu.Unlock()
		return false
	}
	pg := b.pages[frameID]
	b.mu.Unlock()

	pg.WLatch()
	defer pg.WUnlatch()
	if err := b.diskManager.WritePage(pageID, pg.Data()[:]); err != nil {
		return false
	}
	pg.SetIsDirty(false)
	return true
}

// FlushAllPages flushes every page currently resident in the pool.
func (b *PoolManager) FlushAllPages() {
	b.mu.Lock()
	ids := make([]types.PageID, 0, len(b.pageTable))
	for id := range b.pageTable {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		b.FlushPage(id)
	}
}

// getFrameLocked returns a frame to place a page into, preferring the free
// list over victimizing a cached page. Caller must hold b.mu.
func (b *PoolManager) getFrameLocked() (types.FrameID, bool) {
	if len(b.freeList) > 0 {
		frameID := b.freeList[0]
		b.freeList = b.freeList[1:]
		return frameID, true
	}
	return b.getVictimFrameLocked()
}

// getVictimFrameLocked asks the replacer for an evictable frame and
// prepares it for reuse: a dirty victim whose LSN outran the log's
// persistent LSN forces the log to flush first, so the WAL record for that
// page's last write reaches disk strictly before the page's own bytes do.
func (b *PoolManager) getVictimFrameLocked() (types.FrameID, bool) {
	frameID, ok := b.replacer.Victim()
	if !ok {
		return 0, false
	}

	victim := b.pages[frameID]
	if victim != nil {
		if victim.IsDirty() {
			if b.logManager != nil && victim.GetLSN() > b.logManager.GetPersistentLSN() {
				b.logManager.Flush()
			}
			victim.WLatch()
			data := victim.Data()
			b.diskManager.WritePage(victim.GetPageId(), data[:])
			victim.WUnlatch()
		}
		delete(b.pageTable, victim.GetPageId())
		b.pages[frameID] = nil
	}
	return frameID, true
}
