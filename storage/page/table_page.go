package page

import (
	"encoding/binary"

	"github.com/elidrissi/dbcore/common"
	"github.com/elidrissi/dbcore/types"
)

// Slotted page format:
//
//	---------------------------------------------------------
//	| HEADER | ... FREE SPACE ... | ... INSERTED TUPLES ... |
//	---------------------------------------------------------
//	                              ^
//	                              free space pointer
//	Header format (size in bytes):
//	----------------------------------------------------------------------------
//	| PageId (4)| LSN (4)| PrevPageId (4)| NextPageId (4)| FreeSpacePointer(4) |
//	----------------------------------------------------------------------------
//	----------------------------------------------------------------
//	| TupleCount (4) | slot_0 offset (4) | slot_0 size (4) | ... |
//	----------------------------------------------------------------
//
// This is the page-level API that Log Recovery's redo/undo passes apply
// their operations against, with no transaction or lock manager parameter:
// recovery replay is single-threaded, so nothing here needs to coordinate
// with concurrent writers.
type TablePage struct {
	Page
}

const deleteMask = uint32(1 << 31)

const sizeTablePageHeader = 24
const sizeSlotEntry = 8

const offsetPrevPageId = 8
const offsetNextPageId = 12
const offsetFreeSpace = 16
const offsetTupleCount = 20
const offsetSlotDirectory = sizeTablePageHeader

func CastAsTablePage(p *Page) *TablePage {
	if p == nil {
		return nil
	}
	return &TablePage{Page: *p}
}

func (tp *TablePage) AsPage() *Page { return &tp.Page }

// Init resets the page header: installs the page id, previous-page link,
// an invalid next-page link, zero tuples, and a free space pointer at the
// end of the page.
func (tp *TablePage) Init(pageId types.PageID, prevPageId types.PageID) {
	copy(tp.data[0:4], pageId.Serialize())
	tp.setU32(offsetPrevPageId, uint32(int32(prevPageId)))
	invalidPageId := int32(types.InvalidPageID)
	tp.setU32(offsetNextPageId, uint32(invalidPageId))
	tp.SetTupleCount(0)
	tp.SetFreeSpacePointer(common.PageSize)
}

func (tp *TablePage) setU32(offset int, v uint32) {
	binary.LittleEndian.PutUint32(tp.data[offset:offset+4], v)
}

func (tp *TablePage) getU32(offset int) uint32 {
	return binary.LittleEndian.Uint32(tp.data[offset : offset+4])
}

func (tp *TablePage) GetPrevPageId() types.PageID {
	return types.PageID(int32(tp.getU32(offsetPrevPageId)))
}

func (tp *TablePage) SetPrevPageId(id types.PageID) {
	tp.setU32(offsetPrevPageId, uint32(int32(id)))
}

func (tp *TablePage) GetNextPageId() types.PageID {
	return types.PageID(int32(tp.getU32(offsetNextPageId)))
}

func (tp *TablePage) SetNextPageId(id types.PageID) {
	tp.setU32(offsetNextPageId, uint32(int32(id)))
}

func (tp *TablePage) GetFreeSpacePointer() int {
	return int(tp.getU32(offsetFreeSpace))
}

func (tp *TablePage) SetFreeSpacePointer(fsp int) {
	common.Assert(fsp >= 0 && fsp <= common.PageSize, "table page: free space pointer out of range: %d", fsp)
	tp.setU32(offsetFreeSpace, uint32(fsp))
}

func (tp *TablePage) GetTupleCount() int {
	return int(tp.getU32(offsetTupleCount))
}

func (tp *TablePage) SetTupleCount(n int) {
	tp.setU32(offsetTupleCount, uint32(n))
}

func (tp *TablePage) slotOffsetOffset(slot int) int { return offsetSlotDirectory + sizeSlotEntry*slot }
func (tp *TablePage) slotSizeOffset(slot int) int   { return offsetSlotDirectory + sizeSlotEntry*slot + 4 }

func (tp *TablePage) getTupleOffset(slot int) int { return int(tp.getU32(tp.slotOffsetOffset(slot))) }
func (tp *TablePage) setTupleOffset(slot, off int) { tp.setU32(tp.slotOffsetOffset(slot), uint32(off)) }

// GetTupleSize returns the stored slot size, with the deleted-flag high bit
// still set if the slot is a tombstone; use IsDeleted/rawTupleSize to
// interpret it.
func (tp *TablePage) GetTupleSize(slot int) uint32 { return tp.getU32(tp.slotSizeOffset(slot)) }
func (tp *TablePage) setTupleSizeRaw(slot int, size uint32) {
	tp.setU32(tp.slotSizeOffset(slot), size)
}

func IsDeleted(size uint32) bool { return size&deleteMask != 0 }
func setDeletedFlag(size uint32) uint32   { return size | deleteMask }
func clearDeletedFlag(size uint32) uint32 { return size &^ deleteMask }

func (tp *TablePage) freeSpaceRemaining() int {
	return tp.GetFreeSpacePointer() - sizeTablePageHeader - sizeSlotEntry*tp.GetTupleCount()
}

// InsertTuple appends data as a new tuple and returns its RID. Used for the
// ordinary forward insert path; recovery places tuples with InsertTupleAt.
func (tp *TablePage) InsertTuple(data []byte) (RID, bool) {
	size := len(data)
	if size <= 0 {
		return RID{}, false
	}
	if tp.freeSpaceRemaining() < size+sizeSlotEntry {
		return RID{}, false
	}

	slot := tp.GetTupleCount()
	rid := NewRID(tp.GetPageId(), uint32(slot))
	tp.placeTuple(slot, data)
	tp.SetTupleCount(slot + 1)
	return rid, true
}

// InsertTupleAt places data at an exact, previously recorded RID slot — the
// shape redo needs, since the log record already names the slot the
// original insert landed on.
func (tp *TablePage) InsertTupleAt(rid RID, data []byte) bool {
	size := len(data)
	if size <= 0 {
		return false
	}
	slot := int(rid.GetSlot())
	if tp.freeSpaceRemaining() < size+sizeSlotEntry {
		return false
	}
	tp.placeTuple(slot, data)
	if slot >= tp.GetTupleCount() {
		tp.SetTupleCount(slot + 1)
	}
	return true
}

func (tp *TablePage) placeTuple(slot int, data []byte) {
	fsp := tp.GetFreeSpacePointer() - len(data)
	copy(tp.data[fsp:fsp+len(data)], data)
	tp.SetFreeSpacePointer(fsp)
	tp.setTupleOffset(slot, fsp)
	tp.setTupleSizeRaw(slot, uint32(len(data)))
}

// GetTuple returns the live bytes at rid, or ok=false if the slot is empty,
// out of range, or tombstoned.
func (tp *TablePage) GetTuple(rid RID) ([]byte, bool) {
	slot := int(rid.GetSlot())
	if slot >= tp.GetTupleCount() {
		return nil, false
	}
	size := tp.GetTupleSize(slot)
	if size == 0 || IsDeleted(size) {
		return nil, false
	}
	off := tp.getTupleOffset(slot)
	out := make([]byte, size)
	copy(out, tp.data[off:off+int(size)])
	return out, true
}

// UpdateTuple replaces the bytes at rid with newData, returning the bytes
// that were there before. Other tuples' slot offsets are shifted to keep
// the backward-growing tuple region contiguous.
func (tp *TablePage) UpdateTuple(rid RID, newData []byte) ([]byte, bool) {
	slot := int(rid.GetSlot())
	if slot >= tp.GetTupleCount() {
		return nil, false
	}
	size := int(tp.GetTupleSize(slot))
	if size == 0 || IsDeleted(uint32(size)) {
		return nil, false
	}
	off := tp.getTupleOffset(slot)
	old := make([]byte, size)
	copy(old, tp.data[off:off+size])

	newSize := len(newData)
	if tp.freeSpaceRemaining()+size < newSize {
		return old, false
	}

	fsp := tp.GetFreeSpacePointer()
	delta := size - newSize
	// shift the region between the free-space pointer and this tuple's
	// offset by delta, so the tuple area stays contiguous after resizing.
	copy(tp.data[fsp+delta:off+delta], tp.data[fsp:off])
	tp.SetFreeSpacePointer(fsp + delta)
	copy(tp.data[off+delta:off+delta+newSize], newData)
	tp.setTupleOffset(slot, off+delta)
	tp.setTupleSizeRaw(slot, uint32(newSize))

	count := tp.GetTupleCount()
	for i := 0; i < count; i++ {
		if i == slot {
			continue
		}
		sz := tp.GetTupleSize(i)
		if sz == 0 {
			continue
		}
		o := tp.getTupleOffset(i)
		if o < off {
			tp.setTupleOffset(i, o+delta)
		}
	}
	return old, true
}

// MarkDelete flags the slot as a tombstone without moving any bytes, so a
// later RollbackDelete can restore it exactly.
func (tp *TablePage) MarkDelete(rid RID) bool {
	slot := int(rid.GetSlot())
	if slot >= tp.GetTupleCount() {
		return false
	}
	size := tp.GetTupleSize(slot)
	if size == 0 || IsDeleted(size) {
		return false
	}
	tp.setTupleSizeRaw(slot, setDeletedFlag(size))
	return true
}

// RollbackDelete clears a tombstone flag set by MarkDelete.
func (tp *TablePage) RollbackDelete(rid RID) bool {
	slot := int(rid.GetSlot())
	if slot >= tp.GetTupleCount() {
		return false
	}
	size := tp.GetTupleSize(slot)
	if !IsDeleted(size) {
		return false
	}
	tp.setTupleSizeRaw(slot, clearDeletedFlag(size))
	return true
}

// ApplyDelete commits a MarkDelete (or undoes an INSERT): the slot's bytes
// are reclaimed and its directory entry zeroed. Returns the tuple bytes
// that were freed, for the caller's own undo bookkeeping.
func (tp *TablePage) ApplyDelete(rid RID) ([]byte, bool) {
	slot := int(rid.GetSlot())
	if slot >= tp.GetTupleCount() {
		return nil, false
	}
	size := tp.GetTupleSize(slot)
	size = clearDeletedFlag(size)
	if size == 0 {
		return nil, false
	}
	off := tp.getTupleOffset(slot)
	out := make([]byte, size)
	copy(out, tp.data[off:off+int(size)])

	fsp := tp.GetFreeSpacePointer()
	// Close the gap: every tuple packed below off (closer to the free-space
	// boundary) shifts up by size so the tuple region stays contiguous.
	copy(tp.data[fsp+int(size):off+int(size)], tp.data[fsp:off])
	tp.SetFreeSpacePointer(fsp + int(size))
	tp.setTupleSizeRaw(slot, 0)
	tp.setTupleOffset(slot, 0)

	count := tp.GetTupleCount()
	for i := 0; i < count; i++ {
		sz := tp.GetTupleSize(i)
		if sz == 0 {
			continue
		}
		o := tp.getTupleOffset(i)
		if o < off {
			tp.setTupleOffset(i, o+int(size))
		}
	}
	return out, true
}
