package logrecovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elidrissi/dbcore/recovery"
	"github.com/elidrissi/dbcore/storage/buffer"
	"github.com/elidrissi/dbcore/storage/disk"
	"github.com/elidrissi/dbcore/storage/page"
	"github.com/elidrissi/dbcore/storage/tuple"
	"github.com/elidrissi/dbcore/types"
)

// TestLogRecoveryRedoReappliesUnflushedInsert logs a page's creation and an
// insert into it, applies both to the page in memory, and then simulates a
// crash before the buffer pool could flush that page: the test rebuilds a
// fresh BPM over the same disk manager, so only the log (not the page)
// survives.
func TestLogRecoveryRedoReappliesUnflushedInsert(t *testing.T) {
	diskManager := disk.NewMemManager(nil)
	logManager := recovery.NewLogManager(diskManager)

	// A freshly zeroed disk page reads back with LSN 0, so start numbering
	// at 1: otherwise the record's own LSN would tie the on-disk LSN instead
	// of outrunning it, and redo's "still behind" check would never fire.
	logManager.SetNextLSN(1)

	bpm := buffer.NewPoolManager(8, diskManager, logManager)
	pg := bpm.NewPage()
	pageID := pg.GetPageId()
	tp := page.CastAsTablePage(pg)
	tp.Init(pageID, types.InvalidPageID)
	logManager.AppendLogRecord(recovery.NewNewPageRecord(1, types.InvalidLSN, types.InvalidPageID, pageID))

	rid := page.NewRID(pageID, 0)
	tup := tuple.NewTuple(rid, []byte("durable"))
	record := recovery.NewInsertDeleteRecord(1, types.InvalidLSN, recovery.Insert, rid, tup)
	lsn := logManager.AppendLogRecord(record)
	logManager.Flush()

	tp.InsertTuple([]byte("durable"))
	tp.SetLSN(lsn)
	bpm.UnpinPage(pageID, true)

	// Simulate a crash: rebuild the buffer pool (and its page table) fresh,
	// over the same disk manager, without ever flushing pageID's frame.
	freshBPM := buffer.NewPoolManager(8, diskManager, logManager)
	lr := NewLogRecovery(diskManager, freshBPM)
	greatest, redone := lr.Redo()
	assert.Equal(t, lsn, greatest)
	assert.True(t, redone)

	recovered := page.CastAsTablePage(freshBPM.FetchPage(pageID))
	data, ok := recovered.GetTuple(rid)
	assert.True(t, ok)
	assert.Equal(t, "durable", string(data))
	freshBPM.UnpinPage(pageID, false)
}

func TestLogRecoveryUndoRevertsUncommittedTxn(t *testing.T) {
	diskManager := disk.NewMemManager(nil)
	logManager := recovery.NewLogManager(diskManager)
	bpm := buffer.NewPoolManager(8, diskManager, logManager)

	pg := bpm.NewPage()
	pageID := pg.GetPageId()
	tp := page.CastAsTablePage(pg)
	tp.Init(pageID, types.InvalidPageID)
	rid, ok := tp.InsertTuple([]byte("rolled back"))
	assert.True(t, ok)

	tup := tuple.NewTuple(rid, []byte("rolled back"))
	record := recovery.NewInsertDeleteRecord(7, types.InvalidLSN, recovery.Insert, rid, tup)
	lsn := logManager.AppendLogRecord(record)
	tp.SetLSN(lsn)
	logManager.Flush()
	bpm.UnpinPage(pageID, true)

	// No COMMIT/ABORT record was ever appended for txn 7, so Undo must
	// reverse its insert.
	lr := NewLogRecovery(diskManager, bpm)
	_, _ = lr.Redo()
	undone := lr.Undo()
	assert.True(t, undone)

	reverted := page.CastAsTablePage(bpm.FetchPage(pageID))
	_, ok = reverted.GetTuple(rid)
	assert.False(t, ok, "an uncommitted insert must be undone after recovery")
	bpm.UnpinPage(pageID, false)
}
