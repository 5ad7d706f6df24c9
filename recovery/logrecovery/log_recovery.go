// Package logrecovery replays a log manager's on-disk WAL to rebuild table
// page state after a restart: a redo pass reapplies every record whose
// target page is behind its LSN, then an undo pass walks each
// still-open transaction's prev-LSN chain backward, undoing it.
package logrecovery

import (
	"github.com/elidrissi/dbcore/common"
	"github.com/elidrissi/dbcore/recovery"
	"github.com/elidrissi/dbcore/storage/buffer"
	"github.com/elidrissi/dbcore/storage/disk"
	"github.com/elidrissi/dbcore/storage/page"
	"github.com/elidrissi/dbcore/types"
)

type LogRecovery struct {
	diskManager disk.Manager
	bpm         *buffer.PoolManager

	// activeTxn tracks, per transaction, the LSN of its most recent log
	// record still unresolved by a COMMIT or ABORT.
	activeTxn map[types.TxnID]types.LSN
	// lsnMapping locates each LSN's record by its byte offset in the log
	// file, so Undo can re-read a record at random instead of rescanning.
	lsnMapping map[types.LSN]int64

	buf []byte
}

func NewLogRecovery(diskManager disk.Manager, bpm *buffer.PoolManager) *LogRecovery {
	return &LogRecovery{
		diskManager: diskManager,
		bpm:         bpm,
		activeTxn:   make(map[types.TxnID]types.LSN),
		lsnMapping:  make(map[types.LSN]int64),
		buf:         make([]byte, common.LogBufferSize),
	}
}

func (lr *LogRecovery) getTablePage(pageID types.PageID) *page.TablePage {
	return page.CastAsTablePage(lr.bpm.FetchPage(pageID))
}

// Redo scans the log file from the start, reapplying every record whose
// target page's LSN is still behind the record's own LSN. Returns the
// greatest LSN observed and whether anything was actually redone.
func (lr *LogRecovery) Redo() (types.LSN, bool) {
	greatest := types.InvalidLSN
	redone := false
	var fileOffset int64

	for {
		n, ok := lr.diskManager.ReadLog(lr.buf, fileOffset)
		if !ok || n < recovery.HeaderSize {
			break
		}

		var bufOffset uint32
		for {
			record, ok := recovery.DeserializeHeader(lr.buf[bufOffset:uint32(n)])
			if !ok {
				break
			}
			if int(bufOffset)+int(record.Size) > n {
				break
			}
			record.DeserializeBody(lr.buf[bufOffset+recovery.HeaderSize : bufOffset+record.Size])

			if record.LSN > greatest {
				greatest = record.LSN
			}
			lr.activeTxn[record.TxnID] = record.LSN
			lr.lsnMapping[record.LSN] = fileOffset + int64(bufOffset)

			if lr.applyRedo(record) {
				redone = true
			}

			bufOffset += record.Size
		}
		if bufOffset == 0 {
			break
		}
		fileOffset += int64(bufOffset)
	}
	return greatest, redone
}

func (lr *LogRecovery) applyRedo(record *recovery.LogRecord) bool {
	switch record.Type {
	case recovery.Insert:
		tp := lr.getTablePage(record.RID.GetPageId())
		applied := false
		if tp.GetLSN() < record.LSN {
			tp.InsertTupleAt(record.RID, record.Tuple.Data())
			tp.SetLSN(record.LSN)
			applied = true
		}
		lr.bpm.UnpinPage(record.RID.GetPageId(), true)
		return applied

	case recovery.ApplyDelete:
		tp := lr.getTablePage(record.RID.GetPageId())
		applied := false
		if tp.GetLSN() < record.LSN {
			tp.ApplyDelete(record.RID)
			tp.SetLSN(record.LSN)
			applied = true
		}
		lr.bpm.UnpinPage(record.RID.GetPageId(), true)
		return applied

	case recovery.MarkDelete:
		tp := lr.getTablePage(record.RID.GetPageId())
		applied := false
		if tp.GetLSN() < record.LSN {
			tp.MarkDelete(record.RID)
			tp.SetLSN(record.LSN)
			applied = true
		}
		lr.bpm.UnpinPage(record.RID.GetPageId(), true)
		return applied

	case recovery.RollbackDelete:
		tp := lr.getTablePage(record.RID.GetPageId())
		applied := false
		if tp.GetLSN() < record.LSN {
			tp.RollbackDelete(record.RID)
			tp.SetLSN(record.LSN)
			applied = true
		}
		lr.bpm.UnpinPage(record.RID.GetPageId(), true)
		return applied

	case recovery.Update:
		tp := lr.getTablePage(record.RID.GetPageId())
		applied := false
		if tp.GetLSN() < record.LSN {
			tp.UpdateTuple(record.RID, record.NewTuple.Data())
			tp.SetLSN(record.LSN)
			applied = true
		}
		lr.bpm.UnpinPage(record.RID.GetPageId(), true)
		return applied

	case recovery.Begin:
		lr.activeTxn[record.TxnID] = record.LSN
		return false

	case recovery.Commit, recovery.Abort:
		delete(lr.activeTxn, record.TxnID)
		return false

	case recovery.NewPage:
		tp := lr.getTablePage(record.PageID)
		applied := false
		if tp.GetLSN() < record.LSN {
			tp.Init(record.PageID, record.PrevPageID)
			tp.SetLSN(record.LSN)
			applied = true

			if record.PrevPageID.IsValid() {
				prev := lr.getTablePage(record.PrevPageID)
				if prev.GetNextPageId() != record.PageID {
					prev.SetNextPageId(record.PageID)
					lr.bpm.UnpinPage(record.PrevPageID, true)
				} else {
					lr.bpm.UnpinPage(record.PrevPageID, false)
				}
			}
		}
		lr.bpm.UnpinPage(record.PageID, applied)
		return applied
	}
	return false
}

// Undo walks every transaction still open after Redo (one with no matching
// COMMIT/ABORT) backward along its prev-LSN chain, reversing each
// operation. Returns whether anything was actually undone.
func (lr *LogRecovery) Undo() bool {
	undone := false
	for _, startLSN := range lr.activeTxn {
		lsn := startLSN
		for lsn != types.InvalidLSN {
			offset, ok := lr.lsnMapping[lsn]
			if !ok {
				break
			}
			n, ok := lr.diskManager.ReadLog(lr.buf, offset)
			if !ok {
				break
			}
			record, ok := recovery.DeserializeHeader(lr.buf[:n])
			if !ok {
				break
			}
			record.DeserializeBody(lr.buf[recovery.HeaderSize:n])

			if lr.applyUndo(record) {
				undone = true
			}
			lsn = record.PrevLSN
		}
	}
	return undone
}

func (lr *LogRecovery) applyUndo(record *recovery.LogRecord) bool {
	switch record.Type {
	case recovery.Insert:
		tp := lr.getTablePage(record.RID.GetPageId())
		tp.ApplyDelete(record.RID)
		lr.bpm.UnpinPage(record.RID.GetPageId(), true)
		return true

	case recovery.ApplyDelete:
		tp := lr.getTablePage(record.RID.GetPageId())
		tp.InsertTupleAt(record.RID, record.Tuple.Data())
		lr.bpm.UnpinPage(record.RID.GetPageId(), true)
		return true

	case recovery.MarkDelete:
		tp := lr.getTablePage(record.RID.GetPageId())
		tp.RollbackDelete(record.RID)
		lr.bpm.UnpinPage(record.RID.GetPageId(), true)
		return true

	case recovery.RollbackDelete:
		tp := lr.getTablePage(record.RID.GetPageId())
		tp.MarkDelete(record.RID)
		lr.bpm.UnpinPage(record.RID.GetPageId(), true)
		return true

	case recovery.Update:
		tp := lr.getTablePage(record.RID.GetPageId())
		tp.UpdateTuple(record.RID, record.OldTuple.Data())
		lr.bpm.UnpinPage(record.RID.GetPageId(), true)
		return true
	}
	return false
}
