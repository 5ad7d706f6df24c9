package recovery

import (
	"encoding/binary"

	"github.com/elidrissi/dbcore/storage/page"
	"github.com/elidrissi/dbcore/storage/tuple"
	"github.com/elidrissi/dbcore/types"
)

// HeaderSize is the fixed prefix every log record carries: size, LSN, txn
// id, prev LSN, record type, each a 4-byte little-endian field.
const HeaderSize = 20

type LogRecordType int32

const (
	Invalid LogRecordType = iota
	Begin
	Commit
	Abort
	Insert
	MarkDelete
	ApplyDelete
	RollbackDelete
	Update
	NewPage
)

// LogRecord is a single WAL entry. Header fields are always populated;
// exactly one of the per-type payload groups below is meaningful, selected
// by Type.
//
//	Header: | Size(4) | LSN(4) | TxnID(4) | PrevLSN(4) | Type(4) |
//
//	Insert:                  | RID(8) | tuple (length-prefixed) |
//	MarkDelete/ApplyDelete/
//	RollbackDelete:          | RID(8) | tuple (length-prefixed) |
//	Update:                  | RID(8) | old tuple | new tuple   |
//	NewPage:                 | PrevPageID(4) | PageID(4)        |
type LogRecord struct {
	Size    uint32
	LSN     types.LSN
	TxnID   types.TxnID
	PrevLSN types.LSN
	Type    LogRecordType

	RID      page.RID
	Tuple    tuple.Tuple
	OldTuple tuple.Tuple
	NewTuple tuple.Tuple

	PrevPageID types.PageID
	PageID     types.PageID
}

func NewTxnRecord(txnID types.TxnID, prevLSN types.LSN, recordType LogRecordType) *LogRecord {
	return &LogRecord{
		Size:    HeaderSize,
		TxnID:   txnID,
		PrevLSN: prevLSN,
		Type:    recordType,
	}
}

// NewInsertDeleteRecord builds an Insert, MarkDelete, ApplyDelete or
// RollbackDelete record. The tuple carried is whatever is needed to reverse
// the operation: inserted bytes for INSERT's undo, freed bytes for a
// delete's undo.
func NewInsertDeleteRecord(txnID types.TxnID, prevLSN types.LSN, recordType LogRecordType, rid page.RID, t *tuple.Tuple) *LogRecord {
	return &LogRecord{
		Size:    HeaderSize + page.SizeOfRID + tuple.SizeOfLengthPrefix + t.Size(),
		TxnID:   txnID,
		PrevLSN: prevLSN,
		Type:    recordType,
		RID:     rid,
		Tuple:   *t,
	}
}

func NewUpdateRecord(txnID types.TxnID, prevLSN types.LSN, rid page.RID, oldTuple, newTuple *tuple.Tuple) *LogRecord {
	return &LogRecord{
		Size:     HeaderSize + page.SizeOfRID + 2*tuple.SizeOfLengthPrefix + oldTuple.Size() + newTuple.Size(),
		TxnID:    txnID,
		PrevLSN:  prevLSN,
		Type:     Update,
		RID:      rid,
		OldTuple: *oldTuple,
		NewTuple: *newTuple,
	}
}

func NewNewPageRecord(txnID types.TxnID, prevLSN types.LSN, prevPageID, pageID types.PageID) *LogRecord {
	return &LogRecord{
		Size:       HeaderSize + 8,
		TxnID:      txnID,
		PrevLSN:    prevLSN,
		Type:       NewPage,
		PrevPageID: prevPageID,
		PageID:     pageID,
	}
}

// HeaderBytes returns the serialized 20-byte header.
func (r *LogRecord) HeaderBytes() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.Size)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.LSN))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(r.TxnID))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(r.PrevLSN))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(r.Type))
	return buf
}

// SerializeBody writes everything after the header into dst, returning the
// number of bytes written. dst must have at least r.Size-HeaderSize bytes
// available.
func (r *LogRecord) SerializeBody(dst []byte) int {
	switch r.Type {
	case Insert, MarkDelete, ApplyDelete, RollbackDelete:
		copy(dst, r.RID.Serialize())
		n := r.Tuple.SerializeTo(dst[page.SizeOfRID:])
		return page.SizeOfRID + n
	case Update:
		copy(dst, r.RID.Serialize())
		off := page.SizeOfRID
		off += r.OldTuple.SerializeTo(dst[off:])
		off += r.NewTuple.SerializeTo(dst[off:])
		return off
	case NewPage:
		binary.LittleEndian.PutUint32(dst[0:4], uint32(r.PrevPageID))
		binary.LittleEndian.PutUint32(dst[4:8], uint32(r.PageID))
		return 8
	default:
		return 0
	}
}

// DeserializeHeader reads a 20-byte header previously written by
// HeaderBytes. Returns false if src is too short or the record type is
// unrecognized, signalling end-of-log to callers scanning the file.
func DeserializeHeader(src []byte) (*LogRecord, bool) {
	if len(src) < HeaderSize {
		return nil, false
	}
	r := &LogRecord{
		Size:    binary.LittleEndian.Uint32(src[0:4]),
		LSN:     types.LSN(int32(binary.LittleEndian.Uint32(src[4:8]))),
		TxnID:   types.TxnID(int32(binary.LittleEndian.Uint32(src[8:12]))),
		PrevLSN: types.LSN(int32(binary.LittleEndian.Uint32(src[12:16]))),
		Type:    LogRecordType(int32(binary.LittleEndian.Uint32(src[16:20]))),
	}
	if r.Size == 0 || r.Type <= Invalid || r.Type > NewPage {
		return nil, false
	}
	return r, true
}

// DeserializeBody fills in the type-specific payload from src, which must
// start right after the header and hold at least r.Size-HeaderSize bytes.
func (r *LogRecord) DeserializeBody(src []byte) {
	switch r.Type {
	case Insert, MarkDelete, ApplyDelete, RollbackDelete:
		r.RID = page.NewRIDFromBytes(src[:page.SizeOfRID])
		t, _ := tuple.DeserializeFrom(src[page.SizeOfRID:])
		r.Tuple = *t
	case Update:
		r.RID = page.NewRIDFromBytes(src[:page.SizeOfRID])
		off := page.SizeOfRID
		oldT, n := tuple.DeserializeFrom(src[off:])
		r.OldTuple = *oldT
		off += n
		newT, _ := tuple.DeserializeFrom(src[off:])
		r.NewTuple = *newT
	case NewPage:
		r.PrevPageID = types.PageID(int32(binary.LittleEndian.Uint32(src[0:4])))
		r.PageID = types.PageID(int32(binary.LittleEndian.Uint32(src[4:8])))
	}
}
