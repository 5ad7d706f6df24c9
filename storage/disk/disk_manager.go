package disk

import (
	"github.com/elidrissi/dbcore/types"
)

// Manager is the I/O boundary between the buffer pool / log manager and the
// two files backing this core: a database file addressed by page id, and a
// log file addressed by byte offset. Every method here either succeeds or
// is fatal — there is no recoverable I/O error at this layer; recovery
// happens only on the next startup, by replaying the log.
type Manager interface {
	ReadPage(id types.PageID, buf []byte) error
	WritePage(id types.PageID, buf []byte) error
	AllocatePage() types.PageID
	DeallocatePage(id types.PageID)

	WriteLog(buf []byte) error
	ReadLog(buf []byte, offset int64) (n int, ok bool)

	Size() int64
	LogSize() int64
	NumWrites() uint64

	ShutDown() error
}
