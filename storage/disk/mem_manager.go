package disk

import (
	"sync"

	"github.com/dsnet/golib/memfile"
	"go.uber.org/zap"

	"github.com/elidrissi/dbcore/common"
	"github.com/elidrissi/dbcore/types"
)

// MemManager is an in-memory Manager: both files are backed by memfile.File
// instead of os.File. It exists for fast unit tests and for embedding this
// core in a process that must not touch the filesystem; a process restart
// loses everything, so it is not a durability path. Offset arithmetic and
// the "read past end of file zero-fills" contract match FileManager exactly.
type MemManager struct {
	db      *memfile.File
	logFile *memfile.File

	nextPageID types.PageID
	numWrites  uint64
	size       int64

	mu sync.Mutex

	logger *zap.Logger
}

var _ Manager = (*MemManager)(nil)

func NewMemManager(logger *zap.Logger) *MemManager {
	return &MemManager{
		db:      memfile.New(nil),
		logFile: memfile.New(nil),
		logger:  common.OrNop(logger),
	}
}

func (d *MemManager) WritePage(id types.PageID, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(id) * int64(common.PageSize)
	n, err := d.db.WriteAt(buf, offset)
	common.Assert(err == nil, "mem manager: write failed: %v", err)
	common.Assert(n == common.PageSize, "mem manager: short write (%d of %d bytes)", n, common.PageSize)

	if offset+int64(n) > d.size {
		d.size = offset + int64(n)
	}
	d.numWrites++
	return nil
}

func (d *MemManager) ReadPage(id types.PageID, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(id) * int64(common.PageSize)
	if offset >= d.size {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}

	n, err := d.db.ReadAt(buf, offset)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	if err != nil && n == 0 {
		return nil
	}
	return nil
}

func (d *MemManager) AllocatePage() types.PageID {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextPageID
	d.nextPageID++
	return id
}

func (d *MemManager) DeallocatePage(types.PageID) {}

func (d *MemManager) WriteLog(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	logSize := int64(len(d.logFile.Bytes()))
	_, err := d.logFile.WriteAt(buf, logSize)
	common.Assert(err == nil, "mem manager: write log failed: %v", err)
	return nil
}

func (d *MemManager) ReadLog(buf []byte, offset int64) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	logSize := int64(len(d.logFile.Bytes()))
	if offset >= logSize {
		return 0, false
	}
	n, _ := d.logFile.ReadAt(buf, offset)
	return n, true
}

func (d *MemManager) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

func (d *MemManager) LogSize() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.logFile.Bytes()))
}

func (d *MemManager) NumWrites() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numWrites
}

func (d *MemManager) ShutDown() error {
	d.logger.Info("mem manager shut down")
	return nil
}
