package disk

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/elidrissi/dbcore/common"
	"github.com/elidrissi/dbcore/types"
)

// FileManager is the os.File-backed Manager: one database file addressed by
// page id, one log file addressed by byte offset. Every write is followed
// by an explicit Sync so a subsequent read (including after a process
// restart) observes it.
type FileManager struct {
	db       *os.File
	dbPath   string
	logFile  *os.File
	logPath  string

	nextPageID types.PageID
	numWrites  uint64
	size       int64

	dbMu  sync.Mutex
	logMu sync.Mutex

	logger *zap.Logger
}

var _ Manager = (*FileManager)(nil)

// NewFileManager opens (creating if absent) the database file at dbPath and
// the log file at logPath. The next page id is derived from the database
// file's length, per spec.md §6: "a teaching implementation need not
// persist next_page_id; on restart the Disk Manager may derive it from
// file length."
func NewFileManager(dbPath, logPath string, logger *zap.Logger) (*FileManager, error) {
	logger = common.OrNop(logger)

	db, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("open db file %q: %w", dbPath, err)
	}

	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open log file %q: %w", logPath, err)
	}

	dbInfo, err := db.Stat()
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("stat db file %q: %w", dbPath, err)
	}

	size := dbInfo.Size()
	nextPageID := types.PageID(size / common.PageSize)

	logger.Info("disk manager opened", zap.String("db", dbPath), zap.String("log", logPath),
		zap.Int64("size", size), zap.Int32("nextPageID", int32(nextPageID)))

	return &FileManager{
		db:         db,
		dbPath:     dbPath,
		logFile:    logFile,
		logPath:    logPath,
		nextPageID: nextPageID,
		size:       size,
		logger:     logger,
	}, nil
}

func (d *FileManager) WritePage(id types.PageID, buf []byte) error {
	d.dbMu.Lock()
	defer d.dbMu.Unlock()

	offset := int64(id) * int64(common.PageSize)
	if _, err := d.db.Seek(offset, io.SeekStart); err != nil {
		d.logger.Error("seek failed writing page", zap.Error(err), zap.Int32("pageID", int32(id)))
		panic(fmt.Sprintf("disk manager: seek failed writing page %d: %v", id, err))
	}

	n, err := d.db.Write(buf)
	if err != nil {
		d.logger.Error("write failed", zap.Error(err), zap.Int32("pageID", int32(id)))
		panic(fmt.Sprintf("disk manager: write failed for page %d: %v", id, err))
	}
	common.Assert(n == common.PageSize, "disk manager: short write for page %d (%d of %d bytes)", id, n, common.PageSize)

	if offset+int64(n) > d.size {
		d.size = offset + int64(n)
	}
	d.numWrites++

	if err := d.db.Sync(); err != nil {
		d.logger.Error("sync failed", zap.Error(err), zap.Int32("pageID", int32(id)))
		panic(fmt.Sprintf("disk manager: sync failed for page %d: %v", id, err))
	}
	return nil
}

func (d *FileManager) ReadPage(id types.PageID, buf []byte) error {
	d.dbMu.Lock()
	defer d.dbMu.Unlock()

	offset := int64(id) * int64(common.PageSize)

	info, err := d.db.Stat()
	if err != nil {
		d.logger.Error("stat failed reading page", zap.Error(err))
		panic(fmt.Sprintf("disk manager: stat failed: %v", err))
	}

	if offset >= info.Size() {
		// Read past end of file is not an error: a freshly allocated page
		// reads back as zeros until it is first written.
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}

	if _, err := d.db.Seek(offset, io.SeekStart); err != nil {
		d.logger.Error("seek failed reading page", zap.Error(err))
		panic(fmt.Sprintf("disk manager: seek failed reading page %d: %v", id, err))
	}

	n, err := io.ReadFull(d.db, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		d.logger.Error("read failed", zap.Error(err), zap.Int32("pageID", int32(id)))
		panic(fmt.Sprintf("disk manager: read failed for page %d: %v", id, err))
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

func (d *FileManager) AllocatePage() types.PageID {
	d.dbMu.Lock()
	defer d.dbMu.Unlock()

	id := d.nextPageID
	d.nextPageID++
	return id
}

// DeallocatePage is a no-op: this is a teaching implementation with no
// free-space map, per spec.md §4.1.
func (d *FileManager) DeallocatePage(types.PageID) {}

func (d *FileManager) WriteLog(buf []byte) error {
	d.logMu.Lock()
	defer d.logMu.Unlock()

	if len(buf) == 0 {
		return nil
	}

	if _, err := d.logFile.Seek(0, io.SeekEnd); err != nil {
		d.logger.Error("seek failed writing log", zap.Error(err))
		panic(fmt.Sprintf("disk manager: seek failed writing log: %v", err))
	}
	if _, err := d.logFile.Write(buf); err != nil {
		d.logger.Error("write failed writing log", zap.Error(err))
		panic(fmt.Sprintf("disk manager: write failed writing log: %v", err))
	}
	if err := d.logFile.Sync(); err != nil {
		d.logger.Error("sync failed writing log", zap.Error(err))
		panic(fmt.Sprintf("disk manager: sync failed writing log: %v", err))
	}
	return nil
}

func (d *FileManager) ReadLog(buf []byte, offset int64) (int, bool) {
	d.logMu.Lock()
	defer d.logMu.Unlock()

	info, err := d.logFile.Stat()
	if err != nil {
		d.logger.Error("stat failed reading log", zap.Error(err))
		panic(fmt.Sprintf("disk manager: stat failed reading log: %v", err))
	}
	if offset >= info.Size() {
		return 0, false
	}

	if _, err := d.logFile.Seek(offset, io.SeekStart); err != nil {
		d.logger.Error("seek failed reading log", zap.Error(err))
		panic(fmt.Sprintf("disk manager: seek failed reading log: %v", err))
	}
	n, err := d.logFile.Read(buf)
	if err != nil && err != io.EOF {
		d.logger.Error("read failed reading log", zap.Error(err))
		panic(fmt.Sprintf("disk manager: read failed reading log: %v", err))
	}
	return n, true
}

func (d *FileManager) Size() int64 {
	d.dbMu.Lock()
	defer d.dbMu.Unlock()
	return d.size
}

func (d *FileManager) LogSize() int64 {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	info, err := d.logFile.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

func (d *FileManager) NumWrites() uint64 {
	d.dbMu.Lock()
	defer d.dbMu.Unlock()
	return d.numWrites
}

func (d *FileManager) ShutDown() error {
	d.dbMu.Lock()
	errDB := d.db.Close()
	d.dbMu.Unlock()

	d.logMu.Lock()
	errLog := d.logFile.Close()
	d.logMu.Unlock()

	if errDB != nil {
		return fmt.Errorf("close db file %q: %w", d.dbPath, errDB)
	}
	if errLog != nil {
		return fmt.Errorf("close log file %q: %w", d.logPath, errLog)
	}
	d.logger.Info("disk manager closed", zap.String("db", d.dbPath))
	return nil
}
