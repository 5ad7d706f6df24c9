package disk

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elidrissi/dbcore/common"
	"github.com/elidrissi/dbcore/types"
)

func TestFileManagerReadWritePage(t *testing.T) {
	dir := t.TempDir()
	dm, err := NewFileManager(filepath.Join(dir, "test.db"), filepath.Join(dir, "test.log"), nil)
	require.NoError(t, err)
	defer dm.ShutDown()

	data := make([]byte, common.PageSize)
	copy(data, "a test string")
	buf := make([]byte, common.PageSize)

	// Reading an unwritten page tolerates a zero-filled result.
	assert.NoError(t, dm.ReadPage(0, buf))

	assert.NoError(t, dm.WritePage(0, data))
	assert.NoError(t, dm.ReadPage(0, buf))
	assert.Equal(t, data, buf)

	other := make([]byte, common.PageSize)
	copy(other, "another test string, written far from page 0")
	assert.NoError(t, dm.WritePage(5, other))
	assert.NoError(t, dm.ReadPage(5, buf))
	assert.Equal(t, other, buf)

	assert.Equal(t, uint64(2), dm.NumWrites())
}

func TestFileManagerAllocatePageIsMonotonic(t *testing.T) {
	dir := t.TempDir()
	dm, err := NewFileManager(filepath.Join(dir, "test.db"), filepath.Join(dir, "test.log"), nil)
	require.NoError(t, err)
	defer dm.ShutDown()

	first := dm.AllocatePage()
	second := dm.AllocatePage()
	assert.Equal(t, first+1, second)
}

func TestFileManagerWriteAndReadLog(t *testing.T) {
	dir := t.TempDir()
	dm, err := NewFileManager(filepath.Join(dir, "test.db"), filepath.Join(dir, "test.log"), nil)
	require.NoError(t, err)
	defer dm.ShutDown()

	assert.NoError(t, dm.WriteLog([]byte("first record")))
	assert.NoError(t, dm.WriteLog([]byte("second record")))

	buf := make([]byte, 64)
	n, ok := dm.ReadLog(buf, 0)
	assert.True(t, ok)
	assert.Equal(t, "first recordsecond record", string(buf[:n]))

	_, ok = dm.ReadLog(buf, dm.LogSize())
	assert.False(t, ok, "reading past the end of the log must report no data")
}

func TestFileManagerNextPageIDSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logPath := filepath.Join(dir, "test.log")

	dm, err := NewFileManager(dbPath, logPath, nil)
	require.NoError(t, err)
	dm.AllocatePage()
	dm.AllocatePage()
	dm.WritePage(1, make([]byte, common.PageSize))
	require.NoError(t, dm.ShutDown())

	reopened, err := NewFileManager(dbPath, logPath, nil)
	require.NoError(t, err)
	defer reopened.ShutDown()

	assert.Equal(t, types.PageID(2), reopened.AllocatePage(), "next page id must be derived from file length on reopen")
}
