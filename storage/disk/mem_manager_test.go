package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elidrissi/dbcore/common"
)

func TestMemManagerReadWritePage(t *testing.T) {
	dm := NewMemManager(nil)

	data := make([]byte, common.PageSize)
	copy(data, "a test string")
	buf := make([]byte, common.PageSize)

	assert.NoError(t, dm.ReadPage(0, buf), "reading an unwritten page must tolerate an empty read")
	assert.Equal(t, make([]byte, common.PageSize), buf)

	assert.NoError(t, dm.WritePage(0, data))
	assert.NoError(t, dm.ReadPage(0, buf))
	assert.Equal(t, data, buf)
}

func TestMemManagerWriteAndReadLog(t *testing.T) {
	dm := NewMemManager(nil)

	assert.NoError(t, dm.WriteLog([]byte("abc")))
	assert.NoError(t, dm.WriteLog([]byte("def")))

	buf := make([]byte, 16)
	n, ok := dm.ReadLog(buf, 0)
	assert.True(t, ok)
	assert.Equal(t, "abcdef", string(buf[:n]))

	_, ok = dm.ReadLog(buf, dm.LogSize())
	assert.False(t, ok)
}

func TestMemManagerAllocatePage(t *testing.T) {
	dm := NewMemManager(nil)
	assert.Equal(t, int32(0), int32(dm.AllocatePage()))
	assert.Equal(t, int32(1), int32(dm.AllocatePage()))
}
