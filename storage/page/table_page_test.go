package page

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elidrissi/dbcore/types"
)

func newTestTablePage(id types.PageID) *TablePage {
	tp := CastAsTablePage(New(id))
	tp.Init(id, types.InvalidPageID)
	return tp
}

func TestTablePageInsertAndGetTuple(t *testing.T) {
	tp := newTestTablePage(1)

	rid1, ok := tp.InsertTuple([]byte("hello"))
	assert.True(t, ok)
	rid2, ok := tp.InsertTuple([]byte("world!!"))
	assert.True(t, ok)

	data1, ok := tp.GetTuple(rid1)
	assert.True(t, ok)
	assert.Equal(t, "hello", string(data1))

	data2, ok := tp.GetTuple(rid2)
	assert.True(t, ok)
	assert.Equal(t, "world!!", string(data2))

	assert.Equal(t, 2, tp.GetTupleCount())
}

func TestTablePageMarkAndApplyDelete(t *testing.T) {
	tp := newTestTablePage(1)
	rid, _ := tp.InsertTuple([]byte("gone soon"))

	assert.True(t, tp.MarkDelete(rid))
	_, ok := tp.GetTuple(rid)
	assert.False(t, ok, "a marked-deleted tuple must not be readable")

	assert.True(t, tp.RollbackDelete(rid))
	data, ok := tp.GetTuple(rid)
	assert.True(t, ok)
	assert.Equal(t, "gone soon", string(data))

	assert.True(t, tp.MarkDelete(rid))
	freed, ok := tp.ApplyDelete(rid)
	assert.True(t, ok)
	assert.Equal(t, "gone soon", string(freed))
	_, ok = tp.GetTuple(rid)
	assert.False(t, ok)
}

func TestTablePageUpdateTupleGrowAndShrink(t *testing.T) {
	tp := newTestTablePage(1)
	rid, _ := tp.InsertTuple([]byte("short"))
	other, _ := tp.InsertTuple([]byte("unaffected"))

	old, ok := tp.UpdateTuple(rid, []byte("a much longer replacement value"))
	assert.True(t, ok)
	assert.Equal(t, "short", string(old))

	data, ok := tp.GetTuple(rid)
	assert.True(t, ok)
	assert.Equal(t, "a much longer replacement value", string(data))

	// Updating one tuple must not corrupt another's bytes.
	otherData, ok := tp.GetTuple(other)
	assert.True(t, ok)
	assert.Equal(t, "unaffected", string(otherData))

	_, ok = tp.UpdateTuple(rid, []byte("short"))
	assert.True(t, ok)
	data, ok = tp.GetTuple(rid)
	assert.True(t, ok)
	assert.Equal(t, "short", string(data))
}

func TestTablePageApplyDeleteCompactsOtherTuples(t *testing.T) {
	tp := newTestTablePage(1)
	rid0, _ := tp.InsertTuple([]byte("first!!!"))
	rid1, _ := tp.InsertTuple([]byte("second"))
	rid2, _ := tp.InsertTuple([]byte("third!"))

	assert.True(t, tp.MarkDelete(rid1))
	freed, ok := tp.ApplyDelete(rid1)
	assert.True(t, ok)
	assert.Equal(t, "second", string(freed))

	data0, ok := tp.GetTuple(rid0)
	assert.True(t, ok)
	assert.Equal(t, "first!!!", string(data0))

	data2, ok := tp.GetTuple(rid2)
	assert.True(t, ok)
	assert.Equal(t, "third!", string(data2))
}

func TestTablePageInsertFailsWhenFull(t *testing.T) {
	tp := newTestTablePage(1)
	big := make([]byte, 4096)
	_, ok := tp.InsertTuple(big)
	assert.False(t, ok, "a tuple larger than the available free space must not fit")
}
