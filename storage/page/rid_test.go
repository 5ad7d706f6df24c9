package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRIDSerializeRoundTrip(t *testing.T) {
	rid := NewRID(7, 3)
	assert.Equal(t, SizeOfRID, len(rid.Serialize()))

	out := NewRIDFromBytes(rid.Serialize())
	assert.Equal(t, rid.GetPageId(), out.GetPageId())
	assert.Equal(t, rid.GetSlot(), out.GetSlot())
}

func TestRIDSet(t *testing.T) {
	var rid RID
	rid.Set(42, 9)
	assert.Equal(t, int32(42), int32(rid.GetPageId()))
	assert.Equal(t, uint32(9), rid.GetSlot())
}
