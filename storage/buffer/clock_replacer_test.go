package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elidrissi/dbcore/types"
)

func TestClockReplacer(t *testing.T) {
	replacer := NewClockReplacer(7)

	// Unpin six frames, adding them to the replacer.
	replacer.Unpin(1)
	replacer.Unpin(2)
	replacer.Unpin(3)
	replacer.Unpin(4)
	replacer.Unpin(5)
	replacer.Unpin(6)
	replacer.Unpin(1)
	assert.Equal(t, 6, replacer.Size())

	// First three victims come out in insertion order.
	v, ok := replacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, types.FrameID(1), v)
	v, ok = replacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, types.FrameID(2), v)
	v, ok = replacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, types.FrameID(3), v)

	// Pinning an already-victimized frame has no effect.
	replacer.Pin(3)
	replacer.Pin(4)
	assert.Equal(t, 2, replacer.Size())

	// Unpinning 4 again gives it a fresh reference bit.
	replacer.Unpin(4)

	v, ok = replacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, types.FrameID(5), v)
	v, ok = replacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, types.FrameID(6), v)
	v, ok = replacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, types.FrameID(4), v)

	_, ok = replacer.Victim()
	assert.False(t, ok)
}
