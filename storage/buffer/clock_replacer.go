package buffer

import (
	"sync"

	"github.com/elidrissi/dbcore/types"
)

type clockFrame struct {
	contains bool
	ref      bool
}

// ClockReplacer approximates LRU with the second-chance clock algorithm: a
// sweeping hand passes over frames currently unpinned (contains=true),
// clearing each one's reference bit on the first pass and evicting it on the
// second.
type ClockReplacer struct {
	mu     sync.Mutex
	frames []clockFrame
	hand   int
}

func NewClockReplacer(numFrames int) *ClockReplacer {
	return &ClockReplacer{
		frames: make([]clockFrame, numFrames),
		hand:   -1,
	}
}

// Victim picks an evictable frame and removes it from the replacer's
// tracking set. Returns false if nothing is currently evictable.
func (c *ClockReplacer) Victim() (types.FrameID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sizeLocked() == 0 {
		return 0, false
	}
	n := len(c.frames)
	for {
		c.hand = (c.hand + 1) % n
		f := &c.frames[c.hand]
		if !f.contains {
			continue
		}
		if f.ref {
			f.ref = false
			continue
		}
		f.contains = false
		return types.FrameID(c.hand), true
	}
}

// Pin removes a frame from consideration: callers must do this when they
// lease a frame for a pinned page.
func (c *ClockReplacer) Pin(frameID types.FrameID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := &c.frames[int(frameID)]
	f.contains = false
	f.ref = false
}

// Unpin makes a frame evictable again, giving it one reference-bit grace
// period before Victim can take it.
func (c *ClockReplacer) Unpin(frameID types.FrameID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := &c.frames[int(frameID)]
	f.contains = true
	f.ref = true
}

func (c *ClockReplacer) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sizeLocked()
}

func (c *ClockReplacer) sizeLocked() int {
	n := 0
	for _, f := range c.frames {
		if f.contains {
			n++
		}
	}
	return n
}
