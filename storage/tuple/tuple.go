package tuple

import (
	"encoding/binary"

	"github.com/elidrissi/dbcore/storage/page"
)

// Tuple is an opaque, length-prefixed byte payload plus the RID it was last
// read from or written to. This core has no schema concept — callers own
// whatever encoding lives inside Data.
type Tuple struct {
	rid  page.RID
	data []byte
}

func NewTuple(rid page.RID, data []byte) *Tuple {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Tuple{rid: rid, data: buf}
}

func (t *Tuple) GetRID() page.RID       { return t.rid }
func (t *Tuple) SetRID(rid page.RID)    { t.rid = rid }
func (t *Tuple) Data() []byte           { return t.data }
func (t *Tuple) Size() uint32           { return uint32(len(t.data)) }

// SizeOfLengthPrefix is the width of the length prefix written by
// SerializeTo and read back by DeserializeFrom.
const SizeOfLengthPrefix = 4

// SerializeTo writes a 4-byte little-endian length followed by the raw
// payload bytes, matching the wire format used for log record tuple bodies.
func (t *Tuple) SerializeTo(storage []byte) int {
	binary.LittleEndian.PutUint32(storage, uint32(len(t.data)))
	copy(storage[SizeOfLengthPrefix:], t.data)
	return SizeOfLengthPrefix + len(t.data)
}

// DeserializeFrom reads a tuple previously written by SerializeTo, starting
// at storage[0], and returns the tuple plus the number of bytes consumed.
func DeserializeFrom(storage []byte) (*Tuple, int) {
	size := binary.LittleEndian.Uint32(storage[:SizeOfLengthPrefix])
	data := make([]byte, size)
	copy(data, storage[SizeOfLengthPrefix:SizeOfLengthPrefix+int(size)])
	return &Tuple{data: data}, SizeOfLengthPrefix + int(size)
}
