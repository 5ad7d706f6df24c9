package types

import "encoding/binary"

// PageID identifies a page on disk. InvalidPageID marks "no page".
type PageID int32

const InvalidPageID PageID = -1

const SizeOfPageID = 4

func (id PageID) IsValid() bool {
	return id != InvalidPageID
}

func (id PageID) Serialize() []byte {
	buf := make([]byte, SizeOfPageID)
	binary.LittleEndian.PutUint32(buf, uint32(id))
	return buf
}

func NewPageIDFromBytes(b []byte) PageID {
	return PageID(int32(binary.LittleEndian.Uint32(b)))
}
