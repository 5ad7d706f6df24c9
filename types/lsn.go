package types

import "encoding/binary"

// LSN is a monotonically increasing log sequence number.
type LSN int32

const InvalidLSN LSN = -1

const SizeOfLSN = 4

func (lsn LSN) Serialize() []byte {
	buf := make([]byte, SizeOfLSN)
	binary.LittleEndian.PutUint32(buf, uint32(lsn))
	return buf
}

func NewLSNFromBytes(b []byte) LSN {
	return LSN(int32(binary.LittleEndian.Uint32(b)))
}
