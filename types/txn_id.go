package types

import "encoding/binary"

// TxnID identifies the transaction that produced a log record.
type TxnID int32

const InvalidTxnID TxnID = -1

const SizeOfTxnID = 4

func (id TxnID) Serialize() []byte {
	buf := make([]byte, SizeOfTxnID)
	binary.LittleEndian.PutUint32(buf, uint32(id))
	return buf
}

func NewTxnIDFromBytes(b []byte) TxnID {
	return TxnID(int32(binary.LittleEndian.Uint32(b)))
}
