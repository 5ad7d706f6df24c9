package types

// FrameID identifies a slot in the buffer pool's fixed-size frame array.
type FrameID int32
