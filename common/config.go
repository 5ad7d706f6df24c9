package common

import "time"

// Config constants mirror the compile-time knobs a C++ edition of this core
// would pin down with #define/constexpr: page geometry, log buffer sizing,
// and the sentinel values used throughout the storage and recovery packages.
const (
	PageSize = 4096

	// LogBufferSizeBase is expressed in pages, matching the teacher's own
	// config bank, so the buffer is always a whole number of pages plus one
	// spare page of headroom for a record that straddles the boundary.
	LogBufferSizeBase = 128
	LogBufferSize      = (LogBufferSizeBase + 1) * PageSize

	// sizeOfHashTablePair is (key + value) serialized as two uint64s.
	sizeOfHashTablePair   = 16
	BlockArraySize        = 4 * PageSize / (4*sizeOfHashTablePair + 1)
	BucketSizeOfHashIndex = 10
)

// LogTimeout is how long the background flush goroutine waits for a signal
// before flushing unconditionally.
var LogTimeout = 1 * time.Second
