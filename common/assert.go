package common

import "fmt"

// Assert panics if cond is false. Reserved for invariant violations that
// indicate a bug in this core itself (e.g. a frame index out of range), not
// for ordinary error conditions a caller can act on — those are reported as
// bool/nil per the public contract of each component.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
