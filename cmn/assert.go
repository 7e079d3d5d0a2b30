package cmn

import "fmt"

// Assert/AssertMsg panic on a violated invariant. Ground: teacher's
// cmn.Assert/cmn.AssertMsg, used throughout cmn/sync.go and fs/mountfs.go
// to fail fast on programmer error rather than propagate corrupted state.
func Assert(cond bool) {
	if !cond {
		panic("assertion failed")
	}
}

func AssertMsg(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}

func Assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
