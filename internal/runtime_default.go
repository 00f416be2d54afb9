//go:build !wasm

package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

var runtimes sync.Map

// GetRuntime returns the runtime of the calling goroutine, creating it on first use.
func GetRuntime() *Runtime {
	gid := getGID()

	if r, ok := runtimes.Load(gid); ok {
		return r.(*Runtime)
	}

	r := NewRuntime()
	runtimes.Store(gid, r)
	return r
}

// Use makes r the runtime of the calling goroutine until restore is called.
func Use(r *Runtime) (restore func()) {
	gid := getGID()
	prev, hadPrev := runtimes.Load(gid)
	runtimes.Store(gid, r)

	return func() {
		if hadPrev {
			runtimes.Store(gid, prev)
		} else {
			runtimes.Delete(gid)
		}
	}
}

func getGID() int64 {
	return goid.Get()
}
