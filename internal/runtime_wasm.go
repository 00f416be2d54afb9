//go:build wasm

package internal

import "sync"

var (
	mu            sync.Mutex
	globalRuntime *Runtime
)

func GetRuntime() *Runtime {
	mu.Lock()
	defer mu.Unlock()

	if globalRuntime == nil {
		globalRuntime = NewRuntime()
	}

	return globalRuntime
}

// Use makes r the global runtime until restore is called.
func Use(r *Runtime) (restore func()) {
	mu.Lock()
	prev := globalRuntime
	globalRuntime = r
	mu.Unlock()

	return func() {
		mu.Lock()
		globalRuntime = prev
		mu.Unlock()
	}
}
