package internal

import "testing"

// newTestRuntime makes a fresh runtime current for the rest of the test.
func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()

	rt := NewRuntime(opts...)
	t.Cleanup(Use(rt))

	return rt
}

// cell is the smallest reactive value: a publisher guarding a field.
type cell struct {
	pub   *Publisher
	value any
}

func newCell(key string, value any) *cell {
	return &cell{pub: NewPublisher(key), value: value}
}

func (c *cell) get() any {
	c.pub.Depend()
	return c.value
}

func (c *cell) set(v any) {
	if Unchanged(c.value, v) {
		return
	}

	c.value = v
	c.pub.Notify()
}

func (c *cell) Walk(visit func(any)) {
	visit(c.get())
}
