package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoop(t *testing.T) {
	t.Run("defers tasks to the end of the outermost turn", func(t *testing.T) {
		log := []string{}
		l := NewLoop()

		l.Turn(func() {
			l.Defer(func() { log = append(log, "first") })

			l.Turn(func() {
				l.Defer(func() { log = append(log, "second") })
				assert.True(t, l.InTurn())
			})

			assert.Equal(t, 2, l.Pending())
			log = append(log, "turn")
		})

		assert.False(t, l.InTurn())
		assert.Equal(t, 0, l.Pending())
		assert.Equal(t, []string{"turn", "first", "second"}, log)
	})

	t.Run("runs tasks right away outside a turn", func(t *testing.T) {
		log := []string{}
		l := NewLoop()

		l.Defer(func() { log = append(log, "task") })
		log = append(log, "after")

		assert.Equal(t, []string{"task", "after"}, log)
	})

	t.Run("tasks deferred by tasks run in the same drain", func(t *testing.T) {
		log := []string{}
		l := NewLoop()

		l.Defer(func() {
			log = append(log, "outer")

			l.Defer(func() { log = append(log, "inner") })
			l.Turn(func() {
				l.Defer(func() { log = append(log, "turn") })
			})

			log = append(log, "outer done")
		})

		assert.Equal(t, []string{"outer", "outer done", "inner", "turn"}, log)
	})

	t.Run("drains after a panicking turn", func(t *testing.T) {
		log := []string{}
		l := NewLoop()

		assert.Panics(t, func() {
			l.Turn(func() {
				l.Defer(func() { log = append(log, "task") })
				panic("oops")
			})
		})

		assert.False(t, l.InTurn())
		assert.Equal(t, []string{"task"}, log)
	})
}

func TestTaskQueue(t *testing.T) {
	q := NewTaskQueue()

	_, ok := q.Dequeue()
	assert.False(t, ok)

	n := 0
	q.Enqueue(func() { n += 1 })
	q.Enqueue(func() { n += 10 })
	q.Enqueue(func() { n += 100 })
	assert.Equal(t, 3, q.Len())

	fn, ok := q.Dequeue()
	assert.True(t, ok)
	fn()
	assert.Equal(t, 1, n)

	for _, fn := range q.Take() {
		fn()
	}
	assert.Equal(t, 111, n)
	assert.Equal(t, 0, q.Len())
}
