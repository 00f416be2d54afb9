package internal

// TaskQueue is a FIFO of callbacks.
type TaskQueue struct {
	tasks []func()
}

func NewTaskQueue() *TaskQueue {
	return &TaskQueue{
		tasks: make([]func(), 0),
	}
}

func (q *TaskQueue) Enqueue(fn func()) {
	q.tasks = append(q.tasks, fn)
}

// Dequeue pops the oldest callback.
func (q *TaskQueue) Dequeue() (func(), bool) {
	if len(q.tasks) == 0 {
		return nil, false
	}

	fn := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]

	return fn, true
}

// Take empties the queue and returns its callbacks in order.
func (q *TaskQueue) Take() []func() {
	tasks := q.tasks
	q.tasks = nil

	return tasks
}

func (q *TaskQueue) Len() int {
	return len(q.tasks)
}
