package sim

import "time"

// eventClass fixes the order of events that share a timestamp. Service
// completions release capacity before new arrivals ask for it, and the
// hard stop always fires last.
type eventClass int

const (
	classCompletion eventClass = iota
	classArrival
	classHardStop
)

// event is one scheduled occurrence on the simulated timeline.
type event struct {
	at    time.Duration
	class eventClass
	seq   uint64
	fn    func()
}

// eventQueue is a binary heap ordered by (time, class, insertion order).
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	if q[i].class != q[j].class {
		return q[i].class < q[j].class
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}
