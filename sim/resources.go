package sim

import (
	"container/heap"
	"errors"
	"fmt"
	"time"
)

// ErrResourceExhausted reports a bounded waiting queue that cannot take
// another patient. The caller records the patient as balked.
var ErrResourceExhausted = errors.New("sim: resource queue full")

// Priority orders waiting patients. Lower values are served first; equal
// priorities keep arrival order.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityUrgent
	PriorityNormal
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityUrgent:
		return "urgent"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Ticket is one claim on a pool, from request through grant to release.
type Ticket struct {
	pool     *Pool
	priority Priority
	seq      uint64
	enqueued time.Duration
	granted  time.Duration
	grantFn  func(*Ticket)
	released bool
}

// Wait returns how long the ticket sat in the queue before its grant.
func (t *Ticket) Wait() time.Duration { return t.granted - t.enqueued }

type ticketQueue []*Ticket

func (q ticketQueue) Len() int { return len(q) }

func (q ticketQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q ticketQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *ticketQueue) Push(x any) { *q = append(*q, x.(*Ticket)) }

func (q *ticketQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// Pool is a fixed-capacity staff resource with a priority-ordered FIFO
// queue. All mutation happens on the single-threaded event loop, so the
// pool carries no locking.
type Pool struct {
	ctx      *Context
	name     string
	capacity int
	maxQueue int
	inUse    int
	waiting  ticketQueue
	seq      uint64
	busy     time.Duration
	grants   int
}

// Name returns the pool's registered name.
func (p *Pool) Name() string { return p.name }

// Capacity returns the number of concurrent slots.
func (p *Pool) Capacity() int { return p.capacity }

// InUse returns the number of slots currently granted.
func (p *Pool) InUse() int { return p.inUse }

// QueueLen returns the number of tickets waiting for a slot.
func (p *Pool) QueueLen() int { return len(p.waiting) }

// BusyTime returns the accumulated time slots spent granted. Tickets that
// were never released, because a hard stop froze the run, contribute
// nothing.
func (p *Pool) BusyTime() time.Duration { return p.busy }

// Grants returns how many tickets the pool has granted.
func (p *Pool) Grants() int { return p.grants }

// Request claims a slot. With capacity free the grant callback runs before
// Request returns; otherwise the ticket joins the queue in priority order.
// When the queue is bounded and full, Request returns ErrResourceExhausted
// and the callback never runs.
func (p *Pool) Request(pr Priority, grant func(*Ticket)) (*Ticket, error) {
	t := &Ticket{pool: p, priority: pr, enqueued: p.ctx.Now(), grantFn: grant}
	if p.inUse < p.capacity {
		p.grant(t)
		return t, nil
	}
	if p.maxQueue > 0 && len(p.waiting) >= p.maxQueue {
		return nil, fmt.Errorf("%s pool: %w", p.name, ErrResourceExhausted)
	}
	p.seq++
	t.seq = p.seq
	heap.Push(&p.waiting, t)
	return t, nil
}

// Release frees a granted slot and hands it straight to the next waiter,
// so no simulated time passes between release and the following grant.
func (p *Pool) Release(t *Ticket) {
	if t == nil || t.released {
		return
	}
	t.released = true
	p.busy += p.ctx.Now() - t.granted
	p.inUse--
	if len(p.waiting) > 0 {
		next := heap.Pop(&p.waiting).(*Ticket)
		p.grant(next)
	}
}

func (p *Pool) grant(t *Ticket) {
	p.inUse++
	if p.inUse > p.capacity {
		panic(fmt.Sprintf("sim: %s pool over capacity (%d > %d)", p.name, p.inUse, p.capacity))
	}
	p.grants++
	t.granted = p.ctx.Now()
	t.grantFn(t)
}
