package sim

import (
	"container/heap"
	"math/rand"
	"time"
)

// Context owns the mutable machinery of one run: the virtual clock, the
// seeded random source, the event queue, and the resource pools. Each run
// builds its own Context, so concurrent runs never share state.
type Context struct {
	now     time.Duration
	rng     *rand.Rand
	queue   eventQueue
	seq     uint64
	pools   map[string]*Pool
	stopped bool
}

// NewContext returns a fresh context seeded with the given value.
func NewContext(seed int64) *Context {
	return &Context{
		rng:   rand.New(rand.NewSource(seed)),
		pools: make(map[string]*Pool),
	}
}

// Now returns the current simulated time as an offset from clinic opening.
func (c *Context) Now() time.Duration { return c.now }

// Rand returns the run's random source.
func (c *Context) Rand() *rand.Rand { return c.rng }

// AddPool creates and registers a named resource pool. A maxQueue of zero
// leaves the waiting queue unbounded.
func (c *Context) AddPool(name string, capacity, maxQueue int) *Pool {
	p := &Pool{ctx: c, name: name, capacity: capacity, maxQueue: maxQueue}
	c.pools[name] = p
	return p
}

// Pool returns a registered pool, or nil when the name is unknown.
func (c *Context) Pool(name string) *Pool { return c.pools[name] }

// Pools returns every registered pool.
func (c *Context) Pools() []*Pool {
	out := make([]*Pool, 0, len(c.pools))
	for _, p := range c.pools {
		out = append(out, p)
	}
	return out
}

func (c *Context) schedule(delay time.Duration, class eventClass, fn func()) {
	c.seq++
	heap.Push(&c.queue, &event{at: c.now + delay, class: class, seq: c.seq, fn: fn})
}

// stop freezes the run: the loop exits before touching any later event.
func (c *Context) stop() { c.stopped = true }

// run drains the event queue in timestamp order until it is empty or the
// run has been stopped.
func (c *Context) run() {
	for c.queue.Len() > 0 && !c.stopped {
		e := heap.Pop(&c.queue).(*event)
		c.now = e.at
		e.fn()
	}
}
