package session

import (
	"sort"
	"sync"
	"time"
)

// DefaultCopyWindow is how long a copied flag stays set
const DefaultCopyWindow = 2 * time.Second

// copyFlags holds transient copied markers. Each id has at most one pending
// revert; marking the same id again replaces it and restarts the window.
type copyFlags struct {
	mu     sync.Mutex
	window time.Duration
	timers map[string]*time.Timer
	gen    map[string]uint64
	set    map[string]bool
}

func newCopyFlags(window time.Duration) *copyFlags {
	if window <= 0 {
		window = DefaultCopyWindow
	}
	return &copyFlags{
		window: window,
		timers: make(map[string]*time.Timer),
		gen:    make(map[string]uint64),
		set:    make(map[string]bool),
	}
}

func (c *copyFlags) mark(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
	}
	c.gen[id]++
	current := c.gen[id]
	c.set[id] = true
	c.timers[id] = time.AfterFunc(c.window, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// a timer that lost the race with Stop must not clear a newer mark
		if c.gen[id] != current {
			return
		}
		c.set[id] = false
		delete(c.timers, id)
	})
}

// clear drops the flag and its pending revert
func (c *copyFlags) clear(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	c.gen[id]++
	c.set[id] = false
}

func (c *copyFlags) isSet(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set[id]
}

// current returns the ids whose flag is set, sorted
func (c *copyFlags) current() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []string
	for id, on := range c.set {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// stop cancels every pending revert
func (c *copyFlags) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
