// Package store holds the plumbing shared by every domain store: a
// state cell guarding loading/error flags, monotonic request
// sequencing, and change notification.
package store

import (
	"sync"
)

// Cell is the mutable heart of a domain store. Every action follows
// the same lifecycle: Begin issues a request token and raises the
// loading flag, the network call runs, and Settle applies the result.
// A settlement whose token is no longer the latest issued is
// discarded, so a slow stale response can never overwrite state
// touched by a more recent action.
type Cell struct {
	mu      sync.RWMutex
	loading bool
	err     error
	next    uint64
	latest  uint64

	watchers []chan struct{}
}

// Begin starts an action: issues a fresh request token and raises the
// loading flag.
func (c *Cell) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	c.latest = c.next
	c.loading = true
	c.notifyLocked()
	return c.next
}

// Settle finishes the action identified by token. When the token is
// still the latest issued, apply (if non-nil and err is nil) mutates
// store data under the write lock, err is recorded (nil clears any
// previous error), and the loading flag drops. Stale settlements are
// discarded entirely. Reports whether the settlement was applied.
func (c *Cell) Settle(token uint64, err error, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.latest {
		return false
	}

	if err == nil && apply != nil {
		apply()
	}
	c.err = err
	c.loading = false
	c.notifyLocked()
	return true
}

// Fail records an error outside any request lifecycle, e.g. when
// client-side validation rejects a payload before a request is
// issued. The loading flag is not touched.
func (c *Cell) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	c.notifyLocked()
}

// Mutate runs fn under the write lock, outside any request lifecycle.
// Used for optimistic flips, rollbacks, and explicit clears.
func (c *Cell) Mutate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
	c.notifyLocked()
}

// Read runs fn under the read lock.
func (c *Cell) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Loading reports whether an action is in flight.
func (c *Cell) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error recorded by the most recent settled action,
// or nil after a success.
func (c *Cell) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Watch returns a channel that receives a tick whenever the store
// state changes. The channel is buffered; ticks are dropped rather
// than block a slow consumer.
func (c *Cell) Watch() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan struct{}, 1)
	c.watchers = append(c.watchers, ch)
	return ch
}

func (c *Cell) notifyLocked() {
	for _, ch := range c.watchers {
		select {
		case ch <- struct{}{}:
		default:
			// Watcher hasn't drained the previous tick.
		}
	}
}
