package engine

import "sync"

// PeopleCounter tracks net occupancy change in line-crossing mode. The value
// has no lower bound: unlocks decrement it before the matching line
// crossings arrive.
type PeopleCounter struct {
	mu    sync.Mutex
	count int
}

func NewPeopleCounter() *PeopleCounter {
	return &PeopleCounter{}
}

// OnLineCrossing increments the counter and returns the new value.
func (c *PeopleCounter) OnLineCrossing() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.count
}

// OnUnlock decrements the counter and returns the new value.
func (c *PeopleCounter) OnUnlock() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count--
	return c.count
}

// OnLockReset sets the counter back to zero.
func (c *PeopleCounter) OnLockReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count = 0
}

func (c *PeopleCounter) Snapshot() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
