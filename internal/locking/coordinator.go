// Package locking grants exclusive access to accounts by account number.
//
// Locks come from a fixed pool of stripes; an account number hashes to a
// stripe, so the table never grows with the number of accounts. Two numbers
// sharing a stripe contend with each other, which is harmless for
// correctness. Multi-account acquisitions always take stripes in ascending
// index order, so concurrent acquisitions can never form a cycle.
package locking

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
)

const DefaultStripes = 256

type Coordinator struct {
	stripes []chan struct{}
}

func NewCoordinator(stripes int) *Coordinator {
	if stripes <= 0 {
		stripes = DefaultStripes
	}
	c := &Coordinator{stripes: make([]chan struct{}, stripes)}
	for i := range c.stripes {
		c.stripes[i] = make(chan struct{}, 1)
	}
	return c
}

// Grant represents held locks. Release frees them in reverse acquisition
// order and is safe to call more than once.
type Grant struct {
	coord *Coordinator
	held  []int
	once  sync.Once
}

func (g *Grant) Release() {
	g.once.Do(func() {
		for i := len(g.held) - 1; i >= 0; i-- {
			<-g.coord.stripes[g.held[i]]
		}
	})
}

// Acquire blocks until every account's stripe is held, or ctx ends. Callers
// must batch all accounts an operation touches into a single call; nested
// acquisition of overlapping sets can deadlock against itself.
func (c *Coordinator) Acquire(ctx context.Context, accountNumbers ...string) (*Grant, error) {
	indexes := make([]int, 0, len(accountNumbers))
	seen := make(map[int]struct{}, len(accountNumbers))
	for _, number := range accountNumbers {
		idx := c.stripeFor(number)
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	grant := &Grant{coord: c}
	for _, idx := range indexes {
		select {
		case c.stripes[idx] <- struct{}{}:
			grant.held = append(grant.held, idx)
		case <-ctx.Done():
			grant.Release()
			return nil, fmt.Errorf("Acquire: %w", ctx.Err())
		}
	}
	return grant, nil
}

func (c *Coordinator) stripeFor(accountNumber string) int {
	h := fnv.New32a()
	h.Write([]byte(accountNumber))
	return int(h.Sum32() % uint32(len(c.stripes)))
}
