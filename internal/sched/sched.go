// Package sched drives the periodic age_tick call across every live
// process paging state. It is grounded on biscuit's Vm_t.Lock_pmap/Unlock_pmap
// pattern of guarding address-space mutation with a per-process lock,
// generalized here to bound how many processes may be ticked at once
// rather than to guard a single address space.
package sched

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Tickable is any process paging state capable of running one aging
// tick. internal/vm's ProcessPagingState implements this so sched never
// needs to import internal/vm.
type Tickable interface {
	AgeTick()
}

// Ticker bounds how many processes run age_tick concurrently, the way a
// real kernel bounds concurrent address-space mutation by CPU count
// rather than letting every process's timer interrupt race unbounded.
type Ticker struct {
	sem *semaphore.Weighted
}

// NewTicker builds a Ticker that allows at most maxConcurrent
// processes to run age_tick at once.
func NewTicker(maxConcurrent int64) *Ticker {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Ticker{sem: semaphore.NewWeighted(maxConcurrent)}
}

// TickAll runs AgeTick on every process in procs, bounded by the
// Ticker's concurrency limit. It blocks until every process has been
// ticked or ctx is cancelled.
func (t *Ticker) TickAll(ctx context.Context, procs []Tickable) error {
	done := make(chan struct{}, len(procs))
	for _, p := range procs {
		p := p
		if err := t.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func() {
			defer t.sem.Release(1)
			p.AgeTick()
			done <- struct{}{}
		}()
	}
	for range procs {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
