package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingProc struct {
	n *int32
}

func (c countingProc) AgeTick() {
	atomic.AddInt32(c.n, 1)
}

func TestTickAllTicksEveryProcess(t *testing.T) {
	var n int32
	procs := make([]Tickable, 0, 10)
	for i := 0; i < 10; i++ {
		procs = append(procs, countingProc{n: &n})
	}

	ticker := NewTicker(3)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ticker.TickAll(ctx, procs); err != nil {
		t.Fatalf("TickAll: %v", err)
	}
	if got := atomic.LoadInt32(&n); got != 10 {
		t.Fatalf("ticked %d processes, want 10", got)
	}
}

func TestTickAllRespectsCancellation(t *testing.T) {
	var n int32
	procs := make([]Tickable, 0, 5)
	for i := 0; i < 5; i++ {
		procs = append(procs, countingProc{n: &n})
	}

	ticker := NewTicker(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ticker.TickAll(ctx, procs); err == nil {
		t.Fatal("TickAll should fail with an already-cancelled context")
	}
}
