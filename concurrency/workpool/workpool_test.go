package workpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoRunsAllTasks(t *testing.T) {
	p := New("test", nil)

	var n int32
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		p.Go(func() {
			atomic.AddInt32(&n, 1)
			wg.Done()
		})
	}
	wg.Wait()
	require.EqualValues(t, 100, n)
}

func TestCtxGoFallsBackWhenQueueFull(t *testing.T) {
	p := New("test", &Option{MaxIdleWorkers: 1, WorkerMaxAge: time.Second, TaskChanBuffer: 1})

	block := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	p.CtxGo(context.Background(), func() {
		<-block
		wg.Done()
	})

	var n int32
	wg.Add(1)
	p.CtxGo(context.Background(), func() {
		atomic.AddInt32(&n, 1)
		wg.Done()
	})

	close(block)
	wg.Wait()
	require.EqualValues(t, 1, n)
}

func TestPanicIsRecoveredByDefaultHandler(t *testing.T) {
	p := New("test", nil)
	var wg sync.WaitGroup
	wg.Add(1)
	require.NotPanics(t, func() {
		p.Go(func() {
			defer wg.Done()
			panic("boom")
		})
		wg.Wait()
	})
}

func TestCustomPanicHandlerReceivesValue(t *testing.T) {
	p := New("test", nil)
	var got interface{}
	var wg sync.WaitGroup
	wg.Add(1)
	p.SetPanicHandler(func(ctx context.Context, r interface{}) {
		got = r
		wg.Done()
	})
	p.Go(func() { panic("expected") })
	wg.Wait()
	require.Equal(t, "expected", got)
}
