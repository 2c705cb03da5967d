package retention

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePurger struct {
	calls   atomic.Int32
	days    atomic.Int32
	entered chan struct{}
	release chan struct{}
	n       int64
	err     error
}

func (f *fakePurger) DeleteOlderThan(_ context.Context, days int) (int64, error) {
	f.calls.Add(1)
	f.days.Store(int32(days))
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.n, f.err
}

var nop = zap.NewNop().Sugar()

func TestRunUsesHorizon(t *testing.T) {
	p := &fakePurger{n: 3}
	n, err := New(p, 30, time.Hour, nop).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, int32(30), p.days.Load())
}

func TestRunReturnsStoreError(t *testing.T) {
	p := &fakePurger{err: errors.New("locked")}
	n, err := New(p, 30, time.Hour, nop).Run(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestOverlappingRunsCollapse(t *testing.T) {
	p := &fakePurger{n: 7, entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := New(p, 30, time.Hour, nop)

	var wg sync.WaitGroup
	results := make([]int64, 3)
	wg.Add(1)
	go func() { defer wg.Done(); results[0], _ = s.Run(context.Background()) }()
	<-p.entered

	for i := 1; i < 3; i++ {
		wg.Add(1)
		go func(i int) { defer wg.Done(); results[i], _ = s.Run(context.Background()) }(i)
	}
	time.Sleep(50 * time.Millisecond) // let the joiners reach the barrier
	close(p.release)
	wg.Wait()

	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, []int64{7, 7, 7}, results)
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	p := &fakePurger{entered: make(chan struct{}, 1)}
	s := New(p, 30, time.Hour, nop)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Start(ctx); close(done) }()

	select {
	case <-p.entered:
	case <-time.After(time.Second):
		t.Fatal("first sweep did not run")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStartDisabledWithZeroDays(t *testing.T) {
	p := &fakePurger{}
	New(p, 0, time.Hour, nop).Start(context.Background())
	assert.Zero(t, p.calls.Load())
}
