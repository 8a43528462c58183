package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestImportLimiter_Defaults(t *testing.T) {
	l := NewImportLimiter(0, 0)
	if got := l.Status().MaxConcurrent; got != DefaultMaxConcurrentImports {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentImports)
	}
	if l.maxWait != DefaultMaxWait {
		t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultMaxWait)
	}
}

func TestImportLimiter_AcquireRelease(t *testing.T) {
	l := NewImportLimiter(2, time.Second)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}

	st := l.Status()
	if st.Active != 2 || st.Available != 0 {
		t.Errorf("Status() = %+v, want 2 active, 0 available", st)
	}

	l.Release()
	l.Release()

	if got := l.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount after release = %d, want 0", got)
	}
}

func TestImportLimiter_TimesOut(t *testing.T) {
	l := NewImportLimiter(1, 50*time.Millisecond)
	if !l.TryAcquire() {
		t.Fatal("TryAcquire on empty limiter failed")
	}
	defer l.Release()

	if l.TryAcquire() {
		t.Error("TryAcquire on full limiter succeeded")
	}

	start := time.Now()
	err := l.Acquire(context.Background())
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("Acquire() error = %v, want ErrTooManyImports", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Acquire returned after %v, before the wait elapsed", elapsed)
	}
}

func TestImportLimiter_ContextCancel(t *testing.T) {
	l := NewImportLimiter(1, time.Minute)
	l.TryAcquire()
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
}

func TestImportLimiter_Concurrent(t *testing.T) {
	const limit = 3
	l := NewImportLimiter(limit, 5*time.Second)

	var (
		wg      sync.WaitGroup
		current atomic.Int64
		peak    atomic.Int64
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer l.Release()

			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > limit {
		t.Errorf("peak concurrency = %d, want <= %d", got, limit)
	}
}

func TestImportLimiter_WaitForDrain(t *testing.T) {
	l := NewImportLimiter(1, time.Second)
	l.TryAcquire()

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain() = %v, want nil", err)
	}

	l.TryAcquire()
	defer l.Release()
	short, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	if err := l.WaitForDrain(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain() = %v, want DeadlineExceeded", err)
	}
}
