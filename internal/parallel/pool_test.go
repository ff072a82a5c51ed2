package parallel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewWorkerPool(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pool with max workers", func(t *testing.T) {
		pool := NewWorkerPool[string](ctx, 4, false)
		if pool == nil {
			t.Fatal("NewWorkerPool returned nil")
		}
		if pool.maxWorkers != 4 {
			t.Errorf("expected maxWorkers=4, got %d", pool.maxWorkers)
		}
		if pool.failFast {
			t.Error("expected failFast=false")
		}
	})

	t.Run("negative workers means unlimited", func(t *testing.T) {
		pool := NewWorkerPool[string](ctx, -3, false)
		if pool.maxWorkers != 0 {
			t.Errorf("expected maxWorkers=0 for unlimited, got %d", pool.maxWorkers)
		}
	})
}

func TestWorkerPool_SubmitAndWait(t *testing.T) {
	ctx := context.Background()

	t.Run("single job", func(t *testing.T) {
		pool := NewWorkerPool[string](ctx, 2, false)
		pool.Submit("spec-001", func(context.Context) (string, error) {
			return "out/spec-001.yaml", nil
		})

		results, errs := pool.Wait()
		if len(errs) != 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].ID != "spec-001" || results[0].Value != "out/spec-001.yaml" {
			t.Errorf("unexpected result %+v", results[0])
		}
	})

	t.Run("respects max workers limit", func(t *testing.T) {
		pool := NewWorkerPool[int](ctx, 2, false)

		maxConcurrent := 0
		currentConcurrent := 0
		var mu sync.Mutex

		for i := 0; i < 5; i++ {
			n := i
			pool.Submit("", func(context.Context) (int, error) {
				mu.Lock()
				currentConcurrent++
				if currentConcurrent > maxConcurrent {
					maxConcurrent = currentConcurrent
				}
				mu.Unlock()

				time.Sleep(30 * time.Millisecond)

				mu.Lock()
				currentConcurrent--
				mu.Unlock()
				return n, nil
			})
		}

		results, _ := pool.Wait()
		if len(results) != 5 {
			t.Errorf("expected 5 results, got %d", len(results))
		}
		if maxConcurrent > 2 {
			t.Errorf("expected max 2 concurrent jobs, got %d", maxConcurrent)
		}
	})

	t.Run("unlimited workers", func(t *testing.T) {
		pool := NewWorkerPool[int](ctx, 0, false)
		for i := 0; i < 10; i++ {
			n := i
			pool.Submit("", func(context.Context) (int, error) { return n, nil })
		}

		results, _ := pool.Wait()
		if len(results) != 10 {
			t.Errorf("expected 10 results, got %d", len(results))
		}
	})
}

func TestWorkerPool_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("error is recorded per job", func(t *testing.T) {
		pool := NewWorkerPool[string](ctx, 2, false)
		pool.Submit("a", func(context.Context) (string, error) { return "a", nil })
		pool.Submit("b", func(context.Context) (string, error) { return "", errors.New("boom") })
		pool.Submit("c", func(context.Context) (string, error) { return "c", nil })

		results, errs := pool.Wait()
		if len(errs) != 1 {
			t.Errorf("expected 1 error, got %d", len(errs))
		}
		if len(results) != 3 {
			t.Errorf("expected 3 results, got %d", len(results))
		}
		for _, r := range results {
			if (r.Err != nil) != (r.ID == "b") {
				t.Errorf("unexpected error state for %s: %v", r.ID, r.Err)
			}
		}
		if errs[0].Error() != "b: boom" {
			t.Errorf("error = %q, want %q", errs[0].Error(), "b: boom")
		}
	})

	t.Run("failFast stops execution", func(t *testing.T) {
		pool := NewWorkerPool[string](ctx, 1, true)

		executed := 0
		var mu sync.Mutex
		for i := 0; i < 5; i++ {
			pool.Submit("", func(context.Context) (string, error) {
				mu.Lock()
				executed++
				current := executed
				mu.Unlock()
				if current == 1 {
					return "", errors.New("fail fast")
				}
				time.Sleep(20 * time.Millisecond)
				return "", nil
			})
		}

		results, errs := pool.Wait()
		if executed == 5 {
			t.Error("failFast did not stop execution early")
		}
		if len(errs) == 0 {
			t.Error("expected at least one error")
		}
		if len(results) != 5 {
			t.Errorf("expected every submission to be recorded, got %d", len(results))
		}
	})
}

func TestWorkerPool_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool[string](ctx, 1, false)

	started := make(chan struct{})
	pool.Submit("first", func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})
	<-started
	pool.Submit("second", func(context.Context) (string, error) {
		return "ran", nil
	})
	cancel()

	results, _ := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", r.ID, r.Err)
		}
	}
}

func TestWorkerPool_Duration(t *testing.T) {
	pool := NewWorkerPool[string](context.Background(), 2, false)
	pool.Submit("", func(context.Context) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "", nil
	})

	results, _ := pool.Wait()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Duration < 20*time.Millisecond {
		t.Errorf("expected duration >= 20ms, got %v", results[0].Duration)
	}
}
