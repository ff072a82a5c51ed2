package translate

import (
	"context"
	"strconv"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/parallel"
)

// BatchResult pairs a request with its outcome.
type BatchResult struct {
	Request Request
	Result  *Result
	Err     error
}

// TranslateAll runs independent requests on at most workers goroutines
// (0 means one per request). A failing request does not affect the
// others. Results are returned in request order.
func (t *Translator) TranslateAll(ctx context.Context, reqs []Request, workers int) []BatchResult {
	if ctx == nil {
		ctx = context.Background()
	}
	out := make([]BatchResult, len(reqs))
	for i, req := range reqs {
		out[i].Request = req
	}
	if len(reqs) == 0 {
		return out
	}

	pool := parallel.NewWorkerPool[*Result](ctx, workers, false)
	for i, req := range reqs {
		req := req
		pool.Submit(strconv.Itoa(i), func(ctx context.Context) (*Result, error) {
			return t.Translate(ctx, req)
		})
	}

	results, _ := pool.Wait()
	for _, r := range results {
		i, err := strconv.Atoi(r.ID)
		if err != nil || i < 0 || i >= len(out) {
			continue
		}
		out[i].Result = r.Value
		out[i].Err = r.Err
	}
	return out
}

// Failed counts the failed entries of a batch.
func Failed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
