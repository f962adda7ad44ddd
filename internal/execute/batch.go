package execute

import (
	"context"
	"runtime"
	"sync"

	"github.com/surajkarki66/edge-AI/internal/graph"
)

// BatchResult pairs one batch entry's outputs with its originating index.
type BatchResult struct {
	Index   int
	Outputs map[string]*Tensor
	Err     error
}

// RunBatch evaluates the graph on a batch of independent input sets,
// parallel per input. Results are re-associated by index; there is no
// ordering requirement beyond that. The graph is shared read-only across
// workers, which is safe because Run never mutates it.
func RunBatch(ctx context.Context, g *graph.Graph, batch []map[string]*Tensor, backend Backend, workers int) []BatchResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(batch) {
		workers = len(batch)
	}

	results := make([]BatchResult, len(batch))
	indices := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if err := ctx.Err(); err != nil {
					results[i] = BatchResult{Index: i, Err: err}
					continue
				}
				outputs, err := Run(g, batch[i], backend)
				results[i] = BatchResult{Index: i, Outputs: outputs, Err: err}
			}
		}()
	}

	for i := range batch {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return results
}
