package ingest

import (
	"context"
	"sync"

	"github.com/law-makers/immocrawl/pkg/models"
)

// MaxWorkers caps concurrent detail fetches
const MaxWorkers = 4

// Outcome is the record produced for one link. Err holds the fetch or parse
// failure that turned it into a sentinel record.
type Outcome struct {
	Link     models.ListingLink
	Record   models.PropertyRecord
	Err      error
	WorkerID int
}

// Degraded reports whether the record was filled with sentinels after a failure
func (o Outcome) Degraded() bool {
	return o.Err != nil
}

func clampWorkers(n int) int {
	if n <= 0 {
		return 1
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// dispatch fans links out to workers and returns the channel of outcomes.
// Dispatch stops on cancellation; outcomes already produced are still
// delivered.
func (e *Engine) dispatch(ctx context.Context, links []models.ListingLink) <-chan Outcome {
	jobs := make(chan models.ListingLink)
	results := make(chan Outcome, e.workers)

	var wg sync.WaitGroup
	for w := 1; w <= e.workers; w++ {
		wg.Add(1)
		go e.worker(ctx, w, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for _, link := range links {
			select {
			case jobs <- link:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// worker processes links from the jobs channel
func (e *Engine) worker(ctx context.Context, id int, jobs <-chan models.ListingLink, results chan<- Outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	e.logger.Debug().Int("worker_id", id).Msg("Worker started")

	for link := range jobs {
		if ctx.Err() != nil {
			e.logger.Debug().Int("worker_id", id).Msg("Worker cancelled")
			return
		}

		out, ok := e.process(ctx, link)
		if !ok {
			return
		}
		out.WorkerID = id

		// the writer drains results until the channel closes
		results <- out
	}

	e.logger.Debug().Int("worker_id", id).Msg("Worker finished")
}
