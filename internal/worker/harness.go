package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// channelCapacity is the bounded channel size shared by the reader→worker
// and worker→writer stages (spec §4.12: "bounded channel, capacity 128").
const channelCapacity = 128

// Process func runs the per-query pipeline on one record and returns its
// result payload.
type Process func(ctx context.Context, rec Record) (any, error)

// Params configures the harness.
type Params struct {
	// Workers is the worker-pool size. 0 means runtime.NumCPU().
	Workers int
}

// Run drives the reader→workers→writer pipeline: it reads records from
// next (returning false, nil when exhausted), dispatches each to Workers
// goroutines running fn, and feeds every result in arrival order to sink.
// A single record's error does not stop the pipeline (spec §4.12: "Worker
// failure on a single record becomes an error record"); Run itself only
// returns an error if the reader, fn's goroutine machinery, or the sink
// returns a hard/ctx-cancellation error.
func Run(ctx context.Context, next func() (Record, bool, error), fn Process, sink func(Result) error, params Params) error {
	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	records := make(chan Record, channelCapacity)
	results := make(chan Result, channelCapacity)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(records)
		for {
			rec, ok, err := next()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			select {
			case records <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	workerGroup, workerCtx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		workerGroup.Go(func() error {
			for rec := range records {
				payload, err := fn(workerCtx, rec)
				res := Result{Index: rec.Index, Name: rec.Name, Payload: payload, Err: err}
				select {
				case results <- res:
				case <-workerCtx.Done():
					return workerCtx.Err()
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		err := workerGroup.Wait()
		close(results)
		return err
	})

	g.Go(func() error {
		for res := range results {
			if err := sink(res); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}
