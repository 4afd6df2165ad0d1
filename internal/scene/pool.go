package scene

import (
	"context"
	"sync"

	"github.com/zuoanCo/visual-modal/internal/boundary"
	"github.com/zuoanCo/visual-modal/internal/geo"
)

// sampleJob is a unit of work for the worker pool.
type sampleJob struct {
	index   int
	feature boundary.Feature
}

// sampleResult is the sampled rings of one feature.
type sampleResult struct {
	index int
	paths []geo.BorderPath
}

// WorkerPool samples boundary features onto the sphere in parallel.
type WorkerPool struct {
	workers int
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{workers: workers}
}

// SampleFeatures samples every feature and returns the paths of all features
// flattened in feature order. Features without geometry contribute nothing.
// On cancellation it returns what was gathered so far and ctx.Err().
func (wp *WorkerPool) SampleFeatures(ctx context.Context, features []boundary.Feature, radius float64, opts geo.SampleOptions) ([]geo.BorderPath, error) {
	if len(features) == 0 {
		return nil, nil
	}

	jobs := make(chan sampleJob, wp.workers*2)
	results := make(chan sampleResult, wp.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result := sampleResult{
					index: job.index,
					paths: geo.SampleGeometry(job.feature.Geometry, radius, opts),
				}
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, f := range features {
			select {
			case jobs <- sampleJob{index: i, feature: f}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	perFeature := make([][]geo.BorderPath, len(features))
	for result := range results {
		perFeature[result.index] = result.paths
	}

	var total int
	for _, p := range perFeature {
		total += len(p)
	}
	paths := make([]geo.BorderPath, 0, total)
	for _, p := range perFeature {
		paths = append(paths, p...)
	}
	return paths, ctx.Err()
}
