// Package fanout runs per-region queries concurrently with a bounded
// worker count and explicit per-region results.
package fanout

import (
	"context"
	"fmt"
	"sync"
)

// RegionResult carries the outcome of one region's query: either Value or
// Err is meaningful, never both.
type RegionResult[T any] struct {
	Region string
	Value  T
	Err    error
}

// QueryRegions invokes fn once per region, running at most maxParallel
// queries at a time. Results are returned in input order, one per region.
// A panic inside fn is recovered into that region's error; a context
// cancellation before a region starts produces ctx.Err() for it.
func QueryRegions[T any](ctx context.Context, regions []string, maxParallel int, fn func(ctx context.Context, region string) (T, error)) []RegionResult[T] {
	if maxParallel <= 0 {
		maxParallel = 1
	}

	results := make([]RegionResult[T], len(regions))

	semaphore := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup

	for i, region := range regions {
		results[i].Region = region

		wg.Add(1)
		go func(idx int, region string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				results[idx].Err = ctx.Err()
				return
			}

			value, err := invoke(ctx, region, fn)
			results[idx].Value = value
			results[idx].Err = err
		}(i, region)
	}

	wg.Wait()
	return results
}

// invoke runs fn with panic recovery so one misbehaving region cannot take
// down the whole poll cycle.
func invoke[T any](ctx context.Context, region string, fn func(ctx context.Context, region string) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in region query: %v", r)
		}
	}()
	return fn(ctx, region)
}

// Aggregate flattens successful slice results in region order, stamping
// each element with its region, and collects failures keyed by region.
func Aggregate[T any](results []RegionResult[[]T], stamp func(region string, item *T)) ([]T, map[string]string) {
	var merged []T
	errs := make(map[string]string)

	for _, res := range results {
		if res.Err != nil {
			errs[res.Region] = res.Err.Error()
			continue
		}
		for i := range res.Value {
			if stamp != nil {
				stamp(res.Region, &res.Value[i])
			}
			merged = append(merged, res.Value[i])
		}
	}

	return merged, errs
}

// Partition splits results into successes and failures keyed by region.
func Partition[T any](results []RegionResult[T]) (map[string]T, map[string]string) {
	oks := make(map[string]T)
	errs := make(map[string]string)
	for _, res := range results {
		if res.Err != nil {
			errs[res.Region] = res.Err.Error()
			continue
		}
		oks[res.Region] = res.Value
	}
	return oks, errs
}
