package skill

import (
	"context"
	"runtime"
	"sort"

	"github.com/sourcegraph/conc/pool"
)

// workerCap bounds the pool regardless of core count: every unit spawns
// an external process.
const workerCap = 8

// Aggregate validates every unit independently on a bounded worker pool
// and returns one result per unit, sorted by skill path. There is no
// fail-fast: a failing or hanging unit never stops the rest, so one run
// always yields a complete set of verdicts.
func Aggregate(ctx context.Context, units []Unit, v Validator, workers int) []Result {
	if len(units) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > workerCap {
		workers = workerCap
	}

	results := make([]Result, len(units))
	p := pool.New().WithMaxGoroutines(workers)
	for i, u := range units {
		i, u := i, u
		p.Go(func() {
			results[i] = v.Validate(ctx, u)
		})
	}
	p.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].SkillPath < results[j].SkillPath })
	return results
}
