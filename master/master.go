package master

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emptyOVO/calllog-go/calls"
	"github.com/emptyOVO/calllog-go/metrics"
	"github.com/emptyOVO/calllog-go/worker"
	log "github.com/sirupsen/logrus"
)

// Aggregator turns one chunk of raw lines into a partial group. Local
// workers and remote worker nodes both implement it.
type Aggregator interface {
	Aggregate(ctx context.Context, chunk []string) (worker.Result, error)
}

// ErrNoWorkers is returned by Run when the master has nothing to fan out to.
var ErrNoWorkers = errors.New("master has no workers")

// ErrNoGroup marks a worker that reported success without a partial group.
var ErrNoGroup = errors.New("worker returned no group")

// Master fans chunks out to its workers and merges what they return.
type Master struct {
	workers []Aggregator
}

func NewMaster(workers ...Aggregator) *Master {
	return &Master{workers: workers}
}

// Output is the merged result of one run.
type Output struct {
	Group *calls.CallGroup
	Stats worker.Stats
	// Chunks is the number of chunks the input was split into.
	Chunks int
}

type chunkResult struct {
	chunk int
	res   worker.Result
}

// Run splits lines into one chunk per worker (fewer when there are fewer
// lines), aggregates the chunks in parallel and merges the partial groups in
// completion order once every worker is done. The first worker error cancels
// the others and fails the whole run.
func (m *Master) Run(ctx context.Context, lines []string) (Output, error) {
	if len(m.workers) == 0 {
		return Output{}, ErrNoWorkers
	}
	chunks := worker.SplitLines(lines, len(m.workers))
	log.WithFields(log.Fields{"lines": len(lines), "chunks": len(chunks)}).Info("[Master] Start fan-out")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	resultCh := make(chan chunkResult, len(chunks))
	errCh := make(chan error, len(chunks))

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i0 int, c0 []string) {
			defer wg.Done()
			res, err := m.workers[i0].Aggregate(ctx, c0)
			if err == nil && res.Group == nil {
				err = ErrNoGroup
			}
			if err != nil {
				metrics.WorkerFailuresTotal.Inc()
				errCh <- fmt.Errorf("chunk %d: %w", i0, err)
				cancel()
				return
			}
			resultCh <- chunkResult{chunk: i0, res: res}
		}(i, chunk)
	}

	wg.Wait()
	close(resultCh)
	close(errCh)
	for err := range errCh {
		log.WithError(err).Error("[Master] Worker failed, aborting run")
		return Output{}, err
	}

	started := time.Now()
	parts := make([]*calls.CallGroup, 0, len(chunks))
	var stats worker.Stats
	for r := range resultCh {
		log.WithFields(log.Fields{"chunk": r.chunk, "uuid": r.res.UUID, "calls": r.res.Group.Len()}).Trace("[Master] Collect partial group")
		parts = append(parts, r.res.Group)
		stats.Add(r.res.Stats)
	}
	group := Merge(parts...)
	log.WithFields(log.Fields{
		"calls":   group.Len(),
		"skipped": stats.Skipped(),
		"merge":   time.Since(started),
	}).Info("[Master] Finish merge")

	return Output{Group: group, Stats: stats, Chunks: len(chunks)}, nil
}
