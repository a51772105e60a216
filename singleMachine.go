package calllog

import (
	"context"
	"runtime"

	"github.com/emptyOVO/calllog-go/calls"
	"github.com/emptyOVO/calllog-go/master"
	"github.com/emptyOVO/calllog-go/worker"
)

// DefaultParallelism is the number of in-process workers used when none is
// configured.
func DefaultParallelism() int {
	return runtime.NumCPU()
}

// RunSingleMachine aggregates lines with nWorker in-process workers.
func RunSingleMachine(ctx context.Context, lines []string, nWorker int, parser calls.Parser) (master.Output, error) {
	if nWorker <= 0 {
		nWorker = DefaultParallelism()
	}
	workers := make([]master.Aggregator, nWorker)
	for i := 0; i < nWorker; i++ {
		workers[i] = worker.NewWorker(i, parser)
	}
	return master.NewMaster(workers...).Run(ctx, lines)
}
