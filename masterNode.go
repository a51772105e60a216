package calllog

import (
	"context"
	"fmt"

	"github.com/emptyOVO/calllog-go/calls"
	"github.com/emptyOVO/calllog-go/master"
	"github.com/emptyOVO/calllog-go/worker"
	log "github.com/sirupsen/logrus"
)

// RunWithWorkerNodes aggregates lines on remote worker nodes, one chunk per
// address. Listing an address twice sends it two chunks. Every node filters
// with window, whatever it was started with.
func RunWithWorkerNodes(ctx context.Context, lines []string, addrs []string, window calls.Window) (master.Output, error) {
	if len(addrs) == 0 {
		return master.Output{}, master.ErrNoWorkers
	}
	workers := make([]master.Aggregator, 0, len(addrs))
	for _, addr := range addrs {
		client, err := worker.Dial(addr, window)
		if err != nil {
			return master.Output{}, fmt.Errorf("connect worker node: %w", err)
		}
		defer client.Close()
		workers = append(workers, client)
	}
	log.WithFields(log.Fields{"nodes": len(addrs), "window": window}).Info("[Master] Using remote worker nodes")
	return master.NewMaster(workers...).Run(ctx, lines)
}
