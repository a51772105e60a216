package mocks

import (
	"context"
	"sync"

	"github.com/emptyOVO/calllog-go/worker"
)

// RpcClient is a scripted worker.RpcClient. Fn decides the outcome of each
// call; Requests records the chunks it received.
type RpcClient struct {
	Fn func(ctx context.Context, chunk []string) (worker.Result, error)

	mu       sync.Mutex
	Requests [][]string
	Closed   bool
}

func (c *RpcClient) Aggregate(ctx context.Context, chunk []string) (worker.Result, error) {
	c.mu.Lock()
	c.Requests = append(c.Requests, chunk)
	c.mu.Unlock()
	return c.Fn(ctx, chunk)
}

func (c *RpcClient) Close() error {
	c.mu.Lock()
	c.Closed = true
	c.mu.Unlock()
	return nil
}

// Calls returns the number of Aggregate calls so far.
func (c *RpcClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}
