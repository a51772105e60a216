package batch

import (
	"context"

	calllog "github.com/emptyOVO/calllog-go"
	"github.com/emptyOVO/calllog-go/calls"
	"github.com/emptyOVO/calllog-go/master"
)

// Runner abstracts how the aggregation stage is executed.
type Runner interface {
	Run(ctx context.Context, lines []string) (master.Output, error)
}

// LocalRunner aggregates with in-process workers. Workers <= 0 uses one
// worker per CPU.
type LocalRunner struct {
	Workers int
	Parser  calls.Parser
}

func (r LocalRunner) Run(ctx context.Context, lines []string) (master.Output, error) {
	return calllog.RunSingleMachine(ctx, lines, r.Workers, r.Parser)
}

// RemoteRunner aggregates on gRPC worker nodes. Window travels with every
// request.
type RemoteRunner struct {
	Addrs  []string
	Window calls.Window
}

func (r RemoteRunner) Run(ctx context.Context, lines []string) (master.Output, error) {
	return calllog.RunWithWorkerNodes(ctx, lines, r.Addrs, r.Window)
}

// NewRunner picks the runner for a transform configuration.
func NewRunner(tf FlowTransformConfig) Runner {
	if len(tf.WorkerAddrs) > 0 {
		return RemoteRunner{Addrs: tf.WorkerAddrs, Window: tf.Window}
	}
	return LocalRunner{Workers: tf.Workers, Parser: calls.NewParser(tf.Window)}
}
