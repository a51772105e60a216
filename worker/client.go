package worker

import (
	"context"
	"fmt"

	"github.com/emptyOVO/calllog-go/calls"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RpcClient aggregates chunks on a remote worker node.
type RpcClient interface {
	Aggregate(ctx context.Context, chunk []string) (Result, error)
	Close() error
}

type nodeClient struct {
	addr   string
	window calls.Window
	conn   *grpc.ClientConn
}

// Dial returns a client for the worker node at addr. Every request asks the
// node to filter with window. The connection is established lazily on the
// first call.
func Dial(addr string, window calls.Window, opts ...grpc.DialOption) (RpcClient, error) {
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("dial worker %s: %w", addr, err)
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial worker %s: %w", addr, err)
	}
	return &nodeClient{addr: addr, window: window, conn: conn}, nil
}

func (c *nodeClient) Aggregate(ctx context.Context, chunk []string) (Result, error) {
	log.WithFields(log.Fields{"addr": c.addr, "lines": len(chunk)}).Trace("Start RPC call")
	raw, err := encodeChunk(chunk)
	if err != nil {
		return Result{}, fmt.Errorf("aggregate on %s: %w", c.addr, err)
	}
	ctx = metadata.AppendToOutgoingContext(ctx, windowToMD(c.window)...)
	in := wrapperspb.String(raw)
	out := new(wrapperspb.StringValue)
	var trailer metadata.MD
	if err := c.conn.Invoke(ctx, aggregateMethod, in, out, grpc.Trailer(&trailer)); err != nil {
		if respErr, ok := status.FromError(err); ok {
			return Result{}, fmt.Errorf("aggregate on %s: %s: %w", c.addr, respErr.Code(), err)
		}
		return Result{}, fmt.Errorf("aggregate on %s: %w", c.addr, err)
	}
	log.WithField("addr", c.addr).Trace("End RPC call")

	group, err := decodeGroup(out.GetValue())
	if err != nil {
		return Result{}, fmt.Errorf("aggregate on %s: %w", c.addr, err)
	}
	stats, id, err := statsFromMD(trailer)
	if err != nil {
		return Result{}, fmt.Errorf("aggregate on %s: %w", c.addr, err)
	}
	return Result{UUID: id, Group: group, Stats: stats}, nil
}

func (c *nodeClient) Close() error {
	return c.conn.Close()
}
