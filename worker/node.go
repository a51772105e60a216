package worker

import (
	"context"
	"errors"
	"net"
	"sync/atomic"

	"github.com/emptyOVO/calllog-go/calls"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Node serves Aggregate requests from a remote master. Every request gets
// a fresh Worker. The window sent with a request wins over the node's own.
type Node struct {
	parser calls.Parser
	nextID int64
}

func NewNode(parser calls.Parser) *Node {
	return &Node{parser: parser}
}

func (n *Node) Aggregate(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	parser, err := n.parserFor(ctx)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	chunk, err := decodeChunk(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	id := int(atomic.AddInt64(&n.nextID, 1))
	wr := NewWorker(id, parser)
	log.WithFields(log.Fields{"uuid": wr.UUID, "window": parser.Window}).Info("[Worker] RPC Aggregate")

	res, err := wr.Aggregate(ctx, chunk)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	if err := grpc.SetTrailer(ctx, statsToMD(res.Stats, res.UUID)); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := encodeGroup(res.Group)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.String(out), nil
}

func (n *Node) parserFor(ctx context.Context) (calls.Parser, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	w, ok, err := windowFromMD(md)
	if err != nil {
		return calls.Parser{}, err
	}
	if !ok {
		return n.parser, nil
	}
	return calls.NewParser(w), nil
}

// Serve runs a worker node on lis until ctx is done.
func Serve(ctx context.Context, lis net.Listener, parser calls.Parser) error {
	baseServer := grpc.NewServer()
	RegisterAggregatorServer(baseServer, NewNode(parser))

	errCh := make(chan error, 1)
	go func() {
		errCh <- baseServer.Serve(lis)
	}()
	log.WithField("addr", lis.Addr().String()).Info("Worker gRPC server start")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		baseServer.GracefulStop()
		log.Info("[Worker] End worker")
		return nil
	}
}
