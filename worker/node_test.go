package worker

import (
	"context"
	"net"
	"testing"

	"github.com/emptyOVO/calllog-go/calls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func bufDialer(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

// startNodeWindow serves a node built with OffHours and returns a client
// asking for window.
func startNodeWindow(t *testing.T, window calls.Window) (RpcClient, *bufconn.Listener) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, lis, calls.NewParser(calls.OffHours)) }()

	client, err := Dial("passthrough:///bufnet", window, bufDialer(lis))
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
		cancel()
		<-done
	})
	return client, lis
}

func startNode(t *testing.T) RpcClient {
	client, _ := startNodeWindow(t, calls.OffHours)
	return client
}

func TestNodeAggregateMatchesLocalWorker(t *testing.T) {
	client := startNode(t)
	chunk := append(wellFormed(40), "no delimiter here", "2023-01-01 09:00:00: +1(412)5551234")

	remote, err := client.Aggregate(context.Background(), chunk)
	require.NoError(t, err)
	local, err := NewWorker(1, calls.NewParser(calls.OffHours)).Aggregate(context.Background(), chunk)
	require.NoError(t, err)

	assert.Equal(t, local.Stats, remote.Stats)
	assert.Equal(t, encodeSorted(local.Group), encodeSorted(remote.Group))
	assert.NotEmpty(t, remote.UUID)
}

func TestNodeAggregateEmptyChunk(t *testing.T) {
	client := startNode(t)
	res, err := client.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Group.Len())
	assert.Equal(t, Stats{}, res.Stats)
}

func TestNodeAggregateCanceled(t *testing.T) {
	client := startNode(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Aggregate(ctx, wellFormed(2))
	assert.Error(t, err)
}

func TestNodeUsesRequestWindow(t *testing.T) {
	client, _ := startNodeWindow(t, calls.Window{StartHour: 22, EndHour: 6})
	chunk := []string{
		"2023-01-01 22:30:00: +1(412)5551234",
		"2023-01-02 03:00:00: +1(412)5551234",
		"2023-01-02 12:00:00: +1(412)5551234",
	}

	remote, err := client.Aggregate(context.Background(), chunk)
	require.NoError(t, err)
	local, err := NewWorker(1, calls.NewParser(calls.Window{StartHour: 22, EndHour: 6})).Aggregate(context.Background(), chunk)
	require.NoError(t, err)

	assert.Equal(t, Stats{Lines: 3, Accepted: 2, Filtered: 1}, remote.Stats)
	assert.Equal(t, local.Stats, remote.Stats)
	assert.Equal(t, encodeSorted(local.Group), encodeSorted(remote.Group))
}

func TestNodeFallsBackToOwnWindow(t *testing.T) {
	_, lis := startNodeWindow(t, calls.OffHours)
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()), bufDialer(lis))
	require.NoError(t, err)
	defer conn.Close()

	raw, err := encodeChunk([]string{
		"2023-01-01 22:30:00: +1(412)5551234",
		"2023-01-02 03:00:00: +1(412)5551234",
	})
	require.NoError(t, err)
	out := new(wrapperspb.StringValue)
	var trailer metadata.MD
	require.NoError(t, conn.Invoke(context.Background(), aggregateMethod, wrapperspb.String(raw), out, grpc.Trailer(&trailer)))

	stats, _, err := statsFromMD(trailer)
	require.NoError(t, err)
	assert.Equal(t, Stats{Lines: 2, Accepted: 1, Filtered: 1}, stats)
}

func TestNodeRejectsBadWindow(t *testing.T) {
	_, lis := startNodeWindow(t, calls.OffHours)
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()), bufDialer(lis))
	require.NoError(t, err)
	defer conn.Close()

	ctx := metadata.AppendToOutgoingContext(context.Background(), mdWindowStart, "5", mdWindowEnd, "5")
	err = conn.Invoke(ctx, aggregateMethod, wrapperspb.String(""), new(wrapperspb.StringValue))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDialRejectsBadWindow(t *testing.T) {
	_, err := Dial("passthrough:///bufnet", calls.Window{StartHour: 3, EndHour: 3})
	assert.Error(t, err)
}

func TestNodeCarriesSeparatorsInNumbers(t *testing.T) {
	client := startNode(t)
	chunk := []string{
		"2023-01-01 02:00:00: +1(\t12)5551234",
		"2023-01-01 02:05:00: +1(\t12)5551234",
		"2023-01-01 03:00:00: +1(412)55\n51234",
	}

	remote, err := client.Aggregate(context.Background(), chunk)
	require.NoError(t, err)
	local, err := NewWorker(1, calls.NewParser(calls.OffHours)).Aggregate(context.Background(), chunk)
	require.NoError(t, err)

	assert.Equal(t, 3, local.Stats.Accepted)
	assert.Equal(t, local.Stats, remote.Stats)
	assert.Equal(t, encodeSorted(local.Group), encodeSorted(remote.Group))
	assert.True(t, remote.Group.HasArea("\t12"))
}
