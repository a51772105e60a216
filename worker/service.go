package worker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/emptyOVO/calllog-go/calls"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName     = "calllog.Aggregator"
	aggregateMethod = "/" + serviceName + "/Aggregate"
)

// Trailer keys carrying Stats back to the master.
const (
	mdLines            = "x-calllog-lines"
	mdAccepted         = "x-calllog-accepted"
	mdFiltered         = "x-calllog-filtered"
	mdMalformed        = "x-calllog-malformed"
	mdInvalidTimestamp = "x-calllog-invalid-timestamp"
	mdWorkerUUID       = "x-calllog-worker-uuid"
)

// Request metadata keys carrying the master's window.
const (
	mdWindowStart = "x-calllog-window-start"
	mdWindowEnd   = "x-calllog-window-end"
)

// AggregatorServer is the server API of a worker node. The request holds the
// JSON-encoded chunk lines; the response holds the JSON-encoded partial group.
type AggregatorServer interface {
	Aggregate(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

func RegisterAggregatorServer(s grpc.ServiceRegistrar, srv AggregatorServer) {
	s.RegisterService(&aggregatorServiceDesc, srv)
}

var aggregatorServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AggregatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Aggregate",
			Handler:    aggregateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "calllog/aggregator",
}

func aggregateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AggregatorServer).Aggregate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: aggregateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AggregatorServer).Aggregate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func statsToMD(s Stats, workerUUID string) metadata.MD {
	return metadata.Pairs(
		mdLines, strconv.Itoa(s.Lines),
		mdAccepted, strconv.Itoa(s.Accepted),
		mdFiltered, strconv.Itoa(s.Filtered),
		mdMalformed, strconv.Itoa(s.Malformed),
		mdInvalidTimestamp, strconv.Itoa(s.InvalidTimestamp),
		mdWorkerUUID, workerUUID,
	)
}

func statsFromMD(md metadata.MD) (Stats, string, error) {
	var s Stats
	fields := []struct {
		key string
		dst *int
	}{
		{mdLines, &s.Lines},
		{mdAccepted, &s.Accepted},
		{mdFiltered, &s.Filtered},
		{mdMalformed, &s.Malformed},
		{mdInvalidTimestamp, &s.InvalidTimestamp},
	}
	for _, f := range fields {
		vals := md.Get(f.key)
		if len(vals) == 0 {
			return Stats{}, "", errMissingTrailer(f.key)
		}
		n, err := strconv.Atoi(vals[0])
		if err != nil {
			return Stats{}, "", err
		}
		*f.dst = n
	}
	var id string
	if vals := md.Get(mdWorkerUUID); len(vals) > 0 {
		id = vals[0]
	}
	return s, id, nil
}

func windowToMD(w calls.Window) []string {
	return []string{
		mdWindowStart, strconv.Itoa(w.StartHour),
		mdWindowEnd, strconv.Itoa(w.EndHour),
	}
}

// windowFromMD returns the window sent by the master. ok is false when the
// request carries none.
func windowFromMD(md metadata.MD) (w calls.Window, ok bool, err error) {
	start, end := md.Get(mdWindowStart), md.Get(mdWindowEnd)
	if len(start) == 0 && len(end) == 0 {
		return calls.Window{}, false, nil
	}
	if len(start) == 0 || len(end) == 0 {
		return calls.Window{}, false, fmt.Errorf("window metadata needs both %s and %s", mdWindowStart, mdWindowEnd)
	}
	if w.StartHour, err = strconv.Atoi(start[0]); err != nil {
		return calls.Window{}, false, fmt.Errorf("%s: %w", mdWindowStart, err)
	}
	if w.EndHour, err = strconv.Atoi(end[0]); err != nil {
		return calls.Window{}, false, fmt.Errorf("%s: %w", mdWindowEnd, err)
	}
	if err := w.Validate(); err != nil {
		return calls.Window{}, false, err
	}
	return w, true, nil
}

type errMissingTrailer string

func (e errMissingTrailer) Error() string {
	return "missing trailer " + string(e)
}
