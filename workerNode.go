package calllog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/emptyOVO/calllog-go/calls"
	"github.com/emptyOVO/calllog-go/worker"
	log "github.com/sirupsen/logrus"
)

// StartWorkerNode serves worker RPCs on host:port until ctx is done. When the
// port is taken it tries the next one, up to maxAttempts ports.
func StartWorkerNode(ctx context.Context, host string, port int, maxAttempts int, parser calls.Parser) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	for i := 0; i < maxAttempts; i++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port+i))
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				log.Warnf("worker listen %s occupied, trying next port", addr)
				continue
			}
			return err
		}
		return worker.Serve(ctx, lis, parser)
	}
	return fmt.Errorf("unable to find available worker port from %d after %d attempts", port, maxAttempts)
}
