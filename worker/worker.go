package worker

import (
	"context"
	"time"

	"github.com/emptyOVO/calllog-go/calls"
	"github.com/emptyOVO/calllog-go/metrics"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// cancellation is checked once per this many lines.
const ctxCheckEvery = 4096

// Stats counts what a worker did with its lines.
type Stats struct {
	Lines            int `json:"lines"`
	Accepted         int `json:"accepted"`
	Filtered         int `json:"filtered"`
	Malformed        int `json:"malformed"`
	InvalidTimestamp int `json:"invalid_timestamp"`
}

// Skipped is the number of lines dropped because they could not be parsed.
func (s Stats) Skipped() int {
	return s.Malformed + s.InvalidTimestamp
}

func (s *Stats) Add(o Stats) {
	s.Lines += o.Lines
	s.Accepted += o.Accepted
	s.Filtered += o.Filtered
	s.Malformed += o.Malformed
	s.InvalidTimestamp += o.InvalidTimestamp
}

// Result is the partial output of one worker for one chunk.
type Result struct {
	WorkerID int
	UUID     string
	Group    *calls.CallGroup
	Stats    Stats
}

// Worker parses one chunk into a local CallGroup. A worker shares no state
// with other workers.
type Worker struct {
	UUID   string
	ID     int
	parser calls.Parser
}

func NewWorker(id int, parser calls.Parser) *Worker {
	return &Worker{
		UUID:   uuid.New().String(),
		ID:     id,
		parser: parser,
	}
}

// Aggregate parses every line of chunk and groups the off-hours records.
// Unparsable lines are counted and skipped; only cancellation fails it.
func (wr *Worker) Aggregate(ctx context.Context, chunk []string) (Result, error) {
	logger := log.WithFields(log.Fields{"worker": wr.ID, "uuid": wr.UUID})
	logger.WithField("lines", len(chunk)).Trace("[Worker] Start Aggregate")
	started := time.Now()

	group := calls.NewCallGroup()
	var stats Stats
	for i, line := range chunk {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		if calls.IsBlank(line) {
			continue
		}
		stats.Lines++
		rec, ok, err := wr.parser.Parse(line)
		if err != nil {
			kind, _ := calls.KindOf(err)
			switch kind {
			case calls.InvalidTimestamp:
				stats.InvalidTimestamp++
			default:
				stats.Malformed++
			}
			logger.WithError(err).Debug("[Worker] Skip line")
			continue
		}
		if !ok {
			stats.Filtered++
			continue
		}
		stats.Accepted++
		group.Add(rec)
	}

	observe(stats, time.Since(started))
	logger.WithFields(log.Fields{
		"accepted": stats.Accepted,
		"filtered": stats.Filtered,
		"skipped":  stats.Skipped(),
	}).Debug("[Worker] Finish Aggregate")

	return Result{WorkerID: wr.ID, UUID: wr.UUID, Group: group, Stats: stats}, nil
}

func observe(s Stats, d time.Duration) {
	metrics.LinesTotal.WithLabelValues("accepted").Add(float64(s.Accepted))
	metrics.LinesTotal.WithLabelValues("filtered").Add(float64(s.Filtered))
	metrics.LinesTotal.WithLabelValues(calls.MalformedLine.String()).Add(float64(s.Malformed))
	metrics.LinesTotal.WithLabelValues(calls.InvalidTimestamp.String()).Add(float64(s.InvalidTimestamp))
	metrics.WorkerDurationSeconds.Observe(d.Seconds())
}
