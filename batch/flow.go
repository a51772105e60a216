package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/emptyOVO/calllog-go/calls"
	"github.com/emptyOVO/calllog-go/metrics"
	"github.com/emptyOVO/calllog-go/worker"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// FlowResult is the outcome of one flow run with its stage durations.
type FlowResult struct {
	RunID   string
	Ranking []calls.RankedEntry
	Redials []calls.AreaReport
	// Stats is zero when the run started from a snapshot.
	Stats worker.Stats
	Calls int

	SourceDuration    time.Duration
	TransformDuration time.Duration
	SinkDuration      time.Duration
	TotalDuration     time.Duration
}

// RunFlow executes source -> aggregate -> rank/scan -> sinks as defined by
// cfg. Every configured sink receives the same report; the first sink
// failure aborts the run.
func RunFlow(ctx context.Context, cfg FlowConfig) (FlowResult, error) {
	res := FlowResult{RunID: uuid.NewString()}
	started := time.Now()

	cfg.withDefaults()
	if err := ValidateFlowConfig(cfg); err != nil {
		return res, err
	}
	metrics.ResetRunGauges()
	logger := log.WithField("run", res.RunID)

	sinks := make([]ReportWriter, len(cfg.Sinks))
	for i, sc := range cfg.Sinks {
		w, err := newSink(sc)
		if err != nil {
			return res, err
		}
		sinks[i] = w
	}

	var group *calls.CallGroup
	if cfg.Source.Type == "snapshot" {
		sSource := time.Now()
		g, err := ReadSnapshot(cfg.Source.SnapshotPath)
		if err != nil {
			return res, err
		}
		group = g
		res.SourceDuration = time.Since(sSource)
		logger.WithField("path", cfg.Source.SnapshotPath).Info("[Flow] Loaded snapshot")
	} else {
		src, err := newSource(cfg.Source)
		if err != nil {
			return res, err
		}
		sSource := time.Now()
		lines, err := src.Lines(ctx)
		if err != nil {
			return res, err
		}
		res.SourceDuration = time.Since(sSource)
		logger.WithFields(log.Fields{"source": cfg.Source.Type, "lines": len(lines)}).Info("[Flow] Source read")

		sTransform := time.Now()
		out, err := NewRunner(cfg.Transform).Run(ctx, lines)
		if err != nil {
			return res, fmt.Errorf("aggregate: %w", err)
		}
		group = out.Group
		res.Stats = out.Stats
		res.TransformDuration = time.Since(sTransform)
	}

	if path := cfg.Transform.SnapshotPath; path != "" {
		if err := WriteSnapshot(path, group); err != nil {
			return res, &SinkError{Sink: "snapshot", Artifact: path, Err: err}
		}
	}

	sRank := time.Now()
	res.Calls = group.Len()
	res.Ranking = calls.TopN(calls.Frequencies(group), *cfg.Transform.TopN)
	scanner := calls.NewRedialScanner(time.Duration(cfg.Transform.RedialThresholdSeconds)*time.Second, cfg.Transform.ScanWorkers)
	res.Redials = scanner.Scan(group)
	res.TransformDuration += time.Since(sRank)

	metrics.OffHoursCalls.Set(float64(res.Calls))
	metrics.AreaCodes.Set(float64(len(res.Redials)))
	metrics.RedialEvents.Set(float64(calls.EventCount(res.Redials)))
	logger.WithFields(log.Fields{
		"calls":   res.Calls,
		"areas":   len(res.Redials),
		"redials": calls.EventCount(res.Redials),
		"skipped": res.Stats.Skipped(),
	}).Info("[Flow] Aggregation done")

	sSink := time.Now()
	report := Report{RunID: res.RunID, Ranking: res.Ranking, Redials: res.Redials}
	for i, w := range sinks {
		if err := w.WriteReport(ctx, report); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(cfg.Sinks[i].Type).Inc()
			return res, err
		}
		logger.WithField("sink", cfg.Sinks[i].Type).Debug("[Flow] Report written")
	}
	res.SinkDuration = time.Since(sSink)
	res.TotalDuration = time.Since(started)

	metrics.StageDurationSeconds.WithLabelValues("source").Set(res.SourceDuration.Seconds())
	metrics.StageDurationSeconds.WithLabelValues("transform").Set(res.TransformDuration.Seconds())
	metrics.StageDurationSeconds.WithLabelValues("sink").Set(res.SinkDuration.Seconds())
	metrics.StageDurationSeconds.WithLabelValues("total").Set(res.TotalDuration.Seconds())
	return res, nil
}
