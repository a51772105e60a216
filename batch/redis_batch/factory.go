package redis_batch

import (
	"context"

	"github.com/emptyOVO/calllog-go/calls"
)

type SourceAdapter struct {
	connCfg ConnConfig
	cfg     SourceConfig
}

func NewSourceAdapter(connCfg ConnConfig, cfg SourceConfig) SourceAdapter {
	return SourceAdapter{connCfg: connCfg, cfg: cfg}
}

func (a SourceAdapter) Export(ctx context.Context) ([]string, error) {
	return ExportLines(ctx, a.connCfg, a.cfg)
}

type SinkAdapter struct {
	connCfg ConnConfig
	cfg     SinkConfig
}

func NewSinkAdapter(connCfg ConnConfig, cfg SinkConfig) SinkAdapter {
	return SinkAdapter{connCfg: connCfg, cfg: cfg}
}

func (a SinkAdapter) Write(ctx context.Context, runID string, ranking []calls.RankedEntry, reports []calls.AreaReport) error {
	return WriteReport(ctx, a.connCfg, a.cfg, runID, ranking, reports)
}
