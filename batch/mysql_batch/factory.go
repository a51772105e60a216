package mysql_batch

import (
	"context"
	"database/sql"

	"github.com/emptyOVO/calllog-go/calls"
)

type SourceAdapter struct {
	cfg SourceConfig
}

func NewSourceAdapter(cfg SourceConfig) SourceAdapter {
	return SourceAdapter{cfg: cfg}
}

func (a SourceAdapter) Export(ctx context.Context, db *sql.DB) ([]string, error) {
	return ExportLines(ctx, db, a.cfg)
}

type SinkAdapter struct {
	cfg SinkConfig
}

func NewSinkAdapter(cfg SinkConfig) SinkAdapter {
	return SinkAdapter{cfg: cfg}
}

func (a SinkAdapter) Write(ctx context.Context, db *sql.DB, runID string, ranking []calls.RankedEntry, reports []calls.AreaReport) error {
	return WriteReport(ctx, db, a.cfg, runID, ranking, reports)
}
