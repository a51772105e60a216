package mysql_batch

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/emptyOVO/calllog-go/calls"
)

// tables names the quoted report tables of one sink.
type tables struct {
	counts string
	areas  string
	events string
}

func (c SinkConfig) tables() (tables, error) {
	var t tables
	var err error
	if t.counts, err = quoteIdentifier(c.CountsTable); err != nil {
		return t, err
	}
	if t.areas, err = quoteIdentifier(c.AreasTable); err != nil {
		return t, err
	}
	if t.events, err = quoteIdentifier(c.EventsTable); err != nil {
		return t, err
	}
	return t, nil
}

// WriteReport stores the ranking and the redial reports of one run in a
// single transaction. Timestamps are stored as "YYYY-MM-DD HH:MM:SS"
// strings so the same statements run on MySQL and SQLite.
func WriteReport(ctx context.Context, db *sql.DB, cfg SinkConfig, runID string, ranking []calls.RankedEntry, reports []calls.AreaReport) error {
	cfg.WithDefaults()
	t, err := cfg.tables()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ddl := range []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  run_id VARCHAR(36) NOT NULL,
  rank_pos INT NOT NULL,
  phone_number VARCHAR(64) NOT NULL,
  call_count BIGINT NOT NULL
)`, t.counts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  run_id VARCHAR(36) NOT NULL,
  area_code VARCHAR(16) NOT NULL,
  event_count BIGINT NOT NULL
)`, t.areas),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  run_id VARCHAR(36) NOT NULL,
  area_code VARCHAR(16) NOT NULL,
  phone_number VARCHAR(64) NOT NULL,
  first_call VARCHAR(19) NOT NULL,
  second_call VARCHAR(19) NOT NULL,
  gap_seconds BIGINT NOT NULL
)`, t.events),
	} {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}

	if cfg.Replace {
		for _, table := range []string{t.counts, t.areas, t.events} {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
				return err
			}
		}
	}

	counts := newBatchInserter(tx, t.counts, []string{"run_id", "rank_pos", "phone_number", "call_count"}, cfg.BatchSize)
	for i, e := range ranking {
		if err := counts.add(ctx, runID, i+1, e.PhoneNumber, e.Count); err != nil {
			return err
		}
	}
	if err := counts.flush(ctx); err != nil {
		return err
	}

	areas := newBatchInserter(tx, t.areas, []string{"run_id", "area_code", "event_count"}, cfg.BatchSize)
	events := newBatchInserter(tx, t.events, []string{"run_id", "area_code", "phone_number", "first_call", "second_call", "gap_seconds"}, cfg.BatchSize)
	for _, r := range reports {
		if err := areas.add(ctx, runID, r.AreaCode, len(r.Events)); err != nil {
			return err
		}
		for _, ev := range r.Events {
			if err := events.add(ctx, runID, r.AreaCode, ev.PhoneNumber,
				ev.First.Format(calls.TimeLayout), ev.Second.Format(calls.TimeLayout), ev.GapSeconds); err != nil {
				return err
			}
		}
	}
	if err := areas.flush(ctx); err != nil {
		return err
	}
	if err := events.flush(ctx); err != nil {
		return err
	}

	return tx.Commit()
}

// batchInserter accumulates rows and writes them as multi-row INSERTs.
type batchInserter struct {
	tx        *sql.Tx
	prefix    string
	rowSQL    string
	width     int
	batchSize int
	rows      int
	args      []interface{}
}

func newBatchInserter(tx *sql.Tx, table string, columns []string, batchSize int) *batchInserter {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return &batchInserter{
		tx:        tx,
		prefix:    fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", ")),
		rowSQL:    "(" + marks + ")",
		width:     len(columns),
		batchSize: batchSize,
	}
}

func (b *batchInserter) add(ctx context.Context, values ...interface{}) error {
	if len(values) != b.width {
		return fmt.Errorf("insert row has %d values, want %d", len(values), b.width)
	}
	b.args = append(b.args, values...)
	b.rows++
	if b.rows >= b.batchSize {
		return b.flush(ctx)
	}
	return nil
}

func (b *batchInserter) flush(ctx context.Context) error {
	if b.rows == 0 {
		return nil
	}
	valueSQL := make([]string, b.rows)
	for i := range valueSQL {
		valueSQL[i] = b.rowSQL
	}
	if _, err := b.tx.ExecContext(ctx, b.prefix+strings.Join(valueSQL, ","), b.args...); err != nil {
		return err
	}
	b.rows = 0
	b.args = b.args[:0]
	return nil
}
