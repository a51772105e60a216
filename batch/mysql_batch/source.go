package mysql_batch

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// pkRange is the half-open primary key interval [lo, hi) read by one shard.
type pkRange struct {
	lo, hi int64
}

// planRanges cuts [minID, maxID] into at most shards contiguous ranges.
func planRanges(minID, maxID int64, shards int) []pkRange {
	if shards < 1 {
		shards = 1
	}
	step := max((maxID-minID+1+int64(shards)-1)/int64(shards), 1)
	out := make([]pkRange, 0, shards)
	for lo := minID; lo <= maxID && len(out) < shards; lo += step {
		out = append(out, pkRange{lo: lo, hi: lo + step})
	}
	return out
}

type exportQuery struct {
	bounds string
	rows   string
}

func (c SourceConfig) queries() (exportQuery, error) {
	var q exportQuery
	if c.Table == "" {
		return q, fmt.Errorf("source table is required")
	}
	names := []string{c.Table, c.PKColumn, c.TimeColumn, c.PhoneColumn}
	quoted := make([]string, len(names))
	for i, n := range names {
		s, err := quoteIdentifier(n)
		if err != nil {
			return q, err
		}
		quoted[i] = s
	}
	table, pk, tsCol, phoneCol := quoted[0], quoted[1], quoted[2], quoted[3]
	q.bounds = fmt.Sprintf("SELECT COALESCE(MIN(%s),0), COALESCE(MAX(%s),0), COUNT(*) FROM %s WHERE %s",
		pk, pk, table, c.Where)
	q.rows = fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s >= ? AND %s < ? AND (%s) ORDER BY %s",
		tsCol, phoneCol, table, pk, pk, c.Where, pk)
	return q, nil
}

// ExportLines reads the (time, phone) rows of the source table as call-log
// lines. Primary key ranges are read by up to Parallel goroutines and the
// lines come back in key order.
func ExportLines(ctx context.Context, db *sql.DB, cfg SourceConfig) ([]string, error) {
	cfg.WithDefaults()
	q, err := cfg.queries()
	if err != nil {
		return nil, err
	}

	var minID, maxID, rowCount int64
	if err := db.QueryRowContext(ctx, q.bounds).Scan(&minID, &maxID, &rowCount); err != nil {
		return nil, err
	}
	if rowCount == 0 {
		return []string{}, nil
	}

	ranges := planRanges(minID, maxID, cfg.Shards)
	results := make([][]string, len(ranges))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sem := make(chan struct{}, cfg.Parallel)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i, r := range ranges {
		wg.Add(1)
		go func(i int, r pkRange) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			lines, err := readRange(ctx, db, q.rows, r)
			if err != nil {
				once.Do(func() {
					firstErr = fmt.Errorf("read %s range [%d,%d): %w", cfg.Table, r.lo, r.hi, err)
					cancel()
				})
				return
			}
			results[i] = lines
		}(i, r)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, rowCount)
	for _, lines := range results {
		out = append(out, lines...)
	}
	return out, nil
}

func readRange(ctx context.Context, db *sql.DB, query string, r pkRange) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, r.lo, r.hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var ts, phone interface{}
		if err := rows.Scan(&ts, &phone); err != nil {
			return nil, err
		}
		lines = append(lines, asLine(ts, phone))
	}
	return lines, rows.Err()
}
