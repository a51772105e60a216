package redis_batch

import (
	"context"
	"fmt"

	"github.com/emptyOVO/calllog-go/calls"
	"github.com/redis/go-redis/v9"
)

// SinkConfig places the report under KeyPrefix:
//
//	<prefix>run              run id of the last write
//	<prefix>top              list of "number: count" lines
//	<prefix>counts           sorted set number -> count
//	<prefix>areas            set of area codes
//	<prefix>redials:<area>   list of rendered redial events
type SinkConfig struct {
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
	// Replace deletes every key under KeyPrefix before writing.
	Replace bool `json:"replace" yaml:"replace"`
	// BatchSize caps the members sent per RPUSH/ZADD/SADD.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

func (c *SinkConfig) WithDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "calllog:"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
}

// WriteReport stores one run. Every report key is rewritten inside a single
// MULTI/EXEC, so readers never see half a report.
func WriteReport(ctx context.Context, connCfg ConnConfig, cfg SinkConfig, runID string, ranking []calls.RankedEntry, reports []calls.AreaReport) error {
	cfg.WithDefaults()
	rdb, err := open(ctx, connCfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var stale []string
	if cfg.Replace {
		if stale, err = scanKeys(ctx, rdb, cfg.KeyPrefix+"*", 1000); err != nil {
			return err
		}
	}

	top := make([]interface{}, len(ranking))
	counts := make([]redis.Z, len(ranking))
	for i, e := range ranking {
		top[i] = e.String()
		counts[i] = redis.Z{Score: float64(e.Count), Member: e.PhoneNumber}
	}
	areas := make([]interface{}, len(reports))
	for i, r := range reports {
		areas[i] = r.AreaCode
	}

	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for start := 0; start < len(stale); start += cfg.BatchSize {
			pipe.Del(ctx, stale[start:min(start+cfg.BatchSize, len(stale))]...)
		}
		pushBatched(ctx, pipe, cfg, cfg.KeyPrefix+"top", top, pipe.RPush)
		pipe.Del(ctx, cfg.KeyPrefix+"counts")
		for start := 0; start < len(counts); start += cfg.BatchSize {
			pipe.ZAdd(ctx, cfg.KeyPrefix+"counts", counts[start:min(start+cfg.BatchSize, len(counts))]...)
		}
		for _, r := range reports {
			events := make([]interface{}, len(r.Events))
			for j, ev := range r.Events {
				events[j] = ev.String()
			}
			pushBatched(ctx, pipe, cfg, cfg.KeyPrefix+"redials:"+r.AreaCode, events, pipe.RPush)
		}
		pushBatched(ctx, pipe, cfg, cfg.KeyPrefix+"areas", areas, pipe.SAdd)
		pipe.Set(ctx, cfg.KeyPrefix+"run", runID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write report %s: %w", cfg.KeyPrefix, err)
	}
	return nil
}

// pushBatched queues a DEL of key followed by add calls of at most
// BatchSize values each.
func pushBatched(ctx context.Context, pipe redis.Pipeliner, cfg SinkConfig, key string, values []interface{},
	add func(ctx context.Context, key string, values ...interface{}) *redis.IntCmd) {
	pipe.Del(ctx, key)
	for start := 0; start < len(values); start += cfg.BatchSize {
		add(ctx, key, values[start:min(start+cfg.BatchSize, len(values))]...)
	}
}
