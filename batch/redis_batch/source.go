package redis_batch

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// SourceConfig selects call hashes. Each hash matching KeyPattern holds
// the call time under TimeField and the number under PhoneField.
type SourceConfig struct {
	KeyPattern string `json:"key_pattern" yaml:"key_pattern"`
	TimeField  string `json:"time_field" yaml:"time_field"`
	PhoneField string `json:"phone_field" yaml:"phone_field"`
	// ScanCount is the SCAN hint and the number of HMGETs per pipeline.
	ScanCount int `json:"scan_count" yaml:"scan_count"`
}

func (c *SourceConfig) WithDefaults() {
	if c.KeyPattern == "" {
		c.KeyPattern = "call:*"
	}
	if c.TimeField == "" {
		c.TimeField = "ts"
	}
	if c.PhoneField == "" {
		c.PhoneField = "phone"
	}
	if c.ScanCount <= 0 {
		c.ScanCount = 500
	}
}

// ExportLines renders every matching hash as a "ts: phone" line, in key
// order. Hashes missing either field are skipped.
func ExportLines(ctx context.Context, connCfg ConnConfig, cfg SourceConfig) ([]string, error) {
	cfg.WithDefaults()
	rdb, err := open(ctx, connCfg)
	if err != nil {
		return nil, err
	}
	defer rdb.Close()

	keys, err := scanKeys(ctx, rdb, cfg.KeyPattern, cfg.ScanCount)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	skipped := 0
	for start := 0; start < len(keys); start += cfg.ScanCount {
		batch := keys[start:min(start+cfg.ScanCount, len(keys))]
		cmds := make([]*redis.SliceCmd, len(batch))
		if _, err := rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, key := range batch {
				cmds[i] = pipe.HMGet(ctx, key, cfg.TimeField, cfg.PhoneField)
			}
			return nil
		}); err != nil {
			return nil, fmt.Errorf("HMGET: %w", err)
		}
		for i, cmd := range cmds {
			fields := cmd.Val()
			ts, ok1 := fields[0].(string)
			phone, ok2 := fields[1].(string)
			if !ok1 || !ok2 || ts == "" || phone == "" {
				log.WithField("key", batch[i]).Debug("[Redis] Skip incomplete call hash")
				skipped++
				continue
			}
			lines = append(lines, ts+": "+phone)
		}
	}
	log.WithFields(log.Fields{"keys": len(keys), "lines": len(lines), "skipped": skipped}).Info("[Redis] Export done")
	return lines, nil
}
