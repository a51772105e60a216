package batch

import (
	"fmt"
	"strings"
)

const FlowVersionV1 = "v1"

var (
	sourceTypes = map[string]bool{"files": true, "mysql": true, "redis": true, "snapshot": true}
	sinkTypes   = map[string]bool{"text": true, "mysql": true, "sqlite": true, "redis": true}
)

// ValidateFlowConfig validates v1 flow schema and required fields.
func ValidateFlowConfig(cfg FlowConfig) error {
	cfg.withDefaults()

	if strings.TrimSpace(cfg.Version) != FlowVersionV1 {
		return fmt.Errorf("unsupported version: %q (expected %q)", cfg.Version, FlowVersionV1)
	}
	if !sourceTypes[cfg.Source.Type] {
		return fmt.Errorf("unsupported source.type: %s", cfg.Source.Type)
	}

	switch cfg.Source.Type {
	case "files":
		if strings.TrimSpace(cfg.Source.Files.Dir) == "" && len(cfg.Source.Files.Inputs) == 0 {
			return fmt.Errorf("source.files.dir or source.files.inputs is required for files source")
		}
	case "mysql":
		if err := cfg.Source.DB.validate(); err != nil {
			return fmt.Errorf("source.db: %w", err)
		}
		if strings.TrimSpace(cfg.Source.Config.Table) == "" {
			return fmt.Errorf("source.config.table is required for mysql source")
		}
	case "redis":
		if strings.TrimSpace(cfg.Source.RedisConfig.KeyPattern) == "" {
			return fmt.Errorf("source.redis_config.key_pattern is required for redis source")
		}
	case "snapshot":
		if strings.TrimSpace(cfg.Source.SnapshotPath) == "" {
			return fmt.Errorf("source.snapshot_path is required for snapshot source")
		}
	}

	tf := cfg.Transform
	if tf.Workers < 0 {
		return fmt.Errorf("transform.workers must be >= 0")
	}
	if tf.ScanWorkers < 0 {
		return fmt.Errorf("transform.scan_workers must be >= 0")
	}
	if err := tf.Window.Validate(); err != nil {
		return fmt.Errorf("transform.window: %w", err)
	}
	for _, addr := range tf.WorkerAddrs {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("transform.worker_addrs contains an empty address")
		}
	}

	for i, sink := range cfg.Sinks {
		if !sinkTypes[sink.Type] {
			return fmt.Errorf("sinks[%d]: unsupported type: %s", i, sink.Type)
		}
		switch sink.Type {
		case "mysql":
			db := sink.DB
			db.Driver = "mysql"
			if err := db.validate(); err != nil {
				return fmt.Errorf("sinks[%d].db: %w", i, err)
			}
		case "sqlite":
			if strings.TrimSpace(sink.DB.Path) == "" {
				return fmt.Errorf("sinks[%d].db.path is required for sqlite sink", i)
			}
		case "redis":
			if strings.TrimSpace(sink.RedisConfig.KeyPrefix) == "" {
				return fmt.Errorf("sinks[%d].redis_config.key_prefix is required for redis sink", i)
			}
		}
	}
	return nil
}
