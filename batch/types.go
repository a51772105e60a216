package batch

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/emptyOVO/calllog-go/batch/mysql_batch"
	"github.com/emptyOVO/calllog-go/batch/redis_batch"
	"github.com/emptyOVO/calllog-go/calls"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// DBConfig defines a SQL connection. Driver is "mysql" (default) or
// "sqlite"; sqlite only uses Path.
type DBConfig struct {
	Driver   string            `json:"driver" yaml:"driver"`
	Host     string            `json:"host" yaml:"host"`
	Port     int               `json:"port" yaml:"port"`
	User     string            `json:"user" yaml:"user"`
	Password string            `json:"password" yaml:"password"`
	Database string            `json:"database" yaml:"database"`
	Path     string            `json:"path" yaml:"path"`
	Params   map[string]string `json:"params" yaml:"params"`
}

func (c DBConfig) driver() string {
	if c.Driver == "" {
		return "mysql"
	}
	return c.Driver
}

func (c DBConfig) dsn() string {
	if c.driver() == "sqlite" {
		return c.Path
	}
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}
	params := map[string]string{
		"parseTime": "true",
		"charset":   "utf8mb4",
	}
	for k, v := range c.Params {
		params[k] = v
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.User,
		c.Password,
		host,
		port,
		c.Database,
		strings.Join(parts, "&"),
	)
}

func (c DBConfig) validate() error {
	switch c.driver() {
	case "mysql":
		if c.User == "" {
			return fmt.Errorf("db user is required")
		}
		if c.Database == "" {
			return fmt.Errorf("db database is required")
		}
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("db path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported db driver: %s", c.Driver)
	}
	return nil
}

func openDB(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.driver(), cfg.dsn())
	if err != nil {
		return nil, err
	}
	if cfg.driver() == "sqlite" {
		// A single connection keeps ":memory:" databases alive across calls.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenForApp opens a SQL connection for advanced/custom flows.
func OpenForApp(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	return openDB(ctx, cfg)
}

// Unified source/sink config aliases exposed by batch package.
type SQLSourceConfig = mysql_batch.SourceConfig
type SQLSinkConfig = mysql_batch.SinkConfig
type RedisConnConfig = redis_batch.ConnConfig
type RedisSourceConfig = redis_batch.SourceConfig
type RedisSinkConfig = redis_batch.SinkConfig

// FileSourceConfig selects call-log files. Files under Dir whose name starts
// with Prefix and ends with Suffix are read, plus every match of Inputs.
type FileSourceConfig struct {
	Dir    string   `json:"dir" yaml:"dir"`
	Prefix string   `json:"prefix" yaml:"prefix"`
	Suffix string   `json:"suffix" yaml:"suffix"`
	Inputs []string `json:"inputs" yaml:"inputs"`
	// Parallel bounds the number of files read at once.
	Parallel int `json:"parallel" yaml:"parallel"`
}

func (c *FileSourceConfig) WithDefaults() {
	if c.Prefix == "" {
		c.Prefix = "phone_calls"
	}
	if c.Suffix == "" {
		c.Suffix = ".txt"
	}
	if c.Parallel <= 0 {
		c.Parallel = 4
	}
}

// TextSinkConfig places the text reports.
type TextSinkConfig struct {
	CountsPath string `json:"counts_path" yaml:"counts_path"`
	ReportDir  string `json:"report_dir" yaml:"report_dir"`
}

func (c *TextSinkConfig) WithDefaults() {
	if c.CountsPath == "" {
		c.CountsPath = "phone_call_counts.txt"
	}
	if c.ReportDir == "" {
		c.ReportDir = "redials_report"
	}
}

// FlowConfig describes a source -> aggregate -> sinks run.
type FlowConfig struct {
	Version   string              `json:"version" yaml:"version"`
	Source    FlowSourceConfig    `json:"source" yaml:"source"`
	Transform FlowTransformConfig `json:"transform" yaml:"transform"`
	Sinks     []FlowSinkConfig    `json:"sinks" yaml:"sinks"`
}

type FlowSourceConfig struct {
	Type         string            `json:"type" yaml:"type"`
	Files        FileSourceConfig  `json:"files" yaml:"files"`
	DB           DBConfig          `json:"db" yaml:"db"`
	Config       SQLSourceConfig   `json:"config" yaml:"config"`
	Redis        RedisConnConfig   `json:"redis" yaml:"redis"`
	RedisConfig  RedisSourceConfig `json:"redis_config" yaml:"redis_config"`
	SnapshotPath string            `json:"snapshot_path" yaml:"snapshot_path"`
}

type FlowTransformConfig struct {
	// Workers is the parallelism degree of in-process aggregation.
	Workers int `json:"workers" yaml:"workers"`
	// WorkerAddrs switches aggregation to remote worker nodes.
	WorkerAddrs            []string     `json:"worker_addrs" yaml:"worker_addrs"`
	// TopN is the ranking length; nil means 10 and 0 ranks nothing.
	TopN                   *int         `json:"top_n" yaml:"top_n"`
	RedialThresholdSeconds int          `json:"redial_threshold_seconds" yaml:"redial_threshold_seconds"`
	Window                 calls.Window `json:"window" yaml:"window"`
	ScanWorkers            int          `json:"scan_workers" yaml:"scan_workers"`
	// SnapshotPath, when set, receives the merged group as JSON.
	SnapshotPath string `json:"snapshot_path" yaml:"snapshot_path"`
}

type FlowSinkConfig struct {
	Type        string          `json:"type" yaml:"type"`
	Text        TextSinkConfig  `json:"text" yaml:"text"`
	DB          DBConfig        `json:"db" yaml:"db"`
	Config      SQLSinkConfig   `json:"config" yaml:"config"`
	Redis       RedisConnConfig `json:"redis" yaml:"redis"`
	RedisConfig RedisSinkConfig `json:"redis_config" yaml:"redis_config"`
}

const defaultTopN = 10

func (c *FlowConfig) withDefaults() {
	if c.Version == "" {
		c.Version = FlowVersionV1
	}
	if c.Source.Type == "" {
		c.Source.Type = "files"
	}
	if c.Transform.TopN == nil {
		n := defaultTopN
		c.Transform.TopN = &n
	}
	if c.Transform.RedialThresholdSeconds <= 0 {
		c.Transform.RedialThresholdSeconds = 600
	}
	if c.Transform.Window == (calls.Window{}) {
		c.Transform.Window = calls.OffHours
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []FlowSinkConfig{{Type: "text"}}
	}
	c.Source.Files.WithDefaults()
	c.Source.Config.WithDefaults()
	c.Source.RedisConfig.WithDefaults()
	for i := range c.Sinks {
		c.Sinks[i].Text.WithDefaults()
		c.Sinks[i].Config.WithDefaults()
		c.Sinks[i].RedisConfig.WithDefaults()
	}
}
