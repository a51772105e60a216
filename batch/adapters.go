package batch

import (
	"context"
	"fmt"

	"github.com/emptyOVO/calllog-go/batch/mysql_batch"
	"github.com/emptyOVO/calllog-go/batch/redis_batch"
)

type sqlSource struct {
	db  DBConfig
	cfg SQLSourceConfig
}

func (s sqlSource) Lines(ctx context.Context) ([]string, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return mysql_batch.NewSourceAdapter(s.cfg).Export(ctx, db)
}

type redisSource struct {
	conn RedisConnConfig
	cfg  RedisSourceConfig
}

func (s redisSource) Lines(ctx context.Context) ([]string, error) {
	return redis_batch.NewSourceAdapter(s.conn, s.cfg).Export(ctx)
}

func newSource(cfg FlowSourceConfig) (LineSource, error) {
	switch cfg.Type {
	case "files":
		return NewFileSource(cfg.Files), nil
	case "mysql":
		return sqlSource{db: cfg.DB, cfg: cfg.Config}, nil
	case "redis":
		return redisSource{conn: cfg.Redis, cfg: cfg.RedisConfig}, nil
	default:
		return nil, fmt.Errorf("unsupported source.type: %s", cfg.Type)
	}
}

// SQLSink writes reports to MySQL or SQLite tables.
type SQLSink struct {
	kind string
	db   DBConfig
	cfg  SQLSinkConfig
}

func NewSQLSink(db DBConfig, cfg SQLSinkConfig) SQLSink {
	cfg.WithDefaults()
	return SQLSink{kind: db.driver(), db: db, cfg: cfg}
}

func (s SQLSink) WriteReport(ctx context.Context, r Report) error {
	artifact := s.db.Database + "." + s.cfg.CountsTable
	if s.kind == "sqlite" {
		artifact = s.db.Path
	}
	db, err := openDB(ctx, s.db)
	if err != nil {
		return &SinkError{Sink: s.kind, Artifact: artifact, Err: err}
	}
	defer db.Close()
	if err := mysql_batch.NewSinkAdapter(s.cfg).Write(ctx, db, r.RunID, r.Ranking, r.Redials); err != nil {
		return &SinkError{Sink: s.kind, Artifact: artifact, Err: err}
	}
	return nil
}

// RedisSink writes reports under a Redis key prefix.
type RedisSink struct {
	conn RedisConnConfig
	cfg  RedisSinkConfig
}

func NewRedisSink(conn RedisConnConfig, cfg RedisSinkConfig) RedisSink {
	cfg.WithDefaults()
	return RedisSink{conn: conn, cfg: cfg}
}

func (s RedisSink) WriteReport(ctx context.Context, r Report) error {
	if err := redis_batch.NewSinkAdapter(s.conn, s.cfg).Write(ctx, r.RunID, r.Ranking, r.Redials); err != nil {
		return &SinkError{Sink: "redis", Artifact: s.cfg.KeyPrefix + "*", Err: err}
	}
	return nil
}

func newSink(cfg FlowSinkConfig) (ReportWriter, error) {
	switch cfg.Type {
	case "text":
		return NewTextSink(cfg.Text), nil
	case "mysql":
		db := cfg.DB
		db.Driver = "mysql"
		return NewSQLSink(db, cfg.Config), nil
	case "sqlite":
		db := cfg.DB
		db.Driver = "sqlite"
		return NewSQLSink(db, cfg.Config), nil
	case "redis":
		return NewRedisSink(cfg.Redis, cfg.RedisConfig), nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", cfg.Type)
	}
}
