package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/emptyOVO/calllog-go/batch"
)

func getenvDefault(name, d string) string {
	v := os.Getenv(name)
	if v == "" {
		return d
	}
	return v
}

func getenvInt(name string, d int) int {
	v := os.Getenv(name)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}

// Reads calls from a MySQL table and writes the reports both as text files
// and into a local SQLite database.
func main() {
	sourceDB := batch.DBConfig{
		Host:     getenvDefault("MYSQL_HOST", "localhost"),
		Port:     getenvInt("MYSQL_PORT", 3306),
		User:     getenvDefault("MYSQL_USER", "root"),
		Password: getenvDefault("MYSQL_PASSWORD", "123456"),
		Database: getenvDefault("MYSQL_DB", "calls"),
	}

	topN := getenvInt("TOP_N", 10)
	cfg := batch.FlowConfig{
		Version: batch.FlowVersionV1,
		Source: batch.FlowSourceConfig{
			Type: "mysql",
			DB:   sourceDB,
			Config: batch.SQLSourceConfig{
				Table:    getenvDefault("SOURCE_TABLE", "call_log"),
				Shards:   getenvInt("SOURCE_SHARDS", 8),
				Parallel: getenvInt("SOURCE_PARALLEL", 4),
			},
		},
		Transform: batch.FlowTransformConfig{
			Workers: getenvInt("WORKERS", 8),
			TopN:    &topN,
		},
		Sinks: []batch.FlowSinkConfig{
			{Type: "text"},
			{
				Type:   "sqlite",
				DB:     batch.DBConfig{Path: getenvDefault("SQLITE_PATH", "calllog.db")},
				Config: batch.SQLSinkConfig{Replace: true},
			},
		},
	}

	res, err := batch.RunFlow(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("run %s: %d calls, %d numbers ranked, total %s", res.RunID, res.Calls, len(res.Ranking), res.TotalDuration)
}
