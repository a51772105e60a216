package mysql_batch

import (
	"fmt"
	"regexp"
	"time"

	"github.com/emptyOVO/calllog-go/calls"
)

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SourceConfig configures the export of call rows from a SQL table.
type SourceConfig struct {
	Table       string `json:"table" yaml:"table"`
	PKColumn    string `json:"pkcolumn" yaml:"pkcolumn"`
	TimeColumn  string `json:"timecolumn" yaml:"timecolumn"`
	PhoneColumn string `json:"phonecolumn" yaml:"phonecolumn"`
	Where       string `json:"where" yaml:"where"`
	Shards      int    `json:"shards" yaml:"shards"`
	Parallel    int    `json:"parallel" yaml:"parallel"`
}

func (c *SourceConfig) WithDefaults() {
	if c.PKColumn == "" {
		c.PKColumn = "id"
	}
	if c.TimeColumn == "" {
		c.TimeColumn = "called_at"
	}
	if c.PhoneColumn == "" {
		c.PhoneColumn = "phone_number"
	}
	if c.Where == "" {
		c.Where = "1=1"
	}
	if c.Shards <= 0 {
		c.Shards = 16
	}
	if c.Parallel <= 0 {
		c.Parallel = 4
	}
}

// SinkConfig configures the report tables.
type SinkConfig struct {
	CountsTable string `json:"countstable" yaml:"countstable"`
	AreasTable  string `json:"areastable" yaml:"areastable"`
	EventsTable string `json:"eventstable" yaml:"eventstable"`
	// Replace clears previous runs before writing; otherwise runs are
	// appended and told apart by run_id.
	Replace   bool `json:"replace" yaml:"replace"`
	BatchSize int  `json:"batchsize" yaml:"batchsize"`
}

func (c *SinkConfig) WithDefaults() {
	if c.CountsTable == "" {
		c.CountsTable = "call_counts"
	}
	if c.AreasTable == "" {
		c.AreasTable = "redial_areas"
	}
	if c.EventsTable == "" {
		c.EventsTable = "redial_events"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 2000
	}
}

func quoteIdentifier(s string) (string, error) {
	if !identifierRe.MatchString(s) {
		return "", fmt.Errorf("invalid identifier: %s", s)
	}
	return "`" + s + "`", nil
}

// asLine renders a (time, phone) row as a call-log line.
func asLine(ts, phone interface{}) string {
	return asString(ts) + ": " + asString(phone)
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(calls.TimeLayout)
	default:
		return fmt.Sprint(t)
	}
}
