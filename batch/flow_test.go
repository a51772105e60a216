package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emptyOVO/calllog-go/calls"
)

func writeFile(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var b []byte
	for _, l := range lines {
		b = append(b, l...)
		b = append(b, '\n')
	}
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func exampleDir(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "phone_calls_1.txt"),
		"2023-01-01 02:00:00: +1(412)5551234",
		"2023-01-01 07:00:00: +1(412)5551234",
		"not a call",
	)
	writeFile(t, filepath.Join(dir, "phone_calls_2.txt"),
		"2023-01-01 02:05:00: +1(412)5551234",
		"",
		"2023-01-01 03:00:00: +1(718)5550000",
	)
	writeFile(t, filepath.Join(dir, "notes.txt"), "2023-01-01 02:01:00: +1(999)5550000")
	return dir
}

func TestRunFlowTextSink(t *testing.T) {
	dir := exampleDir(t)
	out := t.TempDir()
	cfg := FlowConfig{
		Source: FlowSourceConfig{Files: FileSourceConfig{Dir: dir}},
		Transform: FlowTransformConfig{
			Workers:      3,
			SnapshotPath: filepath.Join(out, "snapshot.json"),
		},
		Sinks: []FlowSinkConfig{{Type: "text", Text: TextSinkConfig{
			CountsPath: filepath.Join(out, "phone_call_counts.txt"),
			ReportDir:  filepath.Join(out, "redials_report"),
		}}},
	}

	res, err := RunFlow(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Calls)
	assert.Equal(t, 1, res.Stats.Malformed)
	assert.Equal(t, 1, res.Stats.Filtered)
	assert.Equal(t, []calls.RankedEntry{
		{PhoneNumber: "+1(412)5551234", Count: 2},
		{PhoneNumber: "+1(718)5550000", Count: 1},
	}, res.Ranking)

	assert.Equal(t, "+1(412)5551234: 2\n+1(718)5550000: 1\n", readFile(t, filepath.Join(out, "phone_call_counts.txt")))
	assert.Equal(t, "+1(412)5551234: 2023-01-01 02:00:00 -> 02:05:00 (05:00)\n",
		readFile(t, filepath.Join(out, "redials_report", "412.txt")))
	assert.Equal(t, "", readFile(t, filepath.Join(out, "redials_report", "718.txt")))
	assert.NoFileExists(t, filepath.Join(out, "redials_report", "999.txt"))
	assert.FileExists(t, filepath.Join(out, "snapshot.json"))

	// Ranking and scanning from the snapshot gives the same report.
	again, err := RunFlow(context.Background(), FlowConfig{
		Source: FlowSourceConfig{Type: "snapshot", SnapshotPath: filepath.Join(out, "snapshot.json")},
		Sinks: []FlowSinkConfig{{Type: "text", Text: TextSinkConfig{
			CountsPath: filepath.Join(out, "again", "counts.txt"),
			ReportDir:  filepath.Join(out, "again", "redials"),
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, res.Ranking, again.Ranking)
	assert.Equal(t, res.Redials, again.Redials)
	assert.NotEqual(t, res.RunID, again.RunID)
}

func TestRunFlowTopNZero(t *testing.T) {
	dir := exampleDir(t)
	out := t.TempDir()
	zero := 0
	res, err := RunFlow(context.Background(), FlowConfig{
		Source:    FlowSourceConfig{Files: FileSourceConfig{Dir: dir}},
		Transform: FlowTransformConfig{TopN: &zero},
		Sinks: []FlowSinkConfig{{Type: "text", Text: TextSinkConfig{
			CountsPath: filepath.Join(out, "counts.txt"),
			ReportDir:  filepath.Join(out, "redials"),
		}}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Ranking)
	assert.Equal(t, 3, res.Calls)
	assert.Equal(t, "", readFile(t, filepath.Join(out, "counts.txt")))
	assert.Len(t, res.Redials, 2)
}

func TestRunFlowTopNZeroFromConfigFile(t *testing.T) {
	dir := exampleDir(t)
	out := t.TempDir()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: v1
source:
  type: files
  files:
    dir: `+dir+`
transform:
  top_n: 0
sinks:
  - type: text
    text:
      counts_path: `+filepath.Join(out, "counts.txt")+`
      report_dir: `+filepath.Join(out, "redials")+`
`), 0o644))

	cfg, err := LoadFlowConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Transform.TopN)
	res, err := RunFlow(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Ranking)
}

func TestTextSinkKeepsReportsInsideReportDir(t *testing.T) {
	out := t.TempDir()
	reportDir := filepath.Join(out, "redials")
	sink := NewTextSink(TextSinkConfig{CountsPath: filepath.Join(out, "counts.txt"), ReportDir: reportDir})

	err := sink.WriteReport(context.Background(), Report{Redials: []calls.AreaReport{
		{AreaCode: "../"},
		{AreaCode: "..\\"},
		{AreaCode: "412"},
	}})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(out, ".txt"))
	assert.FileExists(t, filepath.Join(reportDir, "..%2F.txt"))
	assert.FileExists(t, filepath.Join(reportDir, "412.txt"))
	entries, err := os.ReadDir(reportDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	entries, err = os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunFlowSQLiteSink(t *testing.T) {
	dir := exampleDir(t)
	dbPath := filepath.Join(t.TempDir(), "report.db")
	cfg := FlowConfig{
		Source: FlowSourceConfig{Files: FileSourceConfig{Dir: dir}},
		Sinks: []FlowSinkConfig{{
			Type:   "sqlite",
			DB:     DBConfig{Path: dbPath},
			Config: SQLSinkConfig{Replace: true},
		}},
	}
	res, err := RunFlow(context.Background(), cfg)
	require.NoError(t, err)

	db, err := OpenForApp(context.Background(), DBConfig{Driver: "sqlite", Path: dbPath})
	require.NoError(t, err)
	defer db.Close()

	var runID, phone string
	require.NoError(t, db.QueryRow("SELECT run_id, phone_number FROM call_counts WHERE rank_pos = 1").Scan(&runID, &phone))
	assert.Equal(t, res.RunID, runID)
	assert.Equal(t, "+1(412)5551234", phone)

	var events int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM redial_events").Scan(&events))
	assert.Equal(t, 1, events)
}

func TestRunFlowUnreadableInput(t *testing.T) {
	cfg := FlowConfig{
		Source: FlowSourceConfig{Files: FileSourceConfig{Inputs: []string{filepath.Join(t.TempDir(), "missing.txt")}}},
		Sinks:  []FlowSinkConfig{{Type: "text", Text: TextSinkConfig{CountsPath: filepath.Join(t.TempDir(), "c.txt")}}},
	}
	_, err := RunFlow(context.Background(), cfg)
	var fe *FileUnreadableError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Path, "missing.txt")
}

func TestRunFlowSinkError(t *testing.T) {
	dir := exampleDir(t)
	blocker := filepath.Join(t.TempDir(), "file")
	writeFile(t, blocker, "x")
	cfg := FlowConfig{
		Source: FlowSourceConfig{Files: FileSourceConfig{Dir: dir}},
		Sinks: []FlowSinkConfig{{Type: "text", Text: TextSinkConfig{
			CountsPath: filepath.Join(blocker, "counts.txt"),
		}}},
	}
	_, err := RunFlow(context.Background(), cfg)
	var se *SinkError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "text", se.Sink)
	assert.Equal(t, filepath.Join(blocker, "counts.txt"), se.Artifact)
}

func TestRunFlowRejectsInvalidConfig(t *testing.T) {
	_, err := RunFlow(context.Background(), FlowConfig{Version: "v2"})
	assert.Error(t, err)
}
