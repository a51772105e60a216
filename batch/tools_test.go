package batch

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emptyOVO/calllog-go/calls"
)

func TestGenerateCallLogsDeterministic(t *testing.T) {
	ctx := context.Background()
	cfg := GenerateConfig{Files: 2, LinesPerFile: 50, Numbers: 5, Seed: 42}

	cfg.Dir = t.TempDir()
	first, err := GenerateCallLogs(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "phone_calls_000.txt", filepath.Base(first[0]))

	cfg.Dir = t.TempDir()
	second, err := GenerateCallLogs(ctx, cfg)
	require.NoError(t, err)

	for i := range first {
		a := readFile(t, first[i])
		assert.Equal(t, a, readFile(t, second[i]))
		lines := strings.Split(strings.TrimSuffix(a, "\n"), "\n")
		require.Len(t, lines, 50)
		for _, l := range lines {
			_, err := calls.ParseLine(l)
			assert.NoError(t, err, l)
		}
	}
}

func TestGenerateCallLogsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GenerateCallLogs(ctx, GenerateConfig{Dir: t.TempDir(), Files: 1, LinesPerFile: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSampleDevSet(t *testing.T) {
	src := t.TempDir()
	var lines []string
	for i := 0; i < 1000; i++ {
		lines = append(lines, "2023-01-01 01:00:00: +1(412)5551234")
	}
	writeFile(t, filepath.Join(src, "phone_calls_a.txt"), lines...)
	writeFile(t, filepath.Join(src, "phone_calls_b.txt"), lines[:10]...)

	dst := filepath.Join(t.TempDir(), "dev")
	kept, err := SampleDevSet(SampleConfig{SrcDir: src, DstDir: dst, Ratio: 10, Seed: 1})
	require.NoError(t, err)
	assert.Greater(t, kept, 40)
	assert.Less(t, kept, 200)
	assert.FileExists(t, filepath.Join(dst, "phone_calls_b.txt"))

	all, err := SampleDevSet(SampleConfig{SrcDir: src, DstDir: t.TempDir(), Ratio: 100})
	require.NoError(t, err)
	assert.Equal(t, 1010, all)

	none, err := SampleDevSet(SampleConfig{SrcDir: src, DstDir: t.TempDir(), Ratio: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, none)

	_, err = SampleDevSet(SampleConfig{SrcDir: src, DstDir: t.TempDir(), Ratio: 101})
	assert.Error(t, err)
}

func TestFilterCalls(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	writeFile(t, in,
		"2023-01-01 00:00:00: +1(412)5551234",
		"2023-01-01 05:59:59: +1(412)5550000",
		"2023-01-01 06:00:00: +1(412)5551234",
		"2023-01-01 01:00:00: +1(718)5551234",
		"garbage",
		"2023-13-01 01:00:00: +1(412)5551234",
	)

	st, err := FilterCalls(FilterConfig{AreaCode: "412", Window: calls.OffHours, Input: in, Output: out})
	require.NoError(t, err)
	assert.Equal(t, FilterStats{Kept: 2, Dropped: 2, Invalid: 2}, st)
	assert.Equal(t, "2023-01-01 00:00:00: +1(412)5551234\n2023-01-01 05:59:59: +1(412)5550000\n", readFile(t, out))

	_, err = FilterCalls(FilterConfig{AreaCode: "412", Window: calls.OffHours, Input: filepath.Join(dir, "missing"), Output: out})
	var fe *FileUnreadableError
	assert.ErrorAs(t, err, &fe)
}

// fullDevice returns an output path whose writes fail with ENOSPC.
func fullDevice(t *testing.T) string {
	t.Helper()
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full on this system")
	}
	return "/dev/full"
}

func TestFilterCallsReportsWriteFailure(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.txt")
	writeFile(t, in, "2023-01-01 00:00:00: +1(412)5551234")

	_, err := FilterCalls(FilterConfig{AreaCode: "412", Window: calls.OffHours, Input: in, Output: fullDevice(t)})
	assert.Error(t, err)

	_, err = FilterCalls(FilterConfig{AreaCode: "412", Window: calls.OffHours, Input: in, Output: t.TempDir()})
	assert.Error(t, err)
}

func TestSampleFileReportsWriteFailure(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.txt")
	writeFile(t, in, "2023-01-01 00:00:00: +1(412)5551234", "2023-01-01 01:00:00: +1(412)5551234")

	_, err := sampleFile(rand.New(rand.NewSource(1)), in, fullDevice(t), 100)
	assert.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := calls.NewCallGroup()
	base := time.Date(2023, 1, 1, 2, 0, 0, 0, time.UTC)
	g.Append("412", "+1(412)5551234", base.Add(5*time.Minute), base)
	g.Append("718", "+1(718)5550000")

	path := filepath.Join(t.TempDir(), "nested", "snap.json")
	require.NoError(t, WriteSnapshot(path, g))
	back, err := ReadSnapshot(path)
	require.NoError(t, err)

	assert.Equal(t, g.Len(), back.Len())
	assert.Equal(t, []string{"412", "718"}, back.AreaCodes())
	ts, ok := back.Timestamps("412", "+1(412)5551234")
	require.True(t, ok)
	assert.Equal(t, []time.Time{base.Add(5 * time.Minute), base}, ts)
	_, ok = back.Timestamps("718", "+1(718)5550000")
	assert.True(t, ok)

	_, err = ReadSnapshot(filepath.Join(t.TempDir(), "none.json"))
	var fe *FileUnreadableError
	assert.ErrorAs(t, err, &fe)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"412": {"n": ["yesterday"]}}`), 0o644))
	_, err = ReadSnapshot(bad)
	assert.Error(t, err)
}

func TestFileSourceDiscovery(t *testing.T) {
	dir := exampleDir(t)
	extra := filepath.Join(t.TempDir(), "extra.log")
	writeFile(t, extra, "2023-01-01 04:00:00: +1(212)5550000")

	src := NewFileSource(FileSourceConfig{Dir: dir, Inputs: []string{extra}, Parallel: 2})
	files, err := src.Files()
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "phone_calls_1.txt"), files[0])
	assert.Equal(t, extra, files[2])

	lines, err := src.Lines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2023-01-01 02:00:00: +1(412)5551234",
		"2023-01-01 07:00:00: +1(412)5551234",
		"not a call",
		"2023-01-01 02:05:00: +1(412)5551234",
		"",
		"2023-01-01 03:00:00: +1(718)5550000",
		"2023-01-01 04:00:00: +1(212)5550000",
	}, lines)
}

func TestFileSourceMissingDir(t *testing.T) {
	_, err := NewFileSource(FileSourceConfig{Dir: filepath.Join(t.TempDir(), "nope")}).Lines(context.Background())
	var fe *FileUnreadableError
	assert.ErrorAs(t, err, &fe)
}
