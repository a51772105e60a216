package calls_test

import (
	"strings"
	"testing"
	"time"

	"github.com/emptyOVO/calllog-go/calls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const number = "+1(412)5551234"

func scanPair(t *testing.T, first, second string) []calls.RedialEvent {
	t.Helper()
	g := calls.NewCallGroup()
	g.Append("412", number, ts(second), ts(first))
	events, ok := calls.NewRedialScanner(calls.DefaultRedialThreshold, 1).ScanArea(g, "412")
	require.True(t, ok)
	return events
}

func TestRedialBoundary(t *testing.T) {
	assert.Empty(t, scanPair(t, "2023-01-01 02:00:00", "2023-01-01 02:10:00"), "600s is not a redial")

	events := scanPair(t, "2023-01-01 02:00:00", "2023-01-01 02:09:59")
	require.Len(t, events, 1)
	assert.Equal(t, int64(599), events[0].GapSeconds)
	assert.Equal(t, "09:59", events[0].Duration())

	events = scanPair(t, "2023-01-01 02:00:00", "2023-01-01 02:00:00")
	require.Len(t, events, 1)
	assert.Equal(t, int64(0), events[0].GapSeconds)
	assert.Equal(t, "00:00", events[0].Duration())
}

func TestRedialFormat(t *testing.T) {
	events := scanPair(t, "2023-01-01 02:00:00", "2023-01-01 02:05:00")
	require.Len(t, events, 1)
	assert.Equal(t, "+1(412)5551234: 2023-01-01 02:00:00 -> 02:05:00 (05:00)", events[0].String())
}

func TestRedialScanOrdering(t *testing.T) {
	g := calls.NewCallGroup()
	g.Append("412", "+1(412)5550002", ts("2023-01-01 01:03:00"), ts("2023-01-01 01:00:00"), ts("2023-01-01 01:01:30"))
	g.Append("412", "+1(412)5550001", ts("2023-01-01 04:00:00"), ts("2023-01-01 03:59:00"))
	g.Append("212", "+1(212)5550000", ts("2023-01-01 01:00:00"), ts("2023-01-01 02:00:00"))

	reports := calls.NewRedialScanner(0, 1).Scan(g)
	require.Len(t, reports, 2)

	assert.Equal(t, "212", reports[0].AreaCode)
	assert.NotNil(t, reports[0].Events)
	assert.Empty(t, reports[0].Events)

	assert.Equal(t, "412", reports[1].AreaCode)
	var lines []string
	for _, e := range reports[1].Events {
		lines = append(lines, e.String())
	}
	assert.Equal(t, []string{
		"+1(412)5550001: 2023-01-01 03:59:00 -> 04:00:00 (01:00)",
		"+1(412)5550002: 2023-01-01 01:00:00 -> 01:01:30 (01:30)",
		"+1(412)5550002: 2023-01-01 01:01:30 -> 01:03:00 (01:30)",
	}, lines)
	assert.Equal(t, 3, calls.EventCount(reports))
}

func TestScanAreaAbsent(t *testing.T) {
	g := calls.NewCallGroup()
	g.Append("412", number, ts("2023-01-01 02:00:00"))
	events, ok := calls.NewRedialScanner(0, 1).ScanArea(g, "999")
	assert.False(t, ok)
	assert.Nil(t, events)

	events, ok = calls.NewRedialScanner(0, 1).ScanArea(g, "412")
	assert.True(t, ok)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestRedialScanIdempotent(t *testing.T) {
	g := calls.NewCallGroup()
	for i, s := range []string{"02:09:00", "02:00:00", "02:04:00", "02:04:00", "02:30:00"} {
		g.Append("412", number, ts("2023-01-01 "+s))
		g.Append("212", "+1(212)555000"+string(rune('0'+i)), ts("2023-01-01 "+s), ts("2023-01-01 "+s))
	}
	s := calls.NewRedialScanner(calls.DefaultRedialThreshold, 4)
	first := render(s.Scan(g))
	second := render(s.Scan(g))
	assert.Equal(t, first, second)
	assert.Equal(t, render(calls.NewRedialScanner(calls.DefaultRedialThreshold, 1).Scan(g)), first)
}

func TestRedialCustomThreshold(t *testing.T) {
	g := calls.NewCallGroup()
	g.Append("412", number, ts("2023-01-01 02:00:00"), ts("2023-01-01 02:01:00"))
	events, _ := calls.NewRedialScanner(60*time.Second, 1).ScanArea(g, "412")
	assert.Empty(t, events)
	events, _ = calls.NewRedialScanner(61*time.Second, 1).ScanArea(g, "412")
	assert.Len(t, events, 1)
}

func render(reports []calls.AreaReport) string {
	var b strings.Builder
	for _, r := range reports {
		b.WriteString("# " + r.AreaCode + "\n")
		for _, e := range r.Events {
			b.WriteString(e.String() + "\n")
		}
	}
	return b.String()
}
