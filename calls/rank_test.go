package calls_test

import (
	"fmt"
	"testing"

	"github.com/emptyOVO/calllog-go/calls"
	"github.com/stretchr/testify/assert"
)

func TestFrequenciesSumAcrossAreaCodes(t *testing.T) {
	g := calls.NewCallGroup()
	g.Append("412", "+1(412)5551234", ts("2023-01-01 02:00:00"), ts("2023-01-01 02:05:00"))
	// Same number string grouped under a second area code.
	g.Append("999", "+1(412)5551234", ts("2023-01-01 03:00:00"))
	g.Append("212", "+1(212)5550000", ts("2023-01-01 03:00:00"))

	ft := calls.Frequencies(g)
	assert.Equal(t, calls.FrequencyTable{"+1(412)5551234": 3, "+1(212)5550000": 1}, ft)
}

func TestTopNTieBreak(t *testing.T) {
	ft := calls.FrequencyTable{
		"+1(555)0000003": 5,
		"+1(555)0000001": 5,
		"+1(555)0000002": 7,
		"+1(555)0000004": 1,
	}
	got := calls.TopN(ft, 3)
	assert.Equal(t, []calls.RankedEntry{
		{PhoneNumber: "+1(555)0000002", Count: 7},
		{PhoneNumber: "+1(555)0000001", Count: 5},
		{PhoneNumber: "+1(555)0000003", Count: 5},
	}, got)
	assert.Equal(t, "+1(555)0000002: 7", got[0].String())
}

func TestTopNEdges(t *testing.T) {
	ft := calls.FrequencyTable{"a": 1, "b": 2}
	assert.Empty(t, calls.TopN(ft, 0))
	assert.NotNil(t, calls.TopN(ft, -3))
	assert.Equal(t, []calls.RankedEntry{{PhoneNumber: "b", Count: 2}, {PhoneNumber: "a", Count: 1}}, calls.TopN(ft, 10))
	assert.Empty(t, calls.TopN(calls.FrequencyTable{}, 10))
}

func TestTopNMatchesFullSort(t *testing.T) {
	ft := calls.FrequencyTable{}
	for i := 0; i < 500; i++ {
		ft[fmt.Sprintf("+1(%03d)%07d", i%17, i)] = (i * 7919) % 23
	}
	all := calls.TopN(ft, len(ft))
	assert.Len(t, all, len(ft))
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Less(all[i]), "entries %d and %d out of order", i-1, i)
	}
	for _, n := range []int{1, 10, 64, 499} {
		assert.Equal(t, all[:n], calls.TopN(ft, n), "n=%d", n)
	}
}
