package calls

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/exp/maps"
)

// CallGroup groups off-hours call timestamps by area code and then by phone
// number. Timestamps are kept in insertion order until a scan sorts them.
//
// The group is keyed twice on purpose: (areaCode, phoneNumber) is the redial
// key, phoneNumber alone is the frequency key (see Frequencies).
//
// A CallGroup is not safe for concurrent writes; each worker owns its own.
type CallGroup struct {
	areas map[string]map[string][]time.Time
	size  int
}

func NewCallGroup() *CallGroup {
	return &CallGroup{areas: make(map[string]map[string][]time.Time)}
}

// Add appends the record timestamp under its (area code, number) key,
// creating both levels on first use.
func (g *CallGroup) Add(rec CallRecord) {
	g.Append(rec.areaCode, rec.number, rec.ts)
}

// Append inserts-or-creates the (area, number) entry and appends ts to it.
// Calling it with no timestamps still creates the entry.
func (g *CallGroup) Append(area, number string, ts ...time.Time) {
	numbers, ok := g.areas[area]
	if !ok {
		numbers = make(map[string][]time.Time)
		g.areas[area] = numbers
	}
	seq, ok := numbers[number]
	if !ok {
		seq = make([]time.Time, 0, len(ts))
	}
	numbers[number] = append(seq, ts...)
	g.size += len(ts)
}

// HasArea reports whether at least one number was recorded under area.
func (g *CallGroup) HasArea(area string) bool {
	_, ok := g.areas[area]
	return ok
}

// AreaCodes returns the area codes in ascending order.
func (g *CallGroup) AreaCodes() []string {
	keys := maps.Keys(g.areas)
	sort.Strings(keys)
	return keys
}

// Numbers returns the phone numbers recorded under area in ascending order.
func (g *CallGroup) Numbers(area string) []string {
	keys := maps.Keys(g.areas[area])
	sort.Strings(keys)
	return keys
}

// Timestamps returns a copy of the timestamps of (area, number). ok is false
// when the key was never created.
func (g *CallGroup) Timestamps(area, number string) (ts []time.Time, ok bool) {
	seq, ok := g.areas[area][number]
	if !ok {
		return nil, false
	}
	out := make([]time.Time, len(seq))
	copy(out, seq)
	return out, true
}

// Len is the total number of timestamps in the group.
func (g *CallGroup) Len() int {
	return g.size
}

// Each calls fn for every (area, number) key in unspecified order. The
// slice passed to fn must not be modified.
func (g *CallGroup) Each(fn func(area, number string, ts []time.Time)) {
	for area, numbers := range g.areas {
		for number, seq := range numbers {
			fn(area, number, seq)
		}
	}
}

// sorted orders the timestamps of (area, number) in place and returns them.
func (g *CallGroup) sorted(area, number string) []time.Time {
	seq := g.areas[area][number]
	if !sort.SliceIsSorted(seq, func(i, j int) bool { return seq[i].Before(seq[j]) }) {
		sort.SliceStable(seq, func(i, j int) bool { return seq[i].Before(seq[j]) })
	}
	return seq
}

const snapshotLayout = "2006-01-02T15:04:05"

// MarshalJSON encodes the group as {"area": {"number": ["2006-01-02T15:04:05", ...]}}.
func (g *CallGroup) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string][]string, len(g.areas))
	for area, numbers := range g.areas {
		enc := make(map[string][]string, len(numbers))
		for number, seq := range numbers {
			s := make([]string, len(seq))
			for i, ts := range seq {
				s[i] = ts.Format(snapshotLayout)
			}
			enc[number] = s
		}
		out[area] = enc
	}
	return json.Marshal(out)
}

func (g *CallGroup) UnmarshalJSON(b []byte) error {
	var in map[string]map[string][]string
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	fresh := NewCallGroup()
	for area, numbers := range in {
		for number, seq := range numbers {
			ts := make([]time.Time, len(seq))
			for i, s := range seq {
				t, err := time.Parse(snapshotLayout, s)
				if err != nil {
					return fmt.Errorf("snapshot %s/%s: %w", area, number, err)
				}
				ts[i] = t
			}
			fresh.Append(area, number, ts...)
		}
	}
	*g = *fresh
	return nil
}
