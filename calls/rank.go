package calls

import (
	"container/heap"
	"fmt"
	"sort"
	"time"
)

// FrequencyTable maps a phone number to its number of calls across every
// area code it was grouped under.
type FrequencyTable map[string]int

// Frequencies counts the timestamps of each phone number in g.
func Frequencies(g *CallGroup) FrequencyTable {
	ft := make(FrequencyTable)
	g.Each(func(_, number string, ts []time.Time) {
		ft[number] += len(ts)
	})
	return ft
}

// RankedEntry is one line of the most-frequent report.
type RankedEntry struct {
	PhoneNumber string `json:"phone_number"`
	Count       int    `json:"count"`
}

func (e RankedEntry) String() string {
	return fmt.Sprintf("%s: %d", e.PhoneNumber, e.Count)
}

// Less orders by count descending, then phone number ascending.
func (e RankedEntry) Less(o RankedEntry) bool {
	if e.Count != o.Count {
		return e.Count > o.Count
	}
	return e.PhoneNumber < o.PhoneNumber
}

// worstFirst is a heap whose root is the lowest-ranked retained entry.
type worstFirst []RankedEntry

func (h worstFirst) Len() int            { return len(h) }
func (h worstFirst) Less(i, j int) bool  { return h[j].Less(h[i]) }
func (h worstFirst) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x interface{}) { *h = append(*h, x.(RankedEntry)) }
func (h *worstFirst) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopN returns the n best-ranked entries of ft in rank order. n <= 0 yields
// an empty result; fewer than n numbers yields all of them.
func TopN(ft FrequencyTable, n int) []RankedEntry {
	if n <= 0 {
		return []RankedEntry{}
	}
	h := make(worstFirst, 0, min(n, len(ft)))
	for number, count := range ft {
		e := RankedEntry{PhoneNumber: number, Count: count}
		if len(h) < n {
			heap.Push(&h, e)
			continue
		}
		if e.Less(h[0]) {
			h[0] = e
			heap.Fix(&h, 0)
		}
	}
	out := []RankedEntry(h)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
