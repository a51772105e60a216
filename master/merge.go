package master

import (
	"time"

	"github.com/emptyOVO/calllog-go/calls"
)

// Merge concatenates the partial groups into a new group. For every
// (area, number) key the timestamps of parts[0] come first, then parts[1],
// and so on. Nothing is dropped or deduplicated; the parts are not modified.
//
// Up to the order of timestamps within a key, which the redial scan sorts
// anyway, Merge is associative and commutative.
func Merge(parts ...*calls.CallGroup) *calls.CallGroup {
	out := calls.NewCallGroup()
	for _, p := range parts {
		if p == nil {
			continue
		}
		p.Each(func(area, number string, ts []time.Time) {
			out.Append(area, number, ts...)
		})
	}
	return out
}
