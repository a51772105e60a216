package calls

import (
	"fmt"
	"sync"
	"time"
)

// DefaultRedialThreshold is the default redial window.
const DefaultRedialThreshold = 600 * time.Second

// RedialEvent is a pair of chronologically adjacent calls from one number
// closer together than the redial threshold.
type RedialEvent struct {
	PhoneNumber string    `json:"phone_number"`
	First       time.Time `json:"first"`
	Second      time.Time `json:"second"`
	GapSeconds  int64     `json:"gap_seconds"`
}

// Duration renders the gap as MM:SS. Gaps never reach an hour.
func (e RedialEvent) Duration() string {
	return fmt.Sprintf("%02d:%02d", e.GapSeconds/60, e.GapSeconds%60)
}

// String renders "<number>: <YYYY-MM-DD HH:MM:SS> -> <HH:MM:SS> (MM:SS)".
func (e RedialEvent) String() string {
	return fmt.Sprintf("%s: %s -> %s (%s)",
		e.PhoneNumber,
		e.First.Format(TimeLayout),
		e.Second.Format("15:04:05"),
		e.Duration(),
	)
}

// AreaReport holds the redial events of one area code. Events is empty, not
// nil, when the area code exists but has no redials.
type AreaReport struct {
	AreaCode string        `json:"area_code"`
	Events   []RedialEvent `json:"events"`
}

// RedialScanner detects redials in a merged CallGroup.
type RedialScanner struct {
	Threshold time.Duration
	// Workers bounds the number of area codes scanned concurrently.
	Workers int
}

func NewRedialScanner(threshold time.Duration, workers int) RedialScanner {
	return RedialScanner{Threshold: threshold, Workers: workers}
}

func (s RedialScanner) threshold() int64 {
	if s.Threshold <= 0 {
		return int64(DefaultRedialThreshold / time.Second)
	}
	return int64(s.Threshold / time.Second)
}

// ScanArea returns the redials of one area code. ok is false when the area
// code is absent from g, which is different from an area with no events.
//
// ScanArea sorts the timestamps of g in place; it must not run concurrently
// with writers of g. Scanning twice yields the same events.
func (s RedialScanner) ScanArea(g *CallGroup, area string) (events []RedialEvent, ok bool) {
	if !g.HasArea(area) {
		return nil, false
	}
	limit := s.threshold()
	events = []RedialEvent{}
	for _, number := range g.Numbers(area) {
		seq := g.sorted(area, number)
		for i := 0; i+1 < len(seq); i++ {
			gap := int64(seq[i+1].Sub(seq[i]) / time.Second)
			if gap >= 0 && gap < limit {
				events = append(events, RedialEvent{
					PhoneNumber: number,
					First:       seq[i],
					Second:      seq[i+1],
					GapSeconds:  gap,
				})
			}
		}
	}
	return events, true
}

// Scan returns one report per area code of g, ordered by area code.
func (s RedialScanner) Scan(g *CallGroup) []AreaReport {
	areas := g.AreaCodes()
	reports := make([]AreaReport, len(areas))

	workers := s.Workers
	if workers <= 1 || len(areas) <= 1 {
		for i, area := range areas {
			events, _ := s.ScanArea(g, area)
			reports[i] = AreaReport{AreaCode: area, Events: events}
		}
		return reports
	}

	// Distinct area codes never share a timestamp slice, so in-place sorts
	// do not overlap.
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(workers, len(areas)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				events, _ := s.ScanArea(g, areas[i])
				reports[i] = AreaReport{AreaCode: areas[i], Events: events}
			}
		}()
	}
	for i := range areas {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return reports
}

// EventCount sums the events of reports.
func EventCount(reports []AreaReport) int {
	n := 0
	for _, r := range reports {
		n += len(r.Events)
	}
	return n
}
