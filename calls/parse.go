package calls

import (
	"fmt"
	"strings"
	"time"
)

const delimiter = ": "

// Window is the half-open hour interval [StartHour, EndHour) of calls kept
// for aggregation. A window with StartHour > EndHour wraps past midnight.
type Window struct {
	StartHour int `json:"start_hour" yaml:"start_hour"`
	EndHour   int `json:"end_hour" yaml:"end_hour"`
}

// OffHours is the default 00:00-06:00 window.
var OffHours = Window{StartHour: 0, EndHour: 6}

func (w Window) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 {
		return fmt.Errorf("window start hour out of range: %d", w.StartHour)
	}
	if w.EndHour < 0 || w.EndHour > 24 {
		return fmt.Errorf("window end hour out of range: %d", w.EndHour)
	}
	if w.StartHour == w.EndHour {
		return fmt.Errorf("empty window [%d,%d)", w.StartHour, w.EndHour)
	}
	return nil
}

// Contains reports whether the hour of t lies inside the window.
func (w Window) Contains(t time.Time) bool {
	h := t.Hour()
	if w.StartHour < w.EndHour {
		return h >= w.StartHour && h < w.EndHour
	}
	return h >= w.StartHour || h < w.EndHour
}

func (w Window) String() string {
	return fmt.Sprintf("[%02d,%02d)", w.StartHour, w.EndHour)
}

// Parser turns raw call-log lines into records and drops the ones outside
// its window.
type Parser struct {
	Window Window
}

func NewParser(w Window) Parser {
	return Parser{Window: w}
}

// ParseLine parses "<YYYY-MM-DD HH:MM:SS>: <phoneNumber>". It never looks at
// the window.
func ParseLine(line string) (CallRecord, error) {
	line = strings.TrimSpace(line)
	i := strings.Index(line, delimiter)
	if i < 0 {
		return CallRecord{}, &ParseError{Kind: MalformedLine, Line: line, Err: ErrMissingDelimiter}
	}
	tsRaw, number := line[:i], line[i+len(delimiter):]

	area, err := AreaCodeOf(number)
	if err != nil {
		return CallRecord{}, &ParseError{Kind: MalformedLine, Line: line, Err: err}
	}

	// time.Parse tolerates a fractional second suffix, the log format does not.
	if len(tsRaw) != len(TimeLayout) {
		return CallRecord{}, &ParseError{Kind: InvalidTimestamp, Line: line, Err: ErrInvalidTimestamp}
	}
	ts, err := time.Parse(TimeLayout, tsRaw)
	if err != nil {
		return CallRecord{}, &ParseError{Kind: InvalidTimestamp, Line: line, Err: fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)}
	}
	return CallRecord{ts: ts, number: number, areaCode: area}, nil
}

// Parse parses line and applies the window. ok is false for records outside
// the window; that is filtering, not an error.
func (p Parser) Parse(line string) (rec CallRecord, ok bool, err error) {
	rec, err = ParseLine(line)
	if err != nil {
		return CallRecord{}, false, err
	}
	if !p.Window.Contains(rec.ts) {
		return CallRecord{}, false, nil
	}
	return rec, true, nil
}

// IsBlank reports lines that carry no record at all.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
