package batch

import (
	"bufio"
	"os"

	"github.com/emptyOVO/calllog-go/calls"
	log "github.com/sirupsen/logrus"
)

// FilterConfig selects the calls of one area code inside an hour window.
type FilterConfig struct {
	AreaCode string
	Window   calls.Window
	Input    string
	Output   string
}

// FilterStats counts what FilterCalls did with its input.
type FilterStats struct {
	Kept    int
	Dropped int
	Invalid int
}

// FilterCalls copies the lines of Input whose area code and hour match to
// Output. Lines that do not parse are counted and dropped.
func FilterCalls(cfg FilterConfig) (st FilterStats, err error) {
	if err := cfg.Window.Validate(); err != nil {
		return st, err
	}
	in, err := os.Open(cfg.Input)
	if err != nil {
		return st, &FileUnreadableError{Path: cfg.Input, Err: err}
	}
	defer in.Close()
	out, err := os.Create(cfg.Output)
	if err != nil {
		return st, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	w := bufio.NewWriter(out)
	for sc.Scan() {
		line := sc.Text()
		if calls.IsBlank(line) {
			continue
		}
		rec, err := calls.ParseLine(line)
		if err != nil {
			log.WithError(err).Debug("[Filter] Skip line")
			st.Invalid++
			continue
		}
		if rec.AreaCode() != cfg.AreaCode || !cfg.Window.Contains(rec.Timestamp()) {
			st.Dropped++
			continue
		}
		if _, err := w.WriteString(line); err != nil {
			return st, err
		}
		if err := w.WriteByte('\n'); err != nil {
			return st, err
		}
		st.Kept++
	}
	if err := sc.Err(); err != nil {
		return st, &FileUnreadableError{Path: cfg.Input, Err: err}
	}
	return st, w.Flush()
}
