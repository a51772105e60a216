package batch

import (
	"bufio"
	"context"
	"net/url"
	"os"
	"path/filepath"
)

// TextSink writes "number: count" lines to CountsPath and one
// "<area>.txt" redial report per area code under ReportDir. An area code
// without redials still gets an empty file. Area codes are path-escaped, so
// "../" lands in "..%2F.txt" inside ReportDir.
type TextSink struct {
	cfg TextSinkConfig
}

func NewTextSink(cfg TextSinkConfig) TextSink {
	cfg.WithDefaults()
	return TextSink{cfg: cfg}
}

func (s TextSink) WriteReport(ctx context.Context, r Report) error {
	if err := writeLines(s.cfg.CountsPath, len(r.Ranking), func(i int) string {
		return r.Ranking[i].String()
	}); err != nil {
		return &SinkError{Sink: "text", Artifact: s.cfg.CountsPath, Err: err}
	}

	if err := os.MkdirAll(s.cfg.ReportDir, 0o755); err != nil {
		return &SinkError{Sink: "text", Artifact: s.cfg.ReportDir, Err: err}
	}
	for _, area := range r.Redials {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(s.cfg.ReportDir, reportFileName(area.AreaCode))
		events := area.Events
		if err := writeLines(path, len(events), func(i int) string {
			return events[i].String()
		}); err != nil {
			return &SinkError{Sink: "text", Artifact: path, Err: err}
		}
	}
	return nil
}

func reportFileName(area string) string {
	return url.PathEscape(area) + ".txt"
}

func writeLines(path string, n int, line func(i int) string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriterSize(f, 1<<16)
	for i := 0; i < n; i++ {
		if _, err := w.WriteString(line(i)); err != nil {
			f.Close()
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
