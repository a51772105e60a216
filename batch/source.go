package batch

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	calllog "github.com/emptyOVO/calllog-go"
	log "github.com/sirupsen/logrus"
)

// LineSource produces every raw call-log line of a run.
type LineSource interface {
	Lines(ctx context.Context) ([]string, error)
}

// FileUnreadableError reports an input file that could not be opened or
// read. It aborts the whole run.
type FileUnreadableError struct {
	Path string
	Err  error
}

func (e *FileUnreadableError) Error() string {
	return fmt.Sprintf("input file %s unreadable: %v", e.Path, e.Err)
}

func (e *FileUnreadableError) Unwrap() error {
	return e.Err
}

// FileSource reads call-log files from disk.
type FileSource struct {
	cfg FileSourceConfig
}

func NewFileSource(cfg FileSourceConfig) FileSource {
	cfg.WithDefaults()
	return FileSource{cfg: cfg}
}

// Files lists the files the source will read, in a stable order.
func (s FileSource) Files() ([]string, error) {
	patterns := append([]string{}, s.cfg.Inputs...)
	if s.cfg.Dir != "" {
		entries, err := os.ReadDir(s.cfg.Dir)
		if err != nil {
			return nil, &FileUnreadableError{Path: s.cfg.Dir, Err: err}
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasPrefix(name, s.cfg.Prefix) || !strings.HasSuffix(name, s.cfg.Suffix) {
				continue
			}
			patterns = append(patterns, filepath.Join(s.cfg.Dir, name))
		}
	}
	return calllog.ExpandInputs(patterns)
}

// Lines reads all files in parallel and concatenates their lines in file
// order. Any unreadable file fails the call.
func (s FileSource) Lines(ctx context.Context) ([]string, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	log.WithField("files", len(files)).Info("[Source] Reading call-log files")

	perFile := make([][]string, len(files))
	jobs := make(chan int)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	workerN := s.cfg.Parallel
	if workerN > len(files) {
		workerN = len(files)
	}
	for i := 0; i < workerN; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				lines, err := readLines(ctx, files[idx])
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
					return
				}
				perFile[idx] = lines
			}
		}()
	}

	for idx := range files {
		select {
		case err := <-errCh:
			close(jobs)
			wg.Wait()
			return nil, err
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}

	total := 0
	for _, l := range perFile {
		total += len(l)
	}
	out := make([]string, 0, total)
	for _, l := range perFile {
		out = append(out, l...)
	}
	return out, nil
}

func readLines(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileUnreadableError{Path: path, Err: err}
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, &FileUnreadableError{Path: path, Err: err}
	}
	return lines, nil
}
