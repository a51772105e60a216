package batch

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
)

// SampleConfig copies a random subset of every file in SrcDir to DstDir.
type SampleConfig struct {
	SrcDir string
	DstDir string
	// Ratio is the percentage of lines kept, 0-100.
	Ratio int
	Seed  int64
}

// SampleDevSet builds a development data set: each line of each regular
// file in SrcDir is kept with probability Ratio/100, and the kept lines are
// written to a file of the same name in DstDir. It returns the number of
// lines written.
func SampleDevSet(cfg SampleConfig) (int, error) {
	if cfg.Ratio < 0 || cfg.Ratio > 100 {
		return 0, fmt.Errorf("sample ratio out of range: %d", cfg.Ratio)
	}
	entries, err := os.ReadDir(cfg.SrcDir)
	if err != nil {
		return 0, &FileUnreadableError{Path: cfg.SrcDir, Err: err}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	if err := os.MkdirAll(cfg.DstDir, 0o755); err != nil {
		return 0, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	kept := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, err := sampleFile(rng, filepath.Join(cfg.SrcDir, e.Name()), filepath.Join(cfg.DstDir, e.Name()), cfg.Ratio)
		kept += n
		if err != nil {
			return kept, err
		}
	}
	return kept, nil
}

func sampleFile(rng *rand.Rand, src, dst string, ratio int) (kept int, err error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, &FileUnreadableError{Path: src, Err: err}
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return 0, err
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
		if rng.Intn(100) >= ratio {
			continue
		}
		if _, err := w.WriteString(sc.Text()); err != nil {
			return kept, err
		}
		if err := w.WriteByte('\n'); err != nil {
			return kept, err
		}
		kept++
	}
	if err := sc.Err(); err != nil {
		return kept, &FileUnreadableError{Path: src, Err: err}
	}
	return kept, w.Flush()
}
