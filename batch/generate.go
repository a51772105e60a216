package batch

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/emptyOVO/calllog-go/calls"
	log "github.com/sirupsen/logrus"
)

// GenerateConfig describes a synthetic call-log data set.
type GenerateConfig struct {
	Dir          string
	Files        int
	LinesPerFile int
	// Numbers is the size of the phone number pool; a small pool yields
	// many redials.
	Numbers   int
	AreaCodes []string
	Start     time.Time
	Days      int
	Seed      int64
}

func (c *GenerateConfig) withDefaults() {
	if c.Dir == "" {
		c.Dir = "data"
	}
	if c.Files <= 0 {
		c.Files = 4
	}
	if c.LinesPerFile <= 0 {
		c.LinesPerFile = 100000
	}
	if c.Numbers <= 0 {
		c.Numbers = 1000
	}
	if len(c.AreaCodes) == 0 {
		c.AreaCodes = []string{"212", "312", "412", "718"}
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.Days <= 0 {
		c.Days = 7
	}
}

// GenerateCallLogs writes Files files named phone_calls_NNN.txt under Dir
// and returns their paths. The same Seed always produces the same files.
func GenerateCallLogs(ctx context.Context, cfg GenerateConfig) ([]string, error) {
	cfg.withDefaults()
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	numbers := make([]string, cfg.Numbers)
	for i := range numbers {
		area := cfg.AreaCodes[rng.Intn(len(cfg.AreaCodes))]
		numbers[i] = fmt.Sprintf("+1(%s) 555-%04d", area, rng.Intn(10000))
	}
	span := int64(cfg.Days) * 24 * 3600

	paths := make([]string, 0, cfg.Files)
	for f := 0; f < cfg.Files; f++ {
		path := filepath.Join(cfg.Dir, fmt.Sprintf("phone_calls_%03d.txt", f))
		out, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		w := bufio.NewWriterSize(out, 1<<20)
		for i := 0; i < cfg.LinesPerFile; i++ {
			if i%4096 == 0 {
				if err := ctx.Err(); err != nil {
					out.Close()
					return nil, err
				}
			}
			ts := cfg.Start.Add(time.Duration(rng.Int63n(span)) * time.Second)
			fmt.Fprintf(w, "%s: %s\n", ts.Format(calls.TimeLayout), numbers[rng.Intn(len(numbers))])
		}
		if err := w.Flush(); err != nil {
			out.Close()
			return nil, err
		}
		if err := out.Close(); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	log.WithFields(log.Fields{"files": len(paths), "lines_per_file": cfg.LinesPerFile}).Info("[Generate] Call logs written")
	return paths, nil
}
