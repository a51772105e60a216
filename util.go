package calllog

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ExpandInputs expands glob patterns into a sorted, de-duplicated file list.
// A pattern without glob meta characters is kept even if it does not exist,
// so that the reader reports it as unreadable instead of skipping it.
func ExpandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad input pattern %q: %w", p, err)
		}
		if len(matches) == 0 && !hasMeta(p) {
			matches = []string{p}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, `*?[\`)
}

// SplitAddrs parses a comma separated address list.
func SplitAddrs(raw string) []string {
	var out []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
