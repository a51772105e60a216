package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emptyOVO/calllog-go/calls"
)

// WriteSnapshot stores a merged group as indented JSON.
func WriteSnapshot(path string, g *calls.CallGroup) error {
	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// ReadSnapshot loads a group written by WriteSnapshot.
func ReadSnapshot(path string) (*calls.CallGroup, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileUnreadableError{Path: path, Err: err}
	}
	g := calls.NewCallGroup()
	if err := json.Unmarshal(b, g); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return g, nil
}
