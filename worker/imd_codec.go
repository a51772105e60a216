package worker

import (
	"encoding/json"
	"fmt"

	"github.com/emptyOVO/calllog-go/calls"
)

// encodeChunk and decodeChunk carry the request lines as a JSON array so a
// line may hold any byte, '\n' included.
func encodeChunk(chunk []string) (string, error) {
	if len(chunk) == 0 {
		return "", nil
	}
	b, err := json.Marshal(chunk)
	if err != nil {
		return "", fmt.Errorf("encode chunk: %w", err)
	}
	return string(b), nil
}

func decodeChunk(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var chunk []string
	if err := json.Unmarshal([]byte(raw), &chunk); err != nil {
		return nil, fmt.Errorf("decode chunk: %w", err)
	}
	return chunk, nil
}

// encodeGroup uses the snapshot encoding of CallGroup. Area codes and numbers
// travel as JSON strings, so no separator can collide with them.
func encodeGroup(g *calls.CallGroup) (string, error) {
	if g == nil {
		g = calls.NewCallGroup()
	}
	b, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("encode partial group: %w", err)
	}
	return string(b), nil
}

func decodeGroup(raw string) (*calls.CallGroup, error) {
	g := calls.NewCallGroup()
	if raw == "" {
		return g, nil
	}
	if err := json.Unmarshal([]byte(raw), g); err != nil {
		return nil, fmt.Errorf("decode partial group: %w", err)
	}
	return g, nil
}
