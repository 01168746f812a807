package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal serializes the whole collection as a compact JSON array.
// An empty or nil collection becomes "[]".
func Marshal(c Collection) ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal recipes: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a blob produced by Marshal. Anything that is not an array
// of records with unique, non-empty ids is reported as ErrCorruptBlob.
func Unmarshal(blob []byte) (Collection, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrCorruptBlob)
	}

	var c Collection
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}

	seen := make(map[string]struct{}, len(c))
	for i, r := range c {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrCorruptBlob, i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrCorruptBlob, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	if c == nil {
		c = Collection{}
	}
	return c, nil
}
