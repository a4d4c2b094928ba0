// Package export turns a closure into a filtered space export.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMalformedRootFile is returned when a root file is not a non-empty JSON
// array of non-empty strings.
var ErrMalformedRootFile = errors.New("root file must be a JSON array of entry ids")

// ReadRootIDs reads the root identifiers from a JSON file such as
// ["entryA", "entryB"].
func ReadRootIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path supplied by the user
	if err != nil {
		return nil, fmt.Errorf("read root file: %w", err)
	}
	return ParseRootIDs(data)
}

// ParseRootIDs decodes a JSON array of entry ids.
func ParseRootIDs(data []byte) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRootFile, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: array is empty", ErrMalformedRootFile)
	}

	ids := make([]string, 0, len(raw))
	for i, elem := range raw {
		var id string
		if err := json.Unmarshal(elem, &id); err != nil {
			return nil, fmt.Errorf("%w: element %d is not a string", ErrMalformedRootFile, i)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: element %d is empty", ErrMalformedRootFile, i)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
