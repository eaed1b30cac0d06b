// Package store persists a single household as a flat JSON record that can be
// loaded again to reproduce the same result.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/household-budget/internal/engine"
)

// ErrMalformed is returned when a record cannot be parsed.
var ErrMalformed = errors.New("malformed household record")

// Record is the persisted form of a household. Stipends still at their
// default are omitted so they are derived again on load.
type Record struct {
	Label        string `json:"label,omitempty" yaml:"label,omitempty"`
	engine.Draft `yaml:",inline"`
}

// Save writes the input as an indented flat JSON record.
func Save(w io.Writer, label string, in engine.HouseholdInput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(Record{Label: label, Draft: engine.DraftFromInput(in)}); err != nil {
		return fmt.Errorf("failed to encode household record: %w", err)
	}
	return nil
}

// Load reads a record and rebuilds the input against the profile. The raw
// record is returned alongside so callers can tell overrides from defaults.
// Unknown keys are ignored and missing keys fall back to the profile. A
// malformed or invalid record yields an error and neither record nor input.
func Load(r io.Reader, p engine.Profile) (Record, engine.HouseholdInput, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return Record{}, engine.HouseholdInput{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	in, err := rec.Draft.Build(p)
	if err != nil {
		return Record{}, engine.HouseholdInput{}, err
	}
	return rec, in, nil
}

// SaveFile writes the record to path, replacing any existing file.
func SaveFile(path, label string, in engine.HouseholdInput) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Save(f, label, in); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads the record stored at path.
func LoadFile(path string, p engine.Profile) (Record, engine.HouseholdInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, engine.HouseholdInput{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, p)
}
