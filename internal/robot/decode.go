package robot

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Decode reads one robot from YAML and validates it.
func Decode(r io.Reader) (Robot, error) {
	var out Robot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil {
		return Robot{}, fmt.Errorf("decode robot: %w", err)
	}
	if err := out.Validate(); err != nil {
		return Robot{}, err
	}
	return out, nil
}

// Encode writes r as YAML in the layout Decode reads.
func Encode(w io.Writer, r Robot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode robot: %w", err)
	}
	return enc.Close()
}
