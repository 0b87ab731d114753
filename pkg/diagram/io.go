package diagram

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Diagram Serialization API
// =============================================================================

// Marshal serializes a Diagram to pretty-printed JSON bytes.
func Marshal(d Diagram) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Unmarshal deserializes JSON bytes into a Diagram and validates its
// structural integrity.
func Unmarshal(data []byte) (Diagram, error) {
	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return Diagram{}, fmt.Errorf("unmarshal diagram: %w", err)
	}
	if err := d.Validate(); err != nil {
		return Diagram{}, err
	}
	return d, nil
}

// WriteFile writes a Diagram to a JSON file.
func WriteFile(d Diagram, path string) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a Diagram from a JSON file.
func ReadFile(path string) (Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Diagram{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
