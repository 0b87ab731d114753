package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	neterrors "github.com/kleypas/netplot/pkg/errors"
)

// Load reads and parses a declaration file. The format is chosen by
// extension (.json for JSON, .yaml/.yml for YAML); anything else is sniffed
// from the content. Load does not validate — call [Validate] on the result.
func Load(path string) (*Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, neterrors.Wrap(neterrors.ErrCodeFileNotFound, err, "declaration file %s", path)
		}
		return nil, neterrors.Wrap(neterrors.ErrCodeInvalidPath, err, "reading %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// Parse decodes a declaration from raw bytes, sniffing the format: content
// whose first non-space byte is '{' is treated as JSON, everything else as
// YAML (JSON being a YAML subset, this only matters for ordered decoding).
func Parse(data []byte) (*Declaration, error) {
	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML declaration.
func ParseYAML(data []byte) (*Declaration, error) {
	var d Declaration
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, neterrors.Wrap(neterrors.ErrCodeInvalidDeclaration, err, "parsing declaration")
	}
	return &d, nil
}

// ParseJSON decodes a JSON declaration.
func ParseJSON(data []byte) (*Declaration, error) {
	var d Declaration
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, neterrors.Wrap(neterrors.ErrCodeInvalidDeclaration, err, "parsing declaration")
	}
	return &d, nil
}

// UnmarshalYAML decodes the `private` mapping into an ordered list. Plain Go
// maps would lose declaration order, which drives root-network placement.
func (l *NetworkList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*l = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("private: expected mapping, got %s", kindName(value.Kind))
	}

	out := make(NetworkList, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, bodyNode := value.Content[i], value.Content[i+1]
		var n Network
		if err := bodyNode.Decode(&n); err != nil {
			return fmt.Errorf("network %q: %w", keyNode.Value, err)
		}
		n.Name = keyNode.Value
		out = append(out, &n)
	}
	*l = out
	return nil
}

// UnmarshalJSON decodes the `private` object via the token stream so that
// key order survives, mirroring the YAML decoder.
func (l *NetworkList) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*l = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("private: expected object, got %v", tok)
	}

	out := make(NetworkList, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("private: non-string key %v", keyTok)
		}

		var n Network
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("network %q: %w", key, err)
		}
		n.Name = key
		out = append(out, &n)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}

	*l = out
	return nil
}

// MarshalJSON emits the list back as an object keyed by network name, in
// declaration order, so Parse(Marshal(d)) reproduces d. The pipeline relies
// on this for content-hash cache keys.
func (l NetworkList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		body, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", n.Name, err)
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML accepts a diversion target as a single scalar or a sequence.
func (t *TargetList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*t = nil
			return nil
		}
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*t = TargetList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*t = TargetList(list)
		return nil
	default:
		return fmt.Errorf("target: expected scalar or sequence, got %s", kindName(value.Kind))
	}
}

// UnmarshalJSON accepts a diversion target as a single string or an array.
func (t *TargetList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*t = nil
		return nil
	}

	if trimmed[0] == '[' {
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*t = TargetList(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	*t = TargetList{single}
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
