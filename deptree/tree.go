package deptree

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// PackageNode is one installed package as reported by the package manager.
type PackageNode struct {
	Name         string       `json:"name"`
	Version      string       `json:"version,omitempty"`
	Path         string       `json:"path"`
	Dependencies Dependencies `json:"dependencies,omitempty"`
	Missing      bool         `json:"missing,omitempty"`
}

// Dependency is one entry of a dependency mapping. A nil Node models an
// entry the report lists without a body.
type Dependency struct {
	Key  string
	Node *PackageNode
}

// Dependencies is a dependency mapping that keeps the key order of the
// document it was decoded from.
type Dependencies []Dependency

// Get returns the node stored under key.
func (d Dependencies) Get(key string) (*PackageNode, bool) {
	for _, dep := range d {
		if dep.Key == key {
			return dep.Node, true
		}
	}
	return nil, false
}

// Keys returns the entry keys in order.
func (d Dependencies) Keys() []string {
	keys := make([]string, len(d))
	for i, dep := range d {
		keys[i] = dep.Key
	}
	return keys
}

// UnmarshalJSON decodes a JSON object, keeping its key order.
func (d *Dependencies) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("dependencies: expected object, got %v", tok)
	}

	out := Dependencies{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("dependencies: expected key, got %v", tok)
		}
		var node *PackageNode
		if err := dec.Decode(&node); err != nil {
			return fmt.Errorf("dependencies: %s: %w", key, err)
		}
		out = append(out, Dependency{Key: key, Node: node})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}

// MarshalJSON encodes the mapping as a JSON object in its stored order.
func (d Dependencies) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, dep := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(dep.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(dep.Node)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseTree decodes a package manager report.
func ParseTree(data []byte) (*PackageNode, error) {
	var root PackageNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}
