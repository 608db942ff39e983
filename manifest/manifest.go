package manifest

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/errors"
)

// FileName is the manifest file looked up at a package's install root.
const FileName = "mbedjs.json"

// Manifest is a parsed mbedjs.json.
type Manifest struct {
	// Source lists native source directories relative to the package root.
	Source []string
	// Fields holds every top-level field, including "source".
	Fields map[string]any
	// Raw is the file content as read.
	Raw []byte
}

// MarshalJSON emits the original document.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	if m == nil || len(m.Raw) == 0 {
		return []byte("null"), nil
	}
	return bytes.Clone(m.Raw), nil
}

// Parse decodes manifest content. A missing or non-list "source" field is
// an error, as is any JSON syntax error.
func Parse(data []byte) (*Manifest, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("manifest is not a JSON object")
	}

	rawSource, ok := fields["source"]
	if !ok {
		return nil, fmt.Errorf(`manifest has no "source" field`)
	}
	list, ok := rawSource.([]any)
	if !ok {
		return nil, fmt.Errorf(`manifest "source" must be a list, got %T`, rawSource)
	}
	source := make([]string, 0, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf(`manifest "source"[%d] must be a string, got %T`, i, v)
		}
		source = append(source, s)
	}

	return &Manifest{Source: source, Fields: fields, Raw: bytes.Clone(data)}, nil
}

// Reader loads manifests from a filesystem.
type Reader struct {
	fs afero.Fs
}

// NewReader creates a Reader over fs.
func NewReader(fs afero.Fs) *Reader {
	return &Reader{fs: fs}
}

// Path returns the manifest location for a package installed at dir. The
// install path is used as given, separators included.
func Path(dir string) string {
	return dir + "/" + FileName
}

// Read loads the manifest of the package installed at dir.
// ok is false, with a nil error, when the package has no manifest.
// A manifest that exists but does not parse is a MANIFEST_INVALID error.
func (r *Reader) Read(dir string) (m *Manifest, ok bool, err error) {
	p := Path(dir)
	if _, err := r.fs.Stat(p); err != nil {
		return nil, false, nil
	}
	data, err := afero.ReadFile(r.fs, p)
	if err != nil {
		return nil, false, errors.Internal(err).WithDetail("path", p)
	}
	m, err = Parse(data)
	if err != nil {
		return nil, false, errors.ManifestInvalid(p, err)
	}
	return m, true, nil
}
