package firmware

import (
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/validation"
)

// Project is the part of the application's package.json the build uses.
type Project struct {
	Name string `json:"name"`
	Main string `json:"main"`
}

// ReadProject loads package.json from dir. Main defaults to index.js.
func ReadProject(fs afero.Fs, dir string) (*Project, error) {
	path := filepath.Join(dir, "package.json")
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.NotFound("package.json", path).WithCause(err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Config("invalid " + path).WithCause(err)
	}
	if err := validation.New().Required(path+": name", p.Name).Validate(); err != nil {
		return nil, err
	}
	if p.Main == "" {
		p.Main = "index.js"
	}
	return &p, nil
}

// BundleName returns the bundle file name. Scoped package names are
// flattened: @scope/app becomes scope-app.
func (p *Project) BundleName() string {
	name := strings.TrimPrefix(p.Name, "@")
	name = strings.ReplaceAll(name, "/", "-")
	return name + ".bundle.min.js"
}
