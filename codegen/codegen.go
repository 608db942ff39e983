package codegen

import (
	"bytes"
	"embed"
	"path/filepath"
	"text/template"

	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/deptree"
	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/util"
)

// Template names.
const (
	MainTemplate       = "main.cpp.tmpl"
	MbedAppTemplate    = "mbed_app.json.tmpl"
	MbedIgnoreTemplate = "mbedignore.tmpl"
)

//go:embed templates/*.tmpl
var defaults embed.FS

// Data is what templates are executed with.
type Data struct {
	Libraries []deptree.NativePackage
	Target    string
	HeapSize  int
}

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"cppName":   util.CIdentifier,
	"cppString": util.CString,
}

// Render executes tmpl with libs as .Libraries.
func Render(tmpl string, libs []deptree.NativePackage) (string, error) {
	return Execute("inline", tmpl, Data{Libraries: libs})
}

// RenderFile renders tmpl with libs and writes the result to outPath.
func RenderFile(fs afero.Fs, tmpl string, libs []deptree.NativePackage, outPath string) error {
	out, err := Render(tmpl, libs)
	if err != nil {
		return err
	}
	return writeFile(fs, outPath, out)
}

// Execute parses tmpl under name and executes it with data.
func Execute(name, tmpl string, data Data) (string, error) {
	t, err := template.New(name).Funcs(Funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", errors.Config("invalid template " + name).WithCause(err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.Config("template " + name + " failed").WithCause(err)
	}
	return buf.String(), nil
}

// Renderer loads templates from an override directory, falling back to the
// embedded defaults.
type Renderer struct {
	fs  afero.Fs
	dir string
}

// NewRenderer creates a Renderer. An empty dir uses only embedded templates.
func NewRenderer(fs afero.Fs, dir string) *Renderer {
	return &Renderer{fs: fs, dir: dir}
}

// Template returns the source of the named template.
func (r *Renderer) Template(name string) (string, error) {
	if r.dir != "" {
		p := filepath.Join(r.dir, name)
		if ok, _ := afero.Exists(r.fs, p); ok {
			data, err := afero.ReadFile(r.fs, p)
			if err != nil {
				return "", errors.Internal(err).WithDetail("path", p)
			}
			return string(data), nil
		}
	}
	data, err := defaults.ReadFile("templates/" + name)
	if err != nil {
		return "", errors.NotFound("template", name)
	}
	return string(data), nil
}

// Render executes the named template with data and writes it to outPath.
func (r *Renderer) Render(name string, data Data, outPath string) error {
	src, err := r.Template(name)
	if err != nil {
		return err
	}
	out, err := Execute(name, src, data)
	if err != nil {
		return err
	}
	return writeFile(r.fs, outPath, out)
}

func writeFile(fs afero.Fs, path, content string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Internal(err).WithDetail("path", path)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		return errors.Internal(err).WithDetail("path", path)
	}
	return nil
}
