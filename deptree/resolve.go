package deptree

import (
	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/logger"
	"github.com/kbukum/mbedjs/manifest"
	"github.com/kbukum/mbedjs/util"
)

// NativePackage describes an installed package that contributes native
// source to the firmware.
type NativePackage struct {
	Name      string             `json:"name"`
	AbsSource []string           `json:"abs_source"`
	Manifest  *manifest.Manifest `json:"config"`
}

// Option configures ResolveNativePackages.
type Option func(*resolver)

// WithDedupe drops later descriptors whose name was already emitted.
func WithDedupe() Option {
	return func(r *resolver) { r.dedupe = true }
}

// WithLogger sets the logger used for per-package debug output.
func WithLogger(l *logger.Logger) Option {
	return func(r *resolver) { r.log = l }
}

type resolver struct {
	reader *manifest.Reader
	dedupe bool
	log    *logger.Logger
	out    []NativePackage
}

// NormalizePath rewrites an install path into the form used in compiler
// source lists.
func NormalizePath(p string) string {
	return util.ForwardSlashes(p)
}

// ResolveNativePackages walks deps depth-first and returns one descriptor per
// package carrying a manifest, in pre-order. Missing packages and their
// subtrees are skipped. The dependencies of a native package are still
// visited. A malformed manifest aborts the walk.
func ResolveNativePackages(fs afero.Fs, deps Dependencies, opts ...Option) ([]NativePackage, error) {
	r := &resolver{
		reader: manifest.NewReader(fs),
		log:    logger.Nop(),
		out:    []NativePackage{},
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.walk(deps); err != nil {
		return nil, err
	}
	if r.dedupe {
		return lo.UniqBy(r.out, func(p NativePackage) string { return p.Name }), nil
	}
	return r.out, nil
}

func (r *resolver) walk(deps Dependencies) error {
	for _, dep := range deps {
		node := dep.Node
		if node == nil || node.Missing {
			continue
		}

		m, ok, err := r.reader.Read(node.Path)
		if err != nil {
			return err
		}
		if ok {
			pkg := newNativePackage(util.Coalesce(node.Name, dep.Key), node.Path, m)
			r.log.Debug("native package", logger.Fields(
				logger.FieldPackage, pkg.Name,
				logger.FieldPath, node.Path,
			))
			r.out = append(r.out, pkg)
		}

		if err := r.walk(node.Dependencies); err != nil {
			return err
		}
	}
	return nil
}

func newNativePackage(name, path string, m *manifest.Manifest) NativePackage {
	base := NormalizePath(path)
	return NativePackage{
		Name: name,
		AbsSource: lo.Map(m.Source, func(dir string, _ int) string {
			return util.JoinSlash(base, dir)
		}),
		Manifest: m,
	}
}

// Names returns the package names in order.
func Names(pkgs []NativePackage) []string {
	return lo.Map(pkgs, func(p NativePackage, _ int) string { return p.Name })
}

// SourceDirs returns every source directory of pkgs, in order.
func SourceDirs(pkgs []NativePackage) []string {
	return lo.FlatMap(pkgs, func(p NativePackage, _ int) []string { return p.AbsSource })
}
