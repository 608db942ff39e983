package deptree

import (
	"bytes"
	"context"

	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/process"
)

// NPMCommand returns the installed-package query run in dir.
func NPMCommand(dir string) process.Command {
	return process.Command{
		Binary: "npm",
		Args:   []string{"ls", "--json", "--long", "--production"},
		Dir:    dir,
	}
}

// NPMQuery asks npm for the installed production dependency tree of the
// project in dir. npm exits non-zero when it reports missing or invalid
// packages; such output is still accepted when it parses.
func NPMQuery(ctx context.Context, runner process.Runner, dir string) (*PackageNode, error) {
	res, runErr := runner.Run(ctx, NPMCommand(dir))
	if errors.HasCode(runErr, errors.ErrCodeCancelled) {
		return nil, runErr
	}
	if res == nil || len(bytes.TrimSpace(res.Stdout)) == 0 {
		if runErr != nil {
			return nil, runErr
		}
		return &PackageNode{}, nil
	}

	tree, err := ParseTree(res.Stdout)
	if err != nil {
		if runErr != nil {
			return nil, runErr
		}
		return nil, errors.New(errors.ErrCodeExternalProcess, "npm ls produced unreadable output").
			WithCause(err).
			WithDetail("output", res.Tail(process.DefaultTailLines))
	}
	return tree, nil
}
