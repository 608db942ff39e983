// Package deptree discovers native packages in an installed npm dependency
// tree.
//
// A native package is an installed package that carries an mbedjs.json
// manifest next to its package.json. The walker visits the tree depth-first
// in the key order of the package manager's report, emits one descriptor per
// manifest found, and computes the source directories the compiler must be
// given for it.
//
//	tree, err := deptree.NPMQuery(ctx, runner, projectDir)
//	libs, err := deptree.ResolveNativePackages(fs, tree.Dependencies)
package deptree
