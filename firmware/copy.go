package firmware

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/errors"
)

// copyTree copies the directory src to dst, creating dst. Existing files
// in dst are overwritten.
func copyTree(fs afero.Fs, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return errors.NotFound("support directory", src).WithCause(err)
	}
	if !info.IsDir() {
		return errors.InvalidInput("support_dir", src+" is not a directory")
	}

	err = afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fs.MkdirAll(target, 0o755)
		}
		return copyFile(fs, path, target, info.Mode().Perm())
	})
	if err != nil {
		return errors.Internal(err).WithDetail("path", dst)
	}
	return nil
}

func copyFile(fs afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
