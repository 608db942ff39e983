package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"github.com/kbukum/mbedjs/errors"
)

// Digest accumulates a BLAKE2b-256 hash over named values and file trees.
// Every record is framed, so no two different sequences of records hash
// alike.
type Digest struct {
	h hash.Hash
}

// NewDigest returns an empty digest.
func NewDigest() *Digest {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	return &Digest{h: h}
}

// Value adds a named string.
func (d *Digest) Value(name, value string) {
	writeField(d.h, "value", name)
	writeField(d.h, "=", value)
}

// Tree adds the file or directory at root/rel. Names are hashed relative to
// root, followed by each file's size and contents. A missing path hashes as
// absent rather than failing.
func (d *Digest) Tree(fs afero.Fs, root, rel string) error {
	base := filepath.Join(root, rel)
	if _, err := fs.Stat(base); err != nil {
		writeField(d.h, "missing", filepath.ToSlash(rel))
		return nil
	}

	// afero.Walk visits entries in lexical order.
	err := afero.Walk(fs, base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		name = filepath.ToSlash(name)
		if info.IsDir() {
			writeField(d.h, "dir", name)
			return nil
		}
		writeField(d.h, "file", name)
		var size [8]byte
		binary.BigEndian.PutUint64(size[:], uint64(info.Size()))
		_, _ = d.h.Write(size[:])

		f, err := fs.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := io.Copy(d.h, f)
		if err == nil && n != info.Size() {
			return errors.Internal(io.ErrUnexpectedEOF).WithDetail("path", p)
		}
		return err
	})
	if err != nil {
		return errors.Internal(err).WithDetail("path", base)
	}
	return nil
}

// Sum returns the hex encoded hash of everything added so far.
func (d *Digest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

// Fingerprint hashes the trees at paths, relative to root, in sorted order.
// Renames and edits both change it.
func Fingerprint(fs afero.Fs, root string, paths ...string) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	d := NewDigest()
	for _, rel := range sorted {
		if err := d.Tree(fs, root, rel); err != nil {
			return "", err
		}
	}
	return d.Sum(), nil
}

func writeField(w io.Writer, kind, name string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(name)))
	_, _ = io.WriteString(w, kind)
	_, _ = w.Write([]byte{0})
	_, _ = w.Write(n[:])
	_, _ = io.WriteString(w, name)
}
