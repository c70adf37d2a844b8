package publisher

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// TreeDigest hashes the relative paths, permission bits and contents of every
// entry under root in lexical order. Equal digests mean equal trees.
func TreeDigest(root string) (uint64, error) {
	hasher := xxhash.New()

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(hasher, "%s\x00%o\x00", filepath.ToSlash(rel), info.Mode())

		if !entry.Type().IsRegular() {
			return nil
		}

		return hashFile(hasher, path)
	})
	if err != nil {
		return 0, fmt.Errorf("digest %s: %w", root, err)
	}

	return hasher.Sum64(), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = f.Close()
	}()

	_, err = io.Copy(w, f)

	return err
}
