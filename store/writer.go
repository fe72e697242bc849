package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/glaciodyn/radsurvey/retain"
)

// WriteFiltered writes a new container at dst mirroring every line group
// of the source, copying only those (line, location) subtrees the
// retention map marks as kept. Locations flagged false are silently
// omitted; every omission was already logged when it was flagged.
//
// If dst exists and overwrite is false the call fails without touching it.
// Store-level free-text annotations are not preserved.
func (s *Store) WriteFiltered(dst string, overwrite bool, keep *retain.Map) error {
	if _, err := s.fsys.Stat(dst); err == nil {
		if !overwrite {
			return fmt.Errorf("%w: %s already exists", ErrWriteConflict, dst)
		}
		if err := s.fsys.RemoveAll(dst); err != nil {
			return fmt.Errorf("clear destination: %w", err)
		}
	}
	if err := s.fsys.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	lines, err := s.Lines()
	if err != nil {
		return err
	}

	for _, lineName := range lines {
		lineNo, _ := lineIndex(lineName)
		dstLine := filepath.Join(dst, lineName)

		// A pre-existing line group in a directory we just created means
		// the write target is corrupted, not a recoverable condition.
		if _, err := s.fsys.Stat(dstLine); err == nil {
			return fmt.Errorf("%w: %s already exists in destination", ErrWriteConflict, lineName)
		}
		if err := s.fsys.MkdirAll(dstLine, 0o755); err != nil {
			return err
		}

		srcLine := filepath.Join(s.path, lineName)
		entries, err := s.fsys.ReadDir(srcLine)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if locNo, ok := lineIndex(e.Name()); ok {
				if !keep.Get(lineNo, locNo) {
					continue
				}
			}
			// Non-conforming location names cannot be addressed in the
			// retention map and stay default-kept.
			if err := s.copyTree(filepath.Join(srcLine, e.Name()), filepath.Join(dstLine, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) copyTree(src, dst string) error {
	info, err := s.fsys.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return s.copyFile(src, dst)
	}

	if err := s.fsys.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := s.fsys.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := s.copyTree(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) copyFile(src, dst string) error {
	in, err := s.fsys.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := s.fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
