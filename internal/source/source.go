// Package source makes sure a component's source tree is on disk,
// unpacking it from a .tar.xz archive or fetching it with git when it is not.
package source

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"
	"github.com/ulikunitz/xz"
)

// ErrNoTree is returned when a tree is missing and has no origin.
var ErrNoTree = errors.New("source tree not found")

// Origin says where a missing tree comes from. Archive takes precedence
// over Git.
type Origin struct {
	Archive string // .tar.xz path
	Git     string // remote URL
	Ref     string // tag, branch or commit; HEAD when empty
	Client  *Git   // fetches Git; DefaultGit when nil
}

// DefaultGit fetches git origins.
var DefaultGit = NewGit()

// Ensure makes dir available. An existing dir is left alone. Otherwise the
// tree is materialized next to dir and renamed into place, so an
// interrupted fetch never leaves a half-populated dir behind.
func Ensure(ctx context.Context, dir string, o Origin) error {
	if fi, err := os.Stat(dir); err == nil {
		if !fi.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}

	var fill func(tmp string) error
	switch {
	case o.Archive != "":
		log.Infof("source: unpacking %s into %s", o.Archive, dir)
		fill = func(tmp string) error {
			if err := extract(o.Archive, tmp); err != nil {
				return fmt.Errorf("unpack %s: %w", o.Archive, err)
			}
			return nil
		}
	case o.Git != "":
		ref := o.Ref
		if ref == "" {
			ref = "HEAD"
		}
		g := o.Client
		if g == nil {
			g = DefaultGit
		}
		log.Infof("source: fetching %s@%s into %s", o.Git, ref, dir)
		fill = func(tmp string) error {
			if err := os.MkdirAll(tmp, 0o755); err != nil {
				return err
			}
			if err := g.Sync(ctx, o.Git, ref, tmp); err != nil {
				return fmt.Errorf("fetch %s@%s: %w", o.Git, ref, err)
			}
			head, err := g.Head(ctx, tmp)
			if err != nil {
				return err
			}
			log.Infof("source: %s@%s is %s", o.Git, ref, head)
			return nil
		}
	default:
		return fmt.Errorf("%w: %s", ErrNoTree, dir)
	}

	tmp := dir + ".partial"
	if err := os.RemoveAll(tmp); err != nil {
		return err
	}
	if err := fill(tmp); err != nil {
		os.RemoveAll(tmp)
		return err
	}
	return os.Rename(tmp, dir)
}

func extract(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return err
	}
	tr := tar.NewReader(xr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		rel := stripTop(hdr.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(dest, rel)
		if !within(dest, target) {
			return fmt.Errorf("entry %s escapes the destination", hdr.Name)
		}
		if err := noSymlinkParents(dest, target); err != nil {
			return fmt.Errorf("entry %s: %w", hdr.Name, err)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) || !within(dest, filepath.Join(filepath.Dir(target), hdr.Linkname)) {
				return fmt.Errorf("symlink %s -> %s escapes the destination", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		default:
			log.Debugf("source: skipping %s (type %c)", hdr.Name, hdr.Typeflag)
		}
	}
}

// within reports whether p lies strictly inside dir.
func within(dir, p string) bool {
	return strings.HasPrefix(filepath.Clean(p), filepath.Clean(dir)+string(os.PathSeparator))
}

// noSymlinkParents fails when a directory between dest and target is a
// symlink, so entries are never written through a link.
func noSymlinkParents(dest, target string) error {
	dest = filepath.Clean(dest)
	for dir := filepath.Dir(target); dir != dest && within(dest, dir); dir = filepath.Dir(dir) {
		fi, err := os.Lstat(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("parent %s is a symlink", dir)
		}
	}
	return nil
}

// stripTop removes the first path element of a tar entry name.
func stripTop(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	_, rest, _ := strings.Cut(name, "/")
	return filepath.FromSlash(strings.TrimSuffix(rest, "/"))
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
