package paths

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/arthur-debert/docfix/pkg/errors"
)

// Default permissions for directories and files created through a Path
const (
	DirPerm  os.FileMode = 0755
	FilePerm os.FileMode = 0644
)

// Path is a filesystem path bound to the filesystem it lives on
type Path struct {
	fs   afero.Fs
	name string
}

// New returns a Path for name on fs. A nil fs means the OS filesystem.
func New(fsys afero.Fs, name string) Path {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return Path{fs: fsys, name: filepath.Clean(name)}
}

// String returns the path as a plain string
func (p Path) String() string { return p.name }

// Fs returns the filesystem the path is bound to
func (p Path) Fs() afero.Fs { return p.fs }

// IsZero reports whether p was never initialised
func (p Path) IsZero() bool { return p.fs == nil && p.name == "" }

// Join returns p with elem appended
func (p Path) Join(elem ...string) Path {
	return Path{fs: p.fs, name: filepath.Join(append([]string{p.name}, elem...)...)}
}

// Base returns the last element of the path
func (p Path) Base() string { return filepath.Base(p.name) }

// Dir returns the parent directory
func (p Path) Dir() Path { return Path{fs: p.fs, name: filepath.Dir(p.name)} }

// Equal compares the cleaned names of both paths
func (p Path) Equal(other Path) bool { return p.name == other.name }

// Rel returns the path of target relative to p
func (p Path) Rel(target Path) (string, error) {
	return filepath.Rel(p.name, target.name)
}

// Exists reports whether anything exists at p
func (p Path) Exists() bool {
	ok, err := afero.Exists(p.fs, p.name)
	return err == nil && ok
}

// IsDir reports whether p is an existing directory
func (p Path) IsDir() bool {
	ok, err := afero.IsDir(p.fs, p.name)
	return err == nil && ok
}

// Stat returns the file info for p
func (p Path) Stat() (os.FileInfo, error) {
	return p.fs.Stat(p.name)
}

// MakeDirs creates p and any missing parents
func (p Path) MakeDirs() error {
	if err := p.fs.MkdirAll(p.name, DirPerm); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create directory %s", p.name)
	}
	return nil
}

// ReadText returns the file contents as a string
func (p Path) ReadText() (string, error) {
	data, err := afero.ReadFile(p.fs, p.name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBytes returns the file contents
func (p Path) ReadBytes() ([]byte, error) {
	return afero.ReadFile(p.fs, p.name)
}

// WriteText replaces the file contents with text
func (p Path) WriteText(text string) error {
	return p.WriteBytes([]byte(text))
}

// WriteBytes replaces the file contents with data
func (p Path) WriteBytes(data []byte) error {
	return afero.WriteFile(p.fs, p.name, data, FilePerm)
}

// List returns the sorted names of the entries in directory p
func (p Path) List() ([]string, error) {
	infos, err := afero.ReadDir(p.fs, p.name)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

// RemoveTree removes p and everything below it. A missing path is not an error.
func (p Path) RemoveTree() error {
	if err := p.fs.RemoveAll(p.name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CopyTree recursively copies the directory p to dst, which must not exist
// yet. File modes and modification times are preserved.
func (p Path) CopyTree(dst Path) error {
	if !p.IsDir() {
		return errors.Newf(errors.ErrDirCopy, "copy source %s is not a directory", p.name)
	}
	if dst.Exists() {
		return errors.Newf(errors.ErrAlreadyExists, "copy destination %s already exists", dst.name)
	}

	err := afero.Walk(p.fs, p.name, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(p.name, path)
		if err != nil {
			return err
		}
		target := dst.Join(rel)

		switch {
		case info.IsDir():
			if err := dst.fs.MkdirAll(target.name, info.Mode().Perm()|0700); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			data, err := afero.ReadFile(p.fs, path)
			if err != nil {
				return err
			}
			if err := afero.WriteFile(dst.fs, target.name, data, info.Mode().Perm()); err != nil {
				return err
			}
		default:
			return errors.Newf(errors.ErrDirCopy, "unsupported file type at %s", path)
		}
		return dst.fs.Chtimes(target.name, info.ModTime(), info.ModTime())
	})
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrDirCopy) {
			return err
		}
		return errors.Wrapf(err, errors.ErrDirCopy, "cannot copy %s to %s", p.name, dst.name)
	}
	return nil
}
