package testutil

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/arthur-debert/docfix/pkg/config"
	"github.com/arthur-debert/docfix/pkg/errors"
	"github.com/arthur-debert/docfix/pkg/paths"
)

// NewSourceRoot is the name of the project directory NewEmpty creates inside
// its temporary directory
const NewSourceRoot = "root"

// Source decides where a fixture's source tree comes from. The only
// implementations are FromExisting, NewEmpty and DuplicateOf.
type Source interface {
	fmt.Stringer

	// provision returns the source directory and, when one was allocated,
	// the temporary directory that must be reclaimed. tmp is set even when
	// err is not nil so partial work can be undone.
	provision(fsys afero.Fs, alloc paths.TempDirAllocator) (src paths.Path, tmp paths.Path, err error)
}

// FromExisting uses dir as the source tree in place
func FromExisting(dir string) Source { return existingSource{dir: dir} }

// NewEmpty creates a temporary project containing only an empty conf.toml
func NewEmpty() Source { return emptySource{} }

// DuplicateOf copies dir into a new temporary directory and uses the copy
func DuplicateOf(dir string) Source { return duplicateSource{dir: dir} }

type existingSource struct{ dir string }

func (s existingSource) String() string { return fmt.Sprintf("existing(%s)", s.dir) }

func (s existingSource) provision(fsys afero.Fs, _ paths.TempDirAllocator) (paths.Path, paths.Path, error) {
	if s.dir == "" {
		return paths.Path{}, paths.Path{}, errors.New(errors.ErrPrecondition, "source directory not found")
	}
	return paths.New(fsys, s.dir), paths.Path{}, nil
}

type emptySource struct{}

func (emptySource) String() string { return "new" }

func (emptySource) provision(_ afero.Fs, alloc paths.TempDirAllocator) (paths.Path, paths.Path, error) {
	tmp, err := alloc()
	if err != nil {
		return paths.Path{}, paths.Path{}, err
	}
	root := tmp.Join(NewSourceRoot)
	if err := root.MakeDirs(); err != nil {
		return paths.Path{}, tmp, err
	}
	if err := root.Join(config.ConfigFile).WriteText(""); err != nil {
		return paths.Path{}, tmp, errors.Wrapf(err, errors.ErrDirCreate, "cannot write %s", config.ConfigFile)
	}
	return root, tmp, nil
}

type duplicateSource struct{ dir string }

func (s duplicateSource) String() string { return fmt.Sprintf("copy(%s)", s.dir) }

func (s duplicateSource) provision(fsys afero.Fs, alloc paths.TempDirAllocator) (paths.Path, paths.Path, error) {
	if s.dir == "" {
		return paths.Path{}, paths.Path{}, errors.New(errors.ErrPrecondition, "source directory not found")
	}
	orig := paths.New(fsys, s.dir)
	tmp, err := alloc()
	if err != nil {
		return paths.Path{}, paths.Path{}, err
	}
	dst := tmp.Join(orig.Base())
	if err := orig.CopyTree(dst); err != nil {
		return paths.Path{}, tmp, err
	}
	return dst, tmp, nil
}
