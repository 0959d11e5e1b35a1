package paths

import (
	"github.com/spf13/afero"

	"github.com/arthur-debert/docfix/pkg/errors"
)

// TempDirPrefix is the prefix of every temporary directory docfix allocates
const TempDirPrefix = "docfix-"

// TempDirAllocator returns a freshly created, uniquely named, empty directory
type TempDirAllocator func() (Path, error)

// TempDir allocates a new temporary directory on fsys
func TempDir(fsys afero.Fs, prefix string) (Path, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	name, err := afero.TempDir(fsys, "", prefix)
	if err != nil {
		return Path{}, errors.Wrap(err, errors.ErrDirCreate, "cannot allocate temporary directory")
	}
	return New(fsys, name), nil
}

// NewTempDirAllocator returns an allocator creating docfix temp dirs on fsys
func NewTempDirAllocator(fsys afero.Fs) TempDirAllocator {
	return func() (Path, error) {
		return TempDir(fsys, TempDirPrefix)
	}
}
