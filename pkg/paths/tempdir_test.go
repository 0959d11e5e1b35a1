package paths

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempDir(t *testing.T) {
	fsys := afero.NewMemMapFs()

	first, err := TempDir(fsys, TempDirPrefix)
	require.NoError(t, err)
	second, err := TempDir(fsys, TempDirPrefix)
	require.NoError(t, err)

	assert.True(t, first.IsDir())
	assert.True(t, second.IsDir())
	assert.False(t, first.Equal(second), "temp dirs must be unique")
	assert.True(t, strings.HasPrefix(first.Base(), TempDirPrefix))

	names, err := first.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNewTempDirAllocator(t *testing.T) {
	fsys := afero.NewMemMapFs()
	alloc := NewTempDirAllocator(fsys)

	dir, err := alloc()
	require.NoError(t, err)
	assert.True(t, dir.IsDir())
	assert.Same(t, fsys, dir.Fs().(*afero.MemMapFs))
}
