package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	_, err = store.Save("slide/banner.jpg", []byte("image"))
	require.NoError(t, err)

	file, err := store.Open("slide/banner.jpg")
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	data, err := os.ReadFile(filepath.Join(base, "slide", "banner.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image", string(data))
}

func TestLocalStorageConfinesPathsToBaseDir(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "uploads")
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	for _, name := range []string{
		"../escape/evil.txt",
		"../../evil.txt",
		"a/../../evil.txt",
	} {
		_, err := store.Save(name, []byte("payload"))
		require.NoError(t, err, name)
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		assert.True(t, strings.HasPrefix(path, base+string(os.PathSeparator)), path)
		return nil
	})
	require.NoError(t, err)
}

func TestLocalStoragePathStaysUnderBaseDir(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "etc", "passwd"), store.Path("../../etc/passwd"))
	assert.Equal(t, filepath.Join(base, "etc", "passwd"), store.Path("/etc/passwd"))
}

func TestLocalStorageDeleteMissingIsSilent(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Delete("slide/nothing.png"))
}
