package filestorage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveReadDelete(t *testing.T) {
	root := t.TempDir()
	storage, err := NewLocalStorage(root)
	require.NoError(t, err)

	rel, err := storage.SaveBytes([]byte("student_id,name,PO1\n"), "2020-2021 Fall/user_ada", "CE101.CSV")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "2020-2021 Fall/user_ada/"))
	assert.True(t, strings.HasSuffix(rel, ".csv"))

	data, err := storage.ReadFile(rel)
	require.NoError(t, err)
	assert.Equal(t, "student_id,name,PO1\n", string(data))

	full, err := storage.GetFullPath(rel)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, filepath.FromSlash(rel)), full)

	require.NoError(t, storage.DeleteFile(rel))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, storage.DeleteFile(rel))
	assert.NoError(t, storage.DeleteFile(""))
}

func TestSaveKeepsFilesApart(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	first, err := storage.SaveBytes([]byte("a"), "s", "same.csv")
	require.NoError(t, err)
	second, err := storage.SaveBytes([]byte("b"), "s", "same.csv")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestPathsStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	storage, err := NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	rel, err := storage.SaveBytes([]byte("x"), "../../escape", "f.csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "escape/"))

	full, err := storage.GetFullPath("../outside.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", "outside.csv"), full)

	_, err = storage.GetFullPath("")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = storage.GetFullPath("/")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
