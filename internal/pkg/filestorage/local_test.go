package filestorage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "")
	require.NoError(t, err)

	url, err := ls.SaveBytes("certificates", "abc", ".png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/certificates/abc.png", url)

	raw, err := os.ReadFile(ls.GetFullPath(url))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(raw))

	require.NoError(t, ls.DeleteFile(url))
	_, err = os.Stat(ls.GetFullPath(url))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ls.DeleteFile(url))
}

func TestLocalStorage_BaseURLAndTraversal(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "https://lms.example.com/")
	require.NoError(t, err)

	url, err := ls.SaveBytes("../../etc", "", ".html", []byte("x"))
	require.NoError(t, err)
	assert.Contains(t, url, "https://lms.example.com/uploads/etc/")
	assert.FileExists(t, ls.GetFullPath(url))
	assert.Contains(t, ls.GetFullPath(url), dir)
}
