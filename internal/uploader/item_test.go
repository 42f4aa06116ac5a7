package uploader

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Photo.PNG")
	require.NoError(t, os.WriteFile(path, []byte("png!"), 0o600))

	src, err := FileSource(path)
	require.NoError(t, err)
	assert.Equal(t, "Photo.PNG", src.Name)
	assert.Equal(t, int64(4), src.Size)
	assert.Equal(t, "image/png", src.ContentType)

	rc, err := src.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png!", string(data))

	_, err = FileSource(dir)
	assert.Error(t, err)
	_, err = FileSource(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, percent(5, 0))
	assert.Equal(t, 50, percent(5, 10))
	assert.Equal(t, 100, percent(12, 10))
}
