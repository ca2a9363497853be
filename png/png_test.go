package png

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQr(t *testing.T) {
	data, err := Qr("https://example.org/checkout?application_id=42")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
}

func TestQr_Empty(t *testing.T) {
	_, err := Qr("")
	assert.Error(t, err)
}

func TestWriteQr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "continue.png")
	require.NoError(t, WriteQr(path, "https://example.org"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}
