package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func Test_WebPEncoder_Encode(t *testing.T) {
	encoder := NewWebPEncoder(90)

	encoded, err := encoder.Encode(pngBytes(t))
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
	// RIFF container magic
	assert.Equal(t, []byte("RIFF"), encoded[:4])
}

func Test_WebPEncoder_Encode_InvalidInput(t *testing.T) {
	encoder := NewWebPEncoder(90)

	_, err := encoder.Encode([]byte("definitely not an image"))
	assert.Error(t, err)
}
