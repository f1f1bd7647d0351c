// Package imaging re-encodes uploaded images into the stored format.
package imaging

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
)

// Encoder converts a raw uploaded image into the bytes that get stored.
type Encoder interface {
	Encode(raw []byte) ([]byte, error)
}

// WebPEncoder re-encodes images to lossy webp at a fixed quality.
// The same quality is applied on both the create and update paths.
type WebPEncoder struct {
	quality float32
}

// NewWebPEncoder creates an encoder with the given quality (0-100).
func NewWebPEncoder(quality int) *WebPEncoder {
	return &WebPEncoder{quality: float32(quality)}
}

// Encode decodes the raw image and re-encodes it as webp.
func (e *WebPEncoder) Encode(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
