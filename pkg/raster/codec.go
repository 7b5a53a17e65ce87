package raster

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/webp"
)

// Decode reads a PNG, JPEG, GIF or WebP photograph.
func Decode(r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("raster: decode: %w", err)
	}
	return FromImage(img), nil
}

// Load opens and decodes the image at path.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// EncodePNG writes m as a PNG.
func EncodePNG(w io.Writer, m *Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, m.NRGBA()); err != nil {
		return fmt.Errorf("raster: encode png: %w", err)
	}
	return nil
}

// Save writes m to path as a PNG.
func Save(path string, m *Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodePNG(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
