package blur

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// LoadPNG loads a PNG image from the given file path and converts it to a
// grayscale buffer.
func LoadPNG(path string) (*Gray, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("blur: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodePNG(f)
}

// DecodePNG decodes a PNG image from the given reader into a grayscale
// buffer. Sources that are not already grayscale are converted.
func DecodePNG(r io.Reader) (*Gray, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("blur: decode PNG: %w", err)
	}
	return FromImage(img), nil
}

// SavePNG saves the buffer as an 8-bit grayscale PNG file.
func (g *Gray) SavePNG(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("blur: create file: %w", err)
	}

	if err := g.EncodePNG(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// EncodePNG encodes the buffer as PNG to the given writer.
func (g *Gray) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, g.ToImage()); err != nil {
		return fmt.Errorf("blur: encode PNG: %w", err)
	}
	return nil
}
