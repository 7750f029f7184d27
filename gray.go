package blur

import (
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// ErrInvalidDimensions is returned when width or height is non-positive.
var ErrInvalidDimensions = errors.New("blur: invalid dimensions")

// Gray represents a rectangular 8-bit grayscale pixel buffer, row-major,
// one byte per pixel. It is the caller-owned image form the blur strategies
// operate on.
type Gray struct {
	width  int
	height int
	data   []uint8
}

// NewGray creates a new grayscale buffer with the given dimensions.
func NewGray(width, height int) (*Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Gray{
		width:  width,
		height: height,
		data:   make([]uint8, width*height),
	}, nil
}

// Width returns the width of the buffer in pixels.
func (g *Gray) Width() int {
	return g.width
}

// Height returns the height of the buffer in pixels.
func (g *Gray) Height() int {
	return g.height
}

// Pix returns the raw pixel data. The slice is shared with the buffer, not
// a copy.
func (g *Gray) Pix() []uint8 {
	return g.data
}

// At returns the sample at (x, y). Out-of-bounds coordinates return 0.
func (g *Gray) At(x, y int) uint8 {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return 0
	}
	return g.data[y*g.width+x]
}

// Set sets the sample at (x, y). Out-of-bounds coordinates are silently
// ignored.
func (g *Gray) Set(x, y int, v uint8) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return
	}
	g.data[y*g.width+x] = v
}

// Fill sets every sample to v.
func (g *Gray) Fill(v uint8) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Clone returns a deep copy of the buffer.
func (g *Gray) Clone() *Gray {
	data := make([]uint8, len(g.data))
	copy(data, g.data)
	return &Gray{width: g.width, height: g.height, data: data}
}

// Blur returns a new buffer holding the blurred image. Only the top-left
// (width-4) x (height-4) region of the result carries valid data; the rest
// stays zero.
func (g *Gray) Blur(s Strategy) (*Gray, error) {
	out, err := NewGray(g.width, g.height)
	if err != nil {
		return nil, err
	}
	if err := s.Apply(out.data, g.data, g.width, g.height); err != nil {
		return nil, err
	}
	return out, nil
}

// FromImage converts any image to a grayscale buffer. Non-gray sources are
// converted through the standard luminance mapping of image/color.
func FromImage(img image.Image) *Gray {
	bounds := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)

	g := &Gray{
		width:  bounds.Dx(),
		height: bounds.Dy(),
		data:   make([]uint8, bounds.Dx()*bounds.Dy()),
	}
	// image.Gray may carry a stride wider than the row; copy row by row.
	for y := 0; y < g.height; y++ {
		copy(g.data[y*g.width:(y+1)*g.width], dst.Pix[y*dst.Stride:y*dst.Stride+g.width])
	}
	return g
}

// ToImage returns the buffer as a standard library image. The pixel data is
// copied, so later writes to g do not affect the result.
func (g *Gray) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+g.width], g.data[y*g.width:(y+1)*g.width])
	}
	return img
}
