package blur

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestNewGrayInvalidDimensions(t *testing.T) {
	tests := []struct{ width, height int }{
		{0, 10}, {10, 0}, {-1, 10}, {10, -1}, {0, 0},
	}
	for _, tt := range tests {
		if _, err := NewGray(tt.width, tt.height); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("NewGray(%d, %d) = %v, want ErrInvalidDimensions", tt.width, tt.height, err)
		}
	}
}

// TestGraySetAt verifies round-tripping samples through Set/At and that
// out-of-bounds access is silently ignored.
func TestGraySetAt(t *testing.T) {
	g, err := NewGray(10, 8)
	if err != nil {
		t.Fatal(err)
	}

	g.Set(3, 5, 128)
	if got := g.At(3, 5); got != 128 {
		t.Errorf("At(3, 5) = %d, want 128", got)
	}
	if got := g.Pix()[5*10+3]; got != 128 {
		t.Errorf("raw data = %d, want 128", got)
	}

	// These should not panic and should not modify data.
	oob := []struct{ x, y int }{
		{-1, 5}, {10, 5}, {5, -1}, {5, 8},
		{-100, -100}, {100, 100},
	}
	for _, c := range oob {
		g.Set(c.x, c.y, 255)
		if got := g.At(c.x, c.y); got != 0 {
			t.Errorf("At(%d, %d) = %d, want 0", c.x, c.y, got)
		}
	}
	for i, v := range g.Pix() {
		if v != 0 && i != 5*10+3 {
			t.Fatalf("out-of-bounds write modified data at index %d", i)
		}
	}
}

// TestGrayClone verifies the clone shares no backing storage.
func TestGrayClone(t *testing.T) {
	g, err := NewGray(6, 6)
	if err != nil {
		t.Fatal(err)
	}
	g.Fill(50)

	c := g.Clone()
	c.Set(0, 0, 99)
	if g.At(0, 0) != 50 {
		t.Error("clone write leaked into original")
	}
	if c.Width() != 6 || c.Height() != 6 {
		t.Errorf("clone dimensions %dx%d, want 6x6", c.Width(), c.Height())
	}
}

// TestFromImageGray verifies grayscale sources convert losslessly.
func TestFromImageGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8(y*8 + x)})
		}
	}

	g := FromImage(src)
	if g.Width() != 8 || g.Height() != 6 {
		t.Fatalf("dimensions %dx%d, want 8x6", g.Width(), g.Height())
	}
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			if got, want := g.At(x, y), uint8(y*8+x); got != want {
				t.Fatalf("At(%d, %d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

// TestFromImageColor verifies color sources are reduced to luminance and
// that a gray color image converts to its own gray value.
func TestFromImageColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 120, G: 120, B: 120, A: 255})
		}
	}

	g := FromImage(src)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := g.At(x, y); got != 120 {
				t.Fatalf("At(%d, %d) = %d, want 120", x, y, got)
			}
		}
	}
}

// TestFromImageOffsetBounds verifies sub-images with non-zero Min convert
// correctly.
func TestFromImageOffsetBounds(t *testing.T) {
	base := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			base.SetGray(x, y, color.Gray{Y: uint8(y*20 + x)})
		}
	}
	sub := base.SubImage(image.Rect(5, 5, 15, 15))

	g := FromImage(sub)
	if g.Width() != 10 || g.Height() != 10 {
		t.Fatalf("dimensions %dx%d, want 10x10", g.Width(), g.Height())
	}
	if got, want := g.At(0, 0), uint8(5*20+5); got != want {
		t.Errorf("At(0, 0) = %d, want %d", got, want)
	}
}

// TestToImageRoundTrip verifies Gray -> image.Gray -> Gray preserves all
// samples and copies the data.
func TestToImageRoundTrip(t *testing.T) {
	g, err := NewGray(9, 7)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 7; y++ {
		for x := 0; x < 9; x++ {
			g.Set(x, y, uint8(y*9+x))
		}
	}

	img := g.ToImage()
	g.Set(0, 0, 200) // must not affect img
	if img.GrayAt(0, 0).Y != 0 {
		t.Error("ToImage shares storage with the buffer")
	}

	back := FromImage(img)
	for y := 0; y < 7; y++ {
		for x := 0; x < 9; x++ {
			if got, want := back.At(x, y), uint8(y*9+x); got != want {
				t.Fatalf("round trip At(%d, %d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

// TestGrayBlur verifies the convenience method produces the same result as
// calling the strategy directly.
func TestGrayBlur(t *testing.T) {
	g, err := NewGray(10, 10)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			g.Set(x, y, uint8(y*10+x))
		}
	}

	out, err := g.Blur(StrategyFused)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.At(0, 0); got != 22 {
		t.Errorf("blurred At(0, 0) = %d, want 22", got)
	}
	if out.Width() != 10 || out.Height() != 10 {
		t.Errorf("output dimensions %dx%d, want 10x10", out.Width(), out.Height())
	}

	if _, err := mustGray(t, 5, 5).Blur(StrategyFused); !errors.Is(err, ErrImageTooSmall) {
		t.Errorf("Blur on 5x5 = %v, want ErrImageTooSmall", err)
	}
}

func mustGray(t *testing.T, width, height int) *Gray {
	t.Helper()
	g, err := NewGray(width, height)
	if err != nil {
		t.Fatal(err)
	}
	return g
}
