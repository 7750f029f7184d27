package blur

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestPNGRoundTrip verifies Save/Load preserves every sample.
func TestPNGRoundTrip(t *testing.T) {
	g, err := NewGray(16, 12)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			g.Set(x, y, uint8(y*16+x))
		}
	}

	path := filepath.Join(t.TempDir(), "roundtrip.png")
	if err := g.SavePNG(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadPNG(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Width() != 16 || loaded.Height() != 12 {
		t.Fatalf("dimensions %dx%d, want 16x12", loaded.Width(), loaded.Height())
	}
	if !bytes.Equal(loaded.Pix(), g.Pix()) {
		t.Error("pixel data changed across PNG round trip")
	}
}

// TestEncodeDecodePNG verifies the reader/writer variants.
func TestEncodeDecodePNG(t *testing.T) {
	g, err := NewGray(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	g.Fill(77)

	var buf bytes.Buffer
	if err := g.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodePNG(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded.Pix(), g.Pix()) {
		t.Error("pixel data changed across encode/decode")
	}
}

// TestLoadPNGMissingFile verifies open failures surface as errors.
func TestLoadPNGMissingFile(t *testing.T) {
	_, err := LoadPNG(filepath.Join(t.TempDir(), "does-not-exist.png"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "open file") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestDecodePNGMalformed verifies malformed data surfaces as a decode
// error, never a silent empty image.
func TestDecodePNGMalformed(t *testing.T) {
	_, err := DecodePNG(strings.NewReader("not a png"))
	if err == nil {
		t.Fatal("expected error for malformed PNG")
	}
	if !strings.Contains(err.Error(), "decode PNG") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestSavePNGBadPath verifies create failures surface as errors.
func TestSavePNGBadPath(t *testing.T) {
	g, err := NewGray(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	// A path whose parent is a regular file cannot be created.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := g.SavePNG(filepath.Join(blocker, "out.png")); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
