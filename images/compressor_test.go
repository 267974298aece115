package images

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestQualityValue(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"high", 80},
		{"medium", 75},
		{"low", 60},
		{"very low", 50},
		{"HIGH", 80},
		{"bogus", 80},
		{"", 80},
	}

	for _, tt := range tests {
		if got := QualityValue(tt.name); got != tt.want {
			t.Errorf("QualityValue(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestValidQuality(t *testing.T) {
	for _, name := range []string{"high", "medium", "low", "very low"} {
		if !ValidQuality(name) {
			t.Errorf("ValidQuality(%q) = false", name)
		}
	}
	for _, name := range []string{"", "bogus", "ultra"} {
		if ValidQuality(name) {
			t.Errorf("ValidQuality(%q) = true", name)
		}
	}
}

// noisyImage produces an image that does not compress well, so encoded
// output reliably exceeds small thresholds.
func noisyImage(w, h int) image.Image {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func writeJPEG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
}

func TestProcessFileCompressesLargeImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	writeJPEG(t, path, noisyImage(200, 200))

	c := NewCompressor("low", 1)

	out, err := c.ProcessFile(path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if out == path {
		t.Fatal("large file passed through uncompressed")
	}
	if !strings.HasSuffix(out, "_optimize_low.jpg") {
		t.Errorf("output name = %q", out)
	}

	orig, _ := os.Stat(path)
	compressed, err := os.Stat(out)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if compressed.Size() >= orig.Size() {
		t.Errorf("compressed size %d >= original %d", compressed.Size(), orig.Size())
	}
}

func TestProcessFilePassesSmallImageThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.jpg")
	writeJPEG(t, path, noisyImage(8, 8))

	c := NewCompressor("high", 500)

	out, err := c.ProcessFile(path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if out != path {
		t.Errorf("small file was compressed: %q", out)
	}
}

func TestProcessDirConvertsPNG(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "shot.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := png.Encode(f, noisyImage(200, 200)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	f.Close()

	// Non-image files are skipped.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := NewCompressor("medium", 1)

	processed, err := c.ProcessDir(dir)
	if err != nil {
		t.Fatalf("ProcessDir: %v", err)
	}
	if len(processed) != 1 {
		t.Fatalf("processed %d files, want 1", len(processed))
	}
	if !strings.HasSuffix(processed[0][0], "_optimize_medium.jpg") {
		t.Errorf("processed path = %q", processed[0][0])
	}
}

func TestIsSupportedImage(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.jpg", true},
		{"b.JPEG", true},
		{"c.png", true},
		{"d.gif", false},
		{"e.zip", false},
		{"noext", false},
	}

	for _, tt := range tests {
		if got := IsSupportedImage(tt.name); got != tt.want {
			t.Errorf("IsSupportedImage(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
