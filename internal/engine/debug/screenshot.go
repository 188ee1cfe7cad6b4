// Package debug writes shadow maps to disk for inspection.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Capture saves greyscale shadow map images.
type Capture struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewCapture creates a capture handler writing to outputDir.
func NewCapture(outputDir, prefix string) *Capture {
	return &Capture{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// SetOutputDir sets the output directory for captures.
func (c *Capture) SetOutputDir(dir string) {
	c.outputDir = dir
}

// DepthImage converts size*size single-channel values stored bottom row
// first into a top-down greyscale image stretched over the value range.
func DepthImage(values []float32, size int) (*image.Gray, error) {
	if size <= 0 || len(values) != size*size {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", size*size, len(values))
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	scale := float32(0)
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		src := values[(size-1-y)*size : (size-y)*size] // Flip Y
		dst := img.Pix[y*img.Stride : y*img.Stride+size]
		for x, v := range src {
			dst[x] = uint8((v - lo) * scale)
		}
	}
	return img, nil
}

// Save writes img as PNG and returns the file name.
func (c *Capture) Save(name string, img image.Image) (string, error) {
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := c.Filename(name)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, nil
}

// Filename generates a capture file name without saving.
func (c *Capture) Filename(name string) string {
	timestamp := c.now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s_%s.png", c.prefix, name, timestamp)
	if c.outputDir != "" {
		filename = filepath.Join(c.outputDir, filename)
	}
	return filename
}
