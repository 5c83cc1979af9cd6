// Package imageprep downsizes and re-encodes images client-side
// before they go out as multipart attachments, so oversized photos
// never hit the backend raw.
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/cleanhub/cleanhub-go/gateway"
)

// MaxFileSize in bytes (10MB)
const MaxFileSize = 10 * 1024 * 1024

// Config for image preparation
type Config struct {
	MaxWidth  int // Max width before downscale (default 2000)
	MaxHeight int // Max height before downscale (default 2000)
	Quality   int // JPEG quality 1-100 (default 85)
}

// DefaultConfig returns default preparation config
func DefaultConfig() Config {
	return Config{
		MaxWidth:  2000,
		MaxHeight: 2000,
		Quality:   85,
	}
}

// Processor prepares images for upload
type Processor struct {
	config Config
}

// NewProcessor creates an image processor
func NewProcessor(config Config) *Processor {
	if config.MaxWidth <= 0 {
		config.MaxWidth = 2000
	}
	if config.MaxHeight <= 0 {
		config.MaxHeight = 2000
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = 85
	}
	return &Processor{config: config}
}

// Prepare decodes the image, downscales it when it exceeds the
// configured bounds, re-encodes it, and returns a multipart attachment
// for the given form field.
func (p *Processor) Prepare(reader io.Reader, field, filename string) (gateway.File, error) {
	if !ValidateType(filename) {
		return gateway.File{}, fmt.Errorf("invalid image type: %s (allowed: jpg, jpeg, png, gif)", filename)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return gateway.File{}, fmt.Errorf("failed to read image: %w", err)
	}
	if !ValidateSize(int64(len(data)), MaxFileSize) {
		return gateway.File{}, fmt.Errorf("image too large: %d bytes (max %d MB)", len(data), MaxFileSize/1024/1024)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return gateway.File{}, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := img
	if img.Bounds().Dx() > p.config.MaxWidth || img.Bounds().Dy() > p.config.MaxHeight {
		resized = imaging.Fit(img, p.config.MaxWidth, p.config.MaxHeight, imaging.Lanczos)
	}

	encoded, err := p.encode(resized, format)
	if err != nil {
		return gateway.File{}, fmt.Errorf("failed to encode image: %w", err)
	}

	return gateway.File{
		Field:       field,
		Name:        filename,
		ContentType: mimeFromFormat(format),
		Content:     encoded,
	}, nil
}

func (p *Processor) encode(img image.Image, format string) ([]byte, error) {
	buf := &bytes.Buffer{}
	switch format {
	case "png":
		if err := png.Encode(buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(buf, img, nil); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: p.config.Quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// ValidateType checks if file is a valid image type. The list is
// limited to formats the processor can both decode and re-encode, so
// the declared content type always matches the bytes sent.
func ValidateType(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	default:
		return false
	}
}

// ValidateSize checks if file size is within limits (in bytes)
func ValidateSize(size int64, maxSize int64) bool {
	return size > 0 && size <= maxSize
}

func mimeFromFormat(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
