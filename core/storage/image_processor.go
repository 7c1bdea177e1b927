package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/adrium/goheif"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageProcessor reads image metadata, converts to WebP and renders thumbnails
type ImageProcessor struct {
	Quality int // WebP quality (0-100)
}

// NewImageProcessor creates a new image processor
func NewImageProcessor(quality int) *ImageProcessor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &ImageProcessor{Quality: quality}
}

// IsImageFile checks if the file has a supported image extension
func (ip *ImageProcessor) IsImageFile(filename string) bool {
	return DetectMediaType(filename) == MediaTypeImage
}

func isHEIC(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".heic" || ext == ".heif"
}

// Dimensions returns the pixel size of an encoded image without decoding
// the pixel data
func (ip *ImageProcessor) Dimensions(data []byte, filename string) (int, int, error) {
	var cfg image.Config
	var err error
	if isHEIC(filename) {
		cfg, err = goheif.DecodeConfig(bytes.NewReader(data))
	} else {
		cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// ConvertToWebP converts image bytes to WebP. Data that is already WebP or
// is not an image is returned unchanged.
func (ip *ImageProcessor) ConvertToWebP(data []byte, filename string) ([]byte, string, error) {
	if !ip.IsImageFile(filename) || strings.ToLower(filepath.Ext(filename)) == ".webp" {
		return data, filename, nil
	}

	img, err := ip.decodeImage(bytes.NewReader(data), filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := ip.encodeWebP(&buf, img); err != nil {
		return nil, "", err
	}

	ext := filepath.Ext(filename)
	return buf.Bytes(), strings.TrimSuffix(filename, ext) + ".webp", nil
}

// Thumbnail center-crops the image to a square and scales it to size x size.
// The result is WebP when asWebP is set, JPEG otherwise.
func (ip *ImageProcessor) Thumbnail(data []byte, filename string, size int, asWebP bool) ([]byte, string, error) {
	img, err := ip.decodeImage(bytes.NewReader(data), filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	src := squareCrop(img.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)

	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var buf bytes.Buffer
	if asWebP {
		if err := ip.encodeWebP(&buf, dst); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "thumb_" + stem + ".webp", nil
	}
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: ip.Quality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), "thumb_" + stem + ".jpg", nil
}

func squareCrop(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w > h {
		offset := (w - h) / 2
		return image.Rect(b.Min.X+offset, b.Min.Y, b.Min.X+offset+h, b.Max.Y)
	}
	offset := (h - w) / 2
	return image.Rect(b.Min.X, b.Min.Y+offset, b.Max.X, b.Min.Y+offset+w)
}

func (ip *ImageProcessor) encodeWebP(w io.Writer, img image.Image) error {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(ip.Quality))
	if err != nil {
		return fmt.Errorf("failed to create encoder options: %w", err)
	}
	if err := webp.Encode(w, img, options); err != nil {
		return fmt.Errorf("failed to encode to webp: %w", err)
	}
	return nil
}

// decodeImage decodes an image from a reader based on file extension
func (ip *ImageProcessor) decodeImage(r io.Reader, filename string) (image.Image, error) {
	if isHEIC(filename) {
		return goheif.Decode(r)
	}
	img, _, err := image.Decode(r)
	return img, err
}
