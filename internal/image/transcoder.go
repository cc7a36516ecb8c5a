package image

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	// Registered so uploads in these formats decode and can then be judged
	// against the allow-list instead of failing as unreadable.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// DefaultAllowedFormats is the allow-list used when none is configured.
var DefaultAllowedFormats = []string{"jpeg", "png"}

// defaultQuality is the JPEG quality used when none is configured.
const defaultQuality = 85

// TranscoderConfig configures the image normalization step.
type TranscoderConfig struct {
	// AllowedFormats lists the decoded format names accepted for upload,
	// as reported by image.Decode (e.g. "jpeg", "png").
	AllowedFormats []string
	// Quality is the JPEG encoding quality (1-100).
	Quality int
	// TargetWidth, when positive, scales the output to this width with the
	// height following the aspect ratio. Zero disables resizing.
	TargetWidth int
}

// Normalized is the result of converting an upload to canonical JPEG.
type Normalized struct {
	// Data holds the encoded JPEG bytes.
	Data []byte
	// Filename is the synthetic name with the .jpeg extension.
	Filename string
	// Width and Height are the dimensions of the encoded image.
	Width  int
	Height int
}

// Transcoder converts arbitrary uploaded images into normalized JPEG.
// It is a pure transform over bytes with no side effects.
type Transcoder struct {
	allowed     map[string]bool
	quality     int
	targetWidth int
}

// NewTranscoder creates a Transcoder from cfg, filling in defaults for
// unset fields.
func NewTranscoder(cfg TranscoderConfig) *Transcoder {
	formats := cfg.AllowedFormats
	if len(formats) == 0 {
		formats = DefaultAllowedFormats
	}
	allowed := make(map[string]bool, len(formats))
	for _, f := range formats {
		allowed[strings.ToLower(f)] = true
	}

	quality := cfg.Quality
	if quality <= 0 {
		quality = defaultQuality
	}

	return &Transcoder{
		allowed:     allowed,
		quality:     quality,
		targetWidth: cfg.TargetWidth,
	}
}

// Convert decodes raw, checks the format against the allow-list, optionally
// resizes, and re-encodes to JPEG with color mode RGB (alpha and palette
// data dropped). JPEG input is re-encoded as well so every stored object
// went through the same normalization.
func (t *Transcoder) Convert(raw []byte, filename string) (*Normalized, error) {
	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if !t.allowed[format] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if t.targetWidth > 0 && t.targetWidth != width {
		height = scaledHeight(t.targetWidth, width, height)
		width = t.targetWidth
	}

	// Drawing onto an RGBA canvas flattens palette and alpha; the JPEG
	// encoder then emits plain RGB.
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), src, bounds, xdraw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: t.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &Normalized{
		Data:     buf.Bytes(),
		Filename: syntheticName(filename),
		Width:    width,
		Height:   height,
	}, nil
}

// scaledHeight computes round(targetWidth * height / width) in integers.
func scaledHeight(targetWidth, width, height int) int {
	h := (targetWidth*height + width/2) / width
	if h < 1 {
		h = 1
	}
	return h
}

// syntheticName replaces the extension of the original filename with .jpeg.
func syntheticName(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if stem == "" || stem == "." {
		stem = "image"
	}
	return stem + ".jpeg"
}
