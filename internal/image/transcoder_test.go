package image

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func newTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x % 256),
				G: uint8(y % 256),
				B: 128,
				A: uint8(255 - x%128), // partial transparency
			})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestTranscoder_ConvertPNG(t *testing.T) {
	tr := NewTranscoder(TranscoderConfig{})

	out, err := tr.Convert(encodePNG(t, newTestImage(40, 30)), "photo.png")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	decoded, format, err := image.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("output format = %s, want jpeg", format)
	}
	if decoded.Bounds().Dx() != 40 || decoded.Bounds().Dy() != 30 {
		t.Errorf("dimensions = %dx%d, want 40x30",
			decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
	if out.Filename != "photo.jpeg" {
		t.Errorf("filename = %s, want photo.jpeg", out.Filename)
	}
}

func TestTranscoder_ReencodesJPEG(t *testing.T) {
	tr := NewTranscoder(TranscoderConfig{Quality: 70})

	in := encodeJPEG(t, newTestImage(20, 20))
	out, err := tr.Convert(in, "photo.jpg")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	// Normalization policy: JPEG input is re-encoded, not passed through.
	if bytes.Equal(in, out.Data) {
		t.Error("expected re-encoded bytes, got pass-through")
	}
	if out.Filename != "photo.jpeg" {
		t.Errorf("filename = %s, want photo.jpeg", out.Filename)
	}
}

func TestTranscoder_Resize(t *testing.T) {
	tests := []struct {
		name        string
		inW, inH    int
		targetWidth int
		wantW       int
		wantH       int
	}{
		{"downscale exact ratio", 400, 300, 100, 100, 75},
		{"downscale rounds half up", 300, 100, 100, 100, 33},
		{"upscale", 50, 50, 100, 100, 100},
		{"same width untouched", 100, 40, 100, 100, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTranscoder(TranscoderConfig{TargetWidth: tt.targetWidth})

			out, err := tr.Convert(encodePNG(t, newTestImage(tt.inW, tt.inH)), "in.png")
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}

			decoded, _, err := image.Decode(bytes.NewReader(out.Data))
			if err != nil {
				t.Fatalf("output not decodable: %v", err)
			}
			if decoded.Bounds().Dx() != tt.wantW {
				t.Errorf("width = %d, want %d", decoded.Bounds().Dx(), tt.wantW)
			}
			if decoded.Bounds().Dy() != tt.wantH {
				t.Errorf("height = %d, want %d", decoded.Bounds().Dy(), tt.wantH)
			}
		})
	}
}

func TestScaledHeight(t *testing.T) {
	tests := []struct {
		targetW, w, h, want int
	}{
		{100, 400, 300, 75},
		{100, 300, 100, 33},  // 33.33 rounds down
		{100, 300, 200, 67},  // 66.67 rounds up
		{100, 200, 100, 50},
		{10, 10000, 1, 1},    // floor of 1
	}

	for _, tt := range tests {
		if got := scaledHeight(tt.targetW, tt.w, tt.h); got != tt.want {
			t.Errorf("scaledHeight(%d, %d, %d) = %d, want %d",
				tt.targetW, tt.w, tt.h, got, tt.want)
		}
	}
}

func TestTranscoder_DisallowedFormats(t *testing.T) {
	tr := NewTranscoder(TranscoderConfig{})

	t.Run("gif", func(t *testing.T) {
		var buf bytes.Buffer
		if err := gif.Encode(&buf, newTestImage(10, 10), nil); err != nil {
			t.Fatalf("encode gif: %v", err)
		}

		_, err := tr.Convert(buf.Bytes(), "anim.gif")
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("bmp", func(t *testing.T) {
		var buf bytes.Buffer
		if err := bmp.Encode(&buf, newTestImage(10, 10)); err != nil {
			t.Fatalf("encode bmp: %v", err)
		}

		_, err := tr.Convert(buf.Bytes(), "image.bmp")
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}

func TestTranscoder_CustomAllowList(t *testing.T) {
	tr := NewTranscoder(TranscoderConfig{AllowedFormats: []string{"gif"}})

	var buf bytes.Buffer
	if err := gif.Encode(&buf, newTestImage(10, 10), nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}

	if _, err := tr.Convert(buf.Bytes(), "anim.gif"); err != nil {
		t.Errorf("gif should be allowed by custom list, got %v", err)
	}

	_, err := tr.Convert(encodePNG(t, newTestImage(10, 10)), "photo.png")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("png should be rejected by custom list, got %v", err)
	}
}

func TestTranscoder_CorruptInput(t *testing.T) {
	tr := NewTranscoder(TranscoderConfig{})

	_, err := tr.Convert([]byte("definitely not an image"), "junk.png")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestSyntheticName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.jpeg"},
		{"photo.jpg", "photo.jpeg"},
		{"archive.tar.gz", "archive.tar.jpeg"},
		{"noext", "noext.jpeg"},
		{"", "image.jpeg"},
		{"../../etc/passwd", "passwd.jpeg"},
	}

	for _, tt := range tests {
		if got := syntheticName(tt.in); got != tt.want {
			t.Errorf("syntheticName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
