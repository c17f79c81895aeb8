// ABOUTME: Prepares board and photo images for multimodal messages: decode, downscale, re-encode
// ABOUTME: Output fits the vendors' upload limits and is returned as base64 or a data URL

package imageprep

import (
	"bytes"
	"encoding/base64"
	"fmt"
	goimage "image"
	"image/jpeg"
	"image/png"
	"os"

	// Register decoders accepted as input.
	_ "image/gif"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/mauromedda/guesswho-go/pkg/ai"
)

const (
	// DefaultMaxDimension caps the longer edge. Larger images are
	// downscaled by the vendors anyway and only cost upload time.
	DefaultMaxDimension = 1568

	// DefaultMaxBytes keeps the base64 payload under 5 MiB.
	DefaultMaxBytes = 3750 * 1024
)

// Image is an upload-ready image.
type Image struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// Base64 returns the standard base64 encoding of the image bytes.
func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// DataURL returns the image as a data:<mime>;base64,<payload> URL, the
// form accepted by ai.NewMultimodalMessage.
func (img Image) DataURL() string {
	return "data:" + img.MimeType + ";base64," + img.Base64()
}

// Block returns the image as an ai.ContentBlock.
func (img Image) Block() ai.ContentBlock {
	return ai.ImageBlock(img.MimeType, img.Base64())
}

// LoadFile reads and prepares the image at path with the default limits.
func LoadFile(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}
	return Prepare(data)
}

// Prepare fits data within DefaultMaxDimension and DefaultMaxBytes.
func Prepare(data []byte) (Image, error) {
	return Resize(data, DefaultMaxDimension, DefaultMaxBytes)
}

// Resize scales data to fit within maxDim pixels per edge and maxBytes.
//
// Images already within both limits are returned untouched. Otherwise the
// image is scaled with CatmullRom and encoded as PNG, then as JPEG at
// falling quality. When no encoding fits, the same is retried at 0.75,
// 0.5, 0.35 and 0.25 of the fitted size. The smallest attempt is returned
// even when it still exceeds maxBytes.
func Resize(data []byte, maxDim, maxBytes int) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("empty image data")
	}

	cfg, format, err := goimage.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("reading image header: %w", err)
	}

	if cfg.Width <= maxDim && cfg.Height <= maxDim && len(data) <= maxBytes {
		return Image{Data: data, MimeType: "image/" + format, Width: cfg.Width, Height: cfg.Height}, nil
	}

	src, _, err := goimage.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decoding image: %w", err)
	}

	w, h := fitDimensions(cfg.Width, cfg.Height, maxDim)
	var out Image
	for _, scale := range []float64{1, 0.75, 0.5, 0.35, 0.25} {
		sw, sh := max(int(float64(w)*scale), 1), max(int(float64(h)*scale), 1)
		out, err = encode(scaleImage(src, sw, sh), maxBytes)
		if err != nil {
			return Image{}, err
		}
		out.Width, out.Height = sw, sh
		if len(out.Data) <= maxBytes {
			break
		}
	}
	return out, nil
}

// fitDimensions preserves aspect ratio while capping the longer edge at maxDim.
func fitDimensions(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		return maxDim, max(h*maxDim/w, 1)
	}
	return max(w*maxDim/h, 1), maxDim
}

func scaleImage(src goimage.Image, w, h int) goimage.Image {
	dst := goimage.NewRGBA(goimage.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// encode tries PNG, then JPEG at decreasing quality.
func encode(img goimage.Image, maxBytes int) (Image, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Image{}, fmt.Errorf("encoding PNG: %w", err)
	}
	if buf.Len() <= maxBytes {
		return Image{Data: buf.Bytes(), MimeType: "image/png"}, nil
	}

	for _, q := range []int{85, 70, 55, 40} {
		buf = bytes.Buffer{}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return Image{}, fmt.Errorf("encoding JPEG: %w", err)
		}
		if buf.Len() <= maxBytes {
			break
		}
	}
	return Image{Data: buf.Bytes(), MimeType: "image/jpeg"}, nil
}
