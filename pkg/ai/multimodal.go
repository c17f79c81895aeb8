// ABOUTME: Multimodal user message construction from text plus base64 or data-URL images
// ABOUTME: Sniffs image MIME types from magic bytes when no data-URL header is present

package ai

import (
	"bytes"
	"encoding/base64"
	"strings"
)

// DefaultImageMimeType is assumed when an image's type cannot be detected.
const DefaultImageMimeType = "image/png"

// NewMultimodalMessage builds a user message: a text block first when text
// is non-empty, then one image block per non-empty image. Images may be raw
// base64 or "data:<mime>;base64,<data>" URLs.
func NewMultimodalMessage(text string, images ...string) Message {
	msg := Message{Role: RoleUser}
	if text != "" {
		msg.Content = append(msg.Content, TextBlock(text))
	}
	for _, img := range images {
		mime, data := ParseImage(img)
		if data == "" {
			continue
		}
		msg.Content = append(msg.Content, ImageBlock(mime, data))
	}
	return msg
}

// ParseImage splits an image string into MIME type and base64 payload.
func ParseImage(img string) (mimeType, data string) {
	img = strings.TrimSpace(img)
	if rest, ok := strings.CutPrefix(img, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return DefaultImageMimeType, ""
		}
		mimeType, _, _ = strings.Cut(header, ";")
		if mimeType == "" {
			mimeType = SniffImageMimeType(payload)
		}
		return mimeType, payload
	}
	if img == "" {
		return DefaultImageMimeType, ""
	}
	return SniffImageMimeType(img), img
}

var imageSignatures = []struct {
	prefix []byte
	mime   string
}{
	{[]byte("\x89PNG\r\n\x1a\n"), "image/png"},
	{[]byte("\xff\xd8\xff"), "image/jpeg"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
}

// SniffImageMimeType detects the MIME type of base64 image data from its
// leading bytes, defaulting to image/png.
func SniffImageMimeType(b64 string) string {
	n := min(len(b64), 24) &^ 3
	head, err := base64.StdEncoding.DecodeString(b64[:n])
	if err != nil || len(head) == 0 {
		return DefaultImageMimeType
	}
	for _, sig := range imageSignatures {
		if bytes.HasPrefix(head, sig.prefix) {
			return sig.mime
		}
	}
	if len(head) >= 12 && string(head[:4]) == "RIFF" && string(head[8:12]) == "WEBP" {
		return "image/webp"
	}
	return DefaultImageMimeType
}
