package model

import (
	"encoding/base64"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultImageMimeType is assumed for raw base64 payloads without a prefix
const DefaultImageMimeType = "image/jpeg"

// IsRemoteImage reports whether ref is an http(s) URL rather than an inline payload
func IsRemoteImage(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

// IsInlineImage reports whether ref is a data URL or a raw base64 payload.
// Other references such as gs:// URLs or file paths are not inline.
func IsInlineImage(ref string) bool {
	return strings.HasPrefix(ref, "data:") || isRawBase64(ref)
}

// isRawBase64 checks the standard base64 alphabet and padding without decoding
func isRawBase64(s string) bool {
	if s == "" || len(s)%4 != 0 {
		return false
	}
	body := strings.TrimRight(s, "=")
	if len(s)-len(body) > 2 {
		return false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9', c == '+', c == '/':
		default:
			return false
		}
	}
	return true
}

// InlineImage is an image carried as base64 text
type InlineImage struct {
	MimeType string
	Data     string // base64 without the data URL prefix
}

// ParseInlineImage splits a data URL ("data:image/png;base64,...") into media
// type and payload. Values without the prefix are treated as raw base64 of
// DefaultImageMimeType.
func ParseInlineImage(s string) (*InlineImage, error) {
	if s == "" {
		return nil, goerr.New("empty image payload")
	}
	if IsRemoteImage(s) {
		return nil, goerr.New("image is a remote reference, not inline", goerr.V("ref", s))
	}

	if !strings.HasPrefix(s, "data:") {
		if !isRawBase64(s) {
			return nil, goerr.New("image is neither a data URL nor base64", goerr.V("ref", s))
		}
		return &InlineImage{MimeType: DefaultImageMimeType, Data: s}, nil
	}

	header, data, found := strings.Cut(s, ",")
	if !found {
		return nil, goerr.New("malformed data URL: missing payload separator")
	}

	mimeType := strings.TrimPrefix(header, "data:")
	mimeType, _, _ = strings.Cut(mimeType, ";")
	if mimeType == "" {
		mimeType = DefaultImageMimeType
	}

	return &InlineImage{MimeType: mimeType, Data: data}, nil
}

// Decode returns the raw image bytes
func (x *InlineImage) Decode() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(x.Data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode base64 image", goerr.V("mime_type", x.MimeType))
	}
	return raw, nil
}

// DataURL renders the image as a data URL
func (x *InlineImage) DataURL() string {
	return "data:" + x.MimeType + ";base64," + x.Data
}

// NewInlineImage encodes raw bytes as an inline image
func NewInlineImage(mimeType string, raw []byte) *InlineImage {
	if mimeType == "" {
		mimeType = DefaultImageMimeType
	}
	return &InlineImage{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}
}
