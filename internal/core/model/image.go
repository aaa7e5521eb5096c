package model

import (
	"fmt"
	"net/http"
	"strings"
)

// Image is the raw upload for one request. It is never mutated.
type Image struct {
	Data     []byte
	MIMEType string
}

// NewImage validates the payload and fills in the MIME type by sniffing the
// bytes when the caller did not provide a usable one.
func NewImage(data []byte, mimeType string) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, fmt.Errorf("%w: unsupported content type %q", ErrInvalidImage, mimeType)
	}

	return Image{Data: data, MIMEType: mimeType}, nil
}

// Format returns the subtype part of the MIME type ("png" for "image/png").
func (i Image) Format() string {
	_, sub, ok := strings.Cut(i.MIMEType, "/")
	if !ok {
		return i.MIMEType
	}
	return sub
}
