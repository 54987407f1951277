package validation

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ImageConstraints defines the accepted identity document uploads.
var ImageConstraints = struct {
	AllowedMimeTypes map[string]string // mime type -> file extension
	MaxSize          int
}{
	AllowedMimeTypes: map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	},
	MaxSize: 5 << 20, // 5MB
}

var ErrInvalidImage = errors.New("image must be a base64 data URI")

// Image is a decoded data URI.
type Image struct {
	MimeType  string
	Extension string
	Data      []byte
}

// ParseImageDataURI decodes "data:image/<type>;base64,<payload>" and checks the
// payload against ImageConstraints. The declared type must match the sniffed
// content type.
func ParseImageDataURI(uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, ErrInvalidImage
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidImage
	}

	declared, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, ErrInvalidImage
	}
	declared = strings.ToLower(declared)
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}

	ext, allowed := ImageConstraints.AllowedMimeTypes[declared]
	if !allowed {
		return nil, fmt.Errorf("invalid image type: %s", declared)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > ImageConstraints.MaxSize+3 {
		return nil, imageTooLarge()
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidImage
	}
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	if len(data) > ImageConstraints.MaxSize {
		return nil, imageTooLarge()
	}

	// Sniff magic numbers, the declared type can't be trusted
	detected := http.DetectContentType(data)
	if detected != declared {
		return nil, fmt.Errorf("invalid image type (detected: %s)", detected)
	}

	return &Image{MimeType: detected, Extension: ext, Data: data}, nil
}

func imageTooLarge() error {
	return fmt.Errorf("image too large: maximum size is %d MB", ImageConstraints.MaxSize/(1<<20))
}
