package testutil

import "encoding/base64"

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegMagic = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

// PNGDataURI returns a small payload that sniffs as image/png.
func PNGDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngMagic)
}

// JPEGDataURI returns a small payload that sniffs as image/jpeg.
func JPEGDataURI() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegMagic)
}
