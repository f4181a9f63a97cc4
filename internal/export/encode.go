package export

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"time"

	"github.com/HugoSmits86/nativewebp"
)

// Quality is the lossy encoder quality, matching a 0.95 canvas export
const Quality = 95

// Supported output MIME types
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWebP = "image/webp"
)

var extensions = map[string]string{
	MIMEPNG:  "png",
	MIMEJPEG: "jpg",
	MIMEWebP: "webp",
}

// Encode serializes img as mimeType
func Encode(img image.Image, mimeType string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch mimeType {
	case MIMEPNG:
		err = png.Encode(&buf, img)
	case MIMEJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: Quality})
	case MIMEWebP:
		err = nativewebp.Encode(&buf, img, &nativewebp.Options{})
	default:
		err = fmt.Errorf("unsupported image type")
	}
	if err != nil {
		return nil, &EncodingError{MIMEType: mimeType, Err: err}
	}
	return buf.Bytes(), nil
}

// Supported reports whether mimeType can be encoded
func Supported(mimeType string) bool {
	_, ok := extensions[mimeType]
	return ok
}

// Extension returns the file extension for mimeType
func Extension(mimeType string) (string, error) {
	ext, ok := extensions[mimeType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", mimeType)
	}
	return ext, nil
}

// MIMEType maps a short format name or extension (png, jpeg, jpg, webp) to
// its MIME type. Full MIME types pass through.
func MIMEType(format string) (string, error) {
	switch format {
	case "png", MIMEPNG:
		return MIMEPNG, nil
	case "jpg", "jpeg", MIMEJPEG:
		return MIMEJPEG, nil
	case "webp", MIMEWebP:
		return MIMEWebP, nil
	}
	return "", fmt.Errorf("unknown format: %s", format)
}

// DownloadName is the file name offered for an export taken at t
func DownloadName(t time.Time, ext string) string {
	return fmt.Sprintf("Map %s.%s", t.Format("2006-01-02 15-04-05"), ext)
}
