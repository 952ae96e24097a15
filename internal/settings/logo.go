// AngelaMos | 2026
// logo.go

package settings

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path"
	"strings"
	"time"

	"github.com/nfnt/resize"
)

const (
	DefaultLogoMaxBytes = 2 * 1024 * 1024
	logoFolder          = "logos"
	logoCacheSeconds    = 3600
)

var (
	ErrNotImage     = errors.New("file is not an image")
	ErrLogoTooLarge = errors.New("logo exceeds the size limit")
)

// Logo is an uploaded logo ready for the bucket.
type Logo struct {
	Path        string
	ContentType string
	Body        []byte
}

// PrepareLogo checks an upload and shrinks PNG or JPEG images wider than
// maxWidth. Other image types are stored as sent.
func PrepareLogo(
	filename, contentType string,
	body []byte,
	maxBytes int64,
	maxWidth uint,
	now time.Time,
) (*Logo, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}
	if maxBytes <= 0 {
		maxBytes = DefaultLogoMaxBytes
	}
	if int64(len(body)) > maxBytes {
		return nil, ErrLogoTooLarge
	}

	out := body
	if maxWidth > 0 {
		resized, err := shrink(contentType, body, maxWidth)
		if err != nil {
			return nil, err
		}
		if resized != nil {
			out = resized
		}
	}

	return &Logo{
		Path:        LogoPath(filename, contentType, now),
		ContentType: contentType,
		Body:        out,
	}, nil
}

// LogoPath names the object as logos/website-logo-<unix ms>.<ext>, taking
// the extension from the uploaded file name.
func LogoPath(filename, contentType string, now time.Time) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = strings.TrimPrefix(contentType, "image/")
		ext, _, _ = strings.Cut(ext, "+")
	}
	return fmt.Sprintf("%s/website-logo-%d.%s", logoFolder, now.UnixMilli(), strings.ToLower(ext))
}

func shrink(contentType string, body []byte, maxWidth uint) ([]byte, error) {
	var (
		img    image.Image
		encode func(*bytes.Buffer, image.Image) error
		err    error
	)

	switch contentType {
	case "image/png":
		img, err = png.Decode(bytes.NewReader(body))
		encode = func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }
	case "image/jpeg", "image/jpg":
		img, err = jpeg.Decode(bytes.NewReader(body))
		encode = func(b *bytes.Buffer, m image.Image) error {
			return jpeg.Encode(b, m, &jpeg.Options{Quality: 90})
		}
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}

	if uint(img.Bounds().Dx()) <= maxWidth {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := encode(&buf, resize.Resize(maxWidth, 0, img, resize.Lanczos3)); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	return buf.Bytes(), nil
}
