// AngelaMos | 2026
// bucket.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/buildmc/storefront/internal/config"
)

var (
	ErrObjectExists = errors.New("object already exists")
	ErrInvalidPath  = errors.New("invalid object path")
)

type UploadOptions struct {
	ContentType  string
	CacheControl int
	Overwrite    bool
}

type Object struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Bucket is a public object store for site assets.
type Bucket interface {
	Upload(ctx context.Context, objectPath string, body io.Reader, opts UploadOptions) (*Object, error)
	Delete(ctx context.Context, objectPath string) error
}

func New(cfg config.StorageConfig) (Bucket, error) {
	switch cfg.Driver {
	case "cloudinary":
		return NewCloudinary(cfg.CloudinaryURL, cfg.Folder)
	case "local", "":
		return NewLocal(cfg.LocalDir, cfg.LocalBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func cleanObjectPath(p string) (string, error) {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" || p == "." || strings.Contains(p, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return p, nil
}
