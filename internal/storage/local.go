// AngelaMos | 2026
// local.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultCacheSeconds = 3600

// Local keeps objects on disk and serves them through Handler.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *Local) Upload(
	ctx context.Context,
	objectPath string,
	body io.Reader,
	opts UploadOptions,
) (*Object, error) {
	p, err := cleanObjectPath(objectPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := filepath.Join(l.dir, filepath.FromSlash(p))
	if !opts.Overwrite {
		if _, statErr := os.Stat(full); statErr == nil {
			return nil, fmt.Errorf("%w: %s", ErrObjectExists, p)
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return nil, fmt.Errorf("commit object: %w", err)
	}

	return &Object{Path: p, URL: l.publicURL(p)}, nil
}

func (l *Local) publicURL(p string) string {
	return l.baseURL + "/" + p
}

func (l *Local) Delete(ctx context.Context, objectPath string) error {
	p, err := cleanObjectPath(objectPath)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(l.dir, filepath.FromSlash(p)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Handler serves stored objects; mount it with http.StripPrefix.
func (l *Local) Handler() http.Handler {
	files := http.FileServer(http.Dir(l.dir))
	cache := "public, max-age=" + strconv.Itoa(defaultCacheSeconds)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cache)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
