// AngelaMos | 2026
// cloudinary.go

package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary stores objects as image assets. The object path without its
// extension becomes the public id; Cloudinary's CDN owns cache headers.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(url, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}

	return &Cloudinary{cld: cld, folder: strings.Trim(folder, "/")}, nil
}

func (c *Cloudinary) publicID(objectPath string) (string, error) {
	p, err := cleanObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	p = strings.TrimSuffix(p, path.Ext(p))
	if c.folder != "" {
		p = c.folder + "/" + p
	}
	return p, nil
}

func (c *Cloudinary) Upload(
	ctx context.Context,
	objectPath string,
	body io.Reader,
	opts UploadOptions,
) (*Object, error) {
	id, err := c.publicID(objectPath)
	if err != nil {
		return nil, err
	}

	res, err := c.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID:       id,
		Overwrite:      api.Bool(opts.Overwrite),
		Invalidate:     api.Bool(opts.Overwrite),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload %s: %w", id, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload %s: %s", id, res.Error.Message)
	}

	return &Object{Path: objectPath, URL: res.SecureURL}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, objectPath string) error {
	id, err := c.publicID(objectPath)
	if err != nil {
		return err
	}

	if _, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id}); err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", id, err)
	}
	return nil
}
