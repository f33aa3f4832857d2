package images

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type Cloudinary struct {
	client *cloudinary.Cloudinary
}

// NewCloudinary builds an uploader from a cloudinary:// connection URL.
func NewCloudinary(url string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("building cloudinary client: %w", err)
	}
	return &Cloudinary{client: cld}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, r io.Reader, folder string) (Image, error) {
	resp, err := c.client.Upload.Upload(ctx, r, uploader.UploadParams{Folder: folder})
	if err != nil {
		return Image{}, fmt.Errorf("uploading image: %w", err)
	}

	return Image{ID: resp.PublicID, SecureURL: resp.SecureURL}, nil
}

func (c *Cloudinary) Destroy(ctx context.Context, id string) error {
	_, err := c.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   id,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("destroying image[%s]: %w", id, err)
	}

	return nil
}
