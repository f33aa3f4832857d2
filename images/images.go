package images

import (
	"context"
	"io"
)

// Image is an externally hosted image reference stored alongside the
// record that owns it.
type Image struct {
	ID        string `json:"id" db:"image_id"`
	SecureURL string `json:"secureUrl" db:"image_url"`
}

// Uploader is the image-hosting boundary. Calls are synchronous; callers
// decide whether a failure is fatal for their flow.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, folder string) (Image, error)
	Destroy(ctx context.Context, id string) error
}
