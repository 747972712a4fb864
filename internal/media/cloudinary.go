package media

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// cloudinaryStore implements Store against the Cloudinary upload API.
type cloudinaryStore struct {
	client *cloudinary.Cloudinary
}

// NewCloudinary creates a Store from a cloudinary:// connection URL.
func NewCloudinary(connectionURL string) (Store, error) {
	client, err := cloudinary.NewFromURL(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("invalid cloudinary configuration: %w", err)
	}
	client.Config.URL.Secure = true
	return &cloudinaryStore{client: client}, nil
}

func (s *cloudinaryStore) Upload(ctx context.Context, image string) (string, error) {
	resp, err := s.client.Upload.Upload(ctx, image, uploader.UploadParams{})
	if err != nil {
		return "", fmt.Errorf("media upload failed: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("media upload failed: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (s *cloudinaryStore) Destroy(ctx context.Context, imageURL string) error {
	publicID := PublicIDFromURL(imageURL)
	if publicID == "" {
		return nil
	}
	if _, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("media destroy failed: %w", err)
	}
	return nil
}
