// Package media integrates the hosted media service used for post and
// profile images. The service stores the actual bytes; the application only
// keeps the returned canonical URL.
package media

import (
	"context"
	"errors"
	"strings"
)

// ErrDisabled is returned when no media service is configured.
var ErrDisabled = errors.New("media service is not configured")

// Store uploads and deletes hosted images.
// Upload accepts a raw payload (base64 data URI or a fetchable URL) and
// returns the canonical secure URL to persist. Destroy releases the resource
// behind a previously returned URL.
type Store interface {
	Upload(ctx context.Context, image string) (string, error)
	Destroy(ctx context.Context, imageURL string) error
}

// PublicIDFromURL derives the service-side asset ID from a canonical URL:
// the last path segment with its extension stripped.
func PublicIDFromURL(imageURL string) string {
	segment := imageURL
	if idx := strings.LastIndex(segment, "/"); idx >= 0 {
		segment = segment[idx+1:]
	}
	if idx := strings.Index(segment, "."); idx >= 0 {
		segment = segment[:idx]
	}
	return segment
}

// disabledStore rejects every operation; used when CLOUDINARY_URL is unset.
type disabledStore struct{}

func (disabledStore) Upload(context.Context, string) (string, error) {
	return "", ErrDisabled
}

func (disabledStore) Destroy(context.Context, string) error {
	return ErrDisabled
}

// NewDisabled returns a Store that fails every call with ErrDisabled.
func NewDisabled() Store {
	return disabledStore{}
}
