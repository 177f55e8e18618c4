package domain

//go:generate mockgen -source=image.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"time"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidImage  = errors.New("invalid image")
	ErrInvalidCursor = errors.New("invalid cursor")
)

// ImageRecord is a single image in the feed. It is immutable once created;
// ID and CreatedAt are assigned by the server.
type ImageRecord struct {
	ID          string
	Title       string
	Description string
	URL         string
	CreatedAt   time.Time
}

// NewImage is the payload of the create-image mutation.
type NewImage struct {
	Title       string
	Description string
	URL         string
}

// Page is one batch of records plus the cursor of the next batch.
// An empty Cursor means there are no further pages.
type Page struct {
	Items  []ImageRecord
	Cursor string
}

// HasNext reports whether another page can be requested after this one.
func (p Page) HasNext() bool {
	return p.Cursor != ""
}

// PageFetcher performs one cursor-bounded page fetch. An empty cursor
// requests the head of the feed.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string) (Page, error)
}

// ImageCreator performs the create-image mutation. A nil record with a nil
// error means the server accepted the image without echoing it back.
type ImageCreator interface {
	CreateImage(ctx context.Context, img NewImage) (*ImageRecord, error)
}

// MediaHost stores the binary of an upload and returns an opaque URL for it.
type MediaHost interface {
	Upload(ctx context.Context, file File) (string, error)
}

// ImageRepository is the server-side store behind the feed API.
type ImageRepository interface {
	// SaveImage inserts a new record
	SaveImage(ctx context.Context, img *ImageRecord) error

	// GetImage retrieves a record by id
	GetImage(ctx context.Context, id string) (*ImageRecord, error)

	// ListImages returns up to limit records, newest first, starting after cursor
	ListImages(ctx context.Context, cursor string, limit int) (Page, error)
}
