package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultPageSize is the number of records served per feed page.
const DefaultPageSize = 6

// ImageService backs the feed API: it serves pages newest first and creates
// records with server-assigned ids and timestamps.
type ImageService struct {
	repo     domain.ImageRepository
	pageSize int
	now      func() time.Time
}

// NewImageService creates an ImageService. A non-positive pageSize falls back
// to DefaultPageSize.
func NewImageService(repo domain.ImageRepository, pageSize int) *ImageService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ImageService{
		repo:     repo,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// ListImages returns the page that follows cursor.
func (s *ImageService) ListImages(ctx context.Context, cursor string) (domain.Page, error) {
	page, err := s.repo.ListImages(ctx, cursor, s.pageSize)
	if err != nil {
		return domain.Page{}, fmt.Errorf("failed to list images after %q: %w", cursor, err)
	}
	return page, nil
}

// CreateImage stores a new record.
func (s *ImageService) CreateImage(ctx context.Context, img domain.NewImage) (*domain.ImageRecord, error) {
	record := &domain.ImageRecord{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(img.Title),
		Description: strings.TrimSpace(img.Description),
		URL:         strings.TrimSpace(img.URL),
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}

	if record.Title == "" || record.Description == "" || record.URL == "" {
		return nil, fmt.Errorf("%w: missing required field", domain.ErrInvalidImage)
	}

	if err := s.repo.SaveImage(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save image %s: %w", record.ID, err)
	}

	log.Info().Str("imageID", record.ID).Str("title", record.Title).Msg("Image created")
	return record, nil
}

// GetImage returns a single record.
func (s *ImageService) GetImage(ctx context.Context, id string) (*domain.ImageRecord, error) {
	return s.repo.GetImage(ctx, id)
}
