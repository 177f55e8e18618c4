package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/rs/zerolog/log"
)

// FeedInvalidator is the part of the feed an upload needs to touch.
type FeedInvalidator interface {
	Invalidate()
}

// UploadSubmitter uploads the binary of a validated draft to the media host,
// creates the image record, and invalidates the feed so the next read picks
// up the new record.
type UploadSubmitter struct {
	media  domain.MediaHost
	images domain.ImageCreator
	feed   FeedInvalidator
}

// NewUploadSubmitter creates an UploadSubmitter. feed may be nil when no feed
// view is open.
func NewUploadSubmitter(media domain.MediaHost, images domain.ImageCreator, feed FeedInvalidator) (*UploadSubmitter, error) {
	if media == nil {
		return nil, errors.New("media host is required")
	}
	if images == nil {
		return nil, errors.New("image creator is required")
	}
	return &UploadSubmitter{
		media:  media,
		images: images,
		feed:   feed,
	}, nil
}

// Submit runs one upload. The returned record is nil when the API accepted
// the image without echoing it; the feed is invalidated either way. On any
// failure the feed is left untouched.
//
// The two remote steps are not transactional: if creating the record fails
// after the media upload succeeded, the uploaded media stays orphaned.
func (s *UploadSubmitter) Submit(ctx context.Context, draft ValidDraft) (*domain.ImageRecord, error) {
	if !draft.verified {
		return nil, domain.NewError(domain.KindPrecondition, "submit upload", "draft has not passed validation", nil)
	}
	d := draft.Draft()

	url, err := s.media.Upload(ctx, d.File)
	if err != nil {
		if domain.IsKind(err, domain.KindMediaUpload) {
			return nil, err
		}
		return nil, domain.NewError(domain.KindMediaUpload, "upload media", "", err)
	}
	if url == "" {
		return nil, domain.NewError(domain.KindMediaUpload, "upload media", "media host returned no url", nil)
	}

	record, err := s.images.CreateImage(ctx, domain.NewImage{
		Title:       d.Title,
		Description: d.Description,
		URL:         url,
	})
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Image record was not created; uploaded media is orphaned")
		return nil, fmt.Errorf("create image: %w", err)
	}

	if s.feed != nil {
		s.feed.Invalidate()
	}

	return record, nil
}
