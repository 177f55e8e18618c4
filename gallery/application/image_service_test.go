package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/dfryer1193/gogallery/gallery/domain/mocks"
)

func TestNewImageService_PageSize(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockImageRepository(ctrl)

	assert.Equal(t, DefaultPageSize, NewImageService(repo, 0).pageSize)
	assert.Equal(t, DefaultPageSize, NewImageService(repo, -3).pageSize)
	assert.Equal(t, 20, NewImageService(repo, 20).pageSize)
}

func TestImageService_ListImages(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockImageRepository(ctrl)
	svc := NewImageService(repo, 4)
	ctx := context.Background()

	want := page("next", "a", "b", "c", "d")
	repo.EXPECT().ListImages(ctx, "cursor-1", 4).Return(want, nil)

	got, err := svc.ListImages(ctx, "cursor-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestImageService_ListImagesWrapsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockImageRepository(ctrl)
	svc := NewImageService(repo, 4)

	repo.EXPECT().ListImages(gomock.Any(), "garbage", 4).Return(domain.Page{}, domain.ErrInvalidCursor)

	_, err := svc.ListImages(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}

func TestImageService_CreateImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockImageRepository(ctrl)
	svc := NewImageService(repo, 0)
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.FixedZone("CET", 3600))
	svc.now = func() time.Time { return fixed }

	var saved *domain.ImageRecord
	repo.EXPECT().SaveImage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, img *domain.ImageRecord) error {
			saved = img
			return nil
		})

	rec, err := svc.CreateImage(context.Background(), domain.NewImage{
		Title:       " Sunset ",
		Description: "A view",
		URL:         "https://media.test/sunset.png",
	})
	require.NoError(t, err)

	assert.Same(t, saved, rec)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Sunset", rec.Title)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	assert.Equal(t, fixed.UnixMicro(), rec.CreatedAt.UnixMicro())
	assert.Zero(t, rec.CreatedAt.Nanosecond()%1000, "timestamps are stored with microsecond precision")
}

func TestImageService_CreateImageRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		img  domain.NewImage
	}{
		{name: "no title", img: domain.NewImage{Description: "d", URL: "u"}},
		{name: "blank description", img: domain.NewImage{Title: "t", Description: "  ", URL: "u"}},
		{name: "no url", img: domain.NewImage{Title: "t", Description: "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockImageRepository(ctrl)
			svc := NewImageService(repo, 0)

			_, err := svc.CreateImage(context.Background(), tt.img)
			assert.ErrorIs(t, err, domain.ErrInvalidImage)
		})
	}
}

func TestImageService_CreateImageSaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockImageRepository(ctrl)
	svc := NewImageService(repo, 0)

	boom := errors.New("disk full")
	repo.EXPECT().SaveImage(gomock.Any(), gomock.Any()).Return(boom)

	rec, err := svc.CreateImage(context.Background(), domain.NewImage{Title: "t", Description: "d", URL: "u"})
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, boom)
}

func TestImageService_GetImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockImageRepository(ctrl)
	svc := NewImageService(repo, 0)

	want := record("a")
	repo.EXPECT().GetImage(gomock.Any(), "a").Return(&want, nil)
	repo.EXPECT().GetImage(gomock.Any(), "b").Return(nil, domain.ErrImageNotFound)

	got, err := svc.GetImage(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	_, err = svc.GetImage(context.Background(), "b")
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}
