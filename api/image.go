package api

import (
	"time"

	"github.com/dfryer1193/gogallery/gallery/domain"
)

// Image is one record as it travels over the wire. TS is the creation time
// in microseconds since the Unix epoch.
type Image struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	TS          int64  `json:"ts"`
}

// GetImagesResponse is the body of GET /api/images. An empty After means the
// page is the last one.
type GetImagesResponse struct {
	After string  `json:"after"`
	Data  []Image `json:"data"`
}

// NewImageData is the body of POST /api/images.
type NewImageData struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	URL         string `json:"url" binding:"required,url"`
}

func FromRecord(r domain.ImageRecord) Image {
	return Image{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		URL:         r.URL,
		TS:          r.CreatedAt.UnixMicro(),
	}
}

func (i Image) ToRecord() domain.ImageRecord {
	return domain.ImageRecord{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		URL:         i.URL,
		CreatedAt:   time.UnixMicro(i.TS).UTC(),
	}
}

func FromPage(p domain.Page) GetImagesResponse {
	data := make([]Image, 0, len(p.Items))
	for _, r := range p.Items {
		data = append(data, FromRecord(r))
	}
	return GetImagesResponse{After: p.Cursor, Data: data}
}

func (d NewImageData) ToDomain() domain.NewImage {
	return domain.NewImage{
		Title:       d.Title,
		Description: d.Description,
		URL:         d.URL,
	}
}
