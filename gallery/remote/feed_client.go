package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/dfryer1193/gogallery/api"
	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/rs/zerolog/log"
)

const imagesPath = "/api/images"

var (
	_ domain.PageFetcher  = (*Client)(nil)
	_ domain.ImageCreator = (*Client)(nil)
)

// Client reads the feed and creates image records through the gallery API.
type Client struct {
	http HTTPClient
}

func NewClient(httpClient HTTPClient) *Client {
	return &Client{http: httpClient}
}

// FetchPage requests the page after cursor; an empty cursor requests the head.
func (c *Client) FetchPage(ctx context.Context, cursor string) (domain.Page, error) {
	const op = "fetch page"

	query := url.Values{}
	if cursor != "" {
		query.Set("after", cursor)
	}

	resp, err := c.http.Get(ctx, imagesPath, query)
	if err != nil {
		return domain.Page{}, err
	}
	if !resp.OK() {
		return domain.Page{}, apiError(op, resp)
	}

	var body struct {
		After string       `json:"after"`
		Data  *[]api.Image `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return domain.Page{}, domain.NewError(domain.KindDecode, op, "malformed response body", err)
	}
	if body.Data == nil {
		return domain.Page{}, domain.NewError(domain.KindDecode, op, "response has no data", nil)
	}

	items := make([]domain.ImageRecord, 0, len(*body.Data))
	for i, img := range *body.Data {
		if img.ID == "" {
			return domain.Page{}, domain.NewError(domain.KindDecode, op, fmt.Sprintf("record %d has no id", i), nil)
		}
		items = append(items, img.ToRecord())
	}

	log.Debug().Str("cursor", cursor).Str("next", body.After).Int("count", len(items)).Msg("Fetched feed page")
	return domain.Page{Items: items, Cursor: body.After}, nil
}

// CreateImage posts a new record. When the API answers with an empty body
// the returned record is nil.
func (c *Client) CreateImage(ctx context.Context, img domain.NewImage) (*domain.ImageRecord, error) {
	const op = "create image"

	payload, err := json.Marshal(api.NewImageData{
		Title:       img.Title,
		Description: img.Description,
		URL:         img.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	resp, err := c.http.Post(ctx, imagesPath, "application/json", payload)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apiError(op, resp)
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, nil
	}

	var created api.Image
	if err := json.Unmarshal(resp.Body, &created); err != nil {
		return nil, domain.NewError(domain.KindDecode, op, "malformed response body", err)
	}
	if created.ID == "" {
		return nil, domain.NewError(domain.KindDecode, op, "created record has no id", nil)
	}

	record := created.ToRecord()
	return &record, nil
}

// apiError turns a non-2xx response into a KindAPI error, using the server's
// {"error": "..."} message when there is one.
func apiError(op string, resp *Response) error {
	var body struct {
		Error string `json:"error"`
	}
	message := ""
	if json.Unmarshal(resp.Body, &body) == nil {
		message = body.Error
	}
	return domain.NewAPIError(op, resp.StatusCode, message)
}
