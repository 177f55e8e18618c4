package imgbb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/gogallery/gallery/domain"
)

const DefaultEndpoint = "https://api.imgbb.com/1/upload"

var _ domain.MediaHost = (*Host)(nil)

type Options struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Host uploads binaries to an imgbb-compatible image host.
type Host struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewHost(opts Options) (*Host, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("imgbb: API key is required")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Host{
		apiKey:   opts.APIKey,
		endpoint: opts.Endpoint,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}, nil
}

type uploadResponse struct {
	Data struct {
		ID         string `json:"id"`
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts file as the "image" form field and returns the hosted URL.
func (h *Host) Upload(ctx context.Context, file domain.File) (string, error) {
	const op = "imgbb upload"

	if len(file.Data) == 0 {
		return "", domain.NewError(domain.KindMediaUpload, op, "file is empty", nil)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", file.Name)
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	endpoint, err := url.Parse(h.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", h.endpoint, err)
	}
	q := endpoint.Query()
	q.Set("key", h.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", domain.NewError(domain.KindMediaUpload, op, "", redactKey(err, h.apiKey))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", domain.NewError(domain.KindMediaUpload, op, "reading response body", err)
	}

	var out uploadResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := resp.Status
		if decodeErr == nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", domain.NewError(domain.KindMediaUpload, op, msg, nil)
	}
	if decodeErr != nil {
		return "", domain.NewError(domain.KindMediaUpload, op, "malformed response body", decodeErr)
	}
	if out.Data.URL == "" {
		return "", domain.NewError(domain.KindMediaUpload, op, "response has no url", nil)
	}

	log.Debug().Str("id", out.Data.ID).Int64("size", file.Size()).Msg("Uploaded media to imgbb")
	return out.Data.URL, nil
}

// redactKey keeps the API key out of transport errors, which embed the URL.
func redactKey(err error, key string) error {
	msg := err.Error()
	if !strings.Contains(msg, key) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, key, "REDACTED"))
}
