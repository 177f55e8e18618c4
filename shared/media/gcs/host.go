package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/gogallery/gallery/domain"
)

const (
	defaultPublicBaseURL = "https://storage.googleapis.com"
	defaultPrefix        = "images"
)

var _ domain.MediaHost = (*Host)(nil)

// Host stores upload binaries as objects in a GCS bucket and hands out their
// public URLs. The bucket is expected to grant allUsers read access.
type Host struct {
	Bucket        string
	Prefix        string
	PublicBaseURL string

	newWriter func(ctx context.Context, object string) objectWriter
}

// objectWriter is the part of *storage.Writer the host uses.
type objectWriter interface {
	io.WriteCloser
	setAttrs(contentType string, metadata map[string]string)
}

type gcsWriter struct {
	*storage.Writer
}

func (w gcsWriter) setAttrs(contentType string, metadata map[string]string) {
	w.ContentType = contentType
	w.Metadata = metadata
}

func NewHost(client *storage.Client, bucket string) (*Host, error) {
	if client == nil {
		return nil, errors.New("gcs: storage client is nil")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("gcs: bucket is empty")
	}

	bh := client.Bucket(bucket)
	return &Host{
		Bucket:        bucket,
		Prefix:        defaultPrefix,
		PublicBaseURL: defaultPublicBaseURL,
		newWriter: func(ctx context.Context, object string) objectWriter {
			w := bh.Object(object).NewWriter(ctx)
			w.ChunkSize = 0
			return gcsWriter{w}
		},
	}, nil
}

// Upload writes file to {Prefix}/{uuid}{ext} and returns its public URL.
func (h *Host) Upload(ctx context.Context, file domain.File) (string, error) {
	const op = "gcs upload"

	if len(file.Data) == 0 {
		return "", domain.NewError(domain.KindMediaUpload, op, "file is empty", nil)
	}

	object := h.objectPath(file)
	contentType := strings.TrimSpace(file.ContentType)
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(file.Name)))
	}

	w := h.newWriter(ctx, object)
	w.setAttrs(contentType, map[string]string{
		"originalName": file.Name,
		"uploadedAt":   time.Now().UTC().Format(time.RFC3339),
	})
	if _, err := w.Write(file.Data); err != nil {
		_ = w.Close()
		return "", domain.NewError(domain.KindMediaUpload, op, object, err)
	}
	if err := w.Close(); err != nil {
		return "", domain.NewError(domain.KindMediaUpload, op, object, err)
	}

	log.Debug().Str("bucket", h.Bucket).Str("object", object).Int64("size", file.Size()).Msg("Uploaded media object")
	return h.publicURL(object), nil
}

func (h *Host) objectPath(file domain.File) string {
	ext := strings.ToLower(filepath.Ext(file.Name))
	name := uuid.NewString() + ext
	prefix := strings.Trim(h.Prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func (h *Host) publicURL(object string) string {
	base := strings.TrimRight(h.PublicBaseURL, "/")
	if base == "" {
		base = defaultPublicBaseURL
	}
	return fmt.Sprintf("%s/%s/%s", base, h.Bucket, object)
}
