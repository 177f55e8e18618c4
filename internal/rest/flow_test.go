package rest

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/gogallery/gallery/application"
	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/dfryer1193/gogallery/gallery/remote"
)

type stubMediaHost struct{}

func (stubMediaHost) Upload(_ context.Context, file domain.File) (string, error) {
	return "https://media.test/" + file.Name, nil
}

// The client side of the gallery against the real handlers: page through the
// feed, upload, and read the feed again.
func TestFeedAndUploadAgainstServer(t *testing.T) {
	s := newTestServer(t, 3)
	s.seed(t, 5)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	httpClient, err := remote.NewHTTPClient(remote.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	client := remote.NewClient(httpClient)

	ctx := context.Background()
	feed := application.NewFeedController(client)
	defer feed.Dispose()

	require.NoError(t, feed.LoadNext(ctx))
	require.NoError(t, feed.LoadNext(ctx))
	state := feed.State()
	require.Len(t, state.Items, 5)
	require.False(t, state.HasMore)

	submitter, err := application.NewUploadSubmitter(stubMediaHost{}, client, feed)
	require.NoError(t, err)

	result := application.Validate(domain.UploadDraft{
		File:        domain.File{Name: "sunset.png", ContentType: "image/png", Data: []byte("png")},
		Title:       "Sunset",
		Description: "A view",
	})
	require.True(t, result.Valid())

	created, err := submitter.Submit(ctx, result.Draft())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "https://media.test/sunset.png", created.URL)

	state, err = feed.Feed(ctx)
	require.NoError(t, err)
	require.Len(t, state.Items, 6)
	assert.Equal(t, created.ID, state.Items[0].ID)

	seen := map[string]bool{}
	for _, item := range state.Items {
		assert.False(t, seen[item.ID], "duplicate %s", item.ID)
		seen[item.ID] = true
	}
}
