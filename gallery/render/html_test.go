package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/gogallery/gallery/domain"
)

func TestFeedRenderer_Render(t *testing.T) {
	r := NewFeedRenderer("", "")

	out, err := r.Render([]domain.ImageRecord{
		{
			ID:          "a",
			Title:       "Sunset",
			Description: "A view",
			URL:         "https://media.test/a.png",
			CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:          "b",
			Title:       "Harbour",
			Description: "Boats",
			URL:         "https://media.test/b.png",
		},
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, ">Gallery</h1>")
	assert.Contains(t, html, ">Sunset</h2>")
	assert.Contains(t, html, `src="https://media.test/a.png"`)
	assert.Contains(t, html, `alt="A view"`)
	assert.Contains(t, html, `loading="lazy"`)
	assert.Contains(t, html, "Uploaded 2024-05-01T10:00:00Z")
	assert.Less(t, strings.Index(html, "Sunset"), strings.Index(html, "Harbour"), "feed order is kept")
	assert.Equal(t, 1, strings.Count(html, "Uploaded"), "records without a timestamp have no upload line")
}

func TestFeedRenderer_UserTextIsLiteral(t *testing.T) {
	r := NewFeedRenderer("My *pics*", "")

	out, err := r.Render([]domain.ImageRecord{{
		ID:          "x",
		Title:       "<script>alert(1)</script>",
		Description: "**bold** [link](https://evil.test)",
		URL:         "https://media.test/x.png",
	}})
	require.NoError(t, err)
	html := string(out)

	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<strong>")
	assert.NotContains(t, html, `href="https://evil.test"`)
	assert.Contains(t, html, "My *pics*")
}

func TestFeedRenderer_RelativeMediaURLs(t *testing.T) {
	r := NewFeedRenderer("Gallery", "https://cdn.test/")

	out, err := r.Render([]domain.ImageRecord{
		{ID: "a", Title: "abc", Description: "d", URL: "/media/a.png"},
		{ID: "b", Title: "def", Description: "d", URL: "https://other.test/b.png"},
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `src="https://cdn.test/media/a.png"`)
	assert.Contains(t, html, `src="https://other.test/b.png"`)
}

func TestFeedRenderer_EmptyFeed(t *testing.T) {
	out, err := NewFeedRenderer("", "").Render(nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "No images yet")
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `a \*b\* c`, escape("a  *b*\n c"))
	assert.Equal(t, "plain", escape("plain"))
}
