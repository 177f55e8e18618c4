package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dfryer1193/gogallery/gallery/domain"
)

const defaultTitle = "Gallery"

// mediaLinkTransformer makes image sources absolute against baseURL and marks
// every image for lazy loading.
type mediaLinkTransformer struct {
	baseURL string
}

func (t *mediaLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}

		dest := string(img.Destination)
		if t.baseURL != "" && isRelative(dest) {
			img.Destination = []byte(strings.TrimRight(t.baseURL, "/") + "/" + strings.TrimLeft(dest, "./"))
		}
		img.SetAttributeString("loading", []byte("lazy"))

		return ast.WalkSkipChildren, nil
	})
}

func isRelative(dest string) bool {
	if strings.HasPrefix(dest, "//") {
		return false
	}
	return !strings.Contains(dest, ":")
}

// FeedRenderer exports a snapshot of the feed as a static HTML fragment.
type FeedRenderer struct {
	md    goldmark.Markdown
	title string
}

// NewFeedRenderer creates a renderer. Relative media URLs are resolved
// against mediaBaseURL when it is set.
func NewFeedRenderer(title, mediaBaseURL string) *FeedRenderer {
	if strings.TrimSpace(title) == "" {
		title = defaultTitle
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&mediaLinkTransformer{baseURL: mediaBaseURL}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	return &FeedRenderer{md: md, title: title}
}

// Markdown returns the markdown document the HTML is rendered from.
func (r *FeedRenderer) Markdown(records []domain.ImageRecord) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", escape(r.title))

	if len(records) == 0 {
		b.WriteString("No images yet.\n")
		return b.Bytes()
	}

	for _, rec := range records {
		fmt.Fprintf(&b, "## %s\n\n", escape(rec.Title))
		fmt.Fprintf(&b, "![%s](<%s>)\n\n", escape(rec.Description), strings.ReplaceAll(rec.URL, ">", "%3E"))
		fmt.Fprintf(&b, "%s\n\n", escape(rec.Description))
		if !rec.CreatedAt.IsZero() {
			fmt.Fprintf(&b, "*Uploaded %s*\n\n", rec.CreatedAt.UTC().Format(time.RFC3339))
		}
	}

	return b.Bytes()
}

// Render converts records to HTML, newest first as given.
func (r *FeedRenderer) Render(records []domain.ImageRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(r.Markdown(records), &buf); err != nil {
		return nil, fmt.Errorf("failed to convert feed to HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// escape backslash-escapes markdown punctuation so user text renders literally.
func escape(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune("\\`*_{}[]()<>#+-.!|~", r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
