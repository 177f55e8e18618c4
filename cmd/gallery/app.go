package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/dfryer1193/gogallery/gallery/application"
	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/dfryer1193/gogallery/gallery/remote"
	"github.com/dfryer1193/gogallery/gallery/render"
	"github.com/dfryer1193/gogallery/internal/config"
	"github.com/dfryer1193/gogallery/shared/media/gcs"
	"github.com/dfryer1193/gogallery/shared/media/imgbb"
)

// app holds what every command shares. The media host is created lazily
// because only upload needs one.
type app struct {
	cfg    *config.ClientConfig
	client *remote.Client
	out    io.Writer

	newMediaHost func(ctx context.Context) (domain.MediaHost, func(), error)
}

func newApp(cfg *config.ClientConfig, out io.Writer) (*app, error) {
	httpClient, err := remote.NewHTTPClient(remote.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		client: remote.NewClient(httpClient),
		out:    out,
	}
	a.newMediaHost = a.mediaHostFromConfig
	return a, nil
}

func (a *app) mediaHostFromConfig(ctx context.Context) (domain.MediaHost, func(), error) {
	switch a.cfg.Media {
	case config.MediaGCS:
		var opts []option.ClientOption
		if a.cfg.GCSCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(a.cfg.GCSCredentials))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create storage client: %w", err)
		}
		host, err := gcs.NewHost(client, a.cfg.GCSBucket)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return host, func() { client.Close() }, nil
	default:
		host, err := imgbb.NewHost(imgbb.Options{
			APIKey:   a.cfg.ImgbbAPIKey,
			Endpoint: a.cfg.ImgbbEndpoint,
			Timeout:  a.cfg.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return host, func() {}, nil
	}
}

func (a *app) newFeed() *application.FeedController {
	feed := application.NewFeedController(a.client)
	feed.Subscribe(func(s application.FeedState) {
		log.Debug().
			Str("status", s.Status.String()).
			Int("items", len(s.Items)).
			Bool("hasMore", s.HasMore).
			Bool("stale", s.Stale).
			Msg("Feed state changed")
	})
	return feed
}

// loadPages loads up to pages pages, stopping early at the end of the feed.
func loadPages(ctx context.Context, feed *application.FeedController, pages int) error {
	for i := 0; i < pages && feed.State().HasMore; i++ {
		if err := feed.LoadNext(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) runFeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	pages := fs.Int("pages", 1, "number of pages to load")
	htmlOut := fs.String("html", "", "write the loaded feed as HTML to this file")
	title := fs.String("title", "Gallery", "heading of the HTML export")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pages < 1 {
		return fmt.Errorf("-pages must be at least 1")
	}

	feed := a.newFeed()
	defer feed.Dispose()

	if err := loadPages(ctx, feed, *pages); err != nil {
		return err
	}

	state := feed.State()
	a.printItems(state.Items)
	if state.HasMore {
		fmt.Fprintf(a.out, "more available after cursor %s\n", feed.CurrentCursor())
	} else {
		fmt.Fprintln(a.out, "end of feed")
	}

	if *htmlOut == "" {
		return nil
	}
	html, err := render.NewFeedRenderer(*title, "").Render(state.Items)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*htmlOut, html, 0644); err != nil {
		return fmt.Errorf("write %s: %w", *htmlOut, err)
	}
	log.Info().Str("path", *htmlOut).Int("images", len(state.Items)).Msg("Exported feed")
	return nil
}

func (a *app) runUpload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	title := fs.String("title", "", "image title")
	description := fs.String("description", "", "image description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "usage: gallery upload -title T -description D FILE")
		return errUsage
	}

	var file domain.File
	if fs.NArg() == 1 {
		f, err := readFile(fs.Arg(0))
		if err != nil {
			return err
		}
		file = f
	}

	result := application.Validate(domain.UploadDraft{
		File:        file,
		Title:       *title,
		Description: *description,
	})
	if !result.Valid() {
		a.printFieldErrors(result.Errors)
		a.printNotification(application.NotificationFor(result.Err()))
		return result.Err()
	}

	media, closeMedia, err := a.newMediaHost(ctx)
	if err != nil {
		return err
	}
	defer closeMedia()

	feed := a.newFeed()
	defer feed.Dispose()
	if err := feed.LoadNext(ctx); err != nil {
		return err
	}

	submitter, err := application.NewUploadSubmitter(media, a.client, feed)
	if err != nil {
		return err
	}

	record, err := submitter.Submit(ctx, result.Draft())
	a.printNotification(application.NotificationFor(err))
	if err != nil {
		return err
	}
	if record != nil {
		fmt.Fprintf(a.out, "created %s\n", record.ID)
	}

	state, err := feed.Feed(ctx)
	if err != nil {
		return err
	}
	a.printItems(state.Items)
	return nil
}

func (a *app) runView(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	pages := fs.Int("pages", 10, "maximum number of pages to search")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gallery view [-pages N] ID")
		return errUsage
	}
	id := fs.Arg(0)

	feed := a.newFeed()
	defer feed.Dispose()

	record, ok := feed.Lookup(id)
	for i := 0; !ok && i < *pages && feed.State().HasMore; i++ {
		if err := feed.LoadNext(ctx); err != nil {
			return err
		}
		record, ok = feed.Lookup(id)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrImageNotFound, id)
	}

	var viewer application.Viewer
	viewer.Open(record.URL)

	state := viewer.State()
	fmt.Fprintf(a.out, "open=%t url=%s\n", state.IsOpen, state.ImageURL)
	return nil
}

func (a *app) printItems(items []domain.ImageRecord) {
	for _, item := range items {
		fmt.Fprintf(a.out, "%s\t%s\t%s\t%s\n",
			item.ID,
			item.CreatedAt.Local().Format(time.DateTime),
			item.Title,
			item.URL,
		)
	}
}

func (a *app) printFieldErrors(errs map[string]string) {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(a.out, "%s: %s\n", field, errs[field])
	}
}

func (a *app) printNotification(n application.Notification) {
	fmt.Fprintf(a.out, "[%s] %s: %s\n", n.Status, n.Title, n.Description)
}

// readFile loads an upload from disk, sniffing its type from the content.
func readFile(path string) (domain.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.File{}, fmt.Errorf("read %s: %w", path, err)
	}

	contentType := mimetype.Detect(data).String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	return domain.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
