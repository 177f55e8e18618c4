package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/gogallery/gallery/application"
	"github.com/dfryer1193/gogallery/internal/config"
)

const usage = `usage: gallery <command> [flags]

commands:
  feed     page through the feed, optionally exporting it as HTML
  upload   validate and upload an image, then show the head of the feed
  view     show the full-size viewer state for one image

Accepted image types: %s

environment:
  GALLERY_API_URL   base URL of the gallery API (default http://localhost:8080)
  GALLERY_MEDIA     media host for uploads: imgbb or gcs (default imgbb)
  IMGBB_API_KEY     API key for imgbb uploads
  GCS_BUCKET        bucket for gcs uploads
  LOG_LEVEL, LOG_FORMAT
`

var errUsage = errors.New("usage")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, usage, strings.Join(application.AcceptedImageTypes, ", "))
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	cfg.Log.Apply()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := newApp(cfg, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up client")
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "feed":
		err = app.runFeed(ctx, args)
	case "upload":
		err = app.runUpload(ctx, args)
	case "view":
		err = app.runView(ctx, args)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("Command failed")
		os.Exit(1)
	}
}
