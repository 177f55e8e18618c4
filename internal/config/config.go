package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/gogallery/shared/db/sqlite"
)

const (
	defaultAddr     = ":8080"
	defaultAPIURL   = "http://localhost:8080"
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 6
)

// Media host kinds selectable with GALLERY_MEDIA.
const (
	MediaImgbb = "imgbb"
	MediaGCS   = "gcs"
)

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level  zerolog.Level
	Pretty bool
}

// ServerConfig configures cmd/gallery-server.
type ServerConfig struct {
	Addr            string
	PageSize        int
	ShutdownTimeout time.Duration
	SQLite          *sqlite.SQLiteConfig
	Log             LogConfig
}

// ClientConfig configures cmd/gallery.
type ClientConfig struct {
	APIURL         string
	Timeout        time.Duration
	Media          string
	ImgbbAPIKey    string
	ImgbbEndpoint  string
	GCSBucket      string
	GCSCredentials string
	Log            LogConfig
}

func LoadServer() (*ServerConfig, error) {
	pageSize, err := intEnv("GALLERY_PAGE_SIZE", defaultPageSize)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("GALLERY_PAGE_SIZE must be positive, got %d", pageSize)
	}

	shutdown, err := durationEnv("GALLERY_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLog()
	if err != nil {
		return nil, err
	}

	return &ServerConfig{
		Addr:            stringEnv("GALLERY_ADDR", defaultAddr),
		PageSize:        pageSize,
		ShutdownTimeout: shutdown,
		SQLite:          sqlite.NewSQLiteConfig(),
		Log:             logCfg,
	}, nil
}

func LoadClient() (*ClientConfig, error) {
	timeout, err := durationEnv("GALLERY_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, err
	}

	media := strings.ToLower(stringEnv("GALLERY_MEDIA", MediaImgbb))
	if media != MediaImgbb && media != MediaGCS {
		return nil, fmt.Errorf("GALLERY_MEDIA must be %q or %q, got %q", MediaImgbb, MediaGCS, media)
	}

	logCfg, err := loadLog()
	if err != nil {
		return nil, err
	}

	return &ClientConfig{
		APIURL:         stringEnv("GALLERY_API_URL", defaultAPIURL),
		Timeout:        timeout,
		Media:          media,
		ImgbbAPIKey:    os.Getenv("IMGBB_API_KEY"),
		ImgbbEndpoint:  os.Getenv("IMGBB_ENDPOINT"),
		GCSBucket:      os.Getenv("GCS_BUCKET"),
		GCSCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		Log:            logCfg,
	}, nil
}

// Apply installs the level and output format on the global logger.
func (c LogConfig) Apply() {
	zerolog.SetGlobalLevel(c.Level)
	if c.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func loadLog() (LogConfig, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(stringEnv("LOG_LEVEL", "info")))
	if err != nil {
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	format := strings.ToLower(stringEnv("LOG_FORMAT", "json"))
	switch format {
	case "json", "console":
	default:
		return LogConfig{}, fmt.Errorf("LOG_FORMAT must be json or console, got %q", format)
	}

	return LogConfig{Level: level, Pretty: format == "console"}, nil
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
