package rest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dfryer1193/gogallery/api"
	"github.com/dfryer1193/gogallery/gallery/application"
	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/dfryer1193/gogallery/gallery/persistence"
	"github.com/dfryer1193/gogallery/internal/metrics"
)

type testServer struct {
	router  *gin.Engine
	repo    *persistence.SQLiteImageRepository
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, pageSize int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE images (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		url TEXT NOT NULL,
		ts INTEGER NOT NULL
	)`)
	require.NoError(t, err)

	repo := persistence.NewImageRepository(db)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	router := gin.New()
	NewApi(router, application.NewImageService(repo, pageSize), m, reg)

	return &testServer{router: router, repo: repo, metrics: m}
}

func (s *testServer) seed(t *testing.T, n int) {
	t.Helper()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, s.repo.SaveImage(context.Background(), &domain.ImageRecord{
			ID:          fmt.Sprintf("img-%02d", i),
			Title:       fmt.Sprintf("Image %d", i),
			Description: "seeded",
			URL:         fmt.Sprintf("https://media.test/%d.png", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func (s *testServer) do(method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestListImages_Paginates(t *testing.T) {
	s := newTestServer(t, 4)
	s.seed(t, 10)

	var (
		ids    []string
		cursor string
		pages  int
	)
	for {
		target := "/api/images"
		if cursor != "" {
			target += "?after=" + url.QueryEscape(cursor)
		}
		w := s.do(http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp api.GetImagesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		pages++
		for _, img := range resp.Data {
			ids = append(ids, img.ID)
		}
		if resp.After == "" {
			break
		}
		cursor = resp.After
	}

	assert.Equal(t, 3, pages)
	require.Len(t, ids, 10)
	assert.Equal(t, "img-09", ids[0])
	assert.Equal(t, "img-00", ids[9])
	assert.Equal(t, 3.0, testutil.ToFloat64(s.metrics.PagesServed))
}

func TestListImages_EmptyFeedHasDataArray(t *testing.T) {
	s := newTestServer(t, 6)

	w := s.do(http.MethodGet, "/api/images", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"after":"","data":[]}`, w.Body.String())
}

func TestListImages_InvalidCursor(t *testing.T) {
	s := newTestServer(t, 6)

	w := s.do(http.MethodGet, "/api/images?after=%25%25", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid cursor"}`, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RequestErrors.WithLabelValues("list_images", "400")))
}

func TestCreateImage(t *testing.T) {
	s := newTestServer(t, 6)

	w := s.do(http.MethodPost, "/api/images", []byte(`{"title":"Sunset","description":"A view","url":"https://media.test/s.png"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var created api.Image
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Sunset", created.Title)
	assert.NotZero(t, created.TS)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ImagesCreated))

	w = s.do(http.MethodGet, "/api/images", nil)
	var resp api.GetImagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, created, resp.Data[0])

	w = s.do(http.MethodGet, "/api/images/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCreateImage_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"title":`},
		{name: "missing url", body: `{"title":"t","description":"d"}`},
		{name: "url not absolute", body: `{"title":"t","description":"d","url":"not a url"}`},
		{name: "blank title", body: `{"title":"   ","description":"d","url":"https://media.test/a.png"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, 6)

			w := s.do(http.MethodPost, "/api/images", []byte(tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestGetImage_NotFound(t *testing.T) {
	s := newTestServer(t, 6)

	w := s.do(http.MethodGet, "/api/images/nope", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	s := newTestServer(t, 6)

	w := s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	s.do(http.MethodGet, "/api/images", nil)
	w = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gallery_pages_served_total 1")
}
