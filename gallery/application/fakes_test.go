package application

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dfryer1193/gogallery/gallery/domain"
)

// scriptedFetcher serves fixed pages by cursor. When release is set every
// fetch blocks on it after announcing itself on started, ignoring ctx.
type scriptedFetcher struct {
	mu        sync.Mutex
	pages     map[string]domain.Page
	errs      []error
	calls     []string
	active    int
	maxActive int
	started   chan string
	release   chan struct{}
}

func newScriptedFetcher(pages ...domain.Page) *scriptedFetcher {
	f := &scriptedFetcher{pages: map[string]domain.Page{}}
	cursor := ""
	for _, p := range pages {
		f.pages[cursor] = p
		cursor = p.Cursor
	}
	return f
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, cursor string) (domain.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cursor)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	p := f.pages[cursor]
	started, release := f.started, f.release
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if started != nil {
		started <- cursor
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return domain.Page{}, err
	}
	return p, nil
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *scriptedFetcher) peakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

func (f *scriptedFetcher) setPage(cursor string, p domain.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[cursor] = p
}

func (f *scriptedFetcher) gate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = make(chan string, 8)
	f.release = make(chan struct{})
}

// fakeAPI is an in-memory feed backend: it serves newest-first pages with
// numeric cursors, creates records and hosts media.
type fakeAPI struct {
	mu       sync.Mutex
	records  []domain.ImageRecord // newest first
	pageSize int
	nextID   int
	uploads  []domain.File
	fetches  int
}

func newFakeAPI(pageSize int) *fakeAPI {
	return &fakeAPI{pageSize: pageSize}
}

func (a *fakeAPI) seed(n int) {
	for i := 0; i < n; i++ {
		_, _ = a.CreateImage(context.Background(), domain.NewImage{
			Title:       fmt.Sprintf("seed %d", i),
			Description: "seeded",
			URL:         fmt.Sprintf("https://media.test/seed-%d.png", i),
		})
	}
}

func (a *fakeAPI) FetchPage(_ context.Context, cursor string) (domain.Page, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetches++

	start := 0
	if cursor != "" {
		// cursor is the id of the last record of the previous page
		for i, r := range a.records {
			if r.ID == cursor {
				start = i + 1
				break
			}
		}
	}
	end := start + a.pageSize
	if end > len(a.records) {
		end = len(a.records)
	}

	items := make([]domain.ImageRecord, end-start)
	copy(items, a.records[start:end])

	next := ""
	if end < len(a.records) && len(items) > 0 {
		next = items[len(items)-1].ID
	}
	return domain.Page{Items: items, Cursor: next}, nil
}

func (a *fakeAPI) CreateImage(_ context.Context, img domain.NewImage) (*domain.ImageRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	rec := domain.ImageRecord{
		ID:          "img-" + strconv.Itoa(a.nextID),
		Title:       img.Title,
		Description: img.Description,
		URL:         img.URL,
		CreatedAt:   time.Unix(int64(a.nextID), 0).UTC(),
	}
	a.records = append([]domain.ImageRecord{rec}, a.records...)
	return &rec, nil
}

func (a *fakeAPI) Upload(_ context.Context, file domain.File) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploads = append(a.uploads, file)
	return "https://media.test/" + file.Name, nil
}
