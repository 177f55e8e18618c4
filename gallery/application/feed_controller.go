package application

import (
	"context"
	"errors"
	"sync"

	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrDisposed is returned by every FeedController operation after Dispose.
var ErrDisposed = errors.New("feed controller disposed")

// Status is the state of a FeedController.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// FeedState is what the feed view renders.
type FeedState struct {
	Items   []domain.ImageRecord
	HasMore bool
	Status  Status
	Err     error
	// Stale is set between an invalidation and the next read.
	Stale bool
}

// maxHeadPages bounds how far a refresh walks from the head looking for a
// cached record before it gives up and replaces the cache.
const maxHeadPages = 10

// errSuperseded marks a fetch whose result was dropped because the controller
// was invalidated or reloaded while it ran.
var errSuperseded = errors.New("fetch superseded")

// FeedController drives pagination of one feed view. At most one fetch is in
// flight at any time, including a superseded one that has not returned yet;
// results that arrive after Dispose or Invalidate are discarded.
type FeedController struct {
	fetcher domain.PageFetcher
	cache   *FeedCache
	refresh singleflight.Group
	slot    chan struct{}

	mu         sync.Mutex
	status     Status
	err        error
	stale      bool
	disposed   bool
	generation uint64
	cancel     context.CancelFunc

	listeners map[int]func(FeedState)
	nextID    int
}

// NewFeedController creates an idle controller over an empty cache.
func NewFeedController(fetcher domain.PageFetcher) *FeedController {
	return &FeedController{
		fetcher:   fetcher,
		cache:     NewFeedCache(),
		slot:      make(chan struct{}, 1),
		listeners: make(map[int]func(FeedState)),
	}
}

// LoadNext fetches the page after the current cursor and appends it. It is a
// no-op while a fetch is already in flight or once the last page was seen.
// On failure the controller enters StatusError, the cache is left untouched
// and the error is returned; calling LoadNext again retries.
func (fc *FeedController) LoadNext(ctx context.Context) error {
	fc.mu.Lock()
	if fc.disposed {
		fc.mu.Unlock()
		return ErrDisposed
	}
	if !fc.cache.HasMore() || !fc.tryAcquire() {
		fc.mu.Unlock()
		return nil
	}

	cursor := fc.cache.Cursor()
	fetchCtx, gen := fc.beginLocked(ctx)
	fc.mu.Unlock()
	fc.notify()

	log.Debug().Str("cursor", cursor).Msg("Fetching feed page")
	page, err := fc.fetcher.FetchPage(fetchCtx, cursor)

	err = fc.settle(gen, err, func() {
		fc.cache.Append(page)
	})
	if errors.Is(err, errSuperseded) {
		log.Debug().Str("cursor", cursor).Msg("Discarding feed page fetched for a superseded generation")
		return nil
	}
	return err
}

// Invalidate marks the feed stale so that the next Feed call refreshes the
// head. An in-flight pagination fetch is cancelled and its result dropped; it
// keeps the fetch slot until it returns.
func (fc *FeedController) Invalidate() {
	fc.mu.Lock()
	if fc.disposed {
		fc.mu.Unlock()
		return
	}
	fc.stale = true
	fc.generation++
	if fc.cancel != nil {
		fc.cancel()
		fc.cancel = nil
	}
	fc.mu.Unlock()

	fc.notify()
}

// Feed returns the current state, refreshing the head of the feed first when
// it was invalidated. Concurrent readers share a single refresh. A refresh
// overtaken by another invalidation is retried, so a nil error always comes
// with a state that is not stale.
func (fc *FeedController) Feed(ctx context.Context) (FeedState, error) {
	for {
		fc.mu.Lock()
		if fc.disposed {
			fc.mu.Unlock()
			return FeedState{}, ErrDisposed
		}
		stale := fc.stale
		fc.mu.Unlock()

		if !stale {
			return fc.State(), nil
		}

		_, err, _ := fc.refresh.Do("head", func() (any, error) {
			return nil, fc.refreshHead(ctx)
		})
		if errors.Is(err, errSuperseded) {
			continue
		}
		if err != nil {
			return fc.State(), err
		}
	}
}

// Reload discards everything cached and fetches the first page again. It
// waits for a superseded fetch to return before starting its own.
func (fc *FeedController) Reload(ctx context.Context) error {
	fc.mu.Lock()
	if fc.disposed {
		fc.mu.Unlock()
		return ErrDisposed
	}
	fc.generation++
	if fc.cancel != nil {
		fc.cancel()
		fc.cancel = nil
	}
	fc.mu.Unlock()

	if err := fc.acquire(ctx); err != nil {
		return err
	}

	fc.mu.Lock()
	if fc.disposed {
		fc.release()
		fc.mu.Unlock()
		return ErrDisposed
	}
	fc.cache.Reset()
	fc.stale = false
	fc.err = nil
	fetchCtx, gen := fc.beginLocked(ctx)
	fc.mu.Unlock()
	fc.notify()

	page, err := fc.fetcher.FetchPage(fetchCtx, "")

	err = fc.settle(gen, err, func() {
		fc.cache.Append(page)
	})
	if errors.Is(err, errSuperseded) {
		return nil
	}
	return err
}

// Dispose tears the controller down. A fetch still in flight is cancelled and
// its result will never be applied.
func (fc *FeedController) Dispose() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.disposed {
		return
	}
	fc.disposed = true
	fc.generation++
	if fc.cancel != nil {
		fc.cancel()
		fc.cancel = nil
	}
	fc.listeners = make(map[int]func(FeedState))
}

// State returns the current feed state without any I/O.
func (fc *FeedController) State() FeedState {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.stateLocked()
}

// CurrentCursor returns the cursor of the most recently appended page, or ""
// before the first fetch.
func (fc *FeedController) CurrentCursor() string {
	return fc.cache.Cursor()
}

// Subscribe registers fn to receive the state after every transition and
// returns a function that removes it.
func (fc *FeedController) Subscribe(fn func(FeedState)) func() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	id := fc.nextID
	fc.nextID++
	fc.listeners[id] = fn

	return func() {
		fc.mu.Lock()
		defer fc.mu.Unlock()
		delete(fc.listeners, id)
	}
}

// Lookup returns a cached record by id.
func (fc *FeedController) Lookup(id string) (domain.ImageRecord, bool) {
	return fc.cache.Get(id)
}

func (fc *FeedController) refreshHead(ctx context.Context) error {
	if err := fc.acquire(ctx); err != nil {
		return err
	}

	fc.mu.Lock()
	if fc.disposed {
		fc.release()
		fc.mu.Unlock()
		return ErrDisposed
	}
	if !fc.stale {
		fc.release()
		fc.mu.Unlock()
		return nil
	}
	fetchCtx, gen := fc.beginLocked(ctx)
	fc.mu.Unlock()
	fc.notify()

	log.Debug().Msg("Refreshing head of invalidated feed")
	head, joined, err := fc.fetchHead(fetchCtx)

	return fc.settle(gen, err, func() {
		if joined {
			fc.cache.RefreshHead(head)
		} else {
			log.Debug().Int("records", len(head.Items)).Msg("Head refresh did not reach cached records; replacing feed")
			fc.cache.Replace(head)
		}
		fc.stale = false
	})
}

// fetchHead reads pages from the head until one of them holds a cached record,
// and returns everything read as a single page. joined reports whether the
// walk met the cache; when it did not, the page cursor continues after the
// last page read.
func (fc *FeedController) fetchHead(ctx context.Context) (domain.Page, bool, error) {
	var head domain.Page
	cursor := ""
	for i := 0; i < maxHeadPages; i++ {
		page, err := fc.fetcher.FetchPage(ctx, cursor)
		if err != nil {
			return domain.Page{}, false, err
		}
		head.Items = append(head.Items, page.Items...)
		head.Cursor = page.Cursor

		if !fc.cache.Loaded() || fc.cache.ContainsAny(page.Items) {
			return head, true, nil
		}
		if !page.HasNext() {
			return head, false, nil
		}
		cursor = page.Cursor
	}
	return head, false, nil
}

// settle releases the fetch slot and applies the result of a fetch started in
// generation gen. apply runs with the controller lock held and only when the
// fetch succeeded and was not superseded.
func (fc *FeedController) settle(gen uint64, fetchErr error, apply func()) error {
	fc.mu.Lock()
	fc.release()

	if fc.disposed {
		fc.mu.Unlock()
		return ErrDisposed
	}
	if gen != fc.generation {
		fc.status = StatusIdle
		fc.mu.Unlock()
		fc.notify()
		return errSuperseded
	}
	if fc.cancel != nil {
		fc.cancel()
		fc.cancel = nil
	}
	if fetchErr != nil {
		fc.status = StatusError
		fc.err = fetchErr
		fc.mu.Unlock()
		fc.notify()
		return fetchErr
	}

	apply()
	fc.status = StatusIdle
	fc.err = nil
	fc.mu.Unlock()

	fc.notify()
	return nil
}

// beginLocked moves the controller to StatusLoading and returns the context
// and generation the fetch must be tagged with. The caller holds the slot.
func (fc *FeedController) beginLocked(ctx context.Context) (context.Context, uint64) {
	fetchCtx, cancel := context.WithCancel(ctx)
	fc.cancel = cancel
	fc.status = StatusLoading
	return fetchCtx, fc.generation
}

func (fc *FeedController) tryAcquire() bool {
	select {
	case fc.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (fc *FeedController) acquire(ctx context.Context) error {
	select {
	case fc.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (fc *FeedController) release() {
	<-fc.slot
}

func (fc *FeedController) stateLocked() FeedState {
	return FeedState{
		Items:   fc.cache.Snapshot(),
		HasMore: fc.cache.HasMore(),
		Status:  fc.status,
		Err:     fc.err,
		Stale:   fc.stale,
	}
}

func (fc *FeedController) notify() {
	fc.mu.Lock()
	if fc.disposed || len(fc.listeners) == 0 {
		fc.mu.Unlock()
		return
	}
	state := fc.stateLocked()
	listeners := make([]func(FeedState), 0, len(fc.listeners))
	for _, fn := range fc.listeners {
		listeners = append(listeners, fn)
	}
	fc.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
