package feed

import (
	"context"
	"sync"

	"github.com/amdadul/brandstore-crm/internal/api"
	"github.com/amdadul/brandstore-crm/internal/model"
)

// Mode selects how a loaded page is merged into the feed.
type Mode int

const (
	Append Mode = iota
	Refresh
)

type loadState int

const (
	idle loadState = iota
	loading
)

// Fetcher loads one page from the server.
type Fetcher[T any] func(ctx context.Context, page int) api.Result[model.Page[T]]

// State is a snapshot of a feed.
type State[T any] struct {
	Items       []T
	CurrentPage int
	LastPage    int
	Loading     bool
	Refreshing  bool
	Loaded      bool
}

// Feed is an incrementally loaded server list. At most one page request is
// in flight at a time; requests made while one is running are dropped.
type Feed[T any] struct {
	fetch Fetcher[T]

	mu          sync.Mutex
	state       loadState
	refreshing  bool
	loaded      bool
	items       []T
	currentPage int
	lastPage    int
}

func New[T any](fetch Fetcher[T]) *Feed[T] {
	return &Feed[T]{fetch: fetch, currentPage: 1, lastPage: 1}
}

// Load fetches page and merges it according to mode. It returns false with
// a nil error when the call was dropped because another load is running.
func (f *Feed[T]) Load(ctx context.Context, page int, mode Mode) (bool, error) {
	if !f.begin(mode) {
		return false, nil
	}
	res := f.fetch(ctx, page)
	return true, f.finish(res, mode)
}

// LoadMore appends the next page. It is a no-op on the last page or while a
// load is running. An unloaded feed starts at page 1.
func (f *Feed[T]) LoadMore(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.state == loading || (f.loaded && f.currentPage >= f.lastPage) {
		f.mu.Unlock()
		return false, nil
	}
	next := 1
	if f.loaded {
		next = f.currentPage + 1
	}
	f.state = loading
	f.mu.Unlock()

	res := f.fetch(ctx, next)
	return true, f.finish(res, Append)
}

// Refresh reloads page 1 and replaces the items.
func (f *Feed[T]) Refresh(ctx context.Context) (bool, error) {
	return f.Load(ctx, 1, Refresh)
}

// Snapshot returns a copy of the current state.
func (f *Feed[T]) Snapshot() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]T, len(f.items))
	copy(items, f.items)
	return State[T]{
		Items:       items,
		CurrentPage: f.currentPage,
		LastPage:    f.lastPage,
		Loading:     f.state == loading,
		Refreshing:  f.refreshing,
		Loaded:      f.loaded,
	}
}

// HasMore reports whether LoadMore would fetch another page.
func (f *Feed[T]) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.loaded || f.currentPage < f.lastPage
}

func (f *Feed[T]) begin(mode Mode) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == loading {
		return false
	}
	f.state = loading
	f.refreshing = mode == Refresh
	return true
}

func (f *Feed[T]) finish(res api.Result[model.Page[T]], mode Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = idle
	f.refreshing = false

	if !res.Success {
		return res.Err()
	}

	page := res.Data
	page.Normalize()
	// page 1 always starts the list over
	if mode == Refresh || page.CurrentPage == 1 {
		f.items = append([]T(nil), page.Items...)
	} else {
		f.items = append(f.items, page.Items...)
	}
	f.currentPage = page.CurrentPage
	f.lastPage = page.LastPage
	f.loaded = true
	return nil
}
