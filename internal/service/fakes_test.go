package service

import (
	"context"
	"time"

	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/notify"
	"github.com/L7NNON-loop/incutador-pro/internal/repository"
)

// fakeStore is an in-memory LinkStore. forcedCollisions makes the next
// N inserts fail with a duplicate-key error to exercise the retry loop.
type fakeStore struct {
	links            map[string]*model.Link
	events           []model.ClickEvent
	balances         map[int64]int64
	forcedCollisions int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		links:    make(map[string]*model.Link),
		balances: make(map[int64]int64),
	}
}

func (f *fakeStore) Create(ctx context.Context, link *model.Link) error {
	if f.forcedCollisions > 0 {
		f.forcedCollisions--
		return repository.ErrDuplicateShortCode
	}
	if _, ok := f.links[link.ShortCode]; ok {
		return repository.ErrDuplicateShortCode
	}
	cp := *link
	f.links[link.ShortCode] = &cp
	return nil
}

func (f *fakeStore) CreateCharged(ctx context.Context, link *model.Link, userID, cost int64) error {
	if f.balances[userID] < cost {
		return repository.ErrInsufficientCredits
	}
	link.UserID = &userID
	link.CreditsUsed = cost
	if err := f.Create(ctx, link); err != nil {
		return err
	}
	f.balances[userID] -= cost
	return nil
}

func (f *fakeStore) GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error) {
	link, ok := f.links[shortCode]
	if !ok {
		return nil, nil
	}
	cp := *link
	return &cp, nil
}

func (f *fakeStore) ExistsShortCode(ctx context.Context, shortCode string) (bool, error) {
	_, ok := f.links[shortCode]
	return ok, nil
}

func (f *fakeStore) IncrementClicks(ctx context.Context, shortCode string) error {
	if link, ok := f.links[shortCode]; ok {
		link.Clicks++
		now := time.Now()
		link.LastClickedAt = &now
	}
	return nil
}

func (f *fakeStore) CreateClickEvent(ctx context.Context, event *model.ClickEvent) error {
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeStore) ListClickEvents(ctx context.Context, linkID int64, limit int) ([]model.ClickEvent, error) {
	var out []model.ClickEvent
	for _, e := range f.events {
		if e.LinkID == linkID {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) ListRecent(ctx context.Context, limit int) ([]model.Link, error) {
	var out []model.Link
	for _, l := range f.links {
		if l.UserID == nil {
			out = append(out, *l)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Link, error) {
	var out []model.Link
	for _, l := range f.links {
		if l.UserID != nil && *l.UserID == userID {
			out = append(out, *l)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, shortCode string, ownerID int64) (int64, error) {
	link, ok := f.links[shortCode]
	if !ok || link.UserID == nil || *link.UserID != ownerID {
		return 0, nil
	}
	delete(f.links, shortCode)
	return 1, nil
}

func (f *fakeStore) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	for code, l := range f.links {
		if l.IsExpired() {
			delete(f.links, code)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeStore) GetAllShortCodes(ctx context.Context) ([]string, error) {
	codes := make([]string, 0, len(f.links))
	for code := range f.links {
		codes = append(codes, code)
	}
	return codes, nil
}

func (f *fakeStore) SaveQRCode(ctx context.Context, linkID int64, dataURI string) error {
	for _, l := range f.links {
		if l.ID == linkID {
			l.QRCode = dataURI
		}
	}
	return nil
}

// fakeCache records entries and their TTLs
type fakeCache struct {
	entries map[string]string
	ttls    map[string]time.Duration
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
}

func (f *fakeCache) Get(ctx context.Context, shortCode string) (string, error) {
	f.gets++
	return f.entries[shortCode], nil
}

func (f *fakeCache) SetWithTTL(ctx context.Context, shortCode, originalURL string, ttl time.Duration) error {
	f.entries[shortCode] = originalURL
	f.ttls[shortCode] = ttl
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, shortCode string) error {
	delete(f.entries, shortCode)
	delete(f.ttls, shortCode)
	return nil
}

// fakeFilter is an exact set standing in for the bloom filter
type fakeFilter struct {
	codes map[string]bool
}

func newFakeFilter() *fakeFilter {
	return &fakeFilter{codes: make(map[string]bool)}
}

func (f *fakeFilter) Add(shortCode string) { f.codes[shortCode] = true }

func (f *fakeFilter) AddBatch(shortCodes []string) {
	for _, c := range shortCodes {
		f.codes[c] = true
	}
}

func (f *fakeFilter) Test(shortCode string) bool { return f.codes[shortCode] }

// fakeNotifier records published change hints
type fakeNotifier struct {
	changes []notify.Change
}

func (f *fakeNotifier) Publish(ctx context.Context, change notify.Change) error {
	f.changes = append(f.changes, change)
	return nil
}

func (f *fakeNotifier) lastChange() notify.Change {
	if len(f.changes) == 0 {
		return notify.Change{}
	}
	return f.changes[len(f.changes)-1]
}
