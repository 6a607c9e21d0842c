package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/L7NNON-loop/incutador-pro/internal/cache"
	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/notify"
	"github.com/L7NNON-loop/incutador-pro/internal/qr"
	"github.com/L7NNON-loop/incutador-pro/internal/repository"
	"github.com/L7NNON-loop/incutador-pro/internal/utils"
)

// maxGenerateRetries bounds regeneration attempts after a duplicate-key
// insert of a generated short code.
const maxGenerateRetries = 5

// LinkStore is the persistence surface the link service needs
type LinkStore interface {
	Create(ctx context.Context, link *model.Link) error
	CreateCharged(ctx context.Context, link *model.Link, userID, cost int64) error
	GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error)
	ExistsShortCode(ctx context.Context, shortCode string) (bool, error)
	IncrementClicks(ctx context.Context, shortCode string) error
	CreateClickEvent(ctx context.Context, event *model.ClickEvent) error
	ListClickEvents(ctx context.Context, linkID int64, limit int) ([]model.ClickEvent, error)
	ListRecent(ctx context.Context, limit int) ([]model.Link, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Link, error)
	Delete(ctx context.Context, shortCode string, ownerID int64) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
	GetAllShortCodes(ctx context.Context) ([]string, error)
	SaveQRCode(ctx context.Context, linkID int64, dataURI string) error
}

// LinkCache is the read-through cache for code -> URL resolution
type LinkCache interface {
	Get(ctx context.Context, shortCode string) (string, error)
	SetWithTTL(ctx context.Context, shortCode, originalURL string, ttl time.Duration) error
	Delete(ctx context.Context, shortCode string) error
}

// CodeFilter is the probabilistic existence filter for short codes
type CodeFilter interface {
	Add(shortCode string)
	AddBatch(shortCodes []string)
	Test(shortCode string) bool
}

// ChangePublisher emits change hints after mutations commit
type ChangePublisher interface {
	Publish(ctx context.Context, change notify.Change) error
}

// LinkService handles business logic for URL shortening and resolution
type LinkService struct {
	store    LinkStore
	cache    LinkCache
	filter   CodeFilter
	notifier ChangePublisher
	baseURL  string
	linkCost int64
}

// NewLinkService creates a new link service instance. linkCost is the
// credit price charged per shortened link for authenticated users.
func NewLinkService(store LinkStore, cache LinkCache, filter CodeFilter, notifier ChangePublisher, baseURL string, linkCost int64) *LinkService {
	return &LinkService{
		store:    store,
		cache:    cache,
		filter:   filter,
		notifier: notifier,
		baseURL:  baseURL,
		linkCost: linkCost,
	}
}

// CreateLinkParams carries a shorten request into the service
type CreateLinkParams struct {
	OriginalURL string
	CustomCode  string
	ExpiresAt   *time.Time
	WantQR      bool
	UserID      *int64
}

// CreateLink validates the URL and code, inserts the link (debiting
// credits for owned links) and updates cache, filter and notifier.
func (s *LinkService) CreateLink(ctx context.Context, p CreateLinkParams) (*model.Link, error) {
	if err := validateURL(p.OriginalURL); err != nil {
		return nil, err
	}

	link := &model.Link{
		OriginalURL: p.OriginalURL,
		ExpiresAt:   p.ExpiresAt,
	}

	if p.CustomCode != "" {
		code := utils.NormalizeCustomCode(p.CustomCode)
		if err := utils.ValidateCustomCode(code); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCustomCode, err.Error())
		}
		// Advisory pre-check; the unique index is the real guard.
		taken, err := s.store.ExistsShortCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrCodeTaken
		}
		link.ShortCode = code
		link.CustomCode = true
		if err := s.insert(ctx, link, p.UserID); err != nil {
			if errors.Is(err, repository.ErrDuplicateShortCode) {
				return nil, ErrCodeTaken
			}
			return nil, err
		}
	} else {
		if err := s.insertGenerated(ctx, link, p.UserID); err != nil {
			return nil, err
		}
	}

	s.filter.Add(link.ShortCode)
	if err := s.cache.SetWithTTL(ctx, link.ShortCode, link.OriginalURL, cacheTTL(link)); err != nil {
		log.Printf("link: failed to cache %s: %v", link.ShortCode, err)
	}
	if err := s.notifier.Publish(ctx, notify.Change{Table: "links", Action: "insert", Key: link.ShortCode}); err != nil {
		log.Printf("link: failed to publish change: %v", err)
	}

	if p.WantQR {
		s.attachQRCode(ctx, link)
	}

	return link, nil
}

// insertGenerated draws random codes until the insert succeeds, up to
// maxGenerateRetries duplicate-key collisions.
func (s *LinkService) insertGenerated(ctx context.Context, link *model.Link, userID *int64) error {
	for attempt := 0; attempt < maxGenerateRetries; attempt++ {
		code, err := utils.GenerateShortCode()
		if err != nil {
			return err
		}
		link.ShortCode = code
		err = s.insert(ctx, link, userID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateShortCode) {
			return err
		}
		// Snowflake IDs are per-insert; reset before the retry so the
		// store assigns a fresh one.
		link.ID = 0
	}
	return fmt.Errorf("failed to find a free short code after %d attempts", maxGenerateRetries)
}

func (s *LinkService) insert(ctx context.Context, link *model.Link, userID *int64) error {
	if link.ID == 0 {
		id, err := utils.GenerateID()
		if err != nil {
			return err
		}
		link.ID = id
	}
	if userID != nil {
		return s.store.CreateCharged(ctx, link, *userID, s.linkCost)
	}
	return s.store.Create(ctx, link)
}

// attachQRCode renders and persists the QR image. Best-effort: a
// renderer failure leaves the link usable without a QR code.
func (s *LinkService) attachQRCode(ctx context.Context, link *model.Link) {
	dataURI, err := qr.DataURI(s.ShortURL(link.ShortCode), qr.DefaultSize)
	if err != nil {
		log.Printf("link: failed to render qr for %s: %v", link.ShortCode, err)
		return
	}
	if err := s.store.SaveQRCode(ctx, link.ID, dataURI); err != nil {
		log.Printf("link: failed to save qr for %s: %v", link.ShortCode, err)
		return
	}
	link.QRCode = dataURI
}

// Resolve returns the destination URL for a short code using the
// bloom filter -> Redis -> MySQL cascade. Expired links resolve as
// not found.
func (s *LinkService) Resolve(ctx context.Context, shortCode string) (string, error) {
	if !s.filter.Test(shortCode) {
		return "", ErrLinkNotFound
	}

	cached, err := s.cache.Get(ctx, shortCode)
	if err != nil {
		log.Printf("link: cache read for %s failed: %v", shortCode, err)
	}
	if cached != "" {
		return cached, nil
	}

	link, err := s.store.GetByShortCode(ctx, shortCode)
	if err != nil {
		return "", err
	}
	if link == nil || link.IsExpired() {
		return "", ErrLinkNotFound
	}

	if err := s.cache.SetWithTTL(ctx, shortCode, link.OriginalURL, cacheTTL(link)); err != nil {
		log.Printf("link: failed to cache %s: %v", shortCode, err)
	}

	return link.OriginalURL, nil
}

// VisitMeta is the best-effort request metadata captured per click
type VisitMeta struct {
	IP        string
	UserAgent string
	Referer   string
	Country   string
	City      string
}

// RecordVisit increments the click counter and appends a click event.
// Callers run it off the redirect path; click counts are best-effort.
func (s *LinkService) RecordVisit(ctx context.Context, shortCode string, meta VisitMeta) error {
	link, err := s.store.GetByShortCode(ctx, shortCode)
	if err != nil {
		return err
	}
	if link == nil {
		return nil
	}

	if err := s.store.IncrementClicks(ctx, shortCode); err != nil {
		return err
	}

	id, err := utils.GenerateID()
	if err != nil {
		return err
	}
	event := &model.ClickEvent{
		ID:         id,
		LinkID:     link.ID,
		DeviceType: utils.ClassifyDevice(meta.UserAgent),
		Country:    meta.Country,
		City:       meta.City,
		Referer:    utils.Truncate(meta.Referer, 512),
		UserAgent:  utils.Truncate(meta.UserAgent, 512),
		IP:         meta.IP,
	}
	if err := s.store.CreateClickEvent(ctx, event); err != nil {
		return err
	}

	if err := s.notifier.Publish(ctx, notify.Change{Table: "links", Action: "update", Key: shortCode}); err != nil {
		log.Printf("link: failed to publish change: %v", err)
	}
	return nil
}

// GetInfo returns the stored link for a short code; expired links are
// reported as not found, same as Resolve.
func (s *LinkService) GetInfo(ctx context.Context, shortCode string) (*model.Link, error) {
	link, err := s.store.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if link == nil || link.IsExpired() {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

// AnalyticsReport aggregates recent click events for one link
type AnalyticsReport struct {
	Link      *model.Link        `json:"link"`
	Events    []model.ClickEvent `json:"events"`
	Devices   map[string]int64   `json:"devices"`
	Countries map[string]int64   `json:"countries"`
}

// Analytics returns the most recent click events (up to limit) with
// device and country breakdowns.
func (s *LinkService) Analytics(ctx context.Context, shortCode string, limit int) (*AnalyticsReport, error) {
	link, err := s.GetInfo(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	events, err := s.store.ListClickEvents(ctx, link.ID, limit)
	if err != nil {
		return nil, err
	}

	report := &AnalyticsReport{
		Link:      link,
		Events:    events,
		Devices:   make(map[string]int64),
		Countries: make(map[string]int64),
	}
	for _, e := range events {
		device := e.DeviceType
		if device == "" {
			device = "unknown"
		}
		country := e.Country
		if country == "" {
			country = "unknown"
		}
		report.Devices[device]++
		report.Countries[country]++
	}
	return report, nil
}

// List returns the newest links: the caller's own when userID is set,
// otherwise the latest anonymous ones.
func (s *LinkService) List(ctx context.Context, userID *int64, limit int) ([]model.Link, error) {
	if userID != nil {
		return s.store.ListByUser(ctx, *userID, limit)
	}
	return s.store.ListRecent(ctx, limit)
}

// Delete removes an owned link, its analytics, and its cache entry
func (s *LinkService) Delete(ctx context.Context, shortCode string, ownerID int64) error {
	deleted, err := s.store.Delete(ctx, shortCode, ownerID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLinkNotFound
	}
	if err := s.cache.Delete(ctx, shortCode); err != nil {
		log.Printf("link: failed to evict %s from cache: %v", shortCode, err)
	}
	if err := s.notifier.Publish(ctx, notify.Change{Table: "links", Action: "delete", Key: shortCode}); err != nil {
		log.Printf("link: failed to publish change: %v", err)
	}
	return nil
}

// SweepExpired deletes links past their expiry. Run periodically; the
// read path already treats expired links as not found, so the sweep
// only reclaims storage.
func (s *LinkService) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		if err := s.notifier.Publish(ctx, notify.Change{Table: "links", Action: "delete"}); err != nil {
			log.Printf("link: failed to publish change: %v", err)
		}
	}
	return removed, nil
}

// WarmFilter loads all existing short codes into the bloom filter
func (s *LinkService) WarmFilter(ctx context.Context) error {
	shortCodes, err := s.store.GetAllShortCodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm code filter: %w", err)
	}
	s.filter.AddBatch(shortCodes)
	log.Printf("link: warmed code filter with %d short codes", len(shortCodes))
	return nil
}

// ShortURL builds the public short URL for a code
func (s *LinkService) ShortURL(shortCode string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, shortCode)
}

// cacheTTL caps the cache TTL at the link's remaining lifetime so an
// expired link can never be served from cache.
func cacheTTL(link *model.Link) time.Duration {
	ttl := cache.DefaultTTL
	if link.ExpiresAt != nil {
		if remaining := time.Until(*link.ExpiresAt); remaining < ttl {
			ttl = remaining
		}
	}
	return ttl
}

// validateURL checks the submitted long URL
func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: URL cannot be empty", ErrInvalidURL)
	}
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidURL, err.Error())
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: URL must use http or https scheme", ErrInvalidURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: URL must have a valid host", ErrInvalidURL)
	}
	return nil
}
