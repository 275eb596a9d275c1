package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Entry is the persisted cache record for one fetched page body. Entries are
// written wholesale and never mutated in place.
type Entry struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	CapturedAt time.Time `json:"captured_at"`
	Content    string    `json:"content"`
}

// Store is a durable backend for cache entries. Get returns (nil, nil) for
// missing or unreadable entries; backend corruption is never surfaced as an
// error to callers.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, entry *Entry) error
}

// Key derives the stable cache key for a request URL.
func Key(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// memEntry is the in-memory tier's value. It keeps the original capture
// timestamp so a promotion from the durable store cannot extend an entry's
// life beyond the TTL.
type memEntry struct {
	content    string
	capturedAt time.Time
}

// Service is the content cache shared by all fetch strategies. A small
// expirable in-memory tier sits in front of the durable store. Safe for
// concurrent use from independent platform pipelines.
type Service struct {
	store  Store
	mem    *expirable.LRU[string, memEntry]
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New builds a cache service over the given store. TTL expiry is best-effort
// wall clock: entry age is measured against the stored capture timestamp.
func New(store Store, ttl time.Duration, memEntries int) *Service {
	return &Service{
		store:  store,
		mem:    expirable.NewLRU[string, memEntry](memEntries, nil, ttl),
		ttl:    ttl,
		logger: slog.Default().With("component", "cache"),
		now:    time.Now,
	}
}

// Get returns the cached body for a URL, or ok=false when no entry exists,
// the entry is malformed, or its age exceeds the TTL.
func (s *Service) Get(ctx context.Context, url string) (string, bool) {
	key := Key(url)

	if cached, ok := s.mem.Get(key); ok {
		if s.expired(cached.capturedAt) {
			s.mem.Remove(key)
		} else {
			s.logger.Debug("cache hit (memory)", "url", url)
			return cached.content, true
		}
	}

	entry, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache store read failed, treating as miss", "url", url, "error", err)
		return "", false
	}
	if entry == nil {
		s.logger.Debug("cache miss", "url", url)
		return "", false
	}

	if entry.CapturedAt.IsZero() || entry.Content == "" {
		s.logger.Warn("malformed cache entry, treating as miss", "key", key)
		return "", false
	}

	if s.expired(entry.CapturedAt) {
		s.logger.Debug("cache entry expired", "url", url, "captured_at", entry.CapturedAt)
		return "", false
	}

	s.mem.Add(key, memEntry{content: entry.Content, capturedAt: entry.CapturedAt})
	s.logger.Debug("cache hit", "url", url)
	return entry.Content, true
}

func (s *Service) expired(capturedAt time.Time) bool {
	return s.now().UTC().Sub(capturedAt) >= s.ttl
}

// Set stores a page body for a URL, replacing any prior entry wholesale.
// Store failures are logged and swallowed: a broken cache degrades to a
// pass-through, it never fails a fetch.
func (s *Service) Set(ctx context.Context, url, content string) {
	key := Key(url)

	entry := &Entry{
		Key:        key,
		URL:        url,
		CapturedAt: s.now().UTC(),
		Content:    content,
	}

	if err := s.store.Set(ctx, entry); err != nil {
		s.logger.Warn("cache store write failed", "url", url, "error", err)
		return
	}

	s.mem.Add(key, memEntry{content: content, capturedAt: entry.CapturedAt})
}
