package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	return New(store, ttl, 16)
}

func TestGetAfterSet(t *testing.T) {
	svc := newTestService(t, 4*time.Hour)
	ctx := context.Background()

	svc.Set(ctx, "https://www.example.com/s?k=laptop", "<html>body</html>")

	content, ok := svc.Get(ctx, "https://www.example.com/s?k=laptop")
	assert.True(t, ok)
	assert.Equal(t, "<html>body</html>", content)
}

func TestGetUnsetKey(t *testing.T) {
	svc := newTestService(t, 4*time.Hour)

	_, ok := svc.Get(context.Background(), "https://www.example.com/never-set")
	assert.False(t, ok)
}

func TestSetOverwrites(t *testing.T) {
	svc := newTestService(t, 4*time.Hour)
	ctx := context.Background()

	svc.Set(ctx, "https://www.example.com/page", "first")
	svc.Set(ctx, "https://www.example.com/page", "second")

	content, ok := svc.Get(ctx, "https://www.example.com/page")
	assert.True(t, ok)
	assert.Equal(t, "second", content)
}

func TestTTLExpiry(t *testing.T) {
	ttl := 4 * time.Hour
	svc := newTestService(t, ttl)
	ctx := context.Background()

	captured := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return captured }
	svc.Set(ctx, "https://www.example.com/ttl", "cached body")

	// Just before expiry the entry is still served. Drop the memory tier
	// first so the durable store's timestamp check is what gets exercised.
	svc.mem.Purge()
	svc.now = func() time.Time { return captured.Add(ttl - time.Second) }
	content, ok := svc.Get(ctx, "https://www.example.com/ttl")
	assert.True(t, ok)
	assert.Equal(t, "cached body", content)

	svc.mem.Purge()
	svc.now = func() time.Time { return captured.Add(ttl + time.Second) }
	_, ok = svc.Get(ctx, "https://www.example.com/ttl")
	assert.False(t, ok)
}

func TestMemoryTierDoesNotOutliveTTL(t *testing.T) {
	ttl := 4 * time.Hour
	svc := newTestService(t, ttl)
	ctx := context.Background()

	captured := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return captured }
	svc.Set(ctx, "https://www.example.com/promote", "cached body")

	// A durable-store read near end-of-life promotes the entry into the
	// memory tier. The promotion must not grant it a second lifetime.
	svc.mem.Purge()
	svc.now = func() time.Time { return captured.Add(ttl - time.Second) }
	_, ok := svc.Get(ctx, "https://www.example.com/promote")
	require.True(t, ok)

	svc.now = func() time.Time { return captured.Add(ttl + time.Second) }
	_, ok = svc.Get(ctx, "https://www.example.com/promote")
	assert.False(t, ok)

	svc.now = func() time.Time { return captured.Add(ttl + time.Hour) }
	_, ok = svc.Get(ctx, "https://www.example.com/promote")
	assert.False(t, ok)
}

func TestFreshSetExpiresWithoutPurge(t *testing.T) {
	ttl := 4 * time.Hour
	svc := newTestService(t, ttl)
	ctx := context.Background()

	captured := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return captured }
	svc.Set(ctx, "https://www.example.com/fresh", "cached body")

	svc.now = func() time.Time { return captured.Add(ttl + time.Second) }
	_, ok := svc.Get(ctx, "https://www.example.com/fresh")
	assert.False(t, ok)
}

func TestCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	svc := New(store, 4*time.Hour, 16)
	ctx := context.Background()

	url := "https://www.example.com/corrupt"
	path := filepath.Join(dir, Key(url)+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok := svc.Get(ctx, url)
	assert.False(t, ok)
}

func TestMissingTimestampIsMiss(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	svc := New(store, 4*time.Hour, 16)
	ctx := context.Background()

	url := "https://www.example.com/no-timestamp"
	path := filepath.Join(dir, Key(url)+".json")
	require.NoError(t, os.WriteFile(path, []byte(`{"key":"x","url":"y","content":"z"}`), 0o644))

	_, ok := svc.Get(ctx, url)
	assert.False(t, ok)
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key("https://a/b"), Key("https://a/b"))
	assert.NotEqual(t, Key("https://a/b"), Key("https://a/c"))
}
