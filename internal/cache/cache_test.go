package cache

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestMemoryGetSetExpiry(t *testing.T) {
    c := NewMemory()
    ctx := context.Background()

    _, ok := c.Get(ctx, "missing")
    assert.False(t, ok)

    c.Set(ctx, "events:music", []byte(`[]`), 50*time.Millisecond)
    got, ok := c.Get(ctx, "events:music")
    require.True(t, ok)
    assert.Equal(t, []byte(`[]`), got)

    time.Sleep(80 * time.Millisecond)
    _, ok = c.Get(ctx, "events:music")
    assert.False(t, ok)

    // Zero TTL stores nothing.
    c.Set(ctx, "events:zero", []byte(`x`), 0)
    _, ok = c.Get(ctx, "events:zero")
    assert.False(t, ok)
}

func TestMemoryInvalidatePrefix(t *testing.T) {
    c := NewMemory()
    ctx := context.Background()

    c.Set(ctx, ListingKey("music", "", "", "", ""), []byte(`a`), time.Minute)
    c.Set(ctx, ListingKey("theatre", "", "", "", ""), []byte(`b`), time.Minute)
    c.Set(ctx, DetailKey("ev1"), []byte(`c`), time.Minute)

    c.InvalidatePrefix(ctx, ListingPrefix)

    _, ok := c.Get(ctx, ListingKey("music", "", "", "", ""))
    assert.False(t, ok)
    _, ok = c.Get(ctx, ListingKey("theatre", "", "", "", ""))
    assert.False(t, ok)

    // Detail entries live under their own prefix and survive.
    got, ok := c.Get(ctx, DetailKey("ev1"))
    require.True(t, ok)
    assert.Equal(t, []byte(`c`), got)
}

func TestListingKeyDistinguishesFilters(t *testing.T) {
    a := ListingKey("music", "v1", "", "", "")
    b := ListingKey("music", "v2", "", "", "")
    assert.NotEqual(t, a, b)
    assert.Equal(t, a, ListingKey("music", "v1", "", "", ""))
}

func TestFingerprint(t *testing.T) {
    a := Fingerprint("ev1", "Spring Concert", "music")
    b := Fingerprint("ev1", "Spring Concert", "music")
    c := Fingerprint("ev1", "Spring Concert", "theatre")

    assert.Equal(t, a, b)
    assert.NotEqual(t, a, c)
    // Entity tags are quoted for direct use in ETag headers.
    assert.True(t, len(a) > 2 && a[0] == '"' && a[len(a)-1] == '"')
}

func TestNewFallsBackToMemory(t *testing.T) {
    c := New(nil, "tix")
    _, ok := c.(*Memory)
    assert.True(t, ok)
}
