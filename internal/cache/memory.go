package cache

import (
    "context"
    "strings"
    "sync"
    "time"
)

type memoryEntry struct {
    value   []byte
    expires time.Time
}

// Memory is a process-local Cache backed by a map with per-entry
// expiry.  It is the fallback used when no Redis client could be
// established at startup.  Stale entries are dropped lazily on read.
type Memory struct {
    mu      sync.RWMutex
    entries map[string]memoryEntry
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
    return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
    m.mu.RLock()
    e, ok := m.entries[key]
    m.mu.RUnlock()
    if !ok {
        return nil, false
    }
    if time.Now().After(e.expires) {
        m.mu.Lock()
        delete(m.entries, key)
        m.mu.Unlock()
        return nil, false
    }
    return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
    if ttl <= 0 {
        return
    }
    m.mu.Lock()
    m.entries[key] = memoryEntry{value: value, expires: time.Now().Add(ttl)}
    m.mu.Unlock()
}

func (m *Memory) InvalidatePrefix(_ context.Context, prefix string) {
    m.mu.Lock()
    for k := range m.entries {
        if strings.HasPrefix(k, prefix) {
            delete(m.entries, k)
        }
    }
    m.mu.Unlock()
}
