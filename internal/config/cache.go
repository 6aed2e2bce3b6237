package config

import "time"

// CacheConfig controls the browse-cache TTLs.  Both TTLs are short on
// purpose: availability counters change constantly during on-sales and
// the cache is only there to absorb read bursts, with writes
// invalidating eagerly on top.
type CacheConfig struct {
    Enabled   bool
    ListTTL   time.Duration
    DetailTTL time.Duration
    Prefix    string
}

// LoadCacheConfig reads cache settings from the environment.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:   envBool("CACHE_ENABLED", true),
        ListTTL:   envDur("CACHE_LIST_TTL", 30*time.Second),
        DetailTTL: envDur("CACHE_DETAIL_TTL", 10*time.Second),
        Prefix:    envStr("CACHE_PREFIX", "tix"),
    }
}
