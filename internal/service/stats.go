package service

import (
	"encoding/json"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
)

const (
	statsKey = "basediff:stats"
	statsTTL = 30 // seconds
)

// StatsCache memoizes the per-classification commit counts between
// scans. Counts only change on a rescan, so stale reads within the TTL
// are harmless.
type StatsCache struct {
	mc *memcache.Client
}

func NewStatsCache(mc *memcache.Client) *StatsCache {
	return &StatsCache{mc: mc}
}

func (c *StatsCache) Get() (map[string]int64, bool) {
	if c.mc == nil {
		return nil, false
	}
	item, err := c.mc.Get(statsKey)
	if err != nil {
		return nil, false
	}
	var counts map[string]int64
	if err := json.Unmarshal(item.Value, &counts); err != nil {
		return nil, false
	}
	return counts, true
}

func (c *StatsCache) Set(counts map[string]int64) {
	if c.mc == nil {
		return
	}
	value, err := json.Marshal(counts)
	if err != nil {
		return
	}
	err = c.mc.Set(&memcache.Item{Key: statsKey, Value: value, Expiration: statsTTL})
	if err != nil {
		slog.Warn("failed to cache stats",
			slog.String("error", err.Error()),
			slog.String("module", "stats"),
		)
	}
}

func (c *StatsCache) Invalidate() {
	if c.mc == nil {
		return
	}
	_ = c.mc.Delete(statsKey)
}
