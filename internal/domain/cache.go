package domain

import "time"

// CacheEntry stores a resolved command sequence addressed by fingerprint.
type CacheEntry struct {
	Key            string    `json:"key"`
	Commands       []string  `json:"commands"`
	Description    string    `json:"description"`
	Source         string    `json:"source"`
	InsertedAt     time.Time `json:"inserted_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// CacheSettings configures the response cache.
type CacheSettings struct {
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}
