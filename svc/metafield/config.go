package metafield

import "time"

// Config holds engine limits and cascade settings.
type Config struct {
	MaxDefinitions        int64         `env:"METAFIELD_MAX_DEFINITIONS" envDefault:"250"`
	MaxChoices            int           `env:"METAFIELD_MAX_CHOICES" envDefault:"128"`
	MaxPrecision          int           `env:"METAFIELD_MAX_PRECISION" envDefault:"9"`
	MaxValueBytes         int           `env:"METAFIELD_MAX_VALUE_BYTES" envDefault:"65536"`
	RegexCacheSize        int           `env:"METAFIELD_REGEX_CACHE_SIZE" envDefault:"256"`
	OwnerCheckConcurrency int           `env:"METAFIELD_OWNER_CHECK_CONCURRENCY" envDefault:"8"`
	LockTTL               time.Duration `env:"METAFIELD_LOCK_TTL" envDefault:"10s"`
	CascadeQueue          string        `env:"METAFIELD_CASCADE_QUEUE" envDefault:"metafields"`
	CascadeMaxRetries     int8          `env:"METAFIELD_CASCADE_MAX_RETRIES" envDefault:"5"`
}

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{
		MaxDefinitions:        250,
		MaxChoices:            128,
		MaxPrecision:          9,
		MaxValueBytes:         65536,
		RegexCacheSize:        256,
		OwnerCheckConcurrency: 8,
		LockTTL:               10 * time.Second,
		CascadeQueue:          "metafields",
		CascadeMaxRetries:     5,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxDefinitions == 0 {
		c.MaxDefinitions = d.MaxDefinitions
	}
	if c.MaxChoices <= 0 {
		c.MaxChoices = d.MaxChoices
	}
	if c.MaxPrecision <= 0 {
		c.MaxPrecision = d.MaxPrecision
	}
	if c.MaxValueBytes <= 0 {
		c.MaxValueBytes = d.MaxValueBytes
	}
	if c.RegexCacheSize <= 0 {
		c.RegexCacheSize = d.RegexCacheSize
	}
	if c.OwnerCheckConcurrency <= 0 {
		c.OwnerCheckConcurrency = d.OwnerCheckConcurrency
	}
	if c.LockTTL <= 0 {
		c.LockTTL = d.LockTTL
	}
	if c.CascadeQueue == "" {
		c.CascadeQueue = d.CascadeQueue
	}
	if c.CascadeMaxRetries <= 0 {
		c.CascadeMaxRetries = d.CascadeMaxRetries
	}
	return c
}
