// Package config declares the store's environment-driven configuration,
// loaded with github.com/caarlos0/env/v11, in the same struct-tag style the
// teacher repo uses for its own AppConfig.
package config

import "time"

// StoreConfig is every configuration field spec.md §6 recognizes.
type StoreConfig struct {
	// Database is the document database name.
	Database string `env:"JOBSTORE_DATABASE" envDefault:"jobstore"`

	// ServerURLs are the document database server connection strings.
	ServerURLs []string `env:"JOBSTORE_SERVER_URLS" envSeparator:"," envDefault:"mongodb://localhost:27017"`

	// CertPath and CertPassword configure client TLS authentication to the
	// document database, when required.
	CertPath     string `env:"JOBSTORE_CERT_PATH"`
	CertPassword string `env:"JOBSTORE_CERT_PASSWORD"`

	// CollectionPrefix, when set, places every document in a collection
	// named "{prefix}/{defaultCollection}" instead of the bare default.
	CollectionPrefix string `env:"JOBSTORE_COLLECTION_PREFIX"`

	// ConcurrencyErrorRetries bounds the Retry Wrapper's replay budget. Left
	// unset (<=0), Sanitize fills it in based on Clustered: 5 standalone,
	// 100 clustered. No envDefault here on purpose — an envDefault would
	// populate the field before Sanitize ever runs and the Clustered branch
	// would never fire.
	ConcurrencyErrorRetries int `env:"JOBSTORE_CONCURRENCY_ERROR_RETRIES"`

	// SecondsToWaitForIndexing switches waiting sessions on: when it is
	// greater than zero, each waiting session binds its queries to a
	// causally-consistent driver session; at zero or below they run unbound.
	// The number of seconds is not applied as a time limit on any wait.
	SecondsToWaitForIndexing int `env:"JOBSTORE_SECONDS_TO_WAIT_FOR_INDEXING" envDefault:"15"`

	// MisfireThreshold is how far behind a trigger's next-fire time must
	// fall before the Misfire Reconciler treats it as missed.
	MisfireThreshold time.Duration `env:"JOBSTORE_MISFIRE_THRESHOLD" envDefault:"60s"`

	// Clustered selects the Block Repository variant: true requires the
	// persisted (document-backed) implementation; false allows the faster
	// in-memory one.
	Clustered bool `env:"JOBSTORE_CLUSTERED" envDefault:"false"`

	// InstanceID identifies this particular process among others sharing
	// InstanceName. Left empty, a random id is generated at bootstrap.
	InstanceID string `env:"JOBSTORE_INSTANCE_ID"`

	// InstanceName identifies the logical scheduler this store instance
	// attaches to; multiple InstanceIDs may share one InstanceName.
	InstanceName string `env:"JOBSTORE_INSTANCE_NAME" envDefault:"default"`

	// ThreadPoolSize is informational only; the store does not size any
	// pool itself.
	ThreadPoolSize int `env:"JOBSTORE_THREAD_POOL_SIZE" envDefault:"10"`

	// Redis configures the optional Paused-Group read-through cache.
	Redis RedisConfig `envPrefix:"JOBSTORE_REDIS_"`
}

// RedisConfig configures the optional Paused-Group cache (SPEC_FULL.md
// §4.3 NEW). Leaving Addr empty disables the cache entirely; every check
// then goes straight to the document database.
type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Sanitize applies guardrails to values loaded from the environment,
// mirroring the teacher's AppConfig.Sanitize.
func (c *StoreConfig) Sanitize() {
	if c.ConcurrencyErrorRetries <= 0 {
		if c.Clustered {
			c.ConcurrencyErrorRetries = 100
		} else {
			c.ConcurrencyErrorRetries = 5
		}
	}
	if c.SecondsToWaitForIndexing < 0 {
		c.SecondsToWaitForIndexing = 0
	}
	if c.MisfireThreshold <= 0 {
		c.MisfireThreshold = 60 * time.Second
	}
	if len(c.ServerURLs) == 0 {
		c.ServerURLs = []string{"mongodb://localhost:27017"}
	}
}

// CollectionName qualifies a bare collection name with CollectionPrefix
// when one is configured.
func (c *StoreConfig) CollectionName(defaultCollection string) string {
	if c.CollectionPrefix == "" {
		return defaultCollection
	}
	return c.CollectionPrefix + "/" + defaultCollection
}
