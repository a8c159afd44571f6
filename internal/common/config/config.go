package config

type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Session    SessionConfig           `mapstructure:"session"`
	Prediction PredictionConfig        `mapstructure:"prediction"`
	Catalog    CatalogConfig           `mapstructure:"catalog"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Metrics    MetricsConfig           `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig controls where the submitted feature vector lives.
// Store is "redis" or "memory".
type SessionConfig struct {
	Store     string `mapstructure:"store"`
	TTL       int    `mapstructure:"ttl"` // milliseconds
	KeyPrefix string `mapstructure:"key_prefix"`
}

type PredictionConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        int           `mapstructure:"timeout"` // milliseconds
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	PerItemTimeout int           `mapstructure:"per_item_timeout"` // milliseconds
	GetRetries     int           `mapstructure:"get_retries"`
	Breaker        BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxRequests         uint32 `mapstructure:"max_requests"`
	Interval            int    `mapstructure:"interval"` // milliseconds
	Timeout             int    `mapstructure:"timeout"`  // milliseconds
	ConsecutiveFailures uint32 `mapstructure:"consecutive_failures"`
}

type CatalogConfig struct {
	Sources []string      `mapstructure:"sources"`
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Service ServiceConfig `mapstructure:"service"`
}

type TMDBConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	Language     string  `mapstructure:"language"`
	ImageBaseURL string  `mapstructure:"image_base_url"`
	Timeout      int     `mapstructure:"timeout"` // milliseconds
	RateLimit    float64 `mapstructure:"rate_limit"`
	Burst        int     `mapstructure:"burst"`
	MaxResults   int     `mapstructure:"max_results"`
}

// ServiceConfig holds the query defaults for the prediction service's
// own /movies listing.
type ServiceConfig struct {
	Limit     int     `mapstructure:"limit"`
	MinRating float64 `mapstructure:"min_rating"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
