package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// on top, then lets environment variables override any key
// (prediction.base_url -> PREDICTION_BASE_URL).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile reads a single config file without the environment merge.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// AutomaticEnv only resolves keys viper already knows about, so keys that
// are commonly absent from the YAML are bound explicitly.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"camunda.broker_address",
		"database.redis.address",
		"database.redis.password",
		"prediction.base_url",
		"catalog.tmdb.api_key",
		"catalog.tmdb.base_url",
		"session.store",
		"logging.level",
		"logging.format",
		"metrics.address",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		// unset placeholders become empty so applyDefaults can fill them
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.Catalog.TMDB.APIKey == "" {
		cfg.Catalog.TMDB.APIKey = os.Getenv("TMDB_API_KEY")
	}
	if cfg.Prediction.BaseURL == "" {
		cfg.Prediction.BaseURL = os.Getenv("PREDICTION_API_URL")
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = os.Getenv("REDIS_ADDR")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "movie-dropoff"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Session.Store == "" {
		cfg.Session.Store = "redis"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * 60 * 60 * 1000
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "session"
	}

	if cfg.Prediction.BaseURL == "" {
		cfg.Prediction.BaseURL = "http://localhost:8000"
	}
	if cfg.Prediction.Timeout == 0 {
		cfg.Prediction.Timeout = 10000
	}
	if cfg.Prediction.MaxConcurrency == 0 {
		cfg.Prediction.MaxConcurrency = 8
	}
	if cfg.Prediction.PerItemTimeout == 0 {
		cfg.Prediction.PerItemTimeout = 5000
	}
	if cfg.Prediction.GetRetries == 0 {
		cfg.Prediction.GetRetries = 1
	}
	if cfg.Prediction.Breaker.MaxRequests == 0 {
		cfg.Prediction.Breaker.MaxRequests = 1
	}
	if cfg.Prediction.Breaker.Interval == 0 {
		cfg.Prediction.Breaker.Interval = 60000
	}
	if cfg.Prediction.Breaker.Timeout == 0 {
		cfg.Prediction.Breaker.Timeout = 30000
	}
	if cfg.Prediction.Breaker.ConsecutiveFailures == 0 {
		cfg.Prediction.Breaker.ConsecutiveFailures = 5
	}

	if len(cfg.Catalog.Sources) == 0 {
		cfg.Catalog.Sources = []string{"tmdb", "service"}
	}
	if cfg.Catalog.TMDB.BaseURL == "" {
		cfg.Catalog.TMDB.BaseURL = "https://api.themoviedb.org/3"
	}
	if cfg.Catalog.TMDB.Language == "" {
		cfg.Catalog.TMDB.Language = "en-US"
	}
	if cfg.Catalog.TMDB.ImageBaseURL == "" {
		cfg.Catalog.TMDB.ImageBaseURL = "https://image.tmdb.org/t/p/w500"
	}
	if cfg.Catalog.TMDB.Timeout == 0 {
		cfg.Catalog.TMDB.Timeout = 8000
	}
	if cfg.Catalog.TMDB.RateLimit == 0 {
		cfg.Catalog.TMDB.RateLimit = 4
	}
	if cfg.Catalog.TMDB.Burst == 0 {
		cfg.Catalog.TMDB.Burst = 8
	}
	if cfg.Catalog.TMDB.MaxResults == 0 {
		cfg.Catalog.TMDB.MaxResults = 20
	}
	if cfg.Catalog.Service.Limit == 0 {
		cfg.Catalog.Service.Limit = 100
	}
	if cfg.Catalog.Service.MinRating == 0 {
		cfg.Catalog.Service.MinRating = 6.0
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Session.Store != "redis" && cfg.Session.Store != "memory" {
		return fmt.Errorf("session.store must be redis or memory, got %q", cfg.Session.Store)
	}
	if cfg.Session.Store == "redis" && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when session.store is redis")
	}
	if cfg.Prediction.MaxConcurrency < 1 {
		return fmt.Errorf("prediction.max_concurrency must be positive")
	}
	for _, src := range cfg.Catalog.Sources {
		switch src {
		case "tmdb", "service", "sample":
		default:
			return fmt.Errorf("catalog.sources: unknown source %q", src)
		}
	}
	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
