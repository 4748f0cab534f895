// Package config предоставляет загрузку конфигурации приложения.
// Значения берутся по порядку приоритета: переменные окружения, YAML файл, значения по умолчанию.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/akozadaev/study_spots_recommender/internal/scoring"
	"github.com/akozadaev/study_spots_recommender/internal/storage"
)

// Поддерживаемые хранилища.
const (
	BackendPostgres      = storage.BackendPostgres
	BackendElasticsearch = storage.BackendElasticsearch
	BackendMemory        = storage.BackendMemory
)

// ConfigPathEnvVar задает путь к YAML файлу конфигурации.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths содержит пути, в которых ищется файл конфигурации.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// Config содержит все параметры конфигурации приложения.
// Имя переменной окружения совпадает с ключом koanf в верхнем регистре.
type Config struct {
	AppPort      string `koanf:"app_port"`      // Порт для HTTP сервера
	StoreBackend string `koanf:"store_backend"` // postgres, elasticsearch или memory

	ElasticsearchURL         string `koanf:"elasticsearch_url"`          // URL для подключения к Elasticsearch/OpenSearch
	ElasticsearchSpotsIndex  string `koanf:"elasticsearch_spots_index"`  // Индекс учебных мест
	ElasticsearchStatusIndex string `koanf:"elasticsearch_status_index"` // Индекс наблюдений о статусе

	PostgresHost     string `koanf:"postgres_host"`
	PostgresPort     string `koanf:"postgres_port"`
	PostgresUser     string `koanf:"postgres_user"`
	PostgresPassword string `koanf:"postgres_password"`
	PostgresDB       string `koanf:"postgres_db"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	StoreTimeout            time.Duration `koanf:"store_timeout"` // Дедлайн на обращения к хранилищу в рамках запроса
	BreakerEnabled          bool          `koanf:"breaker_enabled"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerOpenTimeout      time.Duration `koanf:"breaker_open_timeout"`

	StatusRatePerMinute float64 `koanf:"status_rate_per_minute"` // Отправок наблюдений в минуту с одного IP; 0 отключает ограничение
	StatusRateBurst     int     `koanf:"status_rate_burst"`

	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	WeightAvailability  float64       `koanf:"weight_availability"`
	WeightDistance      float64       `koanf:"weight_distance"`
	WeightNoise         float64       `koanf:"weight_noise"`
	StaleAfter          time.Duration `koanf:"stale_after"`
	ComfortRadiusMeters float64       `koanf:"comfort_radius_meters"`
	CloseRangeMeters    float64       `koanf:"close_range_meters"`
	PlentyAvailability  float64       `koanf:"plenty_availability"`

	SwaggerHost string `koanf:"swagger_host"`
}

func defaultConfig() *Config {
	sc := scoring.DefaultConfig()
	return &Config{
		AppPort:                  "8080",
		StoreBackend:             BackendPostgres,
		ElasticsearchURL:         "http://localhost:9200",
		ElasticsearchSpotsIndex:  "study_spots",
		ElasticsearchStatusIndex: "spot_status",
		PostgresHost:             "localhost",
		PostgresPort:             "5432",
		PostgresUser:             "studyspots_user",
		PostgresPassword:         "studyspots_pass",
		PostgresDB:               "studyspots_db",
		LogLevel:                 "info",
		LogFormat:                "json",
		StoreTimeout:             5 * time.Second,
		BreakerEnabled:           true,
		BreakerFailureThreshold:  5,
		BreakerOpenTimeout:       30 * time.Second,
		StatusRatePerMinute:      30,
		StatusRateBurst:          5,
		DefaultLimit:             5,
		MaxLimit:                 50,
		WeightAvailability:       sc.Weights.Availability,
		WeightDistance:           sc.Weights.Distance,
		WeightNoise:              sc.Weights.Noise,
		StaleAfter:               sc.StaleAfter,
		ComfortRadiusMeters:      sc.ComfortRadiusMeters,
		CloseRangeMeters:         sc.CloseRangeMeters,
		PlentyAvailability:       sc.PlentyAvailability,
		SwaggerHost:              "localhost:8080",
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем необязательный YAML файл,
// затем переменные окружения.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// APP_PORT -> app_port, STALE_AFTER -> stale_after.
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate проверяет согласованность параметров.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendElasticsearch, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default limit must be at least 1, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max limit %d is below default limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.StoreTimeout < 0 {
		return fmt.Errorf("store timeout must not be negative, got %s", c.StoreTimeout)
	}
	if c.StatusRatePerMinute < 0 || c.StatusRateBurst < 0 {
		return fmt.Errorf("status rate limit must not be negative")
	}
	if c.BreakerEnabled && c.BreakerFailureThreshold == 0 {
		return fmt.Errorf("breaker failure threshold must be positive")
	}
	return c.Scoring().Validate()
}

// Scoring возвращает параметры движка оценки.
func (c *Config) Scoring() scoring.Config {
	return scoring.Config{
		Weights: scoring.Weights{
			Availability: c.WeightAvailability,
			Distance:     c.WeightDistance,
			Noise:        c.WeightNoise,
		},
		StaleAfter:          c.StaleAfter,
		ComfortRadiusMeters: c.ComfortRadiusMeters,
		CloseRangeMeters:    c.CloseRangeMeters,
		PlentyAvailability:  c.PlentyAvailability,
	}
}

// StoreOptions возвращает параметры подключения к хранилищу.
func (c *Config) StoreOptions() storage.OpenOptions {
	return storage.OpenOptions{
		Backend:          c.StoreBackend,
		PostgresDSN:      c.PostgresDSN(),
		ElasticsearchURL: c.ElasticsearchURL,
		SpotsIndex:       c.ElasticsearchSpotsIndex,
		StatusIndex:      c.ElasticsearchStatusIndex,
	}
}

// PostgresDSN строит строку подключения для lib/pq.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresDB,
	)
}
