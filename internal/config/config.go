package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clientpulse/internal/workhours"
)

// Config represents the overall application configuration
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	API       APIConfig       `yaml:"api"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Redis     RedisConfig     `yaml:"redis"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Playbooks PlaybooksConfig `yaml:"playbooks"`
	Monitor   MonitorConfig   `yaml:"monitor"`
}

// StoreConfig represents Neo4j client-store configuration
type StoreConfig struct {
	URI          string        `yaml:"uri"`
	Database     string        `yaml:"database"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	MaxPoolSize  int           `yaml:"max_pool_size"`
	ConnTimeout  time.Duration `yaml:"conn_timeout"`
}

// KafkaConfig represents event bus producer configuration
type KafkaConfig struct {
	Brokers []string      `yaml:"brokers"`
	Topic   string        `yaml:"topic"`
	Timeout time.Duration `yaml:"timeout"`
}

// APIConfig represents API gateway configuration
type APIConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	EnableCORS     bool          `yaml:"enable_cors"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	AllowedMethods []string      `yaml:"allowed_methods"`
	AllowedHeaders []string      `yaml:"allowed_headers"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// AnalyticsConfig configures the business-hours window used for
// work-time accounting.
type AnalyticsConfig struct {
	WorkdayOpen  string   `yaml:"workday_open"`  // "09:00"
	WorkdayClose string   `yaml:"workday_close"` // "17:00"
	Workdays     []string `yaml:"workdays"`
}

// RedisConfig represents summary cache configuration. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// StripeConfig represents billing provider configuration. An empty
// APIKey disables contract sync.
type StripeConfig struct {
	APIKey string `yaml:"api_key"`
}

// PlaybooksConfig represents playbook suggestion configuration. An
// empty PostgresDSN disables the playbook library.
type PlaybooksConfig struct {
	PostgresDSN         string  `yaml:"postgres_dsn"`
	OpenAIAPIKey        string  `yaml:"openai_api_key"`
	EmbeddingModel      string  `yaml:"embedding_model"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxResults          int     `yaml:"max_results"`
}

// MonitorConfig represents the at-risk monitor loop configuration.
type MonitorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Load loads configuration from the file at path, or from CONFIG_PATH
// when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.MaxPoolSize == 0 {
		c.Store.MaxPoolSize = 50
	}
	if c.Store.ConnTimeout == 0 {
		c.Store.ConnTimeout = 10 * time.Second
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "clientpulse-events"
	}
	if c.Kafka.Timeout == 0 {
		c.Kafka.Timeout = 10 * time.Second
	}

	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.ReadTimeout == 0 {
		c.API.ReadTimeout = 30 * time.Second
	}
	if c.API.WriteTimeout == 0 {
		c.API.WriteTimeout = 30 * time.Second
	}
	if c.API.IdleTimeout == 0 {
		c.API.IdleTimeout = 120 * time.Second
	}
	if c.API.RequestTimeout == 0 {
		c.API.RequestTimeout = 30 * time.Second
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"*"}
	}
	if len(c.API.AllowedMethods) == 0 {
		c.API.AllowedMethods = []string{"GET", "OPTIONS"}
	}
	if len(c.API.AllowedHeaders) == 0 {
		c.API.AllowedHeaders = []string{"*"}
	}

	if c.Analytics.WorkdayOpen == "" {
		c.Analytics.WorkdayOpen = "09:00"
	}
	if c.Analytics.WorkdayClose == "" {
		c.Analytics.WorkdayClose = "17:00"
	}
	if len(c.Analytics.Workdays) == 0 {
		c.Analytics.Workdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	}

	if c.Redis.TTL == 0 {
		c.Redis.TTL = 5 * time.Minute
	}

	if c.Playbooks.EmbeddingModel == "" {
		c.Playbooks.EmbeddingModel = "text-embedding-ada-002"
	}
	if c.Playbooks.SimilarityThreshold == 0 {
		c.Playbooks.SimilarityThreshold = 0.75
	}
	if c.Playbooks.MaxResults == 0 {
		c.Playbooks.MaxResults = 5
	}

	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = 24 * time.Hour
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Window builds the business-hours window from the analytics section.
func (a AnalyticsConfig) Window() (workhours.Window, error) {
	open, err := parseClock(a.WorkdayOpen)
	if err != nil {
		return workhours.Window{}, fmt.Errorf("workday_open: %w", err)
	}
	close, err := parseClock(a.WorkdayClose)
	if err != nil {
		return workhours.Window{}, fmt.Errorf("workday_close: %w", err)
	}

	weekdays := make(map[time.Weekday]bool, len(a.Workdays))
	for _, name := range a.Workdays {
		day, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return workhours.Window{}, fmt.Errorf("unknown workday %q", name)
		}
		weekdays[day] = true
	}

	return workhours.Window{Weekdays: weekdays, Open: open, Close: close}, nil
}

func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q (expected HH:MM)", value)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
