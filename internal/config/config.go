package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfiguration is wrapped by every configuration validation
// failure. Validation runs before any computation so a bad threshold can
// never skew a finished run.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config represents the complete application configuration
type Config struct {
	Corpus   CorpusConfig   `mapstructure:"corpus"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Trend    TrendConfig    `mapstructure:"trend"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CorpusConfig holds text normalization and term-weighting configuration
type CorpusConfig struct {
	MinTokenLength int      `mapstructure:"min_token_length"`
	StopWords      []string `mapstructure:"stop_words"`
	LogDampenTF    bool     `mapstructure:"log_dampen_tf"`
}

// AnalysisConfig holds pairwise similarity and clustering configuration
type AnalysisConfig struct {
	SemanticWeight   float64       `mapstructure:"semantic_weight"`
	SyntacticWeight  float64       `mapstructure:"syntactic_weight"`
	MaxTimeGap       time.Duration `mapstructure:"max_time_gap"`
	MinEdgeScore     float64       `mapstructure:"min_edge_score"`
	ClusterThreshold float64       `mapstructure:"cluster_threshold"`
	Workers          int           `mapstructure:"workers"`
}

// TrendConfig holds trend aggregation configuration
type TrendConfig struct {
	BucketWidth time.Duration `mapstructure:"bucket_width"`
	HalfLife    time.Duration `mapstructure:"half_life"`
	Epsilon     float64       `mapstructure:"epsilon"`
}

// StorageConfig holds run persistence configuration
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// TelegramConfig holds Telegram digest delivery configuration
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("NEWSTREND")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration populated with defaults only, without
// reading any file. Useful for library callers and tests.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Unmarshal of pure defaults cannot fail
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// defaultStopWords is the built-in English stop-word set applied when the
// config file does not override corpus.stop_words.
var defaultStopWords = []string{
	"a", "about", "after", "all", "also", "an", "and", "are", "as", "at",
	"be", "been", "but", "by", "can", "could", "for", "from", "had", "has",
	"have", "he", "her", "his", "if", "in", "into", "is", "it", "its",
	"more", "new", "no", "not", "of", "on", "one", "or", "our", "out",
	"over", "said", "she", "so", "than", "that", "the", "their", "there",
	"they", "this", "to", "up", "was", "we", "were", "which", "who", "will",
	"with", "would", "you",
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Corpus defaults
	v.SetDefault("corpus.min_token_length", 2)
	v.SetDefault("corpus.stop_words", defaultStopWords)
	v.SetDefault("corpus.log_dampen_tf", true)

	// Analysis defaults
	v.SetDefault("analysis.semantic_weight", 0.6)
	v.SetDefault("analysis.syntactic_weight", 0.4)
	v.SetDefault("analysis.max_time_gap", "336h") // 14 days
	v.SetDefault("analysis.min_edge_score", 0.15)
	v.SetDefault("analysis.cluster_threshold", 0.55)
	v.SetDefault("analysis.workers", 4)

	// Trend defaults
	v.SetDefault("trend.bucket_width", "24h")
	v.SetDefault("trend.half_life", "72h")
	v.SetDefault("trend.epsilon", 1e-6)

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.db_path", "./data/newstrend.db")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid. Every failure
// wraps ErrInvalidConfiguration.
func (c *Config) Validate() error {
	// Corpus
	if c.Corpus.MinTokenLength < 1 {
		return fmt.Errorf("%w: corpus.min_token_length must be at least 1", ErrInvalidConfiguration)
	}

	// Analysis
	if c.Analysis.SemanticWeight < 0.0 || c.Analysis.SemanticWeight > 1.0 {
		return fmt.Errorf("%w: analysis.semantic_weight must be between 0.0 and 1.0", ErrInvalidConfiguration)
	}
	if c.Analysis.SyntacticWeight < 0.0 || c.Analysis.SyntacticWeight > 1.0 {
		return fmt.Errorf("%w: analysis.syntactic_weight must be between 0.0 and 1.0", ErrInvalidConfiguration)
	}
	if c.Analysis.SemanticWeight+c.Analysis.SyntacticWeight <= 0.0 {
		return fmt.Errorf("%w: similarity weights must not both be zero", ErrInvalidConfiguration)
	}
	if c.Analysis.MaxTimeGap <= 0 {
		return fmt.Errorf("%w: analysis.max_time_gap must be positive", ErrInvalidConfiguration)
	}
	if c.Analysis.MinEdgeScore < 0.0 || c.Analysis.MinEdgeScore > 1.0 {
		return fmt.Errorf("%w: analysis.min_edge_score must be between 0.0 and 1.0", ErrInvalidConfiguration)
	}
	if c.Analysis.ClusterThreshold < 0.0 || c.Analysis.ClusterThreshold > 1.0 {
		return fmt.Errorf("%w: analysis.cluster_threshold must be between 0.0 and 1.0", ErrInvalidConfiguration)
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("%w: analysis.workers must be at least 1", ErrInvalidConfiguration)
	}

	// Trend
	if c.Trend.BucketWidth <= 0 {
		return fmt.Errorf("%w: trend.bucket_width must be positive", ErrInvalidConfiguration)
	}
	if c.Trend.HalfLife <= 0 {
		return fmt.Errorf("%w: trend.half_life must be positive", ErrInvalidConfiguration)
	}
	if c.Trend.Epsilon < 0 {
		return fmt.Errorf("%w: trend.epsilon must not be negative", ErrInvalidConfiguration)
	}

	// Storage
	if c.Storage.Enabled && c.Storage.DBPath == "" {
		return fmt.Errorf("%w: storage.db_path is required when storage is enabled", ErrInvalidConfiguration)
	}

	// Telegram
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("%w: telegram.bot_token is required when telegram is enabled", ErrInvalidConfiguration)
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("%w: telegram.chat_id is required when telegram is enabled", ErrInvalidConfiguration)
		}
	}

	// Logging
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("%w: logging.level must be one of: debug, info, warn, error", ErrInvalidConfiguration)
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("%w: logging.format must be one of: json, text", ErrInvalidConfiguration)
	}

	return nil
}
