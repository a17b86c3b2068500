package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SYSLOGFC_"

// Config holds all application configuration. Command line flags override it.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	EntrySpec             string `env:"ENTRY_SPEC" envDefault:"%T %F.%P %G: %_M"`
	TimestampParseFormat  string `env:"TS_PARSE_SPEC" envDefault:"%a %b %d %H:%M:%S %Y"`
	TimestampOutputFormat string `env:"TS_OUTPUT_SPEC" envDefault:""` // epoch seconds
	TimeZone              string `env:"TZ_NAME" envDefault:"Local"`
	OutputFormat          string `env:"FORMAT" envDefault:"plain"`
	CSVDelimiter          string `env:"CSV_DELIMITER" envDefault:","`
	HTMLClassPrefix       string `env:"HTML_CLASS_PREFIX" envDefault:"syslog-"`
	HTMLCellClasses       bool   `env:"HTML_CELL_CLASSES" envDefault:"false"`
	MaxLineSize           int    `env:"MAX_LINE_SIZE_BYTES" envDefault:"1048576"` // 1MB
	RedactFields          string `env:"REDACT_FIELDS" envDefault:""`

	RedisAddr        string  `env:"REDIS_ADDR"`
	RedisStream      string  `env:"REDIS_STREAM" envDefault:"syslog_events"`
	RedisMaxLen      int64   `env:"REDIS_STREAM_MAXLEN" envDefault:"0"`
	PostgresURL      string  `env:"POSTGRES_URL"`
	PostgresTable    string  `env:"POSTGRES_TABLE" envDefault:"syslog_events"`
	SinkBatchSize    int     `env:"SINK_BATCH_SIZE" envDefault:"500"`
	SinkRateLimit    float64 `env:"SINK_RATE_LIMIT" envDefault:"0"` // events per second, 0 disables
	SinkMaxRetries   int     `env:"SINK_MAX_RETRIES" envDefault:"3"`
	SpoolDir         string  `env:"SPOOL_DIR" envDefault:".syslogfc-spool"`
	SpoolSegmentSize int64   `env:"SPOOL_SEGMENT_SIZE_BYTES" envDefault:"16777216"`  // 16MB
	SpoolMaxDiskSize int64   `env:"SPOOL_MAX_DISK_SIZE_BYTES" envDefault:"268435456"` // 256MB

	MetricsAddr string `env:"METRICS_ADDR"`
}

// Load reads configuration from a .env file, if present, and the environment.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that the environment parser cannot.
func (c *Config) Validate() error {
	if c.CSVDelimiter == "" {
		return fmt.Errorf("invalid configuration: CSV delimiter must not be empty")
	}
	if c.MaxLineSize <= 0 {
		return fmt.Errorf("invalid configuration: max line size must be positive, got %d", c.MaxLineSize)
	}
	if c.SinkBatchSize <= 0 {
		return fmt.Errorf("invalid configuration: sink batch size must be positive, got %d", c.SinkBatchSize)
	}
	if c.SinkRateLimit < 0 {
		return fmt.Errorf("invalid configuration: sink rate limit must not be negative, got %g", c.SinkRateLimit)
	}
	return nil
}

// RedactFieldList splits RedactFields on commas, dropping blanks.
func (c *Config) RedactFieldList() []string {
	var out []string
	for _, f := range strings.Split(c.RedactFields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ShipsEvents reports whether any sink is configured.
func (c *Config) ShipsEvents() bool {
	return c.RedisAddr != "" || c.PostgresURL != ""
}
