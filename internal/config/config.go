package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted by DATA_BACKEND and MIRROR_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendSheets}

type Config struct {
	// HTTP Server
	Port           string        `mapstructure:"port"`
	RateLimit      int           `mapstructure:"rate_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Backend selection
	DataBackend   string `mapstructure:"data_backend"`
	DataDirectory string `mapstructure:"data_directory"`

	// Database
	SQLiteDBPath string `mapstructure:"sqlite_db_path"`

	// AMQP
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
	AMQPQueue    string `mapstructure:"amqp_queue"`

	// Google Sheets
	GoogleSpreadsheetID      string `mapstructure:"google_spreadsheet_id"`
	GoogleSheetName          string `mapstructure:"google_sheet_name"`
	GoogleServiceAccountJSON string `mapstructure:"google_service_account_json"`
	GoogleServiceAccountFile string `mapstructure:"google_service_account_file"`

	// Dashboard view cache
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`

	// Worker
	MirrorBackend string        `mapstructure:"mirror_backend"`
	SyncInterval  time.Duration `mapstructure:"sync_interval"`
}

var defaults = map[string]any{
	"port":            "8081",
	"rate_limit":      60,
	"request_timeout": 7 * time.Second,

	"log_level":  "info",
	"log_format": "text",

	"data_backend":   BackendMemory,
	"data_directory": "data",
	"sqlite_db_path": "./data/spendlog.db",

	"amqp_url":      "",
	"amqp_exchange": "spendlog",
	"amqp_queue":    "storage_changes",

	"google_spreadsheet_id":       "",
	"google_sheet_name":           "KV",
	"google_service_account_json": "",
	"google_service_account_file": "",

	"cache_size": 128,
	"cache_ttl":  5 * time.Minute,

	"mirror_backend": BackendSheets,
	"sync_interval":  30 * time.Second,
}

// Load builds the configuration from defaults, an optional YAML/TOML/JSON
// file at path, and environment variables named after the upper-cased keys
// (PORT, DATA_BACKEND, SQLITE_DB_PATH, ...). Environment wins over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	if err := v.BindEnv("google_service_account_file", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// problems collects every validation failure so a misconfigured deployment
// learns about all of them at once.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err(what string) error {
	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("%s validation failed:\n- %s", what, strings.Join(p, "\n- "))
}

// Validate reports every invalid setting. It creates the SQLite database
// directory when it is missing.
func (c *Config) Validate() error {
	var p problems
	c.checkServer(&p)
	c.checkLogging(&p)
	c.checkStorage(&p)
	c.checkAMQP(&p)

	if c.CacheSize < 1 {
		p.addf("invalid cache size %d: must be at least 1", c.CacheSize)
	}
	if !slices.Contains(validBackends, c.MirrorBackend) {
		p.addf("invalid mirror backend '%s': must be one of %v", c.MirrorBackend, validBackends)
	}
	switch {
	case c.SyncInterval < time.Second:
		p.addf("invalid sync interval %v: must be at least 1 second", c.SyncInterval)
	case c.SyncInterval > 24*time.Hour:
		p.addf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval)
	}
	return p.err("configuration")
}

func (c *Config) checkServer(p *problems) {
	port, err := strconv.Atoi(c.Port)
	switch {
	case err != nil:
		p.addf("invalid port '%s': must be a number", c.Port)
	case port < 1 || port > 65535:
		p.addf("invalid port %d: must be between 1 and 65535", port)
	}
	if c.RateLimit < 1 {
		p.addf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit)
	}
	if c.RequestTimeout <= 0 {
		p.addf("invalid request timeout %v: must be positive", c.RequestTimeout)
	}
}

func (c *Config) checkLogging(p *problems) {
	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.LogLevel)) {
		p.addf("invalid log level '%s'", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		p.addf("invalid log format '%s': must be text or json", c.LogFormat)
	}
}

func (c *Config) checkStorage(p *problems) {
	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			p.addf("SQLite database path cannot be empty when using sqlite backend")
			return
		}
		if dir := filepath.Dir(c.SQLiteDBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				p.addf("cannot create SQLite database directory '%s': %v", dir, err)
			}
		}
	case BackendSheets:
		c.checkSheets(p)
	default:
		p.addf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends)
	}
}

// checkAMQP only applies when publishing is enabled.
func (c *Config) checkAMQP(p *problems) {
	if c.AMQPURL == "" {
		return
	}
	u, err := url.Parse(c.AMQPURL)
	switch {
	case err != nil:
		p.addf("invalid AMQP URL '%s': %v", c.AMQPURL, err)
	case u.Scheme != "amqp" && u.Scheme != "amqps":
		p.addf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme)
	}
	if c.AMQPExchange == "" {
		p.addf("AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		p.addf("AMQP queue name cannot be empty when AMQP URL is provided")
	}
}

// ValidateWorker checks the settings the mirror worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	var p problems
	if c.AMQPURL == "" {
		p.addf("AMQP URL is required for the worker")
	}
	if c.DataBackend == BackendMemory {
		p.addf("data backend 'memory' is private to one process and cannot be mirrored")
	}
	if c.MirrorBackend == c.DataBackend && c.MirrorBackend != BackendSheets {
		p.addf("mirror backend '%s' must differ from data backend", c.MirrorBackend)
	}
	if c.MirrorBackend == BackendSheets && c.DataBackend != BackendSheets {
		c.checkSheets(&p)
	}
	return p.err("worker configuration")
}

func (c *Config) checkSheets(p *problems) {
	if c.GoogleSpreadsheetID == "" {
		p.addf("Google Spreadsheet ID is required when using sheets backend")
	}
	if c.GoogleSheetName == "" {
		p.addf("Google Sheet name is required when using sheets backend")
	}
	switch {
	case c.GoogleServiceAccountFile != "":
		if _, err := os.Stat(c.GoogleServiceAccountFile); errors.Is(err, fs.ErrNotExist) {
			p.addf("Google service account file does not exist: %s", c.GoogleServiceAccountFile)
		}
	case c.GoogleServiceAccountJSON == "":
		p.addf("either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
	}
}
