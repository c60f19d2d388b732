// Package config loads configuration from config.yaml with environment
// variable overrides. Secrets (database password, LLM API key) must only
// come from environment variables.
package config

import (
	"fmt"
	"net/url"

	"github.com/ilyakaznacheev/cleanenv"
)

// defaultWriteTables is the fixed set of tables the chatbot may mutate.
// Reads are not constrained by this set unless EnforceReadAllowList is
// set; that asymmetry mirrors the deployed behavior and is an explicit
// configuration choice.
var defaultWriteTables = []string{
	"t_projects",
	"t_morningplan",
	"t_morningplan_staff",
	"t_vehicles",
	"t_employees",
	"t_services",
	"t_materials",
	"t_material_prices",
}

// Config holds all configuration for the chatbot data engine.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (Supabase PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Table-access policy
	Tables TablesConfig `yaml:"tables"`

	// Retry policy for backend calls
	Retry RetryConfig `yaml:"retry"`

	// Audit sink configuration
	Audit AuditConfig `yaml:"audit"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"postgres"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"postgres"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"require"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
}

// LLMConfig holds the chat model settings. Provider selects the client
// implementation; openai also covers OpenAI-compatible endpoints via
// BaseURL.
type LLMConfig struct {
	Provider          string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL           string  `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	Model             string  `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	APIKey            string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	Temperature       float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.2"`
	MaxToolIterations int     `yaml:"max_tool_iterations" env:"LLM_MAX_TOOL_ITERATIONS" env-default:"8"`
}

// TablesConfig holds the allow-lists and error verbosity policy.
type TablesConfig struct {
	// WriteAllowList is the set of tables insert/update/delete may touch.
	WriteAllowList []string `yaml:"write_allow_list" env:"TABLES_WRITE_ALLOW_LIST" env-separator:","`

	// EnforceReadAllowList restricts queryTable to the same set.
	// Defaults to false: reads are unrestricted beyond key-shape checks.
	EnforceReadAllowList bool `yaml:"enforce_read_allow_list" env:"TABLES_ENFORCE_READ_ALLOW_LIST" env-default:"false"`

	// DebugErrors appends truncated raw error details to user-facing
	// messages. Keep off in production.
	DebugErrors bool `yaml:"debug_errors" env:"TABLES_DEBUG_ERRORS" env-default:"false"`
}

// RetryConfig holds the backoff policy for backend calls.
type RetryConfig struct {
	MaxRetries     int     `yaml:"max_retries" env:"RETRY_MAX_RETRIES" env-default:"3"`
	InitialDelayMs int     `yaml:"initial_delay_ms" env:"RETRY_INITIAL_DELAY_MS" env-default:"100"`
	MaxDelayMs     int     `yaml:"max_delay_ms" env:"RETRY_MAX_DELAY_MS" env-default:"5000"`
	Multiplier     float64 `yaml:"multiplier" env:"RETRY_MULTIPLIER" env-default:"2.0"`
	JitterFactor   float64 `yaml:"jitter_factor" env:"RETRY_JITTER_FACTOR" env-default:"0.1"`
}

// AuditConfig controls where audit entries go besides the structured log.
type AuditConfig struct {
	// Persist writes audit entries into the t_audit_log table as well.
	Persist bool `yaml:"persist" env:"AUDIT_PERSIST" env-default:"true"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadFromEnv reads configuration from environment variables only,
// without requiring a config.yaml. Used by tests and containers.
func LoadFromEnv(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Tables.WriteAllowList) == 0 {
		c.Tables.WriteAllowList = append([]string(nil), defaultWriteTables...)
	}
}

// ConnectionString returns a PostgreSQL connection URL with escaped
// credentials.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
		c.SSLMode,
	)
}
