package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	infraconfig "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/config"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/languages"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/mappings"
)

// Default configuration values.
const (
	defaultServiceName         = "index-orchestrator"
	defaultServiceVersion      = "1.0.0"
	defaultServicePort         = 8095
	defaultDBHost              = "localhost"
	defaultDBPort              = 5432
	defaultDBUser              = "postgres"
	defaultDBName              = "index_orchestrator"
	defaultDBSSLMode           = "disable"
	defaultDBMaxConns          = 10
	defaultDBMaxIdleConns      = 2
	defaultDBConnLifetimeM     = 5
	defaultESURL               = "http://localhost:9200"
	defaultESMaxRetries        = 3
	defaultESTimeoutSec        = 30
	defaultLogLevel            = "info"
	defaultLogFormat           = "json"
	defaultShards              = 1
	defaultReplicas            = 1
	defaultCommerceSuffix      = "commerce"
	defaultNeutralLanguage     = "iv"
	defaultHealthTimeout       = 30 * time.Second
	defaultTokenizerTimeout    = 60 * time.Second
	defaultPollInterval        = 500 * time.Millisecond
	defaultParallelism         = 1
	defaultMinClusterMajor     = 5
	defaultIndexJobName        = "Index content"
	defaultTriggerTimeout      = 30 * time.Second
	defaultAdminRole           = "ElasticsearchAdmins"
	defaultRequestWriteTimeout = 10 * time.Minute
	defaultTracingEndpoint     = "localhost:4318"
	defaultTracingSampleRatio  = 1.0
)

// Config holds the application configuration.
type Config struct {
	Service       ServiceConfig        `yaml:"service"`
	Elasticsearch ElasticsearchConfig  `yaml:"elasticsearch"`
	Database      DatabaseConfig       `yaml:"database"`
	Logging       LoggingConfig        `yaml:"logging"`
	Indices       []domain.IndexConfig `yaml:"indices"`
	Languages     LanguagesConfig      `yaml:"languages"`
	Commerce      CommerceConfig       `yaml:"commerce"`
	MappingTypes  []MappingTypeConfig  `yaml:"mapping_types"`
	Orchestrator  OrchestratorConfig   `yaml:"orchestrator"`
	Jobs          JobsConfig           `yaml:"jobs"`
	Auth          AuthConfig           `yaml:"auth"`
	Tracing       TracingConfig        `yaml:"tracing"`
}

// ServiceConfig holds service configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"INDEX_ORCHESTRATOR_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"               yaml:"debug"`
	// WriteTimeout bounds a whole admin request, health waits included.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ElasticsearchConfig holds cluster connection settings.
type ElasticsearchConfig struct {
	URL         string        `env:"ELASTICSEARCH_URL"      yaml:"url"`
	Username    string        `env:"ELASTICSEARCH_USERNAME" yaml:"username"`
	Password    string        `env:"ELASTICSEARCH_PASSWORD" yaml:"password"`
	APIKey      string        `env:"ELASTICSEARCH_API_KEY"  yaml:"api_key"`
	CloudID     string        `env:"ELASTICSEARCH_CLOUD_ID" yaml:"cloud_id"`
	TLSInsecure bool          `yaml:"tls_insecure"`
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"`
	Shards      int           `yaml:"shards"`
	Replicas    *int          `yaml:"replicas"`
}

// DatabaseConfig holds the audit history database. Disabled means no history.
type DatabaseConfig struct {
	Enabled               bool          `env:"POSTGRES_INDEX_ORCHESTRATOR_ENABLED"  yaml:"enabled"`
	Host                  string        `env:"POSTGRES_INDEX_ORCHESTRATOR_HOST"     yaml:"host"`
	Port                  int           `env:"POSTGRES_INDEX_ORCHESTRATOR_PORT"     yaml:"port"`
	User                  string        `env:"POSTGRES_INDEX_ORCHESTRATOR_USER"     yaml:"user"`
	Password              string        `env:"POSTGRES_INDEX_ORCHESTRATOR_PASSWORD" yaml:"password"`
	Database              string        `env:"POSTGRES_INDEX_ORCHESTRATOR_DB"       yaml:"database"`
	SSLMode               string        `yaml:"sslmode"`
	MaxConnections        int           `yaml:"max_connections"`
	MaxIdleConns          int           `yaml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// DSN is the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// LanguagesConfig lists content languages.
type LanguagesConfig struct {
	Enabled []languages.Entry `yaml:"enabled"`
	// NeutralCode is used for language-independent indices.
	NeutralCode string `yaml:"neutral_code"`
}

// CommerceConfig controls commerce companion indices.
type CommerceConfig struct {
	Enabled bool   `env:"COMMERCE_ENABLED" yaml:"enabled"`
	Suffix  string `yaml:"suffix"`
}

// MappingTypeConfig declares a custom mapping type in YAML.
type MappingTypeConfig struct {
	Name       string         `yaml:"name"`
	Version    string         `yaml:"version"`
	Properties map[string]any `yaml:"properties"`
}

// OrchestratorConfig tunes the lifecycle workflows.
type OrchestratorConfig struct {
	HealthTimeout          time.Duration `yaml:"health_timeout"`
	TokenizerHealthTimeout time.Duration `yaml:"tokenizer_health_timeout"`
	PollInterval           time.Duration `yaml:"poll_interval"`
	Parallelism            int           `env:"ORCHESTRATOR_PARALLELISM" yaml:"parallelism"`
	MinClusterMajor        int           `yaml:"min_cluster_major"`
	// DeleteRate caps bulk deletions per second; zero is unlimited.
	DeleteRate float64 `yaml:"delete_rate"`
}

// JobsConfig configures the bulk indexing job.
type JobsConfig struct {
	IndexJobName   string        `yaml:"index_job_name"`
	Schedule       string        `env:"INDEX_JOB_SCHEDULE"    yaml:"schedule"`
	TriggerURL     string        `env:"INDEX_JOB_TRIGGER_URL" yaml:"trigger_url"`
	TriggerTimeout time.Duration `yaml:"trigger_timeout"`
}

// TracingConfig exports spans over OTLP/HTTP when enabled.
type TracingConfig struct {
	Enabled     bool    `env:"OTEL_TRACING_ENABLED"        yaml:"enabled"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// AuthConfig gates the admin API.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
	AdminRole string `yaml:"admin_role"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setElasticsearchDefaults(&cfg.Elasticsearch)
	setDatabaseDefaults(&cfg.Database)
	setLoggingDefaults(&cfg.Logging)
	setOrchestratorDefaults(&cfg.Orchestrator)

	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = defaultTracingEndpoint
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = defaultTracingSampleRatio
	}

	if cfg.Commerce.Suffix == "" {
		cfg.Commerce.Suffix = defaultCommerceSuffix
	}
	if cfg.Languages.NeutralCode == "" {
		cfg.Languages.NeutralCode = defaultNeutralLanguage
	}
	if cfg.Jobs.IndexJobName == "" {
		cfg.Jobs.IndexJobName = defaultIndexJobName
	}
	if cfg.Jobs.TriggerTimeout == 0 {
		cfg.Jobs.TriggerTimeout = defaultTriggerTimeout
	}
	if cfg.Auth.AdminRole == "" {
		cfg.Auth.AdminRole = defaultAdminRole
	}
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = defaultRequestWriteTimeout
	}
}

func setElasticsearchDefaults(e *ElasticsearchConfig) {
	if e.URL == "" && e.CloudID == "" {
		e.URL = defaultESURL
	}
	if e.MaxRetries == 0 {
		e.MaxRetries = defaultESMaxRetries
	}
	if e.Timeout == 0 {
		e.Timeout = defaultESTimeoutSec * time.Second
	}
	if e.Shards == 0 {
		e.Shards = defaultShards
	}
	if e.Replicas == nil {
		replicas := defaultReplicas
		e.Replicas = &replicas
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnectionMaxLifetime == 0 {
		d.ConnectionMaxLifetime = defaultDBConnLifetimeM * time.Minute
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

func setOrchestratorDefaults(o *OrchestratorConfig) {
	if o.HealthTimeout == 0 {
		o.HealthTimeout = defaultHealthTimeout
	}
	if o.TokenizerHealthTimeout == 0 {
		o.TokenizerHealthTimeout = defaultTokenizerTimeout
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.Parallelism == 0 {
		o.Parallelism = defaultParallelism
	}
	if o.MinClusterMajor == 0 {
		o.MinClusterMajor = defaultMinClusterMajor
	}
}

// Schemas converts the declared mapping types for the registry.
func (c *Config) Schemas() []mappings.Schema {
	out := make([]mappings.Schema, 0, len(c.MappingTypes))
	for _, m := range c.MappingTypes {
		out = append(out, mappings.Schema{Name: m.Name, Version: m.Version, Properties: m.Properties})
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Elasticsearch.URL == "" && c.Elasticsearch.CloudID == "" {
		return &infraconfig.ValidationError{Field: "elasticsearch.url", Message: "is required"}
	}
	if err := infraconfig.ValidateRequired("auth.jwt_secret", strings.TrimSpace(c.Auth.JWTSecret)); err != nil {
		return err
	}
	if c.Database.Enabled && c.Database.Host == "" {
		return &infraconfig.ValidationError{Field: "database.host", Message: "is required when the database is enabled"}
	}
	if err := c.validateIndices(); err != nil {
		return err
	}
	if !c.hasEnabledLanguage() {
		return &infraconfig.ValidationError{Field: "languages.enabled", Message: "at least one language must be enabled"}
	}
	if c.Orchestrator.HealthTimeout < 0 || c.Orchestrator.TokenizerHealthTimeout < 0 || c.Orchestrator.PollInterval < 0 {
		return &infraconfig.ValidationError{Field: "orchestrator", Message: "timeouts must be positive"}
	}
	if c.Orchestrator.Parallelism < 1 {
		return &infraconfig.ValidationError{Field: "orchestrator.parallelism", Message: "must be at least 1"}
	}
	if c.Orchestrator.DeleteRate < 0 {
		return &infraconfig.ValidationError{Field: "orchestrator.delete_rate", Message: "must not be negative"}
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return &infraconfig.ValidationError{Field: "tracing.sample_ratio", Message: "must be between 0 and 1"}
	}
	return nil
}

func (c *Config) validateIndices() error {
	if len(c.Indices) == 0 {
		return &infraconfig.ValidationError{Field: "indices", Message: "at least one index must be configured"}
	}
	seen := make(map[string]struct{}, len(c.Indices))
	for i, idx := range c.Indices {
		name := strings.ToLower(strings.TrimSpace(idx.Name))
		if name == "" {
			return &infraconfig.ValidationError{Field: fmt.Sprintf("indices[%d].name", i), Message: "is required"}
		}
		if _, dup := seen[name]; dup {
			return &infraconfig.ValidationError{Field: fmt.Sprintf("indices[%d].name", i), Message: "duplicate index name " + name}
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (c *Config) hasEnabledLanguage() bool {
	for _, l := range c.Languages.Enabled {
		if l.Enabled {
			return true
		}
	}
	return false
}
