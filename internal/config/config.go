// Package config provides configuration loading and management for the bucket synchronizer.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-bucket-sync/internal/telemetry"
)

// EnvPrefix is the prefix of environment variables overriding configuration values
const EnvPrefix = "THV_BUCKET_SYNC"

const (
	// LeaderTypeKubernetes elects the leader through a coordination.k8s.io Lease
	LeaderTypeKubernetes = "kubernetes"

	// LeaderTypeRedis elects the leader through an expiring Redis key
	LeaderTypeRedis = "redis"

	// LeaderTypeFile elects the leader through an exclusive lock on a shared file
	LeaderTypeFile = "file"

	// LeaderTypeStandalone makes the single running instance the leader
	LeaderTypeStandalone = "standalone"
)

const (
	// StoreTypePostgres stores records in PostgreSQL
	StoreTypePostgres = "postgres"

	// StoreTypeSQLite stores buckets in a SQLite database file
	StoreTypeSQLite = "sqlite"

	// StoreTypeMemory keeps records in memory, for local runs only
	StoreTypeMemory = "memory"
)

const (
	// StatusStoreFile persists the cycle status under DataDir
	StatusStoreFile = "file"

	// StatusStoreDatabase persists the cycle status in PostgreSQL
	StatusStoreDatabase = "database"
)

const (
	// DefaultRole is the name of the exclusive role the synchronizer campaigns for
	DefaultRole = "thv-bucket-sync-sources"

	defaultLeaderInitialDelay = 250 * time.Millisecond
	defaultLeaseDuration      = 15 * time.Second
	defaultRenewDeadline      = 10 * time.Second
	defaultRetryPeriod        = 2 * time.Second
	defaultSyncInterval       = time.Second
	defaultSyncInitialDelay   = time.Second
	defaultOpsAddress         = ":8080"
	defaultDataDir            = "./data"
	defaultNamespace          = "default"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Leader    LeaderConfig      `yaml:"leader"`
	Sources   SourcesConfig     `yaml:"sources"`
	Target    TargetConfig      `yaml:"target"`
	Sync      SyncConfig        `yaml:"sync"`
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
	Ops       OpsConfig         `yaml:"ops"`

	// DataDir holds the persisted status of the last cycle
	DataDir string `yaml:"dataDir,omitempty"`
}

// LeaderConfig defines how the synchronizer elects its single active instance
type LeaderConfig struct {
	// Type is one of kubernetes, redis, file or standalone
	Type string `yaml:"type"`

	// Role is the name of the exclusive role. Defaults to "thv-bucket-sync-sources"
	Role string `yaml:"role,omitempty"`

	// InitialDelay is how long to wait after startup before campaigning
	InitialDelay string `yaml:"initialDelay,omitempty"`

	// LeaseDuration is how long a lease is valid without renewal
	LeaseDuration string `yaml:"leaseDuration,omitempty"`

	// RenewDeadline is how long the leader keeps retrying renewal before giving up (kubernetes)
	RenewDeadline string `yaml:"renewDeadline,omitempty"`

	// RetryPeriod is the interval between acquire and renew attempts
	RetryPeriod string `yaml:"retryPeriod,omitempty"`

	Kubernetes *KubernetesLeaderConfig `yaml:"kubernetes,omitempty"`
	Redis      *RedisLeaderConfig      `yaml:"redis,omitempty"`
	File       *FileLeaderConfig       `yaml:"file,omitempty"`
}

// KubernetesLeaderConfig defines Lease based election settings
type KubernetesLeaderConfig struct {
	// Namespace holding the Lease. Defaults to "default"
	Namespace string `yaml:"namespace,omitempty"`

	// Kubeconfig is an optional kubeconfig path; in-cluster config is used when empty
	Kubeconfig string `yaml:"kubeconfig,omitempty"`
}

// RedisLeaderConfig defines Redis based election settings
type RedisLeaderConfig struct {
	// Address is the Redis host:port
	Address string `yaml:"address"`

	// Username is the optional ACL user
	Username string `yaml:"username,omitempty"`

	// PasswordFile is the path to a file containing the Redis password
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// DB is the Redis logical database
	DB int `yaml:"db,omitempty"`

	// KeyPrefix is prepended to the role name to build the lease key
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
}

// FileLeaderConfig defines file lock based election settings
type FileLeaderConfig struct {
	// Path of the lock file, shared by every instance on the host
	Path string `yaml:"path"`
}

// SourcesConfig defines the legacy source store
type SourcesConfig struct {
	// Type is postgres or memory
	Type string `yaml:"type"`

	// Table is the legacy table holding source documents
	Table string `yaml:"table,omitempty"`

	// ExtractType scopes the sources considered for synchronization
	ExtractType string `yaml:"extractType,omitempty"`

	// SeedFile is a JSON array of source documents loaded into the memory store
	SeedFile string `yaml:"seedFile,omitempty"`
}

// TargetConfig defines the bucket management store
type TargetConfig struct {
	// Type is postgres, sqlite or memory
	Type string `yaml:"type"`

	// SQLitePath is the database file used by the sqlite type
	SQLitePath string `yaml:"sqlitePath,omitempty"`
}

// SyncConfig defines the reconciliation schedule
type SyncConfig struct {
	// Interval is the fixed delay between the end of a cycle and the start of the next
	Interval string `yaml:"interval,omitempty"`

	// InitialDelay is the delay before the first cycle
	InitialDelay string `yaml:"initialDelay,omitempty"`

	// Concurrency bounds the number of ids processed at once; 0 means unbounded
	Concurrency int `yaml:"concurrency,omitempty"`

	// StatusStore is where the last cycle status is kept: file (default) or database
	StatusStore string `yaml:"statusStore,omitempty"`
}

// GetStatusStore returns the cycle status store, defaulting to file
func (s *SyncConfig) GetStatusStore() string {
	if s.StatusStore == "" {
		return StatusStoreFile
	}
	return s.StatusStore
}

// OpsConfig defines the operational HTTP endpoint
type OpsConfig struct {
	// Address to listen on. Defaults to ":8080"
	Address string `yaml:"address,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from THV_BUCKET_SYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	return readSecret(d.PasswordFile, EnvPrefix+"_DATABASE_PASSWORD", true)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// GetPassword returns the Redis password from PasswordFile or the
// THV_BUCKET_SYNC_REDIS_PASSWORD environment variable. An empty password is allowed.
func (r *RedisLeaderConfig) GetPassword() (string, error) {
	return readSecret(r.PasswordFile, EnvPrefix+"_REDIS_PASSWORD", false)
}

func readSecret(file, envVar string, required bool) (string, error) {
	if file != "" {
		cleanPath := filepath.Clean(file)
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", file, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if value := os.Getenv(envVar); value != "" {
		return value, nil
	}

	if required {
		return "", fmt.Errorf("no password configured: set passwordFile or %s environment variable", envVar)
	}
	return "", nil
}

// LoadConfig loads and parses configuration from a YAML file, then applies
// THV_BUCKET_SYNC_* environment overrides
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	applyEnvOverrides(&config)

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides overrides selected values from the environment, e.g.
// THV_BUCKET_SYNC_LEADER_TYPE overrides leader.type
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	overrides := map[string]*string{
		"leader.type":         &cfg.Leader.Type,
		"leader.role":         &cfg.Leader.Role,
		"sources.type":        &cfg.Sources.Type,
		"sources.extractType": &cfg.Sources.ExtractType,
		"target.type":         &cfg.Target.Type,
		"sync.interval":       &cfg.Sync.Interval,
		"ops.address":         &cfg.Ops.Address,
		"dataDir":             &cfg.DataDir,
	}
	for key, target := range overrides {
		if value := v.GetString(key); value != "" {
			*target = value
		}
	}

	if address := v.GetString("leader.redis.address"); address != "" {
		if cfg.Leader.Redis == nil {
			cfg.Leader.Redis = &RedisLeaderConfig{}
		}
		cfg.Leader.Redis.Address = address
	}
	if namespace := v.GetString("leader.kubernetes.namespace"); namespace != "" {
		if cfg.Leader.Kubernetes == nil {
			cfg.Leader.Kubernetes = &KubernetesLeaderConfig{}
		}
		cfg.Leader.Kubernetes.Namespace = namespace
	}
	if host := v.GetString("database.host"); host != "" && cfg.Database != nil {
		cfg.Database.Host = host
	}
}

// GetRole returns the leader role, using DefaultRole if not specified
func (l *LeaderConfig) GetRole() string {
	if l.Role == "" {
		return DefaultRole
	}
	return l.Role
}

// GetInitialDelay returns the delay before campaigning for leadership
func (l *LeaderConfig) GetInitialDelay() time.Duration {
	return durationOrDefault(l.InitialDelay, defaultLeaderInitialDelay)
}

// GetLeaseDuration returns the lease duration
func (l *LeaderConfig) GetLeaseDuration() time.Duration {
	return durationOrDefault(l.LeaseDuration, defaultLeaseDuration)
}

// GetRenewDeadline returns the renew deadline
func (l *LeaderConfig) GetRenewDeadline() time.Duration {
	return durationOrDefault(l.RenewDeadline, defaultRenewDeadline)
}

// GetRetryPeriod returns the retry period
func (l *LeaderConfig) GetRetryPeriod() time.Duration {
	return durationOrDefault(l.RetryPeriod, defaultRetryPeriod)
}

// GetNamespace returns the Lease namespace
func (k *KubernetesLeaderConfig) GetNamespace() string {
	if k == nil || k.Namespace == "" {
		return defaultNamespace
	}
	return k.Namespace
}

// GetInterval returns the fixed delay between cycles
func (s *SyncConfig) GetInterval() time.Duration {
	return durationOrDefault(s.Interval, defaultSyncInterval)
}

// GetInitialDelay returns the delay before the first cycle
func (s *SyncConfig) GetInitialDelay() time.Duration {
	return durationOrDefault(s.InitialDelay, defaultSyncInitialDelay)
}

// GetAddress returns the ops listen address
func (o *OpsConfig) GetAddress() string {
	if o.Address == "" {
		return defaultOpsAddress
	}
	return o.Address
}

// GetDataDir returns the directory holding persisted status
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir
	}
	return c.DataDir
}

func durationOrDefault(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error
	errs = append(errs, c.validateLeader()...)
	errs = append(errs, c.validateStores()...)
	errs = append(errs, validateSync(&c.Sync)...)

	switch c.Sync.GetStatusStore() {
	case StatusStoreFile:
	case StatusStoreDatabase:
		if c.Database == nil {
			errs = append(errs, fmt.Errorf("database is required for the database status store"))
		}
	default:
		errs = append(errs, fmt.Errorf("sync.statusStore %q is not supported", c.Sync.StatusStore))
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (c *Config) validateLeader() []error {
	var errs []error
	l := &c.Leader

	for name, value := range map[string]string{
		"initialDelay":  l.InitialDelay,
		"leaseDuration": l.LeaseDuration,
		"renewDeadline": l.RenewDeadline,
		"retryPeriod":   l.RetryPeriod,
	} {
		if err := validateDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("leader.%s: %w", name, err))
		}
	}

	if l.Type == LeaderTypeKubernetes || l.Type == LeaderTypeRedis {
		if l.GetLeaseDuration() <= l.GetRenewDeadline() {
			errs = append(errs, fmt.Errorf("leader.leaseDuration must be greater than leader.renewDeadline"))
		}
		if float64(l.GetRenewDeadline()) <= 1.2*float64(l.GetRetryPeriod()) {
			errs = append(errs, fmt.Errorf("leader.renewDeadline must be greater than 1.2 times leader.retryPeriod"))
		}
	}

	switch l.Type {
	case LeaderTypeKubernetes:
	case LeaderTypeRedis:
		if l.Redis == nil || l.Redis.Address == "" {
			errs = append(errs, fmt.Errorf("leader.redis.address is required"))
		}
	case LeaderTypeFile:
		if l.File == nil || l.File.Path == "" {
			errs = append(errs, fmt.Errorf("leader.file.path is required"))
		}
	case LeaderTypeStandalone:
	case "":
		errs = append(errs, fmt.Errorf("leader.type is required"))
	default:
		errs = append(errs, fmt.Errorf("leader.type %q is not supported", l.Type))
	}

	return errs
}

func (c *Config) validateStores() []error {
	var errs []error

	switch c.Sources.Type {
	case StoreTypePostgres:
		if c.Database == nil {
			errs = append(errs, fmt.Errorf("database is required for postgres sources"))
		}
	case StoreTypeMemory:
	case "":
		errs = append(errs, fmt.Errorf("sources.type is required"))
	default:
		errs = append(errs, fmt.Errorf("sources.type %q is not supported", c.Sources.Type))
	}

	switch c.Target.Type {
	case StoreTypePostgres:
		if c.Database == nil {
			errs = append(errs, fmt.Errorf("database is required for postgres target"))
		}
	case StoreTypeSQLite:
		if c.Target.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("target.sqlitePath is required for sqlite target"))
		}
	case StoreTypeMemory:
	case "":
		errs = append(errs, fmt.Errorf("target.type is required"))
	default:
		errs = append(errs, fmt.Errorf("target.type %q is not supported", c.Target.Type))
	}

	if c.Database != nil {
		if c.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, fmt.Errorf("database.database is required"))
		}
		if err := validateDuration(c.Database.ConnMaxLifetime); err != nil {
			errs = append(errs, fmt.Errorf("database.connMaxLifetime: %w", err))
		}
	}

	return errs
}

func validateSync(s *SyncConfig) []error {
	var errs []error
	if err := validateDuration(s.Interval); err != nil {
		errs = append(errs, fmt.Errorf("sync.interval: %w", err))
	}
	if err := validateDuration(s.InitialDelay); err != nil {
		errs = append(errs, fmt.Errorf("sync.initialDelay: %w", err))
	}
	if s.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("sync.concurrency must not be negative"))
	}
	return errs
}

func validateDuration(value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a valid duration (e.g., '1s', '250ms'): %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}
