package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Every field is a
// pointer so that only keys present in the file override the defaults.
// Durations accept "10m"-style strings or integer nanoseconds.
type FileConfig struct {
	EndpointAddrGRPC *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc" toml:"endpoint_addr_grpc"`
	DatabaseDSN      *string         `json:"database_dsn" yaml:"database_dsn" toml:"database_dsn"`
	LogLevel         *string         `json:"log_level" yaml:"log_level" toml:"log_level"`
	StoreTimeout     *timex.Duration `json:"store_timeout" yaml:"store_timeout" toml:"store_timeout"`

	FailureWindow        *timex.Duration `json:"failure_window" yaml:"failure_window" toml:"failure_window"`
	MaxFailures          *int            `json:"max_failures" yaml:"max_failures" toml:"max_failures"`
	RehashCountThreshold *int            `json:"rehash_count_threshold" yaml:"rehash_count_threshold" toml:"rehash_count_threshold"`

	Argon2Time      *uint32 `json:"argon2_time" yaml:"argon2_time" toml:"argon2_time"`
	Argon2MemoryKiB *uint32 `json:"argon2_memory_kib" yaml:"argon2_memory_kib" toml:"argon2_memory_kib"`
	Argon2Threads   *uint8  `json:"argon2_threads" yaml:"argon2_threads" toml:"argon2_threads"`

	SessionTTL               *timex.Duration `json:"session_ttl" yaml:"session_ttl" toml:"session_ttl"`
	SessionRolloverThreshold *timex.Duration `json:"session_rollover_threshold" yaml:"session_rollover_threshold" toml:"session_rollover_threshold"`
	SessionRolloverGrace     *timex.Duration `json:"session_rollover_grace" yaml:"session_rollover_grace" toml:"session_rollover_grace"`
	SessionSweepInterval     *timex.Duration `json:"session_sweep_interval" yaml:"session_sweep_interval" toml:"session_sweep_interval"`

	RateLimitMaxRequests *int            `json:"rate_limit_max_requests" yaml:"rate_limit_max_requests" toml:"rate_limit_max_requests"`
	RateLimitWindow      *timex.Duration `json:"rate_limit_window" yaml:"rate_limit_window" toml:"rate_limit_window"`
	RateLimitIdleTTL     *timex.Duration `json:"rate_limit_idle_ttl" yaml:"rate_limit_idle_ttl" toml:"rate_limit_idle_ttl"`

	RootAccountID       *string `json:"root_account_id" yaml:"root_account_id" toml:"root_account_id"`
	RootAccountPassword *string `json:"root_account_password" yaml:"root_account_password" toml:"root_account_password"`

	AuditRetention     *timex.Duration `json:"audit_retention" yaml:"audit_retention" toml:"audit_retention"`
	AuditSweepInterval *timex.Duration `json:"audit_sweep_interval" yaml:"audit_sweep_interval" toml:"audit_sweep_interval"`
	AuditBuffer        *int            `json:"audit_buffer" yaml:"audit_buffer" toml:"audit_buffer"`

	S3RootUser     *string `json:"s3_root_user" yaml:"s3_root_user" toml:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password" yaml:"s3_root_password" toml:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket" yaml:"s3_bucket" toml:"s3_bucket"`
	S3Region       *string `json:"s3_region" yaml:"s3_region" toml:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint" yaml:"s3_base_endpoint" toml:"s3_base_endpoint"`
}

// parseFile overlays values from the file named by -c/-config. The format
// follows the extension: .json, .yaml/.yml or .toml. A missing flag loads
// nothing; an unreadable or malformed file panics, like a bad flag does.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	fc, err := readFile(path)
	if err != nil {
		panic(err)
	}
	fc.apply(config)
}

func readFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fc := &FileConfig{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	case ".toml":
		_, err = toml.Decode(string(data), fc)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.LogLevel, fc.LogLevel)
	setDuration(&c.StoreTimeout, fc.StoreTimeout)

	setDuration(&c.FailureWindow, fc.FailureWindow)
	setInt(&c.MaxFailures, fc.MaxFailures)
	setInt(&c.RehashCountThreshold, fc.RehashCountThreshold)

	if fc.Argon2Time != nil {
		c.Argon2Time = *fc.Argon2Time
	}
	if fc.Argon2MemoryKiB != nil {
		c.Argon2MemoryKiB = *fc.Argon2MemoryKiB
	}
	if fc.Argon2Threads != nil {
		c.Argon2Threads = *fc.Argon2Threads
	}

	setDuration(&c.SessionTTL, fc.SessionTTL)
	setDuration(&c.SessionRolloverThreshold, fc.SessionRolloverThreshold)
	setDuration(&c.SessionRolloverGrace, fc.SessionRolloverGrace)
	setDuration(&c.SessionSweepInterval, fc.SessionSweepInterval)

	setInt(&c.RateLimitMaxRequests, fc.RateLimitMaxRequests)
	setDuration(&c.RateLimitWindow, fc.RateLimitWindow)
	setDuration(&c.RateLimitIdleTTL, fc.RateLimitIdleTTL)

	setString(&c.RootAccountID, fc.RootAccountID)
	setString(&c.RootAccountPassword, fc.RootAccountPassword)

	setDuration(&c.AuditRetention, fc.AuditRetention)
	setDuration(&c.AuditSweepInterval, fc.AuditSweepInterval)
	setInt(&c.AuditBuffer, fc.AuditBuffer)

	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
