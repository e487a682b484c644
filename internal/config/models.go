package config

import (
	"errors"
	"fmt"
	"time"
)

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress  string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
}

// AnalysisConfig represents the scoring and service configuration
type AnalysisConfig struct {
	MaxContentBytes int
	RulesFile       string
	TrustedDomains  []string
	PersistTimeout  time.Duration
}

// StoreConfig represents the analysis log configuration
type StoreConfig struct {
	Enabled          bool
	Type             string
	SQLitePath       string
	MySQLDSN         string
	PostgresDSN      string
	Retention        time.Duration
	CleanupFrequency time.Duration
}

// AuthConfig represents the bearer token configuration
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// RateLimitConfig represents the Redis backed limiter configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RedisAddress      string
	RedisPassword     string
	RedisDB           int
	KeyPrefix         string
}

// EventsConfig represents the NATS publisher configuration
type EventsConfig struct {
	Enabled bool
	NATSURL string
	Subject string
}

// IngestHeaders names the headers added to filtered mail
type IngestHeaders struct {
	Status     string
	Confidence string
	Keywords   string
}

// IngestConfig represents the SMTP content filter configuration
type IngestConfig struct {
	Enabled        bool
	ListenAddress  string
	BlockFraud     bool
	Headers        IngestHeaders
	ForwardEnabled bool
	ForwardAddress string
	ForwardPort    int
	SubjectPrefix  string
	ModifySubject  bool
}

// CORSConfig represents the cross-origin configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	read, err1 := c.GetDuration("server.read_timeout")
	write, err2 := c.GetDuration("server.write_timeout")
	request, err3 := c.GetDuration("server.request_timeout")
	if err := errors.Join(err1, err2, err3); err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		ListenAddress:  c.GetString("server.listen_address"),
		ReadTimeout:    read,
		WriteTimeout:   write,
		RequestTimeout: request,
	}, nil
}

// GetAnalysis returns the analysis configuration
func (c *Config) GetAnalysis() (AnalysisConfig, error) {
	persist, err := c.GetDuration("analysis.persist_timeout")
	if err != nil {
		return AnalysisConfig{}, err
	}
	maxBytes := c.GetInt("analysis.max_content_bytes")
	if maxBytes <= 0 {
		return AnalysisConfig{}, fmt.Errorf("analysis.max_content_bytes must be positive, got %d", maxBytes)
	}
	return AnalysisConfig{
		MaxContentBytes: maxBytes,
		RulesFile:       c.GetString("analysis.rules_file"),
		TrustedDomains:  c.GetStringSlice("analysis.trusted_domains"),
		PersistTimeout:  persist,
	}, nil
}

// GetStore returns the analysis log configuration
func (c *Config) GetStore() (StoreConfig, error) {
	retention, err1 := c.GetDuration("store.retention")
	cleanup, err2 := c.GetDuration("store.cleanup_frequency")
	if err := errors.Join(err1, err2); err != nil {
		return StoreConfig{}, err
	}
	return StoreConfig{
		Enabled:          c.GetBool("store.enabled"),
		Type:             c.GetString("store.type"),
		SQLitePath:       c.GetString("store.sqlite_path"),
		MySQLDSN:         c.GetString("store.mysql_dsn"),
		PostgresDSN:      c.GetString("store.postgres_dsn"),
		Retention:        retention,
		CleanupFrequency: cleanup,
	}, nil
}

// GetAuth returns the bearer token configuration
func (c *Config) GetAuth() AuthConfig {
	return AuthConfig{
		JWTSecret: c.GetString("auth.jwt_secret"),
		Issuer:    c.GetString("auth.issuer"),
	}
}

// GetRateLimit returns the limiter configuration
func (c *Config) GetRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           c.GetBool("ratelimit.enabled"),
		RequestsPerMinute: c.GetInt("ratelimit.requests_per_minute"),
		RedisAddress:      c.GetString("redis.address"),
		RedisPassword:     c.GetString("redis.password"),
		RedisDB:           c.GetInt("redis.db"),
		KeyPrefix:         c.GetString("redis.key_prefix"),
	}
}

// GetEvents returns the event publisher configuration
func (c *Config) GetEvents() EventsConfig {
	return EventsConfig{
		Enabled: c.GetBool("events.enabled"),
		NATSURL: c.GetString("events.nats_url"),
		Subject: c.GetString("events.subject"),
	}
}

// GetIngest returns the SMTP content filter configuration
func (c *Config) GetIngest() IngestConfig {
	return IngestConfig{
		Enabled:       c.GetBool("ingest.enabled"),
		ListenAddress: c.GetString("ingest.listen_address"),
		BlockFraud:    c.GetBool("ingest.block_fraud"),
		Headers: IngestHeaders{
			Status:     c.GetString("ingest.headers.status"),
			Confidence: c.GetString("ingest.headers.confidence"),
			Keywords:   c.GetString("ingest.headers.keywords"),
		},
		ForwardEnabled: c.GetBool("ingest.forward.enabled"),
		ForwardAddress: c.GetString("ingest.forward.address"),
		ForwardPort:    c.GetInt("ingest.forward.port"),
		SubjectPrefix:  c.GetString("ingest.subject_prefix"),
		ModifySubject:  c.GetBool("ingest.modify_subject"),
	}
}

// GetCORS returns the cross-origin configuration
func (c *Config) GetCORS() CORSConfig {
	return CORSConfig{
		AllowedOrigins: c.GetStringSlice("cors.allowed_origins"),
	}
}
