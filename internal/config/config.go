// Package config provides configuration loading using koanf.
// Precedence: environment variables override compiled defaults.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
)

// Config holds all gateway configuration.
type Config struct {
	// Environment identifier: "local", "dev", "prod"
	Environment string `koanf:"environment"`

	// Logging configuration
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	Server    ServerConfig    `koanf:"server"`
	Session   SessionConfig   `koanf:"session"`
	Directory DirectoryConfig `koanf:"directory"`
	Transport TransportConfig `koanf:"transport"`
	Store     StoreConfig     `koanf:"store"`
	Operator  OperatorConfig  `koanf:"operator"`

	// Infrastructure configurations
	DynamoDB DynamoDBConfig `koanf:"dynamodb"`
	Redis    RedisConfig    `koanf:"redis"`
	AWS      AWSConfig      `koanf:"aws"`

	// OpenTelemetry configuration
	OTEL OTELConfig `koanf:"otel"`
}

// ServerConfig holds the gRPC listener configuration.
type ServerConfig struct {
	Endpoint string `koanf:"endpoint"`
	// Port is the gRPC listener port (§6: "server.port").
	Port int `koanf:"port"`
	// HealthPort is the HTTP /healthz listener port. Not named in §6's
	// enumerated surface, but every other service in this codebase exposes
	// one (internal/server.Run always starts an HTTP health server), so
	// it needs a config knob distinct from the gRPC port.
	HealthPort  int           `koanf:"health_port"`
	TimeoutSecs time.Duration `koanf:"timeout_secs"`
}

// SessionConfig holds the registration session state machine's timing and
// rate-limit policy, per §6's configuration surface.
type SessionConfig struct {
	TTLSeconds      int                   `koanf:"ttl_seconds"`
	SessionCreation SessionCreationConfig `koanf:"session_creation"`
	SendSMS         SendSMSConfig         `koanf:"send_sms"`
	SendVoice       SendVoiceConfig       `koanf:"send_voice"`
	CheckCode       CheckCodeConfig       `koanf:"check_code"`
}

// SessionCreationConfig holds the session-creation bucket's policy. When
// Distributed is set, the bucket is backed by Redis (RedisSessionCreationLimiter)
// instead of the in-memory limiter, so multiple gateway replicas share one
// counter.
type SessionCreationConfig struct {
	Capacity     int     `koanf:"capacity"`
	RefillPerSec float64 `koanf:"refill_per_sec"`
	MinDelaySecs int     `koanf:"min_delay_secs"`
	Distributed  bool    `koanf:"distributed"`
	// WindowSeconds sizes the Redis fixed window used when Distributed is
	// set (RedisSessionCreationLimiter's INCR+EXPIRE window), distinct from
	// the in-memory leaky-bucket policy the other fields describe.
	WindowSeconds int `koanf:"window_seconds"`
}

// SendSMSConfig holds the SMS-send bucket's minimum resend delay.
type SendSMSConfig struct {
	DelaySeconds int `koanf:"delay_seconds"`
}

// SendVoiceConfig holds the voice-call bucket's policy: a minimum resend
// delay plus the additional "must have sent at least one SMS first" gate.
type SendVoiceConfig struct {
	DelaySeconds       int `koanf:"delay_seconds"`
	DelayAfterFirstSMS int `koanf:"delay_after_first_sms"`
	MaxAttempts        int `koanf:"max_attempts"`
}

// CheckCodeConfig holds the verification-attempt lockout policy.
type CheckCodeConfig struct {
	MaxAttempts    int `koanf:"max_attempts"`
	LockoutSeconds int `koanf:"lockout_seconds"`
}

// DirectoryConfig selects and configures the directory authenticator.
type DirectoryConfig struct {
	Kind    DirectoryKind          `koanf:"kind"`
	LDAP    LDAPDirectoryConfig    `koanf:"ldap"`
	CloudID CloudIDDirectoryConfig `koanf:"cloud_id"`
}

// DirectoryKind selects which DirectoryAuthenticator adapter to wire.
type DirectoryKind string

const (
	DirectoryKindLDAP    DirectoryKind = "ldap"
	DirectoryKindCloudID DirectoryKind = "cloud-id"
)

// LDAPDirectoryConfig mirrors adapter.LDAPConfig's fields for koanf loading.
type LDAPDirectoryConfig struct {
	URL                  string `koanf:"url"`
	BindDN               string `koanf:"bind_dn"`
	BindPassword         string `koanf:"bind_password"`
	BaseDN               string `koanf:"base_dn"`
	UsernameAttribute    string `koanf:"username_attr"`
	PhoneNumberAttribute string `koanf:"phone_attr"`
	PoolSize             int    `koanf:"pool_size"`
}

// CloudIDDirectoryConfig mirrors adapter.CloudIDConfig's fields for koanf loading.
type CloudIDDirectoryConfig struct {
	TenantID             string `koanf:"tenant_id"`
	ClientID             string `koanf:"client_id"`
	ClientSecret         string `koanf:"client_secret"`
	TokenURL             string `koanf:"token_url"`
	GraphBaseURL         string `koanf:"graph_base_url"`
	Scope                string `koanf:"scope"`
	PhoneNumberAttribute string `koanf:"phone_attr"`
}

// TransportConfig selects and configures the verification-code transport.
type TransportConfig struct {
	Kind     TransportKind         `koanf:"kind"`
	Provider TransportProvider     `koanf:"provider"` // only meaningful when Kind == TransportKindHosted
	Twilio   TwilioTransportConfig `koanf:"twilio"`
	SNS      SNSTransportConfig    `koanf:"sns"`
}

// TransportKind distinguishes a real carrier transport from the
// deterministic test transport used in local/dev environments.
type TransportKind string

const (
	TransportKindHosted TransportKind = "hosted"
	TransportKindTest   TransportKind = "test"
)

// TransportProvider selects the concrete hosted transport adapter.
type TransportProvider string

const (
	TransportProviderTwilio TransportProvider = "twilio"
	TransportProviderSNS    TransportProvider = "sns"
)

// TwilioTransportConfig holds Twilio Verify credentials.
type TwilioTransportConfig struct {
	AccountSID   string `koanf:"account_sid"`
	AuthToken    string `koanf:"auth_token"`
	VerifyServiceSID string `koanf:"verify_service_sid"`
}

// SNSTransportConfig holds the AWS SNS fallback transport's sender ID.
type SNSTransportConfig struct {
	SenderID string `koanf:"sender_id"`
}

// StoreConfig holds the registration store's backing table names.
type StoreConfig struct {
	Kind                  string `koanf:"kind"`
	RecordsTable          string `koanf:"records_table"`
	IdempotencyTable      string `koanf:"idempotency_table"`
	OperatorSessionsTable string `koanf:"operator_sessions_table"`
}

// OperatorConfig holds the operator console's JWT and key-store policy.
type OperatorConfig struct {
	JWT      OperatorJWTConfig      `koanf:"jwt"`
	KeyStore OperatorKeyStoreConfig `koanf:"keystore"`
}

// OperatorJWTConfig configures the operator console's access-token minter
// and validator (internal/auth.Minter/Validator). RefreshTTLSeconds is
// accepted for configuration-surface completeness but unused: the operator
// console mints access tokens only — an operator re-authenticates with
// OperatorLogin rather than rotating a refresh token (see DESIGN.md).
type OperatorJWTConfig struct {
	Issuer            string `koanf:"issuer"`
	Audience          string `koanf:"audience"`
	AccessTTLSeconds  int    `koanf:"access_ttl_seconds"`
	RefreshTTLSeconds int    `koanf:"refresh_ttl_seconds"`
}

// OperatorKeyStoreConfig selects the operator console's auth.KeyStore
// implementation.
type OperatorKeyStoreConfig struct {
	Kind                OperatorKeyStoreKind `koanf:"kind"`
	StaticPrivateKeyPEM string               `koanf:"static_private_key_pem"` // kind == static only
	StaticKeyID         string               `koanf:"static_key_id"`          // kind == static only
}

// OperatorKeyStoreKind selects between the in-memory test key store and the
// AWS Secrets Manager / SSM-backed production key store.
type OperatorKeyStoreKind string

const (
	OperatorKeyStoreKindStatic OperatorKeyStoreKind = "static"
	OperatorKeyStoreKindAWS    OperatorKeyStoreKind = "aws"
)

// DynamoDBConfig holds DynamoDB configuration.
type DynamoDBConfig struct {
	Endpoint string        `koanf:"endpoint"` // Empty for production (uses default AWS endpoint)
	Timeout  time.Duration `koanf:"timeout"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Timeout  time.Duration `koanf:"timeout"`
}

// AWSConfig holds AWS SDK configuration.
type AWSConfig struct {
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"` // LocalStack endpoint for development
}

// OTELConfig holds OpenTelemetry configuration.
type OTELConfig struct {
	Endpoint    string `koanf:"endpoint"` // Empty disables OTLP export
	ServiceName string `koanf:"service_name"`
}

// defaults returns a Config with compiled default values, matching
// domain's DefaultSessionTTL/DefaultSMSMinDelay/DefaultVoiceMinDelay/
// DefaultVoiceAfterFirstSMS/DefaultMaxCheckAttempts/DefaultCheckLockoutDuration.
func defaults() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		LogFormat:   "json",

		Server: ServerConfig{
			Endpoint:    "0.0.0.0",
			Port:        9090,
			HealthPort:  8090,
			TimeoutSecs: 30 * time.Second,
		},
		Session: SessionConfig{
			TTLSeconds: int(domain.DefaultSessionTTL / time.Second),
			SessionCreation: SessionCreationConfig{
				Capacity:      5,
				RefillPerSec:  5.0 / 60,
				Distributed:   false,
				WindowSeconds: 60,
			},
			SendSMS: SendSMSConfig{
				DelaySeconds: int(domain.DefaultSMSMinDelay / time.Second),
			},
			SendVoice: SendVoiceConfig{
				DelaySeconds:       int(domain.DefaultVoiceMinDelay / time.Second),
				DelayAfterFirstSMS: int(domain.DefaultVoiceAfterFirstSMS / time.Second),
				MaxAttempts:        domain.DefaultMaxCheckAttempts,
			},
			CheckCode: CheckCodeConfig{
				MaxAttempts:    domain.DefaultMaxCheckAttempts,
				LockoutSeconds: int(domain.DefaultCheckLockoutDuration / time.Second),
			},
		},
		Directory: DirectoryConfig{
			Kind: DirectoryKindLDAP,
		},
		Transport: TransportConfig{
			Kind:     TransportKindTest,
			Provider: TransportProviderTwilio,
		},
		Store: StoreConfig{
			Kind:                  "dynamodb",
			RecordsTable:          "registration-records",
			IdempotencyTable:      "registration-idempotency",
			OperatorSessionsTable: "registration-operator-sessions",
		},
		Operator: OperatorConfig{
			JWT: OperatorJWTConfig{
				Issuer:            "registration-gateway",
				Audience:          "registration-gateway-operators",
				AccessTTLSeconds:  900,
				RefreshTTLSeconds: 86400,
			},
			KeyStore: OperatorKeyStoreConfig{
				Kind: OperatorKeyStoreKindStatic,
			},
		},

		DynamoDB: DynamoDBConfig{
			Timeout: domain.DynamoDBTimeout,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			DB:      0,
			Timeout: domain.RedisTimeout,
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
	}
}

// Load loads configuration following the precedence:
// 1. Environment variables (highest)
// 2. Compiled defaults (lowest)
//
// Required keys missing for the active environment cause startup failure;
// optional keys missing fall back to defaults.
func Load(ctx context.Context) (*Config, error) {
	k := koanf.New(".")

	// Start with compiled defaults
	cfg := defaults()

	// Load environment variables. Nesting delimiter is a double underscore
	// (e.g. DIRECTORY__LDAP__URL), so struct tags keep ordinary single
	// underscores for multi-word keys (e.g. "access_ttl_seconds").
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Validate required fields
	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRequired checks that required configuration is present.
func validateRequired(cfg *Config) error {
	// In local environment, most fields have sensible defaults.
	if cfg.Environment == "local" {
		return nil
	}

	if cfg.Environment == "prod" {
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("%w: redis.addr", domain.ErrConfigRequired)
		}
		if cfg.Store.RecordsTable == "" {
			return fmt.Errorf("%w: store.records_table", domain.ErrConfigRequired)
		}
		if cfg.Store.IdempotencyTable == "" {
			return fmt.Errorf("%w: store.idempotency_table", domain.ErrConfigRequired)
		}
		if cfg.Directory.Kind == DirectoryKindLDAP && cfg.Directory.LDAP.URL == "" {
			return fmt.Errorf("%w: directory.ldap.url", domain.ErrConfigRequired)
		}
		if cfg.Directory.Kind == DirectoryKindCloudID && cfg.Directory.CloudID.TenantID == "" {
			return fmt.Errorf("%w: directory.cloud_id.tenant_id", domain.ErrConfigRequired)
		}
		if cfg.Transport.Kind == TransportKindHosted {
			switch cfg.Transport.Provider {
			case TransportProviderTwilio:
				if cfg.Transport.Twilio.AccountSID == "" {
					return fmt.Errorf("%w: transport.twilio.account_sid", domain.ErrConfigRequired)
				}
			case TransportProviderSNS:
				if cfg.AWS.Region == "" {
					return fmt.Errorf("%w: aws.region", domain.ErrConfigRequired)
				}
			}
		}
		if cfg.Operator.KeyStore.Kind == OperatorKeyStoreKindStatic && cfg.Operator.KeyStore.StaticPrivateKeyPEM == "" {
			return fmt.Errorf("%w: operator.keystore.static_private_key_pem", domain.ErrConfigRequired)
		}
	}

	return nil
}

// IsLocal returns true if running in local development environment.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}

// IsProd returns true if running in production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
