package config_test

import (
	"context"
	"testing"

	"github.com/aelexs/realtime-messaging-platform/internal/config"
	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)

	// Server
	assert.Equal(t, 9090, cfg.Server.Port)

	// Session timing, matching domain's compiled defaults
	assert.Equal(t, int(domain.DefaultSessionTTL.Seconds()), cfg.Session.TTLSeconds)
	assert.Equal(t, int(domain.DefaultSMSMinDelay.Seconds()), cfg.Session.SendSMS.DelaySeconds)
	assert.Equal(t, int(domain.DefaultVoiceMinDelay.Seconds()), cfg.Session.SendVoice.DelaySeconds)
	assert.Equal(t, domain.DefaultMaxCheckAttempts, cfg.Session.CheckCode.MaxAttempts)
	assert.False(t, cfg.Session.SessionCreation.Distributed)

	// Directory / transport provider selection
	assert.Equal(t, config.DirectoryKindLDAP, cfg.Directory.Kind)
	assert.Equal(t, config.TransportKindTest, cfg.Transport.Kind)

	// Operator console
	assert.Equal(t, "registration-gateway", cfg.Operator.JWT.Issuer)
	assert.Equal(t, config.OperatorKeyStoreKindStatic, cfg.Operator.KeyStore.Kind)

	// Infrastructure defaults
	assert.Equal(t, domain.DynamoDBTimeout, cfg.DynamoDB.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, domain.RedisTimeout, cfg.Redis.Timeout)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
}

func TestIsLocal(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"local returns true", "local", true},
		{"prod returns false", "prod", false},
		{"dev returns false", "dev", false},
		{"empty returns false", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Environment: tt.env}

			assert.Equal(t, tt.want, cfg.IsLocal())
		})
	}
}

func TestIsProd(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"prod returns true", "prod", true},
		{"local returns false", "local", false},
		{"dev returns false", "dev", false},
		{"empty returns false", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Environment: tt.env}

			assert.Equal(t, tt.want, cfg.IsProd())
		})
	}
}

func TestValidateRequired_LocalAllowsMissingFields(t *testing.T) {
	t.Setenv("ENVIRONMENT", "local")

	cfg, err := config.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Environment)
}

func TestValidateRequired_ProdRequiresRedisAddr(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("REDIS__ADDR", "")
	t.Setenv("STORE__RECORDS_TABLE", "registration-records")
	t.Setenv("STORE__IDEMPOTENCY_TABLE", "registration-idempotency")
	t.Setenv("DIRECTORY__KIND", "ldap")
	t.Setenv("DIRECTORY__LDAP__URL", "ldaps://directory.internal:636")
	t.Setenv("OPERATOR__KEYSTORE__KIND", "static")
	t.Setenv("OPERATOR__KEYSTORE__STATIC_PRIVATE_KEY_PEM", "placeholder")

	_, err := config.Load(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigRequired)
	assert.Contains(t, err.Error(), "redis.addr")
}

func TestValidateRequired_ProdRequiresDirectoryLDAPURL(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("REDIS__ADDR", "redis:6379")
	t.Setenv("STORE__RECORDS_TABLE", "registration-records")
	t.Setenv("STORE__IDEMPOTENCY_TABLE", "registration-idempotency")
	t.Setenv("DIRECTORY__KIND", "ldap")
	t.Setenv("DIRECTORY__LDAP__URL", "")
	t.Setenv("OPERATOR__KEYSTORE__KIND", "static")
	t.Setenv("OPERATOR__KEYSTORE__STATIC_PRIVATE_KEY_PEM", "placeholder")

	_, err := config.Load(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigRequired)
	assert.Contains(t, err.Error(), "directory.ldap.url")
}

func TestValidateRequired_ProdRequiresOperatorStaticSigningKey(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("REDIS__ADDR", "redis:6379")
	t.Setenv("STORE__RECORDS_TABLE", "registration-records")
	t.Setenv("STORE__IDEMPOTENCY_TABLE", "registration-idempotency")
	t.Setenv("DIRECTORY__KIND", "ldap")
	t.Setenv("DIRECTORY__LDAP__URL", "ldaps://directory.internal:636")
	t.Setenv("OPERATOR__KEYSTORE__KIND", "static")
	t.Setenv("OPERATOR__KEYSTORE__STATIC_PRIVATE_KEY_PEM", "")

	_, err := config.Load(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigRequired)
	assert.Contains(t, err.Error(), "operator.keystore.static_private_key_pem")
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("REDIS__ADDR", "redis:6379")
	t.Setenv("STORE__RECORDS_TABLE", "registration-records")
	t.Setenv("STORE__IDEMPOTENCY_TABLE", "registration-idempotency")
	t.Setenv("DIRECTORY__KIND", "cloud-id")
	t.Setenv("DIRECTORY__CLOUD_ID__TENANT_ID", "tenant-123")
	t.Setenv("OPERATOR__KEYSTORE__KIND", "aws")

	cfg, err := config.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, config.DirectoryKindCloudID, cfg.Directory.Kind)
	assert.Equal(t, "tenant-123", cfg.Directory.CloudID.TenantID)
}
