package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/aelexs/realtime-messaging-platform/internal/auth"
	"github.com/aelexs/realtime-messaging-platform/internal/config"
	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/dynamo"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/adapter"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/port"
	"github.com/aelexs/realtime-messaging-platform/internal/ratelimit"
	"github.com/aelexs/realtime-messaging-platform/internal/redis"
	"github.com/aelexs/realtime-messaging-platform/internal/server"
)

// setup is the registration gateway's composition root. It creates
// infrastructure clients, the directory/transport/store adapters chosen by
// config, the core session service, the operator console, and registers
// both gRPC services plus the operator-auth interceptor.
func setup(ctx context.Context, deps server.SetupDeps) (func(context.Context) error, error) {
	cfg := deps.Config
	logger := deps.Logger
	clock := domain.RealClock{}

	dynamoClient, err := dynamo.NewClient(ctx, dynamo.Config{
		Endpoint: cfg.DynamoDB.Endpoint,
		Region:   cfg.AWS.Region,
		Timeout:  cfg.DynamoDB.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("registrationd setup: create dynamo client: %w", err)
	}

	redisClient := redis.NewClient(redis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		ReadTimeout:  cfg.Redis.Timeout,
		WriteTimeout: cfg.Redis.Timeout,
	})

	directory, err := createDirectory(cfg)
	if err != nil {
		return nil, fmt.Errorf("registrationd setup: create directory: %w", err)
	}

	transport, err := createTransport(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("registrationd setup: create transport: %w", err)
	}

	store := adapter.NewDynamoStore(dynamoClient.DB, cfg.Store.RecordsTable, cfg.Store.IdempotencyTable)

	limiter := ratelimit.New(clock)
	var distributedCreation app.DistributedSessionLimiter
	if cfg.Session.SessionCreation.Distributed {
		distributedCreation = adapter.NewRedisSessionCreationLimiter(
			redisClient.RDB,
			int64(cfg.Session.SessionCreation.Capacity),
			cfg.Session.SessionCreation.WindowSeconds,
		)
	}

	timing := app.TimingPolicy{
		SessionTTL:         time.Duration(cfg.Session.TTLSeconds) * time.Second,
		SMSMinDelay:        time.Duration(cfg.Session.SendSMS.DelaySeconds) * time.Second,
		VoiceMinDelay:      time.Duration(cfg.Session.SendVoice.DelaySeconds) * time.Second,
		VoiceAfterFirstSMS: time.Duration(cfg.Session.SendVoice.DelayAfterFirstSMS) * time.Second,
		MaxCheckAttempts:   cfg.Session.CheckCode.MaxAttempts,
		CheckLockout:       time.Duration(cfg.Session.CheckCode.LockoutSeconds) * time.Second,
	}

	gatewaySvc := app.NewService(app.ServiceConfig{
		Directory:                  directory,
		Transport:                  transport,
		Store:                      store,
		Limiter:                    limiter,
		DistributedCreationLimiter: distributedCreation,
		Clock:                      clock,
		Timing:                     timing,
	})
	go gatewaySvc.RunSweeper(ctx)

	operatorSvc, err := createOperatorService(ctx, cfg, redisClient, dynamoClient, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("registrationd setup: create operator service: %w", err)
	}
	validationSvc := app.NewValidationService(directory)

	operatorInterceptors.set(port.OperatorMiddleware(operatorSvc))

	registrationHandler := port.NewRegistrationHandler(gatewaySvc)
	operatorHandler := port.NewOperatorHandler(operatorSvc, validationSvc)
	port.RegisterRegistrationService(deps.GRPCServer, registrationHandler)
	port.RegisterOperatorService(deps.GRPCServer, operatorHandler)

	logger.InfoContext(ctx, "registration gateway initialized",
		slog.String("directory_kind", string(cfg.Directory.Kind)),
		slog.String("transport_kind", string(cfg.Transport.Kind)),
	)

	cleanup := func(_ context.Context) error {
		return redisClient.Close()
	}

	return cleanup, nil
}

// createDirectory selects and constructs the DirectoryAuthenticator named by
// cfg.Directory.Kind.
func createDirectory(cfg *config.Config) (app.DirectoryAuthenticator, error) {
	switch cfg.Directory.Kind {
	case config.DirectoryKindCloudID:
		c := cfg.Directory.CloudID
		return adapter.NewCloudIDDirectory(adapter.CloudIDConfig{
			TenantID:             c.TenantID,
			ClientID:             c.ClientID,
			ClientSecret:         c.ClientSecret,
			TokenURL:             c.TokenURL,
			GraphBaseURL:         c.GraphBaseURL,
			Scope:                c.Scope,
			PhoneNumberAttribute: c.PhoneNumberAttribute,
		}, &http.Client{Timeout: cfg.Server.TimeoutSecs})
	case config.DirectoryKindLDAP:
		l := cfg.Directory.LDAP
		return adapter.NewLDAPDirectory(adapter.LDAPConfig{
			URL:                  l.URL,
			BindDN:               l.BindDN,
			BindPassword:         domain.SecretString(l.BindPassword),
			BaseDN:               l.BaseDN,
			UsernameAttribute:    l.UsernameAttribute,
			PhoneNumberAttribute: l.PhoneNumberAttribute,
			PoolSize:             l.PoolSize,
		})
	default:
		return nil, fmt.Errorf("unknown directory.kind %q", cfg.Directory.Kind)
	}
}

// createTransport selects and constructs the CodeTransport named by
// cfg.Transport.Kind/Provider.
func createTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app.CodeTransport, error) {
	if cfg.Transport.Kind == config.TransportKindTest {
		logger.Warn("using deterministic test transport — do not use in production")
		return adapter.NewTestTransport(), nil
	}

	switch cfg.Transport.Provider {
	case config.TransportProviderTwilio:
		t := cfg.Transport.Twilio
		return adapter.NewTwilioTransport(t.AccountSID, t.AuthToken, t.VerifyServiceSID), nil
	case config.TransportProviderSNS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config for SNS: %w", err)
		}
		return adapter.NewSNSTransport(sns.NewFromConfig(awsCfg)), nil
	default:
		return nil, fmt.Errorf("unknown transport.provider %q", cfg.Transport.Provider)
	}
}

// createOperatorService builds the JWT minter/validator (over the configured
// key store), the Redis-backed revocation store, and the DynamoDB login
// audit log, and assembles them into an app.OperatorService.
func createOperatorService(
	ctx context.Context, cfg *config.Config, redisClient *redis.Client,
	dynamoClient *dynamo.Client, clock domain.Clock, logger *slog.Logger,
) (*app.OperatorService, error) {
	keyStore, err := createKeyStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create key store: %w", err)
	}

	accessTTL := time.Duration(cfg.Operator.JWT.AccessTTLSeconds) * time.Second
	minter := auth.NewMinter(auth.MinterConfig{
		KeyStore:  keyStore,
		AccessTTL: accessTTL,
		Issuer:    cfg.Operator.JWT.Issuer,
		Audience:  cfg.Operator.JWT.Audience,
		Clock:     clock,
	})
	validator := auth.NewValidator(auth.ValidatorConfig{
		KeyStore: keyStore,
		Issuer:   cfg.Operator.JWT.Issuer,
		Audience: cfg.Operator.JWT.Audience,
		Clock:    clock,
	})

	revocation := adapter.NewRevocationStore(redisClient.RDB)
	auditLog := adapter.NewDynamoOperatorSessionAuditLog(dynamoClient.DB, cfg.Store.OperatorSessionsTable)

	// TODO(registrationd): load operator credentials from a real directory
	// instead of an empty table until an operator-provisioning flow exists.
	credentials := adapter.NewStaticOperatorCredentials(nil)

	return app.NewOperatorService(app.OperatorServiceConfig{
		Credentials: credentials,
		Minter:      minter,
		Validator:   validator,
		Revocation:  revocation,
		Audit:       auditLog,
		Clock:       clock,
	}), nil
}

// createKeyStore returns the auth.KeyStore implementation named by
// cfg.Operator.KeyStore.Kind.
func createKeyStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.KeyStore, error) {
	switch cfg.Operator.KeyStore.Kind {
	case config.OperatorKeyStoreKindAWS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config for key store: %w", err)
		}
		return adapter.NewAWSKeyStore(ctx, secretsmanager.NewFromConfig(awsCfg), ssm.NewFromConfig(awsCfg), domain.RealClock{})
	case config.OperatorKeyStoreKindStatic:
		return staticKeyStoreFromConfig(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown operator.keystore.kind %q", cfg.Operator.KeyStore.Kind)
	}
}

// staticKeyStoreFromConfig loads an RSA private key from PEM when
// configured, or generates an ephemeral one for local development when
// none is set (cfg.IsLocal() only — in any other environment a missing
// key is an error here; validateRequired also rejects it at load time in
// prod).
func staticKeyStoreFromConfig(cfg *config.Config, logger *slog.Logger) (auth.KeyStore, error) {
	pemText := cfg.Operator.KeyStore.StaticPrivateKeyPEM
	keyID := cfg.Operator.KeyStore.StaticKeyID
	if keyID == "" {
		keyID = "dev-key-001"
	}

	if pemText == "" {
		if !cfg.IsLocal() {
			return nil, fmt.Errorf("operator.keystore.static_private_key_pem is required outside local")
		}
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("generate dev RSA key: %w", err)
		}
		logger.Info("using ephemeral RSA key for local development", slog.String("key_id", keyID))
		return auth.NewStaticKeyStore(key, keyID), nil
	}

	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("operator.keystore.static_private_key_pem is not valid PEM")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse operator RSA private key: %w", err)
	}
	return auth.NewStaticKeyStore(key, keyID), nil
}
