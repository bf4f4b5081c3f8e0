package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
)

// Compile-time check: CloudIDDirectory implements app.DirectoryAuthenticator.
var _ app.DirectoryAuthenticator = (*CloudIDDirectory)(nil)

// CloudIDConfig configures a CloudIDDirectory against a cloud identity
// provider's OAuth2 token endpoint and user-profile API, grounded on
// original_source/src/auth/entra.rs's Microsoft Entra ID integration.
type CloudIDConfig struct {
	TenantID             string
	ClientID             string
	ClientSecret         string
	TokenURL             string // e.g. https://login.microsoftonline.com/{tenant}/oauth2/v2.0/token
	GraphBaseURL         string // e.g. https://graph.microsoft.com/v1.0
	Scope                string // e.g. https://graph.microsoft.com/.default
	PhoneNumberAttribute string
}

// CloudIDDirectory authenticates a user against a cloud identity provider
// using the resource-owner-password-credentials grant, then fetches the
// caller's phone attribute from the provider's user-profile API.
type CloudIDDirectory struct {
	cfg        CloudIDConfig
	oauthConf  *oauth2.Config
	httpClient *http.Client
}

// NewCloudIDDirectory constructs a CloudIDDirectory. httpClient may be nil,
// in which case http.DefaultClient is used.
func NewCloudIDDirectory(cfg CloudIDConfig, httpClient *http.Client) (*CloudIDDirectory, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("cloud identity directory: tenant ID, client ID, and client secret are required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CloudIDDirectory{
		cfg: cfg,
		oauthConf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{cfg.Scope},
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		},
		httpClient: httpClient,
	}, nil
}

// Authenticate exchanges username/password for an access token via the
// password grant, then reads the user's phone attribute from the provider's
// user-profile API using that token.
func (d *CloudIDDirectory) Authenticate(ctx context.Context, username string, password domain.SecretString) (domain.PhoneNumber, error) {
	ctx, span := tracer.Start(ctx, "cloudid.authenticate")
	defer span.End()
	span.SetAttributes(attribute.String("cloud_id.tenant", d.cfg.TenantID))
	ctx = context.WithValue(ctx, oauth2.HTTPClient, d.httpClient)

	token, err := d.oauthConf.PasswordCredentialsToken(ctx, username, string(password))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if isUnauthorizedOAuthError(err) {
			return domain.PhoneNumber{}, domain.ErrDirectoryBadCredentials
		}
		return domain.PhoneNumber{}, fmt.Errorf("%w: token request failed", domain.ErrDirectoryUnavailable)
	}

	client := d.oauthConf.Client(ctx, token)
	rawPhone, err := d.fetchPhoneAttribute(ctx, client, username)
	if err != nil {
		span.RecordError(err)
		return domain.PhoneNumber{}, err
	}

	phone, err := domain.NewPhoneNumber(rawPhone)
	if err != nil {
		return domain.PhoneNumber{}, fmt.Errorf("%w: %w", domain.ErrDirectoryNoPhoneAttr, err)
	}
	return phone, nil
}

func (d *CloudIDDirectory) fetchPhoneAttribute(ctx context.Context, client *http.Client, username string) (string, error) {
	userURL := strings.TrimSuffix(d.cfg.GraphBaseURL, "/") + "/users/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userURL, nil)
	if err != nil {
		return "", fmt.Errorf("build user profile request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: user profile request failed", domain.ErrDirectoryUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", domain.ErrDirectoryUserNotFound
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: user profile service error (%d)", domain.ErrDirectoryUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", domain.ErrDirectoryBadCredentials
	}

	var attrs map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return "", fmt.Errorf("%w: decode user profile: %w", domain.ErrDirectoryUnavailable, err)
	}

	raw, ok := attrs[d.cfg.PhoneNumberAttribute].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", domain.ErrDirectoryNoPhoneAttr
	}
	return raw, nil
}

// isUnauthorizedOAuthError reports whether err represents a rejected-password
// token exchange, as opposed to a network/provider outage.
func isUnauthorizedOAuthError(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return false
	}
	return retrieveErr.Response != nil &&
		(retrieveErr.Response.StatusCode == http.StatusUnauthorized || retrieveErr.Response.StatusCode == http.StatusForbidden)
}
