package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ldap/ldap/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
)

// Compile-time check: LDAPDirectory implements app.DirectoryAuthenticator.
var _ app.DirectoryAuthenticator = (*LDAPDirectory)(nil)

// ldapReplacer escapes the characters LDAP filters treat specially, per
// RFC 4515. Grounded on original_source/src/auth/ldap.rs's
// escape_ldap_value, which replaces the same six characters.
var ldapReplacer = strings.NewReplacer(
	`\`, `\5c`,
	`*`, `\2a`,
	`(`, `\28`,
	`)`, `\29`,
	"\x00", `\00`,
	`/`, `\2f`,
)

// LDAPConfig configures an LDAPDirectory.
type LDAPConfig struct {
	URL                  string
	BindDN               string
	BindPassword         domain.SecretString
	BaseDN               string
	UsernameAttribute    string
	PhoneNumberAttribute string
	PoolSize             int
}

// LDAPDirectory authenticates directory credentials by finding the user's
// DN and phone number with an admin-bound connection, then confirming the
// caller's password with a second bind as that user. Grounded on
// original_source/src/auth/ldap.rs's find-then-bind flow.
type LDAPDirectory struct {
	cfg  LDAPConfig
	pool *ldapPool
}

// NewLDAPDirectory dials cfg.PoolSize initial connections and returns an
// LDAPDirectory backed by them. PoolSize defaults to 4 when zero.
func NewLDAPDirectory(cfg LDAPConfig) (*LDAPDirectory, error) {
	size := cfg.PoolSize
	if size <= 0 {
		size = 4
	}
	pool, err := newLDAPPool(cfg.URL, size)
	if err != nil {
		return nil, fmt.Errorf("ldap directory: %w", err)
	}
	return &LDAPDirectory{cfg: cfg, pool: pool}, nil
}

// Authenticate resolves username to a directory entry via an admin-bound
// search, then confirms password with a user bind. See
// internal/domain/errors.go for the sentinel errors returned.
func (d *LDAPDirectory) Authenticate(ctx context.Context, username string, password domain.SecretString) (domain.PhoneNumber, error) {
	ctx, span := tracer.Start(ctx, "ldap.authenticate")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", "ldap"))

	conn, err := d.pool.get()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.PhoneNumber{}, fmt.Errorf("%w: %w", domain.ErrDirectoryUnavailable, err)
	}

	if err := conn.Bind(d.cfg.BindDN, string(d.cfg.BindPassword)); err != nil {
		d.pool.discard(conn)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.PhoneNumber{}, fmt.Errorf("%w: admin bind failed", domain.ErrDirectoryUnavailable)
	}

	userDN, rawPhone, err := d.findUser(conn, username)
	if err != nil {
		d.pool.put(conn)
		span.RecordError(err)
		return domain.PhoneNumber{}, err
	}

	if err := conn.Bind(userDN, string(password)); err != nil {
		d.pool.put(conn)
		span.SetStatus(codes.Error, "user bind failed")
		return domain.PhoneNumber{}, domain.ErrDirectoryBadCredentials
	}

	d.pool.put(conn)

	phone, err := domain.NewPhoneNumber(rawPhone)
	if err != nil {
		return domain.PhoneNumber{}, fmt.Errorf("%w: %w", domain.ErrDirectoryNoPhoneAttr, err)
	}
	return phone, nil
}

// findUser searches for username under BaseDN and returns its DN and raw
// phone attribute value. It strips an email domain from username (e.g.
// "alice@example.com" -> "alice") before escaping it into the filter, per
// original_source/src/auth/ldap.rs's clean_username step.
func (d *LDAPDirectory) findUser(conn ldapConn, username string) (dn, phone string, err error) {
	clean := username
	if at := strings.IndexByte(username, '@'); at >= 0 {
		clean = username[:at]
	}

	filter := fmt.Sprintf("(%s=%s)", d.cfg.UsernameAttribute, ldapReplacer.Replace(clean))
	req := ldap.NewSearchRequest(
		d.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{d.cfg.PhoneNumberAttribute},
		nil,
	)

	result, err := conn.Search(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: search failed", domain.ErrDirectoryUnavailable)
	}
	if len(result.Entries) == 0 {
		return "", "", domain.ErrDirectoryUserNotFound
	}

	entry := result.Entries[0]
	rawPhone := entry.GetAttributeValue(d.cfg.PhoneNumberAttribute)
	if strings.TrimSpace(rawPhone) == "" {
		return "", "", domain.ErrDirectoryNoPhoneAttr
	}
	return entry.DN, rawPhone, nil
}

// ldapConn is the narrow, consumer-defined interface for the subset of
// *ldap.Conn operations LDAPDirectory needs. Satisfied by *ldap.Conn.
type ldapConn interface {
	Bind(username, password string) error
	Search(searchRequest *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// ldapPool is a small connection pool, grounded on
// original_source/src/auth/ldap.rs's Arc<TokioMutex<Vec<Ldap>>> pool but
// re-expressed with a mutex-protected slice, since Go has no async runtime
// to drive a background connection task.
type ldapPool struct {
	url string

	mu    sync.Mutex
	idle  []ldapConn
}

func newLDAPPool(url string, size int) (*ldapPool, error) {
	p := &ldapPool{url: url}
	for i := 0; i < size; i++ {
		conn, err := ldap.DialURL(url)
		if err != nil {
			return nil, err
		}
		p.idle = append(p.idle, conn)
	}
	return p, nil
}

func (p *ldapPool) get() (ldapConn, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		conn := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()
	return ldap.DialURL(p.url)
}

func (p *ldapPool) put(conn ldapConn) {
	p.mu.Lock()
	p.idle = append(p.idle, conn)
	p.mu.Unlock()
}

// discard closes a connection that failed a bind instead of returning it
// to the pool, since its state after a failed admin bind is unreliable.
func (p *ldapPool) discard(conn ldapConn) {
	_ = conn.Close()
}
