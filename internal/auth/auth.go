package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jwt"

	"github.com/joseph-ayodele/voice-studio/internal/common"
)

// Authenticator resolves the calling user from a request.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

func unauthorized(reason string) error {
	return common.NewAppError("UNAUTHORIZED", reason, common.ErrUnauthorized)
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", unauthorized("missing Authorization header")
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", unauthorized("expected a bearer token")
	}
	return strings.TrimSpace(token), nil
}

// JWKSAuthenticator verifies bearer ID tokens against a remote key set.
type JWKSAuthenticator struct {
	jwksURL  string
	issuer   string
	audience string
	keys     *jwk.AutoRefresh
	logger   *slog.Logger
}

type JWKSConfig struct {
	JWKSURL  string
	Issuer   string
	Audience string
	// RefreshInterval bounds how often the key set is re-fetched.
	RefreshInterval time.Duration
}

// NewJWKSAuthenticator registers the key set for background refresh; ctx bounds
// the refresher's lifetime.
func NewJWKSAuthenticator(ctx context.Context, cfg JWKSConfig, logger *slog.Logger) *JWKSAuthenticator {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 15 * time.Minute
	}
	ar := jwk.NewAutoRefresh(ctx)
	ar.Configure(cfg.JWKSURL, jwk.WithMinRefreshInterval(cfg.RefreshInterval))
	return &JWKSAuthenticator{
		jwksURL:  cfg.JWKSURL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		keys:     ar,
		logger:   logger,
	}
}

func (a *JWKSAuthenticator) Authenticate(r *http.Request) (string, error) {
	raw, err := bearerToken(r)
	if err != nil {
		return "", err
	}
	set, err := a.keys.Fetch(r.Context(), a.jwksURL)
	if err != nil {
		a.logger.Error("auth.jwks.fetch_failed", "url", a.jwksURL, "error", err)
		return "", unauthorized("key set unavailable")
	}
	token, err := jwt.Parse([]byte(raw), jwt.WithKeySet(set))
	if err != nil {
		a.logger.Debug("auth.token.invalid", "error", err)
		return "", unauthorized("invalid token")
	}

	opts := []jwt.ValidateOption{jwt.WithAcceptableSkew(time.Minute)}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}
	if err := jwt.Validate(token, opts...); err != nil {
		a.logger.Debug("auth.token.rejected", "error", err)
		return "", unauthorized(fmt.Sprintf("token rejected: %v", err))
	}
	if token.Subject() == "" {
		return "", unauthorized("token has no subject")
	}
	return token.Subject(), nil
}

// HeaderAuthenticator trusts X-User-ID. Development only.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		return "", unauthorized("missing X-User-ID header")
	}
	return id, nil
}
