package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/config"
	"github.com/dmitrijs2005/kolp/internal/credentials"
	"github.com/dmitrijs2005/kolp/internal/logging"
	"golang.org/x/oauth2"
)

// ExpiryMargin is how close to expiry a cached access token may get before
// it is refreshed ahead of a remote call.
const ExpiryMargin = 60 * time.Second

// Refresher mints new access tokens from the stored refresh token.
type Refresher struct {
	cfg    *config.Config
	store  *credentials.Store
	logger logging.Logger
	now    func() time.Time
}

func NewRefresher(cfg *config.Config, store *credentials.Store, logger logging.Logger) *Refresher {
	return &Refresher{
		cfg:    cfg,
		store:  store,
		logger: logger.With("module", "oauth"),
		now:    time.Now,
	}
}

// Refresh performs one refresh grant and persists the result. It never
// retries; every failure is reported as ErrRefreshUnavailable.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	creds, ok := r.store.Credentials.Load(ctx)
	if !ok || creds.ClientID == "" {
		return "", fmt.Errorf("%w: no client credentials", ErrRefreshUnavailable)
	}
	toks, ok := r.store.Tokens.Load(ctx)
	if !ok || toks.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token", ErrRefreshUnavailable)
	}

	oc := clientConfig(r.cfg, creds.ClientID, creds.ClientSecret, "")
	// Without an access token the source goes straight to the refresh grant.
	src := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: toks.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		r.logger.Warn(ctx, "token refresh failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrRefreshUnavailable, err)
	}

	toks.AccessToken = tok.AccessToken
	toks.ExpiresAt = tok.Expiry
	if tok.RefreshToken != "" {
		toks.RefreshToken = tok.RefreshToken
	}
	if err := r.store.Tokens.Save(ctx, toks); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshUnavailable, err)
	}

	r.logger.Info(ctx, "access token refreshed", "expires_at", toks.ExpiresAt)
	return toks.AccessToken, nil
}

// AccessToken returns a usable access token. A cached token more than
// ExpiryMargin away from expiry is returned as is; otherwise exactly one
// refresh is attempted.
func (r *Refresher) AccessToken(ctx context.Context) (string, error) {
	toks, ok := r.store.Tokens.Load(ctx)
	if !ok {
		return "", fmt.Errorf("%w: not connected", common.ErrorUnauthorized)
	}
	if toks.AccessToken != "" && !toks.ExpiresWithin(ExpiryMargin, r.now()) {
		return toks.AccessToken, nil
	}
	return r.Refresh(ctx)
}
