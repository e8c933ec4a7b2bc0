// Package oauth implements the loopback OAuth2 authorization-code flow and
// access-token refresh against the storage provider.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/config"
	"github.com/dmitrijs2005/kolp/internal/credentials"
	"github.com/dmitrijs2005/kolp/internal/logging"
	"golang.org/x/oauth2"
)

const (
	stateSize       = 32
	shutdownTimeout = 5 * time.Second
)

// Flow runs one authorization at a time. Each Start binds the loopback
// listener, waits for the provider redirect and releases the listener
// before returning.
type Flow struct {
	cfg      *config.Config
	store    *credentials.Store
	identity IdentityFetcher
	browser  BrowserOpener
	logger   logging.Logger
	hook     StateHook

	mu sync.Mutex
}

type FlowOption func(*Flow)

// WithStateHook registers h to observe every transition.
func WithStateHook(h StateHook) FlowOption {
	return func(f *Flow) { f.hook = h }
}

func NewFlow(cfg *config.Config, store *credentials.Store, identity IdentityFetcher, browser BrowserOpener, logger logging.Logger, opts ...FlowOption) *Flow {
	f := &Flow{
		cfg:      cfg,
		store:    store,
		identity: identity,
		browser:  browser,
		logger:   logger.With("module", "oauth"),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Flow) transition(ctx context.Context, s State) {
	f.logger.Info(ctx, "auth flow transition", "state", string(s))
	if f.hook != nil {
		f.hook(ctx, s)
	}
}

// Start authorizes the app for the given client and returns the connected
// account e-mail. Tokens and client credentials are persisted on success.
func (f *Flow) Start(ctx context.Context, clientID, clientSecret string) (email string, err error) {
	if !f.mu.TryLock() {
		return "", ErrFlowInProgress
	}
	defer f.mu.Unlock()

	state, err := common.MakeRandHexString(stateSize)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(f.cfg.RedirectPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("bind callback listener: %w", err)
	}

	handler := newCallbackHandler(f.cfg.CallbackPath, state)
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error(ctx, "callback listener stopped", "error", err)
		}
	}()
	defer func() {
		handler.finish(err)
		f.shutdown(ctx, srv)
		f.transition(ctx, StateIdle)
	}()
	f.transition(ctx, StateListenerStarted)

	// Port 0 picks a free port; the redirect must name the real one.
	redirectURL := fmt.Sprintf("http://%s%s", ln.Addr().String(), f.cfg.CallbackPath)
	oc := clientConfig(f.cfg, clientID, clientSecret, redirectURL)
	authURL := oc.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))

	if err := f.browser.Open(ctx, authURL); err != nil {
		f.logger.Warn(ctx, "cannot open browser, open the URL manually", "url", authURL, "error", err)
	}
	f.transition(ctx, StateAwaitingCallback)

	timer := time.NewTimer(f.cfg.AuthTimeout)
	defer timer.Stop()

	var cb callback
	select {
	case <-ctx.Done():
		f.transition(ctx, StateCancelled)
		return "", ctx.Err()
	case <-timer.C:
		f.transition(ctx, StateTimeout)
		return "", ErrAuthTimeout
	case cb = <-handler.received:
	}

	if cb.err != nil {
		if errors.Is(cb.err, ErrStateMismatch) {
			f.logger.Warn(ctx, "callback state does not match")
			f.transition(ctx, StateStateMismatch)
		} else {
			f.transition(ctx, StateDenied)
		}
		return "", cb.err
	}
	f.transition(ctx, StateCodeReceived)

	f.transition(ctx, StateExchanging)
	email, err = f.complete(ctx, oc, cb.code)
	if err != nil {
		f.logger.Error(ctx, "token exchange failed", "error", err)
		f.transition(ctx, StateExchangeFailed)
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	f.transition(ctx, StateSuccess)
	f.logger.Info(ctx, "account connected", "email", email)
	return email, nil
}

// complete exchanges code, resolves the account and persists everything.
func (f *Flow) complete(ctx context.Context, oc *oauth2.Config, code string) (string, error) {
	tok, err := oc.Exchange(ctx, code)
	if err != nil {
		return "", err
	}

	email, err := f.identity.Email(ctx, tok)
	if err != nil {
		return "", err
	}

	if err := f.store.Credentials.Save(ctx, &credentials.Credentials{
		ClientID:     oc.ClientID,
		ClientSecret: oc.ClientSecret,
	}); err != nil {
		return "", err
	}
	if err := f.store.Tokens.Save(ctx, &credentials.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Email:        email,
	}); err != nil {
		return "", err
	}
	return email, nil
}

func (f *Flow) shutdown(ctx context.Context, srv *http.Server) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		f.logger.Warn(ctx, "callback listener shutdown", "error", err)
		_ = srv.Close()
	}
	f.logger.Debug(ctx, "callback listener released")
}
