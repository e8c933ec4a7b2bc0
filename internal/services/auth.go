package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/credentials"
	"github.com/dmitrijs2005/kolp/internal/events"
	"github.com/dmitrijs2005/kolp/internal/logging"
	"github.com/dmitrijs2005/kolp/internal/models"
	"github.com/dmitrijs2005/kolp/internal/oauth"
)

// AuthResult is the outcome of StartAuth.
type AuthResult struct {
	Success bool
	Email   string
	Error   string
}

// AuthStatus describes the stored connection. Connected is true whenever a
// token record holding an access or refresh token is stored, even if the
// access token has expired.
type AuthStatus struct {
	Connected  bool
	Email      string
	ExpiresAt  time.Time
	LastSyncAt time.Time
}

// AuthService connects and disconnects the storage account.
type AuthService interface {
	StartAuth(ctx context.Context, clientID, clientSecret string) AuthResult
	Status(ctx context.Context) AuthStatus
	Disconnect(ctx context.Context) error
	// SavedClientID returns the client id of the stored registration, if any.
	SavedClientID(ctx context.Context) (string, bool)
}

type authService struct {
	flow    Authorizer
	store   *credentials.Store
	journal Journal
	bus     *events.Bus
	logger  logging.Logger
}

func NewAuthService(flow Authorizer, store *credentials.Store, journal Journal, bus *events.Bus, logger logging.Logger) AuthService {
	return &authService{
		flow:    flow,
		store:   store,
		journal: journal,
		bus:     bus,
		logger:  logger.With("module", "auth"),
	}
}

// AuthStateHook forwards flow transitions to bus.
func AuthStateHook(bus *events.Bus) oauth.StateHook {
	return func(_ context.Context, s oauth.State) {
		bus.Publish(events.New(events.KindAuthState, "state", string(s)))
	}
}

func (s *authService) StartAuth(ctx context.Context, clientID, clientSecret string) AuthResult {
	if clientID == "" || clientSecret == "" {
		return AuthResult{Error: Message(ErrMissingCredentials)}
	}

	email, err := s.flow.Start(ctx, clientID, clientSecret)
	if err != nil {
		s.logger.Warn(ctx, "authorization failed", "error", err)
		return AuthResult{Error: Message(err)}
	}
	return AuthResult{Success: true, Email: email}
}

func (s *authService) Status(ctx context.Context) AuthStatus {
	var st AuthStatus
	if toks, ok := s.store.Tokens.Load(ctx); ok && (toks.AccessToken != "" || toks.RefreshToken != "") {
		st.Connected = true
		st.Email = toks.Email
		st.ExpiresAt = toks.ExpiresAt
	}

	last, err := s.journal.LatestSuccessful(ctx, models.OpUpload, models.OpDownload)
	switch {
	case err == nil:
		st.LastSyncAt = last.FinishedAt
	case !errors.Is(err, common.ErrorNotFound):
		s.logger.Warn(ctx, "cannot read sync journal", "error", err)
	}
	return st
}

// Disconnect forgets the tokens; the client registration stays.
func (s *authService) Disconnect(ctx context.Context) error {
	if err := s.store.Disconnect(ctx); err != nil {
		return err
	}
	s.bus.Publish(events.New(events.KindAuthState, "state", "disconnected"))
	s.logger.Info(ctx, "account disconnected")
	return nil
}

func (s *authService) SavedClientID(ctx context.Context) (string, bool) {
	creds, ok := s.store.Credentials.Load(ctx)
	if !ok || creds.ClientID == "" {
		return "", false
	}
	return creds.ClientID, true
}
