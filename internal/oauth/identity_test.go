package oauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestGoogleIdentity_Email(t *testing.T) {
	p := newFakeProvider(t)
	id := GoogleIdentity{Endpoint: p.srv.URL + "/"}

	email, err := id.Email(context.Background(), &oauth2.Token{AccessToken: "at-exchanged", TokenType: "Bearer"})
	require.NoError(t, err)
	require.Equal(t, "user@example.com", email)
}

func TestGoogleIdentity_RejectedToken(t *testing.T) {
	p := newFakeProvider(t)
	id := GoogleIdentity{Endpoint: p.srv.URL + "/"}

	_, err := id.Email(context.Background(), &oauth2.Token{AccessToken: "other", TokenType: "Bearer"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch userinfo")
}
