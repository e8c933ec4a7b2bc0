package oauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// IdentityFetcher resolves the account an access token belongs to.
type IdentityFetcher interface {
	Email(ctx context.Context, token *oauth2.Token) (string, error)
}

// GoogleIdentity reads the profile e-mail from the userinfo endpoint.
// Endpoint overrides the API root; empty means the Google default.
type GoogleIdentity struct {
	Endpoint string
}

func (g GoogleIdentity) Email(ctx context.Context, token *oauth2.Token) (string, error) {
	opts := []option.ClientOption{
		option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))),
	}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}

	svc, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Email == "" {
		return "", errors.New("profile has no e-mail")
	}
	return info.Email, nil
}
