package oauth

import (
	"github.com/dmitrijs2005/kolp/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// endpoint returns the provider endpoints, defaulting to Google. Client
// credentials always travel in the form body.
func endpoint(cfg *config.Config) oauth2.Endpoint {
	ep := google.Endpoint
	if cfg.AuthURL != "" {
		ep.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		ep.TokenURL = cfg.TokenURL
	}
	ep.AuthStyle = oauth2.AuthStyleInParams
	return ep
}

func clientConfig(cfg *config.Config, clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoint(cfg),
		RedirectURL:  redirectURL,
		Scopes:       cfg.Scopes,
	}
}
