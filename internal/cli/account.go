package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/kolp/internal/app"
	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/events"
	"github.com/spf13/cobra"
)

func newAuthCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Connect a Google Drive account in the browser",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app.App, _ []string) error {
			clientID, err := r.clientID(ctx, a)
			if err != nil {
				return err
			}

			secret := []byte(r.cfg.ClientSecret)
			if len(secret) == 0 {
				secret, err = GetSecret(r.in, "Enter client secret: ", r.errOut)
				if err != nil {
					return err
				}
			}
			defer common.WipeByteArray(secret)

			stop := a.Bus.Subscribe(func(e events.Event) {
				if e.Kind == events.KindAuthState {
					r.logger.Debug(ctx, "authorization progress", "state", e.Fields["state"])
				}
			})
			defer stop()

			r.printf("Complete the authorization in your browser...\n")
			res := a.Auth.StartAuth(ctx, clientID, string(secret))
			if !res.Success {
				return errors.New(res.Error)
			}
			r.printf("Connected as %s\n", res.Email)
			return nil
		}),
	}
}

// clientID picks the configured client id, then asks for one. An empty
// answer keeps the previously registered id.
func (r *runtime) clientID(ctx context.Context, a *app.App) (string, error) {
	if r.cfg.ClientID != "" {
		return r.cfg.ClientID, nil
	}

	prompt := "Enter client ID"
	saved, ok := a.Auth.SavedClientID(ctx)
	if ok {
		prompt += " (empty to keep " + saved + ")"
	}

	id, err := GetSimpleText(r.in, prompt, r.errOut)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = saved
	}
	return id, nil
}

func newStatusCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the connected account and the last sync",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app.App, _ []string) error {
			st := a.Auth.Status(ctx)
			if !st.Connected {
				r.printf("Not connected\n")
			} else {
				r.printf("Connected as %s\n", st.Email)
				r.printf("Access token expires: %s\n", formatTime(st.ExpiresAt))
			}
			r.printf("Last sync: %s\n", formatTime(st.LastSyncAt))
			return nil
		}),
	}
}

func newDisconnectCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app.App, _ []string) error {
			if err := a.Auth.Disconnect(ctx); err != nil {
				return err
			}
			r.printf("Disconnected\n")
			return nil
		}),
	}
}
