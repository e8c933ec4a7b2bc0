package cli

import (
	"context"

	"github.com/dmitrijs2005/kolp/internal/app"
	"github.com/dmitrijs2005/kolp/internal/bridge"
	"github.com/spf13/cobra"
)

func newServeCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local bridge for the note application",
		Long: "Run the local gRPC bridge until interrupted.\n" +
			"A fresh access token is written to the data directory on every start.",
		Args: cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app.App, _ []string) error {
			secret := bridge.NewSecret()
			tokenPath := r.cfg.BridgeTokenPath()
			if _, err := bridge.IssueToken(tokenPath, secret, r.cfg.BridgeTokenValidity); err != nil {
				return err
			}

			srv := bridge.NewServer(r.cfg.BridgeAddr, a.Auth, a.Backup, a.Bus, secret, a.Logger)
			r.printf("Bridge on %s, token in %s\n", r.cfg.BridgeAddr, tokenPath)
			return srv.Run(ctx)
		}),
	}
}
