package cli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/kolp/internal/app"
	"github.com/dmitrijs2005/kolp/internal/container"
	"github.com/spf13/cobra"
)

func newExportCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "export <snapshot.json|-> <out.klp>",
		Short: "Write a snapshot as a backup container",
		Args:  cobra.ExactArgs(2),
		RunE: r.withApp(func(ctx context.Context, a *app.App, args []string) error {
			snap, err := r.readSnapshot(args[0])
			if err != nil {
				return err
			}
			if err := a.Backup.Export(ctx, snap, args[1]); err != nil {
				return userError(err)
			}
			r.printf("Exported %s to %s\n", summary(snap), args[1])
			return nil
		}),
	}
}

func newImportCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <in.klp> [out.json]",
		Short: "Validate a backup container and extract its snapshot",
		Long: "Validate a backup container and extract its snapshot.\n" +
			"Without an output file the snapshot is printed as JSON.",
		Args: cobra.RangeArgs(1, 2),
		RunE: r.withApp(func(ctx context.Context, a *app.App, args []string) error {
			b, err := a.Backup.Import(ctx, args[0])
			if err != nil {
				return userError(err)
			}

			var out string
			if len(args) == 2 {
				out = args[1]
			}
			if err := r.writeSnapshot(&b.Data, out); err != nil {
				return err
			}
			if !toStdout(out) {
				r.printf("Imported %s from backup of %s\n", summary(&b.Data), formatTime(b.Timestamp))
			}
			return nil
		}),
	}
}

// inspect works on the file alone; it opens neither the journal nor the
// credential store.
func newInspectCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.klp>",
		Short: "Show the header of a backup container and verify it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			h, err := container.ReadHeader(data)
			if err != nil {
				return userError(err)
			}
			r.printf("Version:   %d\n", h.Version)
			r.printf("Created:   %s\n", formatTime(h.Timestamp))
			r.printf("Checksum:  %s\n", h.Checksum)
			r.printf("Payload:   %d bytes\n", h.PayloadLength)

			b, err := container.Decode(data)
			if err != nil {
				r.printf("Integrity: failed\n")
				return userError(err)
			}
			r.printf("Integrity: ok\n")
			r.printf("Contents:  %s\n", summary(&b.Data))
			return nil
		},
	}
}
