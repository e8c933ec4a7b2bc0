package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/kolp/internal/app"
	"github.com/spf13/cobra"
)

func newPushCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "push <snapshot.json|->",
		Short: "Upload a snapshot, replacing the remote backup",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(ctx context.Context, a *app.App, args []string) error {
			snap, err := r.readSnapshot(args[0])
			if err != nil {
				return err
			}

			res := a.Backup.SyncUpload(ctx, snap)
			if !res.Success {
				return errors.New(res.Error)
			}
			r.printf("Uploaded %s as %s\n", summary(snap), res.Name)
			r.printf("Local copy: %s\n", a.Backup.LocalCopyPath())
			return nil
		}),
	}
}

func newPullCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "pull [out.json]",
		Short: "Download the newest remote backup",
		Long: "Download the newest remote backup.\n" +
			"Without an output file the snapshot is printed as JSON.",
		Args: cobra.MaximumNArgs(1),
		RunE: r.withApp(func(ctx context.Context, a *app.App, args []string) error {
			res := a.Backup.SyncDownload(ctx)
			if !res.Success {
				return errors.New(res.Error)
			}

			var out string
			if len(args) == 1 {
				out = args[0]
			}
			if err := r.writeSnapshot(res.Snapshot, out); err != nil {
				return err
			}
			if !toStdout(out) {
				r.printf("Downloaded %s from backup of %s\n", summary(res.Snapshot), formatTime(res.Timestamp))
			}
			return nil
		}),
	}
}

func newHistoryCmd(r *runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent backup operations",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app.App, _ []string) error {
			entries, err := a.Backup.History(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				r.printf("No operations recorded\n")
				return nil
			}

			tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FINISHED\tOP\tSTATUS\tNAME\tSIZE\tERROR")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					formatTime(e.FinishedAt), e.Op, e.Status, e.Name, e.Size, e.Error)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show, 0 for all")
	return cmd
}
