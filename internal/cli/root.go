package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/kolp/internal/app"
	"github.com/dmitrijs2005/kolp/internal/config"
	"github.com/dmitrijs2005/kolp/internal/logging"
	"github.com/dmitrijs2005/kolp/internal/oauth"
	"github.com/spf13/cobra"
)

// Options are the process-level dependencies of the command tree. Zero
// values fall back to the standard streams and the system browser.
type Options struct {
	In      io.Reader
	Out     io.Writer
	Err     io.Writer
	Browser oauth.BrowserOpener
}

type runtime struct {
	args    []string
	in      *bufio.Reader
	out     io.Writer
	errOut  io.Writer
	browser oauth.BrowserOpener

	cfg    *config.Config
	logger logging.Logger
}

// Execute runs the command line in args (without the program name).
func Execute(ctx context.Context, args []string, opts Options) error {
	root := NewRootCommand(args, opts)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. args must be the same slice later
// passed to SetArgs; configuration is read from it.
func NewRootCommand(args []string, opts Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	r := &runtime{
		args:    args,
		in:      bufio.NewReader(opts.In),
		out:     opts.Out,
		errOut:  opts.Err,
		browser: opts.Browser,
	}

	root := &cobra.Command{
		Use:           "kolp",
		Short:         "Backup and sync for the KOLP note library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.loadConfig()
		},
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	// Values are read by package config; cobra only needs to accept them.
	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "JSON config file")
	pf.StringP("data-dir", "d", "", "directory holding tokens, backups and the journal")
	pf.StringP("log-level", "l", "", "debug | info | warn | error")
	pf.IntP("redirect-port", "p", 0, "loopback port of the OAuth callback listener")
	pf.StringP("bridge-addr", "b", "", "host:port of the local bridge")

	root.AddCommand(
		newExportCmd(r),
		newImportCmd(r),
		newInspectCmd(r),
		newAuthCmd(r),
		newStatusCmd(r),
		newDisconnectCmd(r),
		newPushCmd(r),
		newPullCmd(r),
		newHistoryCmd(r),
		newServeCmd(r),
	)
	return root
}

func (r *runtime) loadConfig() error {
	cfg, err := config.LoadConfig(r.args)
	if err != nil {
		return err
	}
	r.cfg = cfg
	r.logger = logging.NewTextLogger(r.errOut, cfg.LogLevel)
	return nil
}

type appRunFunc func(ctx context.Context, a *app.App, args []string) error

// withApp opens the application for the duration of one command.
func (r *runtime) withApp(fn appRunFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := app.New(ctx, r.cfg, r.logger, r.browser)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				r.logger.Warn(ctx, "close failed", "error", err)
			}
		}()

		return fn(ctx, a, args)
	}
}

func (r *runtime) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
