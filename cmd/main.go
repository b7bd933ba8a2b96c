package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"favorites-reconciler/internal/di"
	"favorites-reconciler/internal/reconcile"
	"favorites-reconciler/internal/reconcile/config"
	"favorites-reconciler/internal/reconcile/domain/model"
	apperrors "favorites-reconciler/internal/shared/errors"
	"favorites-reconciler/internal/shared/logger"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// reportedError marks a failure the job has already shown to the operator
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// run executes the command line and returns the process exit status
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCommand(reconcile.Streams{Stdin: stdin, Stdout: stdout, Stderr: stderr}, reconcile.Overrides{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return apperrors.ExitCodeSuccess
	}

	var reported *reportedError
	if errors.As(err, &reported) {
		return apperrors.ExitCodeFor(reported.err)
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", cmd.CommandPath())
	return apperrors.ExitCodeFailure
}

func newRootCommand(streams reconcile.Streams, overrides reconcile.Overrides) *cobra.Command {
	var opts model.RunOptions

	cmd := &cobra.Command{
		Use:   "favorites-reconciler <credential-file>",
		Short: "Remove favorites that point at bots which no longer exist",
		Long: `favorites-reconciler scans every user's favorites subcollection, reports the
entries whose bot is missing from the bots collection and, once confirmed,
deletes them.

Connection settings are read from the environment (and a .env file when present):
MONGODB_URI, MONGODB_DATABASE, LIST_PAGE_SIZE, BOTS_COLLECTION, USERS_COLLECTION,
FAVORITES_SUBCOLLECTION, SCAN_CONCURRENCY, DELETE_CONCURRENCY, AUDIT_REDIS_URL,
PUSHGATEWAY_URL, LOG_LEVEL, LOG_FORMAT and LOG_BACKEND.`,
		Example: `  favorites-reconciler ./service-account.json --dry-run
  favorites-reconciler ./service-account.json --yes --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.CredentialSource = args[0]
			return execute(cmd.Context(), opts, streams, overrides)
		},
	}
	cmd.SetIn(streams.Stdin)
	cmd.SetOut(streams.Stdout)
	cmd.SetErr(streams.Stderr)

	flags := cmd.Flags()
	flags.BoolVarP(&opts.AutoConfirm, "yes", "y", false, "delete without asking for confirmation")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "report orphaned favorites without deleting them")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "report every scanned user and enable debug logging")

	return cmd
}

func execute(ctx context.Context, opts model.RunOptions, streams reconcile.Streams, overrides reconcile.Overrides) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logOpts := logger.OptionsFromEnv()
	logOpts.Output = streams.Stderr
	if opts.Verbose {
		logOpts.Level = "debug"
	}
	appLogger := logger.New(logOpts)

	container := di.NewContainer()
	defer func() {
		_ = container.Close()
	}()

	if err := container.InitializeReconcile(cfg, appLogger, streams, overrides); err != nil {
		return err
	}
	module := container.GetReconcileModule()

	result, runErr := module.GetUsecase().Run(ctx, opts)
	if err := module.PushMetrics(ctx, result); err != nil {
		appLogger.Warnf("Failed to push metrics: %v", err)
	}
	if runErr != nil {
		return &reportedError{err: runErr}
	}
	return nil
}
