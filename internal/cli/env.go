package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/catalog"
	"github.com/roach88/barcodebuddy/internal/config"
	"github.com/roach88/barcodebuddy/internal/grocy"
	"github.com/roach88/barcodebuddy/internal/lookup"
	"github.com/roach88/barcodebuddy/internal/match"
	"github.com/roach88/barcodebuddy/internal/scan"
	"github.com/roach88/barcodebuddy/internal/state"
	"github.com/roach88/barcodebuddy/internal/store"
)

// app is the wiring shared by every command that touches the database.
type app struct {
	opts      *RootOptions
	bootstrap config.Bootstrap
	store     *store.Store
	settings  *config.Store
	catalog   catalog.Client
	lookup    scan.DescriptiveLookup
	matcher   *match.Matcher
	machine   *state.Machine
	logger    *slog.Logger
	out       *OutputFormatter
}

// openApp loads the bootstrap file, opens the database and builds the
// collaborators. A nil broadcaster announces nothing.
func openApp(cmd *cobra.Command, opts *RootOptions, broadcaster state.Broadcaster) (*app, error) {
	ctx := cmd.Context()
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	b, err := config.LoadBootstrap(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	dbPath := b.Database
	if opts.Database != "" {
		dbPath = opts.Database
	}

	logger.Debug("opening database", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	settings := config.New(st)
	if err := settings.Init(ctx); err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to initialize settings", err)
	}
	if err := settings.ApplyRemote(ctx, b); err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to apply config", err)
	}

	machine := state.New(st, settings, broadcaster, opts.Clock, logger)
	if err := machine.Init(ctx); err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to initialize state", err)
	}

	a := &app{
		opts:      opts,
		bootstrap: b,
		store:     st,
		settings:  settings,
		catalog:   opts.Catalog,
		lookup:    opts.Lookup,
		matcher:   match.New(st),
		machine:   machine,
		logger:    logger,
		out:       newFormatter(cmd, opts),
	}
	if a.catalog == nil {
		a.catalog = grocy.New(settings,
			grocy.WithTimeout(b.Grocy.Timeout),
			grocy.WithLogger(logger))
	}
	if a.lookup == nil {
		if b.Lookup.Enabled {
			a.lookup = lookup.New(b.Lookup.URL, b.Lookup.Timeout)
		} else {
			a.lookup = lookup.Disabled{}
		}
	}
	return a, nil
}

// Close releases the database.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}

// processor builds the scan pipeline. A nil publisher publishes nothing.
func (a *app) processor(publisher scan.Publisher) *scan.Processor {
	return scan.New(scan.Deps{
		Store:     a.store,
		Settings:  a.settings,
		State:     a.machine,
		Catalog:   a.catalog,
		Matcher:   a.matcher,
		Lookup:    a.lookup,
		Publisher: publisher,
		Logger:    a.logger,
		NewID:     a.opts.NewID,
	})
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger configures logging based on the verbose flag.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// failRemote reports a catalog failure and returns the matching exit error.
func (a *app) failRemote(message string, err error) error {
	code := string(catalog.CodeOf(err))
	if code == "" {
		code = ErrCodeRemote
	}
	_ = a.out.Error(code, message, err.Error())
	return WrapExitError(ExitFailure, message, err)
}

// failStore reports a local storage failure.
func (a *app) failStore(message string, err error) error {
	_ = a.out.Error(ErrCodeStore, message, err.Error())
	return WrapExitError(ExitCommandError, message, err)
}

// failInput reports a bad argument.
func (a *app) failInput(message string) error {
	_ = a.out.Error(ErrCodeInvalidInput, message, nil)
	return NewExitError(ExitCommandError, message)
}
