package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toyz/dbweave/internal/cli"
	"github.com/toyz/dbweave/internal/config"
	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/logging"
	"github.com/toyz/dbweave/internal/utils"
)

type app struct {
	verbose  bool
	quiet    bool
	manifest string
	workers  int

	env         *config.Env
	logger      *zap.Logger
	diagnostics *utils.DiagnosticSystem
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "dbweave",
		Short: "Generate tracing decorators for database driver types",
		Long: `dbweave reads a manifest of driver types and generates, next to each
type's source, a Traced decorator that captures the SQL text, connection
URL and bind values of every execution.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only show errors")
	flags.StringVarP(&a.manifest, "manifest", "m", "", "manifest file (default $DBWEAVE_MANIFEST or the nearest dbweave.yaml)")
	flags.IntVarP(&a.workers, "workers", "w", 0, "types transformed concurrently (default $DBWEAVE_WORKERS)")

	root.AddCommand(a.generateCommand(), a.cleanCommand(), a.inspectCommand())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	a.env = env

	a.diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	switch {
	case a.quiet:
		a.diagnostics = utils.NewQuietDiagnostics()
	case a.verbose:
		a.diagnostics = utils.NewVerboseDiagnostics()
	}
	a.diagnostics.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())

	logCfg := env.LoggingConfig()
	if a.verbose {
		logCfg.Level = "debug"
	}
	a.logger, err = logging.New(logCfg)
	return err
}

// fail lists the error's suggestions; cobra prints the error itself
func (a *app) fail(err error) error {
	if weaveErr, ok := err.(errors.WeaveError); ok {
		a.diagnostics.Indent()
		for _, suggestion := range weaveErr.Suggestions() {
			a.diagnostics.List("%s", suggestion)
		}
		a.diagnostics.Unindent()
	}
	return err
}

// manifestPath picks the --manifest flag, then $DBWEAVE_MANIFEST, then the
// nearest manifest above the working directory
func (a *app) manifestPath() (string, error) {
	if a.manifest != "" {
		return a.manifest, nil
	}
	if _, err := os.Stat(a.env.Manifest); err == nil {
		return a.env.Manifest, nil
	}

	found, err := config.FindManifest(".")
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", errors.ConfigurationError("manifest", "no manifest found").
			WithSuggestion("create dbweave.yaml or pass --manifest")
	}
	return found, nil
}

func (a *app) generateCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate decorators for every manifest target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.manifestPath()
			if err != nil {
				return a.fail(err)
			}

			workers := a.workers
			if workers < 1 {
				workers = a.env.Workers
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			generator := cli.NewGenerator(a.diagnostics, a.logger)
			if err := generator.Run(ctx, cli.Config{ManifestPath: path, Workers: workers, DryRun: dryRun}); err != nil {
				return a.fail(err)
			}

			if a.verbose {
				for _, file := range generator.Summary().GeneratedFiles {
					a.diagnostics.Verbose("wrote %s", file)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "transform without writing files")
	return cmd
}

func (a *app) cleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [dirs...]",
		Short: "Remove generated autogen_weave_*.go files",
		Long: `Remove generated decorators below each directory. Go-style patterns such as
./... are accepted. Without arguments the current directory is cleaned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := cli.NewCleaner().CleanGeneratedFiles(args)
			if err != nil {
				return a.fail(err)
			}

			a.diagnostics.PhaseHeader("Removed")
			a.diagnostics.Indent()
			for _, path := range removed {
				a.diagnostics.PhaseItem("%s", path)
			}
			a.diagnostics.Unindent()
			a.diagnostics.Summary("Summary", map[string]interface{}{"removed": len(removed)})
			return nil
		},
	}
}

func (a *app) inspectCommand() *cobra.Command {
	var (
		dir     string
		exclude []string
	)

	cmd := &cobra.Command{
		Use:   "inspect <type>",
		Short: "Show how a type would be instrumented",
		Long: `Show the interceptor bindings and trace variables the prepared-statement
policy would apply to a type. The type is either qualified
("import/path.Type") or a bare name together with --dir.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var excluded []string
			if cmd.Flags().Changed("exclude") {
				excluded = append([]string{}, exclude...)
			}

			report, err := cli.NewInspector(a.logger).Inspect(args[0], dir, excluded)
			if err != nil {
				return a.fail(err)
			}
			report.Print(a.diagnostics)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "directory of the type's package")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "methods never to wrap (replaces the defaults)")
	return cmd
}
