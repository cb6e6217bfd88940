package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	compat "github.com/contriboss/toolchain-compat"
)

// options holds the command-line flags.
type options struct {
	ecosystem        string
	catalogPath      string
	output           string
	resolveToolchain string
	timeout          time.Duration
	keep             bool
	verbose          bool
	skipToolCheck    bool
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	var logger *zap.Logger

	cmd := &cobra.Command{
		Use:   "toolchain-compat [library]",
		Short: "Find the oldest toolchain release each library builds with",
		Long: `toolchain-compat scaffolds a throwaway project per library, resolves the
library's version with the default toolchain, and binary-searches the list of
toolchain releases for the oldest one that still builds the project.

Without arguments the whole catalog is probed (plus a control project with no
dependencies) and written to results.json. With one argument only that library
is probed and written to result-<name>.json.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, args, logger, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.ecosystem, "ecosystem", "e", envOr("COMPAT_ECOSYSTEM", "rust"), "ecosystem to probe (rust, go)")
	flags.StringVarP(&opts.catalogPath, "catalog", "c", "", "YAML catalog replacing the built-in libraries and versions")
	flags.StringVarP(&opts.output, "output", "o", "", "result file (default results.json or result-<name>.json)")
	flags.StringVar(&opts.resolveToolchain, "resolve-toolchain", os.Getenv("COMPAT_RESOLVE_TOOLCHAIN"), "toolchain used to resolve library versions (default: the tool's default)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-command timeout, 0 disables")
	flags.BoolVar(&opts.keep, "keep", false, "keep scaffolded projects on disk")
	flags.BoolVar(&opts.skipToolCheck, "skip-tool-check", false, "do not check for required executables before running")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func run(ctx context.Context, opts *options, args []string, logger *zap.Logger, out io.Writer) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := compat.Config{
		CargoPath:        os.Getenv("CARGO"),
		RustupPath:       os.Getenv("RUSTUP"),
		GoPath:           os.Getenv("COMPAT_GO"),
		ResolveToolchain: opts.resolveToolchain,
		CommandTimeout:   opts.timeout,
		KeepProjects:     opts.keep,
	}

	ecosystemName := opts.ecosystem
	var catalog *compat.CatalogFile
	if opts.catalogPath != "" {
		var err error
		catalog, err = compat.LoadCatalog(opts.catalogPath)
		if err != nil {
			return err
		}
		if catalog.Ecosystem != "" {
			ecosystemName = catalog.Ecosystem
		}
	}

	registry := compat.NewRegistry(compat.NewExecRunner(cfg, logger), cfg, logger)
	eco, err := registry.Lookup(ecosystemName)
	if err != nil {
		return err
	}

	if checker, ok := eco.(compat.ToolChecker); ok && !opts.skipToolCheck {
		if err := checker.CheckTools(); err != nil {
			return fmt.Errorf("%s toolchain tools missing: %w", eco.Name(), err)
		}
	}

	libraries, versions := eco.DefaultCatalog(), eco.Versions()
	if catalog != nil {
		if len(catalog.Libraries) > 0 {
			libraries = catalog.Libraries
		}
		if len(catalog.Versions) > 0 {
			versions = catalog.Versions
		}
	}

	driver, err := compat.NewDriver(eco, libraries, versions, logger, out)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return runSingle(ctx, driver, strings.TrimSpace(args[0]), opts.output, out)
	}
	return runBatch(ctx, driver, opts.output, out)
}

func runBatch(ctx context.Context, driver *compat.Driver, output string, out io.Writer) error {
	if output == "" {
		output = compat.BatchFilename
	}

	results, runErr := driver.RunBatch(ctx)
	if err := compat.WriteResults(output, results); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== Results written to %s ===\n", output)

	if errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("interrupted after %d results", len(results))
	}
	return runErr
}

func runSingle(ctx context.Context, driver *compat.Driver, name, output string, out io.Writer) error {
	if name == "" {
		return fmt.Errorf("library name is empty")
	}
	if output == "" {
		output = compat.SingleFilename(name)
	}

	fmt.Fprintf(out, "Testing single library: %s\n", name)
	result, err := driver.RunSingle(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to test %s: %w", name, err)
	}

	if err := compat.WriteResults(output, result); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== Result written to %s ===\n", output)
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
