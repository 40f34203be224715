package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/lifecoord"
	"github.com/bft-labs/lifecoord/internal/catalog"
	"github.com/bft-labs/lifecoord/internal/cliconfig"
	"github.com/bft-labs/lifecoord/pkg/coordinator"
	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/manager"
	"github.com/bft-labs/lifecoord/pkg/resource"
	"github.com/bft-labs/lifecoord/pkg/usecase"
	"github.com/bft-labs/lifecoord/plugins/catalogwatcher"
)

const longHelp = `Open the resources described by a catalog, bind use cases to them and hold
the bindings until interrupted.

The catalog is a TOML or YAML file listing resources by id, class and tags.
Configure via file ($HOME/.lifecoord/config.toml), LIFECOORD_* env or flags;
explicit flags win over env, env wins over the file.`

var exampleUsage = strings.TrimSpace(`
  lifecoord --catalog ./catalog.toml --use-case preview --use-case capture:front
  lifecoord --config $HOME/.lifecoord/config.toml --once
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "lifecoord",
		Short:         "Coordinate resource lifecycles and use case bindings from a catalog",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, cfgFile, changed); err != nil {
					return err
				}
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.lifecoord/config.toml)")
	root.Flags().StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "resource catalog (.toml, .yaml or .yml)")
	root.Flags().StringVar(&cfg.Source, "source", cfg.Source, "binding source identifier")
	root.Flags().StringSliceVar(&cfg.UseCases, "use-case", cfg.UseCases, "use case to bind as kind or kind:class (repeatable)")
	root.Flags().StringVar(&cfg.Class, "class", cfg.Class, "resource class for use cases that name none")
	root.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "worker pool size (0 sizes the pool to the resources)")
	root.Flags().DurationVar(&cfg.InitTimeout, "init-timeout", cfg.InitTimeout, "maximum time to wait for initialization")
	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload the catalog when it changes")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "bind, report and exit")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.NewConsoleLogger(os.Stderr, "error").Error("lifecoord", log.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config) error {
	logger := log.NewConsoleLogger(os.Stderr, cfg.LogLevel)
	logger.Info("configuration",
		log.String("catalog", cfg.CatalogPath),
		log.String("source", cfg.Source),
		log.Strings("use_cases", cfg.UseCases),
		log.Int("workers", cfg.Workers),
		log.Bool("watch", cfg.Watch),
		log.Bool("once", cfg.Once))

	specs, err := cfg.ParseUseCases()
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	mcfg := manager.Config{
		Name:            cfg.Source,
		ResourceFactory: catalog.Provider(cat, logger),
		Defaults:        usecase.StaticDefaults{}.Provider(),
		Workers:         cfg.Workers,
	}
	if cfg.Watch {
		mcfg = mcfg.With(catalogwatcher.WithDefaultCatalogWatcher(cat))
	}

	lifecoord.SetDefaultOptions(coordinator.WithLogger(logger))
	coord := lifecoord.Default()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.InitTimeout)
		defer cancel()
		if err := coord.Close(closeCtx); err != nil {
			logger.Warn("close coordinator", log.Err(err))
		}
	}()

	if err := coord.Configure(mcfg); err != nil {
		return err
	}
	initCtx, cancel := context.WithTimeout(ctx, cfg.InitTimeout)
	_, err = coord.Initialize().Wait(initCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	useCases := make([]usecase.UseCase, 0, len(specs))
	for _, s := range specs {
		sel := resource.NewSelector()
		if s.Class != "" {
			sel = sel.RequireClass(s.Class)
		}
		useCases = append(useCases, usecase.New(s.Kind, usecase.WithSelector(sel)))
	}

	err = coord.Do(ctx, func(ctx context.Context) error {
		rec, err := coord.Bind(ctx, cfg.Source, resource.NewSelector(), useCases...)
		if err != nil {
			return err
		}
		logger.Info("bound",
			log.String("record", rec.Key().String()),
			log.Strings("use_cases", usecase.IDs(useCases)),
			log.Bool("active", rec.IsActive()),
			log.Bool("claimed", rec.IsClaimed()))
		return nil
	})
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}

	if !cfg.Once {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received signal, stopping...")
		case <-ctx.Done():
		}
	}

	err = coord.Do(context.Background(), func(ctx context.Context) error {
		return coord.UnbindAll(ctx)
	})
	if err != nil {
		logger.Warn("unbind", log.Err(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.InitTimeout)
	defer cancel()
	if _, err := coord.Shutdown().Wait(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}
