// Package main is the entry point for the git-versioning CLI application.
// git-versioning derives a project version from the state of a local Git
// repository and a set of pattern-based rules, and prints it for build tools and CI.
package main

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/git-versioning/cmd"
	"github.com/MyCarrier-DevOps/git-versioning/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/git-versioning/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/git-versioning/internal/adapters/output"
	"github.com/MyCarrier-DevOps/git-versioning/internal/adapters/override"
	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
	"github.com/MyCarrier-DevOps/git-versioning/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/git-versioning/internal/usecases"
)

func main() {
	// The logger is built on first use so that --verbose can raise LOG_LEVEL before it is read.
	cmd.SetDefaultDependencies(newDependencies(func() *logadapter.ZapAdapter {
		return logadapter.NewZapAdapter(logger.NewZapLoggerFromConfig())
	}))
	cmd.Execute()
}

// newDependencies wires up the production dependencies around a single shared logger,
// created by newLogger the first time any factory needs it.
func newDependencies(newLogger func() *logadapter.ZapAdapter) *cmd.Dependencies {
	adapter := sync.OnceValue(newLogger)

	return &cmd.Dependencies{
		LoggerFactory: func() cmd.Logger {
			return adapter()
		},

		ConfigLoader: func(ctx context.Context, configFile, repoPath string) (*cmd.AppConfig, error) {
			cfg, err := config.Load(ctx, config.Options{
				ConfigFile: configFile,
				RepoPath:   repoPath,
			})
			if err != nil {
				return nil, err
			}
			return &cmd.AppConfig{
				Versioning: cfg.Versioning,
				Source:     cfg.Source,
				LogLevel:   cfg.LogLevel,
				LogAppName: cfg.LogAppName,
			}, nil
		},

		SnapshotProviderFactory: func(path string, _ cmd.Logger) (domain.SnapshotProvider, error) {
			repo, err := git.NewGoGitRepository(path, adapter().WithComponent("git"))
			if err != nil {
				return nil, err
			}
			return repo, nil
		},

		OverrideResolver: func(ctx context.Context, flags cmd.RefFlags, _ cmd.Logger) (domain.RefOverride, string, error) {
			sources := override.DefaultSources(override.CommandLine{
				Branch: flags.Branch,
				Tag:    flags.Tag,
				Ref:    flags.Ref,
			})
			return override.Resolve(ctx, sources, adapter().WithComponent("override"))
		},

		ResolverFactory: func(_ cmd.Logger) domain.Resolver {
			return usecases.NewVersioner(adapter().WithComponent("versioner"))
		},

		OutputWriterFactory: func(format string, out io.Writer) (domain.OutputWriter, error) {
			f, err := output.ParseFormat(format)
			if err != nil {
				return nil, err
			}
			return output.NewWriterWithOutput(out, f), nil
		},

		Environ:   os.Environ,
		LookupEnv: os.LookupEnv,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}
