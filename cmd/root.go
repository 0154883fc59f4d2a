// Package cmd provides the CLI commands for git-versioning.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// EnvUpdatePropertiesFile is the environment form of --update-properties-file.
const EnvUpdatePropertiesFile = "VERSIONING_UPDATE_PROPERTIES_FILE"

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// RefFlags carries the ref override flags; nil means the flag was not given.
type RefFlags struct {
	Branch *string
	Tag    *string
	Ref    *string
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func() Logger

	// ConfigLoader loads the versioning configuration.
	ConfigLoader func(ctx context.Context, configFile, repoPath string) (*AppConfig, error)

	// SnapshotProviderFactory creates a SnapshotProvider for the given path.
	SnapshotProviderFactory func(path string, log Logger) (domain.SnapshotProvider, error)

	// OverrideResolver detects a branch/tag override from flags, environment or CI.
	// It returns the override and the name of the source that supplied it.
	OverrideResolver func(ctx context.Context, flags RefFlags, log Logger) (domain.RefOverride, string, error)

	// ResolverFactory creates a Resolver.
	ResolverFactory func(log Logger) domain.Resolver

	// OutputWriterFactory creates an OutputWriter for the given format and destination.
	OutputWriterFactory func(format string, out io.Writer) (domain.OutputWriter, error)

	// Environ returns the process environment in KEY=VALUE form.
	Environ func() []string

	// LookupEnv looks up a single environment variable.
	LookupEnv func(key string) (string, bool)

	// Stdout is the writer for standard output (for the resolved version).
	Stdout io.Writer

	// Stderr is the writer for standard error (for warnings/errors).
	Stderr io.Writer
}

// AppConfig holds application configuration loaded by ConfigLoader.
type AppConfig struct {
	// Versioning holds the rules and global flags.
	Versioning *domain.Config

	// Source describes where the configuration came from.
	Source string

	// LogLevel is the log level setting.
	LogLevel string

	// LogAppName is the application name for logging.
	LogAppName string
}

// Command-line flags.
var (
	configFile           string
	outputFormat         string
	gitBranch            string
	gitTag               string
	gitRef               string
	preferTags           bool
	disable              bool
	updatePropertiesFile bool
	projectVersion       string
	params               []string
	verbose              bool
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for git-versioning.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "git-versioning [path]",
		Short: "Compute the project version from the state of a Git repository",
		Long: `git-versioning computes a project version from the current Git state.

The current branch, the tags at HEAD, the HEAD commit and the working tree
status select the first matching rule from the configuration. The rule's
version format is rendered with placeholders such as ${branch}, ${tag},
${commit.short}, ${describe.distance} or ${env.BUILD_NUMBER}.

Rules are read from .git-versioning.yaml in the repository (or --config),
or from Vault when VAULT_VERSIONING_CONFIG_PATH is set. CI systems that
check out a detached HEAD (GitHub Actions, GitLab CI, CircleCI, Jenkins)
are detected and their branch or tag is used.

Examples:
  # Print the version for the current directory
  git-versioning

  # Print version and properties as JSON
  git-versioning -o json /path/to/repo

  # Version a detached checkout as if it were a tag
  git-versioning --git-ref refs/tags/v1.2.3

  # Pass build parameters available as ${property.<name>}
  git-versioning -P buildNumber=42 --project-version 1.0.0-SNAPSHOT`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, args, deps)
		},
	}

	// Define flags
	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "",
		"Path to the versioning configuration file (default: .git-versioning.yaml in the repository)")
	flags.StringVarP(&outputFormat, "output", "o", "text",
		"Output format: text, json, yaml or properties")
	flags.StringVar(&gitBranch, "git-branch", "", "Use this branch instead of the checked out one")
	flags.StringVar(&gitTag, "git-tag", "", "Use this tag instead of the tags at HEAD (empty for none)")
	flags.StringVar(&gitRef, "git-ref", "", "Use this full ref (refs/heads/<branch> or refs/tags/<tag>)")
	flags.BoolVar(&preferTags, "prefer-tags", false, "Prefer tag rules over branch rules when HEAD is tagged")
	flags.BoolVar(&disable, "disable", false, "Disable versioning")
	flags.BoolVar(&updatePropertiesFile, "update-properties-file", false,
		"Report that the build should rewrite its properties file")
	flags.StringVar(&projectVersion, "project-version", "", "Current project version, available as ${version}")
	flags.StringArrayVarP(&params, "param", "P", nil, "Build parameter key=value, available as ${property.<key>}")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug logging")

	return rootCmd
}

// runVersion executes the version resolution with injected dependencies.
func runVersion(cmd *cobra.Command, args []string, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Determine repository path
	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}

	// Get stderr for warnings
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	log := deps.LoggerFactory()

	log.Info(ctx, "starting git-versioning", map[string]interface{}{
		"path":    repoPath,
		"config":  configFile,
		"output":  outputFormat,
		"verbose": verbose,
	})

	writer, err := deps.OutputWriterFactory(outputFormat, stdout)
	if err != nil {
		return err
	}

	parameters, err := parseParams(params)
	if err != nil {
		return err
	}

	updateOption, err := updatePropertiesFileOption(cmd, deps.LookupEnv)
	if err != nil {
		return err
	}

	cfg, err := deps.ConfigLoader(ctx, configFile, repoPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return fmt.Errorf("configuration error: %w", err)
	}
	versioning := *cfg.Versioning
	if cmd.Flags().Changed("disable") {
		versioning.Disable = disable
	}
	if cmd.Flags().Changed("prefer-tags") {
		versioning.PreferTags = preferTags
	}
	log.Debug(ctx, "configuration loaded", map[string]interface{}{
		"source":        cfg.Source,
		"branch_rules":  len(versioning.Branches),
		"tag_rules":     len(versioning.Tags),
		"commit_rule":   versioning.Commit != nil,
		"prefer_tags":   versioning.PreferTags,
		"skip_no_match": versioning.SkipOnNoMatch,
	})

	if versioning.Disable {
		log.Info(ctx, "skip - versioning is disabled", nil)
		return nil
	}

	provider, err := deps.SnapshotProviderFactory(repoPath, log)
	if err != nil {
		log.Error(ctx, "failed to open git repository", err, map[string]interface{}{
			"path": repoPath,
		})
		if errors.Is(err, domain.ErrRepositoryNotFound) {
			return fmt.Errorf("not a git repository: %s", repoPath)
		}
		return err
	}
	defer func() {
		if closeErr := provider.Close(); closeErr != nil {
			log.Warn(ctx, "failed to close git repository", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	snapshot, err := provider.Snapshot(ctx)
	if err != nil {
		log.Error(ctx, "failed to read repository state", err, nil)
		if errors.Is(err, domain.ErrNoHeadCommit) {
			return fmt.Errorf("repository has no commits: %s", repoPath)
		}
		return err
	}

	refOverride, source, err := deps.OverrideResolver(ctx, refFlags(cmd), log)
	if err != nil {
		log.Error(ctx, "failed to detect ref override", err, map[string]interface{}{
			"source": source,
		})
		return err
	}
	if !refOverride.IsEmpty() {
		snapshot = snapshot.WithOverride(refOverride)
	}

	var environ []string
	if deps.Environ != nil {
		environ = deps.Environ()
	}

	resolver := deps.ResolverFactory(log)
	result, err := resolver.Resolve(ctx, domain.ResolveInput{
		Snapshot:                   snapshot,
		Config:                     &versioning,
		CurrentVersion:             projectVersion,
		Parameters:                 parameters,
		Environ:                    environ,
		UpdatePropertiesFileOption: updateOption,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrVersioningDisabled), errors.Is(err, domain.ErrSkipped):
			log.Info(ctx, "no version produced", map[string]interface{}{"reason": err.Error()})
			return nil
		case errors.Is(err, domain.ErrNoMatchingRule):
			log.Error(ctx, "no versioning rule matches", err, nil)
			return fmt.Errorf("no versioning rule matches the current ref: %w", err)
		default:
			log.Error(ctx, "failed to resolve version", err, nil)
			return err
		}
	}

	if err := writer.Write(result); err != nil {
		log.Error(ctx, "failed to write output", err, nil)
		return fmt.Errorf("output error: %w", err)
	}

	log.Info(ctx, "version resolution complete", map[string]interface{}{
		"version":  result.Version,
		"ref_type": result.RefType,
		"ref_name": result.RefName,
	})

	return nil
}

// refFlags collects the ref override flags that were set explicitly.
func refFlags(cmd *cobra.Command) RefFlags {
	var flags RefFlags
	if cmd.Flags().Changed("git-branch") {
		flags.Branch = &gitBranch
	}
	if cmd.Flags().Changed("git-tag") {
		flags.Tag = &gitTag
	}
	if cmd.Flags().Changed("git-ref") {
		flags.Ref = &gitRef
	}
	return flags
}

// updatePropertiesFileOption returns the flag value, else the environment value,
// else nil so that the configuration decides.
func updatePropertiesFileOption(cmd *cobra.Command, lookupEnv func(string) (string, bool)) (*bool, error) {
	if cmd.Flags().Changed("update-properties-file") {
		value := updatePropertiesFile
		return &value, nil
	}
	if lookupEnv == nil {
		return nil, nil
	}
	raw, ok := lookupEnv(EnvUpdatePropertiesFile)
	if !ok || raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", EnvUpdatePropertiesFile, raw, err)
	}
	return &value, nil
}

// parseParams turns key=value flags into build parameters.
func parseParams(raw []string) (map[string]any, error) {
	parameters := make(map[string]any, len(raw))
	for _, p := range raw {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", p)
		}
		parameters[key] = value
	}
	return parameters, nil
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		// Intentionally ignored: no recovery action for failed stderr writes
		return
	}
}
