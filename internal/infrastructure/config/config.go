// Package config provides configuration loading for the git-versioning application.
// Versioning rules are read from a YAML/JSON file through viper, or from HashiCorp
// Vault when VAULT_VERSIONING_CONFIG_PATH is set. Global flags can be overridden
// with VERSIONING_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/vault"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// Environment variable names.
const (
	// EnvPrefix prefixes every environment override of a global flag.
	EnvPrefix = "VERSIONING"

	// EnvLogLevel is the log level (debug, info, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvVaultConfigPath is the path in Vault KV where the versioning config is stored.
	EnvVaultConfigPath = "VAULT_VERSIONING_CONFIG_PATH"

	// EnvVaultConfigMount is the Vault KV mount point (defaults to "secret").
	EnvVaultConfigMount = "VAULT_VERSIONING_CONFIG_MOUNT"
)

// Default values.
const (
	DefaultLogLevel   = "info"
	DefaultLogAppName = "git-versioning"
	DefaultVaultMount = "secret"
)

// DefaultConfigFiles are searched, in order, in the repository directory when no
// config file is given explicitly.
var DefaultConfigFiles = []string{".git-versioning.yaml", ".git-versioning.yml", ".git-versioning.json"}

// Configuration errors.
var (
	// ErrConfigNotFound indicates an explicitly requested config file does not exist.
	ErrConfigNotFound = errors.New("versioning configuration file not found")

	// ErrConfigInvalid indicates the configuration could not be parsed.
	ErrConfigInvalid = errors.New("versioning configuration is invalid")

	// ErrVaultClientFailed indicates failure to create or authenticate with Vault.
	ErrVaultClientFailed = errors.New("failed to create Vault client")

	// ErrVaultSecretNotFound indicates the secret was not found in Vault.
	ErrVaultSecretNotFound = errors.New("versioning configuration not found in Vault")
)

// envBindings maps global flag keys to their environment variables.
// VERSIONING_UPDATE_PROPERTIES_FILE is not bound here: it is an option that wins
// over per-rule settings and is read by the command.
var envBindings = map[string]string{
	"disable":            EnvPrefix + "_DISABLE",
	"preferTags":         EnvPrefix + "_PREFER_TAGS",
	"skipOnNoMatch":      EnvPrefix + "_SKIP_ON_NO_MATCH",
	"slugLowercase":      EnvPrefix + "_SLUG_LOWERCASE",
	"describeTagPattern": EnvPrefix + "_DESCRIBE_TAG_PATTERN",
}

// VaultClient defines the interface for Vault operations.
// This interface allows for dependency injection and testing.
type VaultClient interface {
	// GetKVSecret retrieves a secret from Vault's KV v2 secrets engine.
	GetKVSecret(ctx context.Context, path, mount string) (map[string]interface{}, error)
}

// VaultClientFactory creates a VaultClient using AppRole authentication.
type VaultClientFactory func(ctx context.Context) (VaultClient, error)

// DefaultVaultClientFactory creates a VaultClient using goLibMyCarrier/vault with AppRole auth.
func DefaultVaultClientFactory(ctx context.Context) (VaultClient, error) {
	// Uses: VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID
	vaultConfig, err := vault.VaultLoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	client, err := vault.CreateVaultClient(ctx, vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	return client, nil
}

// Options selects where configuration is read from.
type Options struct {
	// ConfigFile is an explicit config file path. When empty, DefaultConfigFiles
	// are searched in RepoPath and the built-in defaults apply if none exists.
	ConfigFile string

	// RepoPath is the repository directory used for the default file search.
	RepoPath string
}

// Config holds all application configuration.
type Config struct {
	// Versioning holds the rules and global flags.
	Versioning *domain.Config

	// Source describes where Versioning was loaded from (a file path, a Vault path or "defaults").
	Source string

	// LogLevel is the logging level (debug, info, error).
	LogLevel string

	// LogAppName is the application name for log context.
	LogAppName string
}

// DefaultVersioningConfig matches any branch, tag or commit with the default formats.
func DefaultVersioningConfig() *domain.Config {
	return &domain.Config{
		Branches: []domain.Rule{{VersionFormat: domain.DefaultBranchVersionFormat}},
		Tags:     []domain.Rule{{VersionFormat: domain.DefaultTagVersionFormat}},
		Commit:   &domain.Rule{VersionFormat: domain.DefaultCommitVersionFormat},
	}
}

// Load loads the application configuration.
func Load(ctx context.Context, opts Options) (*Config, error) {
	return LoadWithVaultClient(ctx, opts, nil)
}

// LoadWithVaultClient loads configuration using the provided VaultClient factory.
// If vaultClientFactory is nil, DefaultVaultClientFactory is used.
// This function enables dependency injection for testing.
func LoadWithVaultClient(ctx context.Context, opts Options, vaultClientFactory VaultClientFactory) (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	var source string
	if vaultPath := os.Getenv(EnvVaultConfigPath); vaultPath != "" {
		source, err = readFromVault(ctx, v, vaultClientFactory, vaultPath)
	} else {
		source, err = readFromFile(v, opts)
	}
	if err != nil {
		return nil, err
	}

	versioning, err := decode(v, source)
	if err != nil {
		return nil, err
	}

	logLevel := os.Getenv(EnvLogLevel)
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}

	logAppName := os.Getenv(EnvLogAppName)
	if logAppName == "" {
		logAppName = DefaultLogAppName
	}

	return &Config{
		Versioning: versioning,
		Source:     source,
		LogLevel:   logLevel,
		LogAppName: logAppName,
	}, nil
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("%w: binding %s to %s: %w", ErrConfigInvalid, key, env, err)
		}
	}
	return v, nil
}

// readFromFile reads the explicit config file, or the first default file found in
// the repository. Built-in defaults are used when no default file exists.
func readFromFile(v *viper.Viper, opts Options) (string, error) {
	path := opts.ConfigFile
	if path == "" {
		path = findDefaultConfigFile(opts.RepoPath)
		if path == "" {
			return "defaults", nil
		}
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return "", fmt.Errorf("failed to read versioning config: %w", err)
	}

	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrConfigInvalid, path, err)
	}
	return path, nil
}

func findDefaultConfigFile(dir string) string {
	if dir == "" {
		dir = "."
	}
	for _, name := range DefaultConfigFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// readFromVault loads the versioning configuration from Vault KV v2.
func readFromVault(
	ctx context.Context,
	v *viper.Viper,
	vaultClientFactory VaultClientFactory,
	path string,
) (string, error) {
	if vaultClientFactory == nil {
		vaultClientFactory = DefaultVaultClientFactory
	}

	client, err := vaultClientFactory(ctx)
	if err != nil {
		return "", err
	}

	mount := os.Getenv(EnvVaultConfigMount)
	if mount == "" {
		mount = DefaultVaultMount
	}

	secretData, err := client.GetKVSecret(ctx, path, mount)
	if err != nil {
		return "", fmt.Errorf("%w at path %s: %w", ErrVaultSecretNotFound, path, err)
	}

	settings, err := parseVaultSecret(secretData)
	if err != nil {
		return "", err
	}
	if err := v.MergeConfigMap(settings); err != nil {
		return "", fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	return "vault:" + mount + "/" + path, nil
}

// parseVaultSecret accepts two secret layouts:
// 1. A "config" key containing a YAML or JSON document
// 2. The configuration fields stored directly in the secret
func parseVaultSecret(secretData map[string]interface{}) (map[string]interface{}, error) {
	configStr, ok := secretData["config"].(string)
	if !ok {
		return secretData, nil
	}

	var settings map[string]interface{}
	if err := yaml.Unmarshal([]byte(configStr), &settings); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	if settings == nil {
		return nil, fmt.Errorf("%w: empty config document in Vault secret", ErrConfigInvalid)
	}
	return settings, nil
}

// decode unmarshals viper settings into the versioning configuration. When the
// source supplied no rules at all, the default rules are used.
func decode(v *viper.Viper, source string) (*domain.Config, error) {
	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigInvalid, source, err)
	}

	if len(cfg.Branches) == 0 && len(cfg.Tags) == 0 && cfg.Commit == nil {
		defaults := DefaultVersioningConfig()
		cfg.Branches = defaults.Branches
		cfg.Tags = defaults.Tags
		cfg.Commit = defaults.Commit
	}
	return &cfg, nil
}
