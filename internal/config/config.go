package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Layout selects how binaries are staged into packages.
type Layout string

const (
	// LayoutShared stages every binary into one package's bin directory.
	LayoutShared Layout = "shared"
	// LayoutPerPlatform stages one package per platform plus a base package
	// that depends on them optionally.
	LayoutPerPlatform Layout = "per-platform"
)

// Config holds the publisher settings.
type Config struct {
	// Product is the executable and package name prefix.
	Product string `yaml:"product"`
	// ArtifactsDir holds bin-<platform>/<product>[.exe] build outputs.
	ArtifactsDir string `yaml:"artifacts_dir"`
	// PackagesDir is where package directories are staged.
	PackagesDir string `yaml:"packages_dir"`
	// BasePackage is the directory name of the shared/base package inside PackagesDir.
	BasePackage string `yaml:"base_package"`
	// Layout selects the staging variant.
	Layout Layout `yaml:"layout"`
	// Template is an optional path to a per-platform package.json template.
	Template string `yaml:"template"`
	// Registry configures the publish action.
	Registry Registry `yaml:"registry"`
	// LogLevel is the minimum level of progress output.
	LogLevel string `yaml:"log_level"`
	// Version is the release version. It is never read from YAML.
	Version string `yaml:"-"`
}

// Registry describes the command used to push a staged package.
type Registry struct {
	// Command is the publish command, run inside the package directory.
	Command []string `yaml:"command"`
	// Access is passed as --access when non-empty.
	Access string `yaml:"access"`
}

const (
	// DefaultConfigFilename is the default filename for publisher settings.
	DefaultConfigFilename = "coralizer-release.yaml"

	// DefaultEnvFilename is the dotenv file consulted for VERSION.
	DefaultEnvFilename = ".env"

	// VersionEnv is the environment variable carrying the release version.
	VersionEnv = "VERSION"

	defaultProduct      = "coralizer"
	defaultArtifactsDir = "artifacts"
	defaultPackagesDir  = "npm"
	defaultBasePackage  = "app"
	defaultAccess       = "public"
	defaultLogLevel     = "info"
)

var (
	// ErrVersionRequired is returned when VERSION is not set.
	ErrVersionRequired = errors.New(VersionEnv + " environment variable is not set")

	errConfigIsNotSet   = errors.New("configuration is not set")
	errInvalidProduct   = errors.New("product must be a non-empty file name")
	errInvalidLayout    = errors.New("unknown layout")
	errRegistryCommand  = errors.New("registry command must not be empty")
	errInvalidBase      = errors.New("base package must be a non-empty directory name")
	errInvalidLogLevel  = errors.New("unknown log level")
	validLogLevelValues = []string{"debug", "info", "warn", "error"}
)

// Default returns the settings used when no configuration file exists.
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path, applies defaults and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but returns Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Validate fills in defaults and checks the provided settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if strings.ContainsAny(cfg.Product, `/\`) {
		return fmt.Errorf("%q: %w", cfg.Product, errInvalidProduct)
	}

	if strings.ContainsAny(cfg.BasePackage, `/\`) {
		return fmt.Errorf("%q: %w", cfg.BasePackage, errInvalidBase)
	}

	switch cfg.Layout {
	case LayoutShared, LayoutPerPlatform:
	default:
		return fmt.Errorf("%q: %w", cfg.Layout, errInvalidLayout)
	}

	if len(cfg.Registry.Command) == 0 || strings.TrimSpace(cfg.Registry.Command[0]) == "" {
		return errRegistryCommand
	}

	if !slices.Contains(validLogLevelValues, strings.ToLower(cfg.LogLevel)) {
		return fmt.Errorf("%q: %w", cfg.LogLevel, errInvalidLogLevel)
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Product == "" {
		cfg.Product = defaultProduct
	}

	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = defaultArtifactsDir
	}

	if cfg.PackagesDir == "" {
		cfg.PackagesDir = defaultPackagesDir
	}

	if cfg.BasePackage == "" {
		cfg.BasePackage = defaultBasePackage
	}

	if cfg.Layout == "" {
		cfg.Layout = LayoutShared
	}

	if len(cfg.Registry.Command) == 0 {
		cfg.Registry.Command = []string{"npm", "publish"}
	}

	if cfg.Registry.Access == "" {
		cfg.Registry.Access = defaultAccess
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
}

// BaseDir returns the directory of the shared/base package.
func (c *Config) BaseDir() string {
	return filepath.Join(c.PackagesDir, c.BasePackage)
}
