package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/coralizer/coralizer-release/internal/config"
	"github.com/coralizer/coralizer-release/internal/logger"
	"github.com/coralizer/coralizer-release/internal/manifest"
	"github.com/coralizer/coralizer-release/internal/platform"
	"github.com/coralizer/coralizer-release/internal/registry"
)

// Options contains inputs for the publisher entry point.
type Options struct {
	// ConfigPath is the path to the YAML settings file.
	ConfigPath string
	// ConfigRequired makes a missing settings file an error instead of using defaults.
	ConfigRequired bool
	// EnvFile is a dotenv file consulted when VERSION is not in the environment.
	EnvFile string
	// DryRun stages everything and asks the registry command not to upload.
	DryRun bool
}

// Unit is one publishable package directory.
type Unit struct {
	// Name is the npm package name.
	Name string
	// Dir is the package directory passed to the publish action.
	Dir string
}

// publisher holds the state of a single release run.
// It is unexported; callers use Run.
type publisher struct {
	// cfg holds the release settings including the version.
	cfg *config.Config
	// registry performs the publish action for each unit.
	registry registry.Publisher
	// template renders per-platform manifests.
	template *manifest.Template
	// platforms is the release matrix in publish order.
	platforms []platform.Descriptor
}

var errRegistryNotSet = errors.New("registry publisher is not set")

// Run executes the release workflow: resolve version, load settings, check
// artifacts, stage and publish.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "coralizer-publish")

	// Nothing may touch the filesystem before the version is known.
	version, err := config.ResolveVersion(opts.EnvFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	cfg.Version = version

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	cmd := registry.NewCommand(cfg.Registry, registry.WithDryRun(opts.DryRun))

	pub, err := newPublisher(cfg, cmd)
	if err != nil {
		return fmt.Errorf("initialize publisher: %w", err)
	}

	if err = pub.Run(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Release published", "version", version, "dry_run", opts.DryRun)

	return nil
}

func loadConfig(opts *Options) (*config.Config, error) {
	if opts.ConfigRequired {
		return config.Load(opts.ConfigPath)
	}

	return config.LoadOrDefault(opts.ConfigPath)
}

// newPublisher validates settings and prepares the manifest template.
func newPublisher(cfg *config.Config, reg registry.Publisher) (*publisher, error) {
	if reg == nil {
		return nil, errRegistryNotSet
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	if cfg.Version == "" {
		return nil, config.ErrVersionRequired
	}

	tpl, err := manifest.LoadTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}

	return &publisher{
		cfg:       cfg,
		registry:  reg,
		template:  tpl,
		platforms: platform.Supported(),
	}, nil
}

// Run checks every input, then stages and publishes each unit in order.
func (p *publisher) Run(ctx context.Context) error {
	if err := p.preflight(ctx); err != nil {
		return err
	}

	return p.release(ctx, p.publish)
}

// Stage checks artifacts and stages a release of version without publishing
// anything. Units are returned in publish order.
func Stage(ctx context.Context, cfg *config.Config, version string) ([]Unit, error) {
	staged := *cfg
	staged.Version = version

	pub, err := newPublisher(&staged, registry.PublisherFunc(func(context.Context, string) error {
		return nil
	}))
	if err != nil {
		return nil, err
	}

	return pub.stage(logger.WithName(ctx, "coralizer-publish"))
}

// stage checks inputs and stages every unit without publishing anything.
func (p *publisher) stage(ctx context.Context) ([]Unit, error) {
	if err := p.preflight(ctx); err != nil {
		return nil, err
	}

	var units []Unit

	err := p.release(ctx, func(_ context.Context, unit Unit) error {
		units = append(units, unit)
		return nil
	})

	return units, err
}

// release stages units in publish order and hands each to publish as soon
// as it is ready. The base package always comes last.
func (p *publisher) release(ctx context.Context, publish func(context.Context, Unit) error) error {
	if p.cfg.Layout == config.LayoutShared {
		unit, err := p.stageShared(ctx)
		if err != nil {
			return err
		}

		return publish(ctx, unit)
	}

	for _, d := range p.platforms {
		unit, err := p.stagePlatform(ctx, d)
		if err != nil {
			return err
		}

		if err = publish(ctx, unit); err != nil {
			return err
		}
	}

	unit, err := p.stageBase(ctx)
	if err != nil {
		return err
	}

	return publish(ctx, unit)
}

// publish runs the registry action for a unit.
func (p *publisher) publish(ctx context.Context, unit Unit) error {
	logger.InfoKV(ctx, "Publishing", "package", unit.Name+"@"+p.cfg.Version, "dir", unit.Dir)

	if err := p.registry.Publish(ctx, unit.Dir); err != nil {
		return fmt.Errorf("failed to publish %s: %w", unit.Name, err)
	}

	return nil
}
