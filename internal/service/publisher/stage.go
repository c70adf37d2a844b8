package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/coralizer/coralizer-release/internal/logger"
	"github.com/coralizer/coralizer-release/internal/manifest"
	"github.com/coralizer/coralizer-release/internal/platform"
)

const (
	// binDirname is the binary directory inside every package.
	binDirname = "bin"
	// artifactDirPrefix prefixes the per-platform artifact directories.
	artifactDirPrefix = "bin-"
	// dirMode is used for staged directories.
	dirMode os.FileMode = 0o755
)

var (
	// ErrArtifactNotFound is returned when a platform build output is missing.
	ErrArtifactNotFound = errors.New("artifact not found")

	errArtifactNotRegular = errors.New("artifact is not a regular file")
	errUnnamedBase        = errors.New("base package manifest has no name")
)

// artifactPath returns the conventional location of a platform's build output.
func (p *publisher) artifactPath(d platform.Descriptor) string {
	return filepath.Join(p.cfg.ArtifactsDir, artifactDirPrefix+d.Name, d.BinaryName(p.cfg.Product))
}

// preflight verifies every input of the release before anything is staged or
// published: all artifacts and the base package manifest.
func (p *publisher) preflight(ctx context.Context) error {
	if err := p.checkArtifacts(ctx); err != nil {
		return err
	}

	return p.checkBase(ctx)
}

// checkArtifacts verifies every artifact exists and is a regular file.
func (p *publisher) checkArtifacts(ctx context.Context) error {
	for _, d := range p.platforms {
		ctx := logger.WithKV(ctx, "platform", d.Name)
		path := p.artifactPath(d)

		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w at %s", ErrArtifactNotFound, path)
		}

		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		if !info.Mode().IsRegular() {
			return fmt.Errorf("%s: %w", path, errArtifactNotRegular)
		}

		logger.DebugKV(ctx, "Found artifact", "path", path)
	}

	return nil
}

// checkBase parses the base manifest that both layouts stamp last.
func (p *publisher) checkBase(ctx context.Context) error {
	baseDir := p.cfg.BaseDir()

	pkg, err := manifest.Read(baseDir)
	if err != nil {
		return fmt.Errorf("base package: %w", err)
	}

	if pkg.Name() == "" {
		return fmt.Errorf("%s: %w", baseDir, errUnnamedBase)
	}

	logger.InfoKV(ctx, "Found base package", "package", pkg.Name(), "from", pkg.Version(), "to", p.cfg.Version)

	return nil
}

// stageShared rebuilds the base package's bin directory with every suffixed
// binary and stamps the base manifest version.
func (p *publisher) stageShared(ctx context.Context) (Unit, error) {
	baseDir := p.cfg.BaseDir()
	binDir := filepath.Join(baseDir, binDirname)

	logger.Info(ctx, "Preparing binaries")

	if err := resetDir(binDir); err != nil {
		return Unit{}, err
	}

	for _, d := range p.platforms {
		dst := filepath.Join(binDir, d.SuffixedBinaryName(p.cfg.Product))
		if err := p.copyArtifact(ctx, d, dst); err != nil {
			return Unit{}, err
		}
	}

	pkg, err := manifest.Read(baseDir)
	if err != nil {
		return Unit{}, err
	}

	if err = pkg.SetVersion(p.cfg.Version); err != nil {
		return Unit{}, err
	}

	if err = pkg.Write(baseDir); err != nil {
		return Unit{}, err
	}

	return p.staged(ctx, Unit{Name: pkg.Name(), Dir: baseDir})
}

// stagePlatform rebuilds a platform package directory from scratch.
func (p *publisher) stagePlatform(ctx context.Context, d platform.Descriptor) (Unit, error) {
	ctx = logger.WithKV(ctx, "platform", d.Name)

	name := d.PackageName(p.cfg.Product)
	dir := filepath.Join(p.cfg.PackagesDir, name)
	binDir := filepath.Join(dir, binDirname)

	if err := resetDir(dir); err != nil {
		return Unit{}, err
	}

	if err := os.Mkdir(binDir, dirMode); err != nil {
		return Unit{}, fmt.Errorf("create %s: %w", binDir, err)
	}

	if err := p.copyArtifact(ctx, d, filepath.Join(binDir, d.BinaryName(p.cfg.Product))); err != nil {
		return Unit{}, err
	}

	pkg, err := p.template.RenderPackage(manifest.Values{
		Name:    name,
		Version: p.cfg.Version,
		OS:      d.OS,
		Arch:    d.Arch,
		Ext:     d.Ext,
	})
	if err != nil {
		return Unit{}, err
	}

	if err = pkg.Write(dir); err != nil {
		return Unit{}, err
	}

	return p.staged(ctx, Unit{Name: name, Dir: dir})
}

// stageBase pins the base package and every optional platform dependency to
// the release version.
func (p *publisher) stageBase(ctx context.Context) (Unit, error) {
	baseDir := p.cfg.BaseDir()

	pkg, err := manifest.Read(baseDir)
	if err != nil {
		return Unit{}, err
	}

	names := make([]string, 0, len(p.platforms))
	for _, d := range p.platforms {
		names = append(names, d.PackageName(p.cfg.Product))
	}

	if err = pkg.SetVersion(p.cfg.Version); err != nil {
		return Unit{}, err
	}

	if err = pkg.PinOptionalDependencies(p.cfg.Version, names...); err != nil {
		return Unit{}, err
	}

	if err = pkg.Write(baseDir); err != nil {
		return Unit{}, err
	}

	return p.staged(ctx, Unit{Name: pkg.Name(), Dir: baseDir})
}

// staged logs the digest of a finished unit.
func (p *publisher) staged(ctx context.Context, unit Unit) (Unit, error) {
	digest, err := TreeDigest(unit.Dir)
	if err != nil {
		return Unit{}, err
	}

	logger.InfoKV(ctx, "Staged package", "package", unit.Name, "dir", unit.Dir, "digest", fmt.Sprintf("%016x", digest))

	return unit, nil
}

// copyArtifact places a platform binary at dst with the platform's mode.
func (p *publisher) copyArtifact(ctx context.Context, d platform.Descriptor, dst string) error {
	src := p.artifactPath(d)

	logger.InfoKV(ctx, "Copying artifact", "from", src, "to", dst)

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}

	defer func() {
		_ = in.Close()
	}()

	// go-update swaps the target in place, so the target has to exist.
	placeholder, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, d.FileMode())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if err = placeholder.Close(); err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	options := goupdate.Options{
		TargetPath: dst,
		TargetMode: d.FileMode(),
	}

	if err = goupdate.Apply(in, options); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	// The artifact source may not carry execute bits and the umask applies on create.
	if err = os.Chmod(dst, d.FileMode()); err != nil {
		return fmt.Errorf("chmod %s: %w", dst, err)
	}

	return nil
}

// resetDir removes dir with everything in it and creates it empty.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	return nil
}
