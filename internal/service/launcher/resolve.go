package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coralizer/coralizer-release/internal/logger"
	"github.com/coralizer/coralizer-release/internal/manifest"
	"github.com/coralizer/coralizer-release/internal/platform"
)

const (
	// StrategyPackage resolves the binary from an installed <product>-<os>-<arch> package.
	StrategyPackage = "package"
	// StrategyBin resolves the binary from bin/<product>-<os>-<arch>[.exe] next to the launcher.
	StrategyBin = "bin"

	binDirname         = "bin"
	nodeModulesDirname = "node_modules"
)

var (
	// ErrBinaryNotFound is returned when no binary exists for the host platform.
	ErrBinaryNotFound = errors.New("could not find the binary for your platform")

	errUnknownStrategy = errors.New("unknown resolution strategy")
)

// Resolver locates the executable for a platform.
type Resolver interface {
	Resolve(ctx context.Context, d platform.Descriptor) (string, error)
}

// NewResolver returns the resolver for strategy, searching from baseDir.
//
//nolint:ireturn // Strategy selection is the point of this constructor.
func NewResolver(strategy, product, baseDir string) (Resolver, error) {
	switch strategy {
	case StrategyPackage:
		return &PackageResolver{product: product, dir: baseDir}, nil
	case StrategyBin:
		return &BinDirResolver{product: product, dir: baseDir}, nil
	default:
		return nil, fmt.Errorf("%q: %w", strategy, errUnknownStrategy)
	}
}

// BinDirResolver looks for a suffixed binary in a bin directory.
type BinDirResolver struct {
	product string
	dir     string
}

// Resolve returns dir/bin/<product>-<os>-<arch>[.exe] if it is a regular file.
func (r *BinDirResolver) Resolve(ctx context.Context, d platform.Descriptor) (string, error) {
	path := filepath.Join(r.dir, binDirname, d.SuffixedBinaryName(r.product))

	logger.DebugKV(ctx, "Looking for binary", "path", path)

	if !isRegularFile(path) {
		return "", fmt.Errorf("%w (%s): expected it at %s", ErrBinaryNotFound, d.Name, path)
	}

	return path, nil
}

// PackageResolver finds the platform package the way Node resolves modules:
// it checks node_modules/<package> in dir and every ancestor of dir.
type PackageResolver struct {
	product string
	dir     string
}

// Resolve returns the executable declared by the nearest installed platform package.
func (r *PackageResolver) Resolve(ctx context.Context, d platform.Descriptor) (string, error) {
	name := d.PackageName(r.product)

	for dir := filepath.Clean(r.dir); ; {
		if filepath.Base(dir) != nodeModulesDirname {
			pkgDir := filepath.Join(dir, nodeModulesDirname, name)
			if path, ok := r.binaryIn(ctx, pkgDir, d); ok {
				if !isRegularFile(path) {
					return "", fmt.Errorf("%w (%s): package %s has no binary at %s", ErrBinaryNotFound, d.Name, name, path)
				}

				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return "", fmt.Errorf(
		"%w (%s): please ensure that the optional dependency '%s' is installed",
		ErrBinaryNotFound, d.Name, name,
	)
}

// binaryIn returns the executable path declared by the package at pkgDir and
// whether a package is installed there at all.
func (r *PackageResolver) binaryIn(ctx context.Context, pkgDir string, d platform.Descriptor) (string, bool) {
	pkg, err := manifest.Read(pkgDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.WarnKV(ctx, "Skipping unreadable package", "dir", pkgDir, "error", err)
		}

		return "", false
	}

	rel := pkg.BinPath(r.product)
	if rel == "" {
		rel = binDirname + "/" + d.BinaryName(r.product)
	}

	path := filepath.Join(pkgDir, filepath.FromSlash(rel))

	logger.DebugKV(ctx, "Looking for binary", "package", pkgDir, "path", path)

	return path, true
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
