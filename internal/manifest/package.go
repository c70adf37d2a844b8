package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Filename is the manifest file inside every package directory.
const Filename = "package.json"

// fileMode is applied to written manifests.
const fileMode os.FileMode = 0o644

// ErrInvalidManifest is returned when a document is not a JSON object.
var ErrInvalidManifest = errors.New("invalid package manifest")

// Package is an in-memory package.json document.
type Package struct {
	raw []byte
}

// Parse wraps raw JSON after checking it is an object.
func Parse(raw []byte) (*Package, error) {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, ErrInvalidManifest
	}

	return &Package{raw: append([]byte(nil), raw...)}, nil
}

// Read loads the manifest from dir/package.json.
func Read(dir string) (*Package, error) {
	path := filepath.Join(dir, Filename)

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	pkg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return pkg, nil
}

// Name returns the package name.
func (p *Package) Name() string {
	return p.Get("name").String()
}

// Version returns the package version.
func (p *Package) Version() string {
	return p.Get("version").String()
}

// Get returns the raw value stored at a gjson path.
func (p *Package) Get(path string) gjson.Result {
	return gjson.GetBytes(p.raw, path)
}

// BinPath returns the relative path of command's executable declared in the
// bin field, which npm allows to be a single string or a map of commands.
func (p *Package) BinPath(command string) string {
	bin := p.Get("bin")
	if bin.Type == gjson.String {
		return bin.String()
	}

	return bin.Get(escapePath(command)).String()
}

// SetVersion overwrites the version field.
func (p *Package) SetVersion(version string) error {
	raw, err := sjson.SetBytes(p.raw, "version", version)
	if err != nil {
		return fmt.Errorf("set version: %w", err)
	}

	p.raw = raw

	return nil
}

// OptionalDependencies returns the optionalDependencies map.
func (p *Package) OptionalDependencies() map[string]string {
	deps := make(map[string]string)

	gjson.GetBytes(p.raw, "optionalDependencies").ForEach(func(key, value gjson.Result) bool {
		deps[key.String()] = value.String()
		return true
	})

	return deps
}

// PinOptionalDependencies sets every existing optional dependency, plus the
// given names, to version. Existing entries keep their position.
func (p *Package) PinOptionalDependencies(version string, names ...string) error {
	existing := p.OptionalDependencies()

	keys := make([]string, 0, len(existing))
	for name := range existing {
		keys = append(keys, name)
	}

	sort.Strings(keys)

	for _, name := range names {
		if _, ok := existing[name]; !ok {
			keys = append(keys, name)
		}
	}

	for _, name := range keys {
		raw, err := sjson.SetBytes(p.raw, "optionalDependencies."+escapePath(name), version)
		if err != nil {
			return fmt.Errorf("pin %s: %w", name, err)
		}

		p.raw = raw
	}

	return nil
}

// Bytes renders the document with 2-space indentation and a trailing newline.
func (p *Package) Bytes() []byte {
	return pretty.PrettyOptions(p.raw, &pretty.Options{
		Width:    -1,
		Prefix:   "",
		Indent:   "  ",
		SortKeys: false,
	})
}

// Write stores the manifest as dir/package.json.
func (p *Package) Write(dir string) error {
	path := filepath.Join(dir, Filename)

	if err := os.WriteFile(filepath.Clean(path), p.Bytes(), fileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// escapePath escapes gjson/sjson path metacharacters in a single key.
func escapePath(key string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`.`, `\.`,
		`*`, `\*`,
		`?`, `\?`,
		`|`, `\|`,
		`#`, `\#`,
		`@`, `\@`,
	)

	return replacer.Replace(key)
}
