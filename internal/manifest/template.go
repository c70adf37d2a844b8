package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Template placeholders substituted literally when rendering a platform manifest.
const (
	PlaceholderName    = "${PKG_NAME}"
	PlaceholderVersion = "${PKG_VERSION}"
	PlaceholderOS      = "${PKG_OS}"
	PlaceholderArch    = "${PKG_ARCH}"
	PlaceholderExt     = "${PKG_EXT}"
)

//go:embed platform.package.json.tmpl
var defaultTemplate string

// Values fills the template placeholders.
type Values struct {
	Name    string
	Version string
	OS      string
	Arch    string
	Ext     string
}

// Template is a package.json template with ${PKG_*} placeholders.
type Template struct {
	text string
}

// DefaultTemplate returns the built-in per-platform package template.
func DefaultTemplate() *Template {
	return &Template{text: defaultTemplate}
}

// NewTemplate wraps template text.
func NewTemplate(text string) *Template {
	return &Template{text: text}
}

// LoadTemplate reads a template file, or returns the default one for an empty path.
func LoadTemplate(path string) (*Template, error) {
	if path == "" {
		return DefaultTemplate(), nil
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	return NewTemplate(string(raw)), nil
}

// Render substitutes every placeholder. Substitution is a single pass, so
// values containing placeholder text are not expanded again.
func (t *Template) Render(values Values) string {
	replacer := strings.NewReplacer(
		PlaceholderName, values.Name,
		PlaceholderVersion, values.Version,
		PlaceholderOS, values.OS,
		PlaceholderArch, values.Arch,
		PlaceholderExt, values.Ext,
	)

	return replacer.Replace(t.text)
}

// RenderPackage renders the template and parses the result as a manifest.
func (t *Template) RenderPackage(values Values) (*Package, error) {
	pkg, err := Parse([]byte(t.Render(values)))
	if err != nil {
		return nil, fmt.Errorf("render template for %s: %w", values.Name, err)
	}

	return pkg, nil
}
