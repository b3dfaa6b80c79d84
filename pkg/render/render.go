// Package render turns test-case data into PHP source through text/template.
//
// Templates are embedded; a directory of `<name>.tmpl` files can override
// any of them.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/specvital/bake/pkg/domain"
)

// TestCaseTemplate is the name of the test case template.
const TestCaseTemplate = "test_case.php"

//go:embed templates/*.tmpl
var embedded embed.FS

// TestCase is the data the test case template renders.
type TestCase struct {
	// Namespace of the generated test class.
	Namespace string
	// ClassName is the short name of the class under test.
	ClassName string
	// FullClassName is the fully-qualified name of the class under test.
	FullClassName string
	// Subject is the property holding the instance under test, empty when none is built.
	Subject string
	// Imports are the fully-qualified classes imported with `use`.
	Imports []string
	// Traits are fully-qualified test traits mixed into the test case.
	Traits []string
	// Fixtures are fixture identifiers. Empty renders no fixtures property.
	Fixtures []string
	// Methods are the names of the methods that get a test stub.
	Methods []string
	Setup     string
	Construct string
	Teardown  string
	// Mock marks a test case exercising a mocked subject.
	Mock bool
}

// Renderer renders named templates.
type Renderer struct {
	overrideDir string
	funcs       template.FuncMap
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithOverrideDir makes templates in dir take precedence over the embedded ones.
func WithOverrideDir(dir string) Option {
	return func(r *Renderer) {
		r.overrideDir = dir
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{funcs: Funcs()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Funcs returns the template function map.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"ucfirst":   ucfirst,
		"shortName": domain.ShortName,
		"join":      strings.Join,
	}
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data any) (string, error) {
	source, err := r.load(name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).Funcs(r.funcs).Parse(source)
	if err != nil {
		return "", fmt.Errorf("render: parse %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render: execute %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) load(name string) (string, error) {
	file := name + ".tmpl"
	if r.overrideDir != "" {
		content, err := os.ReadFile(filepath.Join(r.overrideDir, file))
		if err == nil {
			return string(content), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("render: read override %s: %w", file, err)
		}
	}

	content, err := embedded.ReadFile("templates/" + file)
	if err != nil {
		return "", fmt.Errorf("render: unknown template %s: %w", name, err)
	}
	return string(content), nil
}

// ucfirst returns s with the first letter uppercased.
func ucfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
