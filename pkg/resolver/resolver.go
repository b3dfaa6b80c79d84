// Package resolver maps user supplied type and class names to fully-qualified
// class references and test-case file locations.
package resolver

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/specvital/bake/pkg/category"
	"github.com/specvital/bake/pkg/domain"
)

// DefaultNamespace is the application root namespace when none is configured.
const DefaultNamespace = "App"

// Paths resolves filesystem roots for the application and its plugins.
type Paths interface {
	// TestsRoot returns the tests directory of the application or plugin.
	TestsRoot(plugin string) (string, error)
}

// Resolver resolves class names. It holds no mutable state.
type Resolver struct {
	namespace string
	paths     Paths
}

// New creates a Resolver for the given application namespace.
func New(namespace string, paths Paths) *Resolver {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Resolver{namespace: strings.Trim(namespace, `\`), paths: paths}
}

// Namespace returns the application root namespace.
func (r *Resolver) Namespace() string {
	return r.namespace
}

// PluginNamespace converts a plugin name to its namespace root: `Vendor/Blog` -> `Vendor\Blog`.
func PluginNamespace(plugin string) string {
	return strings.ReplaceAll(plugin, "/", `\`)
}

// Root returns the namespace root for the plugin scope.
func (r *Resolver) Root(plugin string) string {
	if plugin != "" {
		return PluginNamespace(plugin)
	}
	return r.namespace
}

// SplitPlugin splits `Plugin.Name`. Names without a dot have no plugin.
func SplitPlugin(name string) (plugin, rest string) {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[:idx], name[idx+1:]
	}
	return "", name
}

// SplitPrefix splits an embedded controller prefix: `Admin\Posts` and
// `Admin/Posts` both yield ("Admin", "Posts").
func SplitPrefix(name string) (prefix, rest string) {
	name = strings.ReplaceAll(name, "/", `\`)
	if idx := strings.LastIndex(name, `\`); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return "", name
}

// NormalizePrefix title-cases each prefix segment and joins them with backslashes.
// `api/public` -> `Api\Public`.
func NormalizePrefix(prefix string) string {
	prefix = strings.ReplaceAll(prefix, "/", `\`)
	var parts []string
	for _, seg := range strings.Split(prefix, `\`) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		parts = append(parts, Camelize(seg))
	}
	return strings.Join(parts, `\`)
}

// Camelize converts `under_scored` and `dashed-words` to `UnderScored`.
func Camelize(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '_' || r == '-' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Underscore converts `ArticlesTags` to `articles_tags`.
func Underscore(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		if unicode.IsUpper(r) {
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
			continue
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return b.String()
}

// Resolve turns a raw class name into a ClassRef.
//
// rawName may carry a plugin (`Blog.Articles`) and, for controllers, a
// prefix (`Admin\Posts`). An explicit plugin or prefix argument wins over
// the embedded one.
func (r *Resolver) Resolve(typ, rawName, plugin, prefix string) (domain.ClassRef, error) {
	cat, err := category.Lookup(typ)
	if err != nil {
		return domain.ClassRef{}, err
	}

	name := strings.TrimSpace(rawName)
	if name == "" {
		return domain.ClassRef{}, fmt.Errorf("resolver: empty class name for %s", cat.Name)
	}

	embeddedPlugin, name := SplitPlugin(name)
	if plugin == "" {
		plugin = embeddedPlugin
	}

	root := r.Root(plugin)
	// A fully-qualified name carries the category namespace; only what
	// follows it can be a controller prefix.
	name = strings.TrimPrefix(name, `\`)
	if base := root + `\` + cat.Namespace() + `\`; len(name) > len(base) && strings.EqualFold(name[:len(base)], base) {
		name = name[len(base):]
	}

	embeddedPrefix, name := SplitPrefix(name)
	if cat.Name == category.Controller {
		if prefix == "" {
			prefix = embeddedPrefix
		}
		prefix = NormalizePrefix(prefix)
	} else {
		prefix = ""
	}

	ns := root + `\` + cat.Namespace()
	if prefix != "" {
		ns += `\` + prefix
	}

	return domain.ClassRef{
		Name:   ns + `\` + cat.WithSuffix(name),
		Plugin: plugin,
		Prefix: prefix,
		Root:   root,
	}, nil
}

// MapType returns the namespace segment of a category, e.g. `Model\Table`.
func MapType(typ string) (string, error) {
	cat, err := category.Lookup(typ)
	if err != nil {
		return "", err
	}
	return cat.Namespace(), nil
}

// subNamespace returns the part of fqn after the category segment,
// e.g. `Admin\PostsController` for `App\Controller\Admin\PostsController`.
func subNamespace(cat *category.Category, fqn string) string {
	fqn = strings.TrimPrefix(fqn, `\`)
	marker := `\` + cat.Namespace() + `\`
	if idx := strings.Index(fqn, marker); idx >= 0 {
		return fqn[idx+len(marker):]
	}
	return domain.ShortName(fqn)
}

// TestCaseFileName returns the path of the test case for fqn.
func (r *Resolver) TestCaseFileName(typ, fqn, plugin string) (string, error) {
	cat, err := category.Lookup(typ)
	if err != nil {
		return "", err
	}
	root, err := r.paths.TestsRoot(plugin)
	if err != nil {
		return "", fmt.Errorf("resolve tests root: %w", err)
	}
	rel := strings.ReplaceAll(subNamespace(cat, fqn), `\`, "/") + "Test.php"
	return filepath.Join(root, "TestCase", filepath.FromSlash(cat.Segment), filepath.FromSlash(rel)), nil
}

// TestNamespace returns the namespace of the generated test case.
func (r *Resolver) TestNamespace(typ string, ref domain.ClassRef) (string, error) {
	cat, err := category.Lookup(typ)
	if err != nil {
		return "", err
	}
	ns := ref.Root + `\Test\TestCase\` + cat.Namespace()
	if sub := domain.Namespace(subNamespace(cat, ref.Name)); sub != "" {
		ns += `\` + sub
	}
	return ns, nil
}

// RefFromClass builds a ClassRef for an already fully-qualified class.
func (r *Resolver) RefFromClass(typ, fqn, plugin string) (domain.ClassRef, error) {
	cat, err := category.Lookup(typ)
	if err != nil {
		return domain.ClassRef{}, err
	}
	fqn = strings.TrimPrefix(fqn, `\`)
	ref := domain.ClassRef{Name: fqn, Plugin: plugin, Root: r.Root(plugin)}
	if cat.Name == category.Controller {
		ref.Prefix = domain.Namespace(subNamespace(cat, fqn))
	}
	return ref, nil
}
