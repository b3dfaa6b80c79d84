// Package construct generates the setUp, instantiation and tearDown lines and
// the `use` imports of a generated test case.
package construct

import (
	"strings"

	"github.com/specvital/bake/pkg/category"
	"github.com/specvital/bake/pkg/domain"
)

// Constructor holds the three generated code lines. Empty strings mean no code.
type Constructor struct {
	Setup     string
	Construct string
	Teardown  string
}

// BuildConstructor fills the category's template for the class.
// Unknown categories and categories without a template yield an empty Constructor.
func BuildConstructor(typ, fqn string) Constructor {
	cat, err := category.Lookup(typ)
	if err != nil || cat.Template == nil {
		return Constructor{}
	}

	short := domain.ShortName(fqn)
	r := strings.NewReplacer(
		"{class}", short,
		"{fqn}", strings.TrimPrefix(fqn, `\`),
		"{alias}", cat.Alias(short),
	)
	return Constructor{
		Setup:     r.Replace(cat.Template.Setup),
		Construct: r.Replace(cat.Template.Construct),
		Teardown:  r.Replace(cat.Template.Teardown),
	}
}

// BuildImports returns the classes the test case imports: collaborators in
// order of first reference followed by the class itself.
// Unknown categories yield nil.
func BuildImports(typ, fqn string) []string {
	cat, err := category.Lookup(typ)
	if err != nil {
		return nil
	}

	var imports []string
	if cat.Template != nil {
		imports = append(imports, cat.Template.Imports...)
	}
	return append(imports, strings.TrimPrefix(fqn, `\`))
}

// HasMockClass reports whether the category's test relies on a mocked subject.
func HasMockClass(typ string) bool {
	cat, err := category.Lookup(typ)
	return err == nil && cat.Mock
}

// TestTraits returns the traits mixed into the category's test case.
func TestTraits(typ string) []string {
	cat, err := category.Lookup(typ)
	if err != nil {
		return nil
	}
	return append([]string(nil), cat.TestTraits...)
}
