// Package category holds the fixed table of class categories a test can be baked for.
//
// Each entry is pure data: suffix, namespace segment, framework base class,
// lifecycle methods and the constructor templates used by the generator.
// Lookups never mutate the table.
package category

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown is returned when a category name is not in the table.
var ErrUnknown = errors.New("category: unknown category")

// Name is a canonical category name.
type Name string

// Canonical categories, in the order they are offered to the user.
const (
	Entity      Name = "Entity"
	Table       Name = "Table"
	Controller  Name = "Controller"
	Component   Name = "Component"
	Behavior    Name = "Behavior"
	Helper      Name = "Helper"
	Shell       Name = "Shell"
	Task        Name = "Task"
	Cell        Name = "Cell"
	Form        Name = "Form"
	ShellHelper Name = "ShellHelper"
	Command     Name = "Command"
)

// Template describes the setUp/instantiation/tearDown lines of a category.
// `{class}` is replaced with the short class name, `{fqn}` with the
// fully-qualified name and `{alias}` with the class name minus its suffix.
type Template struct {
	Setup     string
	Construct string
	Teardown  string
	// Imports lists collaborator classes in order of first reference.
	Imports []string
}

// Category is one entry of the dispatch table.
type Category struct {
	Name Name
	// Suffix is appended to class names that do not already end with it.
	Suffix string
	// Segment is the slash separated namespace path below the root.
	Segment string
	// Base is the framework class these classes extend.
	Base string
	// Lifecycle lists framework hook methods of Base that subclasses override.
	Lifecycle []string
	// Template builds the test subject. Nil means no subject is constructed.
	Template *Template
	// TestTraits are mixed into the generated test case.
	TestTraits []string
	// Mock reports whether the generated test relies on a mocked subject class.
	Mock bool
}

// Namespace returns the segment with backslashes, e.g. `Model\Table`.
func (c *Category) Namespace() string {
	return strings.ReplaceAll(c.Segment, "/", `\`)
}

// Alias strips the category suffix from a short class name.
// `PostsTable` -> `Posts`; names without the suffix are returned unchanged.
func (c *Category) Alias(shortName string) string {
	if c.Suffix == "" || shortName == c.Suffix {
		return shortName
	}
	return strings.TrimSuffix(shortName, c.Suffix)
}

// WithSuffix appends the suffix unless name already ends with it.
func (c *Category) WithSuffix(name string) string {
	if c.Suffix == "" || strings.HasSuffix(name, c.Suffix) {
		return name
	}
	return name + c.Suffix
}

var table = []*Category{
	{
		Name:    Entity,
		Segment: "Model/Entity",
		Base:    `Cake\ORM\Entity`,
		Template: &Template{
			Construct: "new {class}();",
		},
	},
	{
		Name:      Table,
		Suffix:    "Table",
		Segment:   "Model/Table",
		Base:      `Cake\ORM\Table`,
		Lifecycle: []string{"initialize", "validationDefault", "buildRules", "beforeFind", "beforeMarshal", "beforeSave", "afterSave", "beforeDelete", "afterDelete"},
		Template: &Template{
			Setup:     "$config = TableRegistry::getTableLocator()->exists('{alias}') ? [] : ['className' => {class}::class];",
			Construct: "TableRegistry::getTableLocator()->get('{alias}', $config);",
			Imports:   []string{`Cake\ORM\TableRegistry`},
		},
	},
	{
		Name:       Controller,
		Suffix:     "Controller",
		Segment:    "Controller",
		Base:       `Cake\Controller\Controller`,
		Lifecycle:  []string{"initialize", "beforeFilter", "beforeRender", "afterFilter", "beforeRedirect"},
		TestTraits: []string{`Cake\TestSuite\IntegrationTestTrait`},
		Mock:       true,
	},
	{
		Name:      Component,
		Suffix:    "Component",
		Segment:   "Controller/Component",
		Base:      `Cake\Controller\Component`,
		Lifecycle: []string{"initialize", "beforeFilter", "startup", "beforeRender", "shutdown", "beforeRedirect"},
		Template: &Template{
			Setup:     "$registry = new ComponentRegistry();",
			Construct: "new {class}($registry);",
			Imports:   []string{`Cake\Controller\ComponentRegistry`},
		},
	},
	{
		Name:      Behavior,
		Suffix:    "Behavior",
		Segment:   "Model/Behavior",
		Base:      `Cake\ORM\Behavior`,
		Lifecycle: []string{"initialize", "beforeFind", "beforeMarshal", "beforeSave", "afterSave", "beforeDelete", "afterDelete", "buildValidator", "buildRules"},
		Template: &Template{
			Construct: "new {class}();",
		},
	},
	{
		Name:      Helper,
		Suffix:    "Helper",
		Segment:   "View/Helper",
		Base:      `Cake\View\Helper`,
		Lifecycle: []string{"initialize", "beforeRender", "afterRender", "beforeLayout", "afterLayout", "beforeRenderFile", "afterRenderFile"},
		Template: &Template{
			Setup:     "$view = new View();",
			Construct: "new {class}($view);",
			Imports:   []string{`Cake\View\View`},
		},
	},
	{
		Name:      Shell,
		Suffix:    "Shell",
		Segment:   "Shell",
		Base:      `Cake\Console\Shell`,
		Lifecycle: []string{"initialize", "startup", "main", "getOptionParser"},
		Template: &Template{
			Setup:     "$this->io = $this->getMockBuilder('Cake\\Console\\ConsoleIo')->getMock();",
			Construct: "new {class}($this->io);",
		},
	},
	{
		Name:      Task,
		Suffix:    "Task",
		Segment:   "Shell/Task",
		Base:      `Cake\Console\Shell`,
		Lifecycle: []string{"initialize", "startup", "main", "getOptionParser"},
		Template: &Template{
			Setup: "$this->io = $this->getMockBuilder('Cake\\Console\\ConsoleIo')->getMock();\n",
			Construct: "$this->getMockBuilder('{fqn}')\n" +
				"            ->setConstructorArgs([$this->io])\n" +
				"            ->getMock();",
		},
	},
	{
		Name:      Cell,
		Suffix:    "Cell",
		Segment:   "View/Cell",
		Base:      `Cake\View\Cell`,
		Lifecycle: []string{"initialize", "display"},
		Template: &Template{
			Setup: "$this->request = $this->getMockBuilder('Cake\\Http\\ServerRequest')->getMock();\n" +
				"        $this->response = $this->getMockBuilder('Cake\\Http\\Response')->getMock();",
			Construct: "new {class}($this->request, $this->response);",
		},
	},
	{
		Name:      Form,
		Suffix:    "Form",
		Segment:   "Form",
		Base:      `Cake\Form\Form`,
		Lifecycle: []string{"buildValidator", "validationDefault"},
		Template: &Template{
			Construct: "new {class}();",
		},
	},
	{
		Name:      ShellHelper,
		Suffix:    "Helper",
		Segment:   "Shell/Helper",
		Base:      `Cake\Console\Helper`,
		Lifecycle: []string{"output"},
		Template: &Template{
			Setup: "$this->stub = new ConsoleOutput();\n" +
				"        $this->io = new ConsoleIo($this->stub);",
			Construct: "new {class}($this->io);",
			Imports:   []string{`Cake\TestSuite\Stub\ConsoleOutput`, `Cake\Console\ConsoleIo`},
		},
	},
	{
		Name:       Command,
		Suffix:     "Command",
		Segment:    "Command",
		Base:       `Cake\Console\Command`,
		Lifecycle:  []string{"initialize", "buildOptionParser", "execute"},
		TestTraits: []string{`Cake\TestSuite\ConsoleIntegrationTestTrait`},
		Template: &Template{
			Setup: "$this->useCommandRunner();",
		},
	},
}

var byKey = func() map[string]*Category {
	m := make(map[string]*Category, len(table))
	for _, c := range table {
		m[normalize(string(c.Name))] = c
	}
	return m
}()

// normalize makes `shell_helper`, `shellhelper` and `ShellHelper` equal.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ToLower(strings.TrimSpace(s))
}

// Lookup finds a category by name, case-insensitively.
func Lookup(name string) (*Category, error) {
	if c, ok := byKey[normalize(name)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name Name) *Category {
	c, err := Lookup(string(name))
	if err != nil {
		panic(err)
	}
	return c
}

// All returns the categories in display order.
func All() []*Category {
	out := make([]*Category, len(table))
	copy(out, table)
	return out
}

// Names returns the canonical names in display order.
func Names() []string {
	names := make([]string, len(table))
	for i, c := range table {
		names[i] = string(c.Name)
	}
	return names
}
