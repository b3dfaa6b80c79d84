// Package phpast provides PHP AST traversal utilities for class introspection.
package phpast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// PHP AST node types.
const (
	NodeAbstractModifier        = "abstract_modifier"
	NodeArgument                = "argument"
	NodeArguments               = "arguments"
	NodeArrayCreation           = "array_creation_expression"
	NodeArrayElement            = "array_element_initializer"
	NodeBaseClause              = "base_clause"
	NodeClassConstantAccess     = "class_constant_access_expression"
	NodeClassDeclaration        = "class_declaration"
	NodeComment                 = "comment"
	NodeCompoundStatement       = "compound_statement"
	NodeDeclarationList         = "declaration_list"
	NodeEncapsedString          = "encapsed_string"
	NodeInterfaceDeclaration    = "interface_declaration"
	NodeMemberCallExpression    = "member_call_expression"
	NodeMethodDeclaration       = "method_declaration"
	NodeName                    = "name"
	NodeNamespaceAliasing       = "namespace_aliasing_clause"
	NodeNamespaceDefinition     = "namespace_definition"
	NodeNamespaceName           = "namespace_name"
	NodeNamespaceUse            = "namespace_use_declaration"
	NodeNamespaceUseClause      = "namespace_use_clause"
	NodeNamespaceUseGroup       = "namespace_use_group"
	NodeNamespaceUseGroupClause = "namespace_use_group_clause"
	NodePropertyDeclaration     = "property_declaration"
	NodePropertyElement         = "property_element"
	NodePropertyInitializer     = "property_initializer"
	NodeQualifiedName           = "qualified_name"
	NodeStaticModifier          = "static_modifier"
	NodeString                  = "string"
	NodeTraitDeclaration        = "trait_declaration"
	NodeUseDeclaration          = "use_declaration"
	NodeVariableName            = "variable_name"
	NodeVisibilityModifier      = "visibility_modifier"
)

// GetClassName extracts the name from a class, trait or interface declaration.
func GetClassName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return name.Content(source)
	}
	if child := FindChildByType(node, NodeName); child != nil {
		return child.Content(source)
	}
	return ""
}

// GetMethodName extracts the method name from a method_declaration node.
func GetMethodName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return name.Content(source)
	}
	if child := FindChildByType(node, NodeName); child != nil {
		return child.Content(source)
	}
	return ""
}

// GetMethodBody returns the compound_statement of a method, nil for abstract methods.
func GetMethodBody(node *sitter.Node) *sitter.Node {
	if body := node.ChildByFieldName("body"); body != nil {
		return body
	}
	return FindChildByType(node, NodeCompoundStatement)
}

// GetDeclarationList returns the declaration_list (class body) of a declaration.
func GetDeclarationList(node *sitter.Node) *sitter.Node {
	return FindChildByType(node, NodeDeclarationList)
}

// GetVisibility returns the visibility keyword of a method or property.
// Members without a modifier are public.
func GetVisibility(node *sitter.Node, source []byte) string {
	if child := FindChildByType(node, NodeVisibilityModifier); child != nil {
		return strings.ToLower(strings.TrimSpace(child.Content(source)))
	}
	return "public"
}

// HasModifier reports whether node has a direct child of the modifier type.
func HasModifier(node *sitter.Node, modifierType string) bool {
	return FindChildByType(node, modifierType) != nil
}

// GetBaseClassName returns the extended class name as written, e.g. `\Cake\ORM\Table`.
func GetBaseClassName(node *sitter.Node, source []byte) string {
	clause := FindChildByType(node, NodeBaseClause)
	if clause == nil {
		return ""
	}
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case NodeName, NodeQualifiedName:
			return child.Content(source)
		}
	}
	return ""
}

// GetTraitNames returns the trait names used in a class body, as written.
func GetTraitNames(body *sitter.Node, source []byte) []string {
	var names []string
	for _, use := range FindChildrenByType(body, NodeUseDeclaration) {
		for i := 0; i < int(use.ChildCount()); i++ {
			child := use.Child(i)
			switch child.Type() {
			case NodeName, NodeQualifiedName:
				names = append(names, child.Content(source))
			}
		}
	}
	return names
}

// GetNamespaceName returns the name of a namespace_definition, empty for the global namespace.
func GetNamespaceName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return name.Content(source)
	}
	if child := FindChildByType(node, NodeNamespaceName); child != nil {
		return child.Content(source)
	}
	return ""
}

// UseClause is one imported name of a `use` statement.
type UseClause struct {
	// Name is the fully-qualified imported name.
	Name string
	// Alias is the local name: the explicit alias or the last name segment.
	Alias string
}

// GetUseClauses returns the imports of a namespace_use_declaration.
// Handles `use A\B;`, `use A\B as C;` and `use A\{B, C as D};`.
func GetUseClauses(node *sitter.Node, source []byte) []UseClause {
	var clauses []UseClause
	prefix := ""
	if ns := FindChildByType(node, NodeNamespaceName); ns != nil {
		prefix = ns.Content(source) + `\`
	}
	collect := func(parent *sitter.Node) {
		nodes := append(FindChildrenByType(parent, NodeNamespaceUseClause),
			FindChildrenByType(parent, NodeNamespaceUseGroupClause)...)
		for _, clause := range nodes {
			if c, ok := parseUseClause(clause, source); ok {
				c.Name = strings.TrimPrefix(prefix+c.Name, `\`)
				clauses = append(clauses, c)
			}
		}
	}
	collect(node)
	if group := FindChildByType(node, NodeNamespaceUseGroup); group != nil {
		collect(group)
	}
	return clauses
}

func parseUseClause(clause *sitter.Node, source []byte) (UseClause, bool) {
	var c UseClause
	sawAs := false
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case NodeQualifiedName, NodeNamespaceName:
			c.Name = child.Content(source)
		case NodeName:
			if c.Name == "" {
				c.Name = child.Content(source)
			} else if sawAs {
				c.Alias = child.Content(source)
			}
		case "as":
			sawAs = true
		case NodeNamespaceAliasing:
			if alias := FindChildByType(child, NodeName); alias != nil {
				c.Alias = alias.Content(source)
			}
		}
	}
	if c.Name == "" {
		return c, false
	}
	if c.Alias == "" {
		c.Alias = lastSegment(c.Name)
	}
	return c, true
}

// Property is a declared class property with a literal default.
type Property struct {
	Name  string
	Value *sitter.Node
}

// GetProperties returns properties declared in a class body with their default value node.
// Value is nil for properties without a default.
func GetProperties(body *sitter.Node, source []byte) []Property {
	var props []Property
	for _, decl := range FindChildrenByType(body, NodePropertyDeclaration) {
		for _, elem := range FindChildrenByType(decl, NodePropertyElement) {
			variable := FindChildByType(elem, NodeVariableName)
			if variable == nil {
				continue
			}
			prop := Property{Name: strings.TrimPrefix(variable.Content(source), "$")}
			for i := 0; i < int(elem.NamedChildCount()); i++ {
				child := elem.NamedChild(i)
				if child.Type() == NodeVariableName {
					continue
				}
				if child.Type() == NodePropertyInitializer && child.NamedChildCount() > 0 {
					child = child.NamedChild(0)
				}
				prop.Value = child
				break
			}
			props = append(props, prop)
		}
	}
	return props
}

// StringLiteral returns the value of a string literal node.
// Double quoted strings with interpolation are not literals.
func StringLiteral(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case NodeString:
		return TrimQuotes(node.Content(source)), true
	case NodeEncapsedString:
		text := node.Content(source)
		if strings.Contains(text, "$") {
			return "", false
		}
		return TrimQuotes(text), true
	}
	return "", false
}

// ClassConstant returns `Foo` for a `Foo::class` expression.
func ClassConstant(node *sitter.Node, source []byte) (string, bool) {
	if node == nil || node.Type() != NodeClassConstantAccess {
		return "", false
	}
	text := node.Content(source)
	if !strings.HasSuffix(text, "::class") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimSuffix(text, "::class")), true
}

// OptionValue is a literal value of an options array.
type OptionValue struct {
	// Text is the string value, or the class name of a `Foo::class` value.
	Text string
	// ClassConstant marks values written as `Foo::class`.
	ClassConstant bool
}

// GetArrayOptions returns the string keyed literal entries of an array expression.
// Entries with non-literal keys or values are skipped.
func GetArrayOptions(node *sitter.Node, source []byte) map[string]OptionValue {
	opts := make(map[string]OptionValue)
	if node == nil || node.Type() != NodeArrayCreation {
		return opts
	}
	for _, elem := range FindChildrenByType(node, NodeArrayElement) {
		if elem.NamedChildCount() < 2 {
			continue
		}
		key, ok := StringLiteral(elem.NamedChild(0), source)
		if !ok {
			continue
		}
		value := elem.NamedChild(1)
		if text, ok := StringLiteral(value, source); ok {
			opts[key] = OptionValue{Text: text}
		} else if class, ok := ClassConstant(value, source); ok {
			opts[key] = OptionValue{Text: class, ClassConstant: true}
		}
	}
	return opts
}

// GetArguments returns the value expression of each argument of a call.
func GetArguments(call *sitter.Node) []*sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		args = FindChildByType(call, NodeArguments)
	}
	if args == nil {
		return nil
	}
	var values []*sitter.Node
	for _, arg := range FindChildrenByType(args, NodeArgument) {
		if n := arg.NamedChildCount(); n > 0 {
			values = append(values, arg.NamedChild(int(n)-1))
		}
	}
	return values
}

// IsThisCall reports whether a member_call_expression is called on `$this`.
func IsThisCall(call *sitter.Node, source []byte) bool {
	object := call.ChildByFieldName("object")
	if object == nil && call.NamedChildCount() > 0 {
		object = call.NamedChild(0)
	}
	return object != nil && object.Type() == NodeVariableName && object.Content(source) == "$this"
}

// GetCallName returns the method name of a member_call_expression.
func GetCallName(call *sitter.Node, source []byte) string {
	if name := call.ChildByFieldName("name"); name != nil {
		return name.Content(source)
	}
	if name := FindChildByType(call, NodeName); name != nil {
		return name.Content(source)
	}
	return ""
}

// TrimQuotes removes string delimiters from PHP strings.
func TrimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// FindChildByType returns the first direct child with the given node type.
func FindChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// FindChildrenByType returns all direct children with the given node type.
func FindChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var children []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeType {
			children = append(children, child)
		}
	}
	return children
}

func lastSegment(name string) string {
	name = strings.TrimPrefix(name, `\`)
	if idx := strings.LastIndex(name, `\`); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
