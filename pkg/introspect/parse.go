package introspect

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/specvital/bake/pkg/domain"
	"github.com/specvital/bake/pkg/introspect/phpast"
	"github.com/specvital/bake/pkg/introspect/tspool"
)

// associationQuery matches `$x->method(...)` calls; filtered to $this and ORM methods afterwards.
const associationQuery = `(member_call_expression) @call`

// defaultTableProperties are the properties a controller declares its table in.
var defaultTableProperties = []string{"defaultTable", "modelClass"}

// fileScope tracks the namespace and imports in effect while walking a file.
type fileScope struct {
	namespace string
	uses      map[string]string
}

func newFileScope(namespace string) *fileScope {
	return &fileScope{namespace: namespace, uses: make(map[string]string)}
}

// resolve expands a class name as written to a fully-qualified name.
func (s *fileScope) resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}
	first, rest := name, ""
	if idx := strings.Index(name, `\`); idx >= 0 {
		first, rest = name[:idx], name[idx:]
	}
	if full, ok := s.uses[strings.ToLower(first)]; ok {
		return full + rest
	}
	if s.namespace == "" {
		return name
	}
	return s.namespace + `\` + name
}

// ParseSource extracts every class, trait and interface declared in a PHP file.
func ParseSource(ctx context.Context, source []byte, path string) ([]domain.ClassInfo, error) {
	tree, err := tspool.Parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("introspect: failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var classes []domain.ClassInfo
	walkStatements(root, source, path, newFileScope(""), &classes)
	return classes, nil
}

// walkStatements visits top-level statements in order so that namespace and
// use declarations apply to the classes that follow them.
func walkStatements(parent *sitter.Node, source []byte, path string, scope *fileScope, out *[]domain.ClassInfo) {
	for i := 0; i < int(parent.ChildCount()); i++ {
		node := parent.Child(i)
		switch node.Type() {
		case phpast.NodeNamespaceDefinition:
			ns := newFileScope(phpast.GetNamespaceName(node, source))
			if body := node.ChildByFieldName("body"); body != nil {
				walkStatements(body, source, path, ns, out)
				continue
			}
			if body := phpast.FindChildByType(node, phpast.NodeCompoundStatement); body != nil {
				walkStatements(body, source, path, ns, out)
				continue
			}
			*scope = *ns
		case phpast.NodeNamespaceUse:
			for _, clause := range phpast.GetUseClauses(node, source) {
				scope.uses[strings.ToLower(clause.Alias)] = clause.Name
			}
		case phpast.NodeClassDeclaration, phpast.NodeTraitDeclaration, phpast.NodeInterfaceDeclaration:
			if info, ok := parseClass(node, source, path, scope); ok {
				*out = append(*out, info)
			}
		}
	}
}

func parseClass(node *sitter.Node, source []byte, path string, scope *fileScope) (domain.ClassInfo, bool) {
	name := phpast.GetClassName(node, source)
	if name == "" {
		return domain.ClassInfo{}, false
	}

	info := domain.ClassInfo{
		File: path,
		Kind: kindOf(node.Type()),
		Name: scope.resolve(`\` + qualify(scope.namespace, name)),
	}

	if base := phpast.GetBaseClassName(node, source); base != "" && info.Kind == domain.KindClass {
		info.Parent = scope.resolve(base)
	}

	body := phpast.GetDeclarationList(node)
	if body == nil {
		return info, true
	}

	for _, trait := range phpast.GetTraitNames(body, source) {
		info.Traits = append(info.Traits, scope.resolve(trait))
	}

	for _, method := range phpast.FindChildrenByType(body, phpast.NodeMethodDeclaration) {
		m := domain.Method{
			Name:       phpast.GetMethodName(method, source),
			Visibility: domain.Visibility(phpast.GetVisibility(method, source)),
			Static:     phpast.HasModifier(method, phpast.NodeStaticModifier),
			Abstract:   phpast.HasModifier(method, phpast.NodeAbstractModifier),
		}
		if m.Name == "" {
			continue
		}
		info.Methods = append(info.Methods, m)

		if strings.EqualFold(m.Name, "initialize") {
			info.Associations = parseAssociations(phpast.GetMethodBody(method), source, scope)
		}
	}

	info.DefaultTable = parseDefaultTable(body, source)
	return info, true
}

// parseAssociations reads `$this->belongsTo('Authors', [...])` style calls.
func parseAssociations(body *sitter.Node, source []byte, scope *fileScope) []domain.Association {
	if body == nil {
		return nil
	}
	results, err := tspool.QueryWithCache(body, associationQuery)
	if err != nil {
		return nil
	}

	var assocs []domain.Association
	for _, r := range results {
		call, ok := r.Captures["call"]
		if !ok || !phpast.IsThisCall(call, source) {
			continue
		}
		typ, ok := domain.ParseAssociationType(phpast.GetCallName(call, source))
		if !ok {
			continue
		}

		args := phpast.GetArguments(call)
		assoc := domain.Association{Type: typ}
		if len(args) > 0 {
			// Non-literal aliases stay empty and are skipped by the fixture collector.
			assoc.Alias, _ = phpast.StringLiteral(args[0], source)
		}
		if len(args) > 1 {
			opts := phpast.GetArrayOptions(args[1], source)
			assoc.ClassName = optionText(opts["className"], scope)
			assoc.JoinTable = opts["joinTable"].Text
			assoc.Through = optionText(opts["through"], scope)
		}
		assocs = append(assocs, assoc)
	}
	return assocs
}

func optionText(v phpast.OptionValue, scope *fileScope) string {
	if v.ClassConstant {
		return scope.resolve(v.Text)
	}
	return v.Text
}

func parseDefaultTable(body *sitter.Node, source []byte) string {
	props := phpast.GetProperties(body, source)
	for _, want := range defaultTableProperties {
		for _, p := range props {
			if p.Name != want {
				continue
			}
			if value, ok := phpast.StringLiteral(p.Value, source); ok {
				return value
			}
		}
	}
	return ""
}

func kindOf(nodeType string) domain.ClassKind {
	switch nodeType {
	case phpast.NodeTraitDeclaration:
		return domain.KindTrait
	case phpast.NodeInterfaceDeclaration:
		return domain.KindInterface
	default:
		return domain.KindClass
	}
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}
