package phpast

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, content string) (*sitter.Node, []byte) {
	t.Helper()
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(php.GetLanguage())

	source := []byte(content)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree.RootNode(), source
}

// first returns the first node of the given type in document order.
func first(node *sitter.Node, nodeType string) *sitter.Node {
	if node.Type() == nodeType {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := first(node.Child(i), nodeType); found != nil {
			return found
		}
	}
	return nil
}

func TestClassDeclaration(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantClass  string
		wantParent string
	}{
		{
			name:       "imported parent",
			content:    `<?php class ArticlesTable extends Table {}`,
			wantClass:  "ArticlesTable",
			wantParent: "Table",
		},
		{
			name:       "fully qualified parent",
			content:    `<?php class ArticlesTable extends \Cake\ORM\Table {}`,
			wantClass:  "ArticlesTable",
			wantParent: `\Cake\ORM\Table`,
		},
		{
			name:      "no parent",
			content:   `<?php final class Slug {}`,
			wantClass: "Slug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, source := parse(t, tt.content)
			class := first(root, NodeClassDeclaration)
			require.NotNil(t, class)

			assert.Equal(t, tt.wantClass, GetClassName(class, source))
			assert.Equal(t, tt.wantParent, GetBaseClassName(class, source))
		})
	}
}

func TestMethodModifiers(t *testing.T) {
	root, source := parse(t, `<?php
abstract class Base
{
    function plain() {}
    protected static function helper() {}
    abstract public function run();
    private function hidden() {}
}
`)
	body := GetDeclarationList(first(root, NodeClassDeclaration))
	require.NotNil(t, body)

	type method struct {
		name       string
		visibility string
		static     bool
		abstract   bool
		hasBody    bool
	}
	var got []method
	for _, m := range FindChildrenByType(body, NodeMethodDeclaration) {
		got = append(got, method{
			name:       GetMethodName(m, source),
			visibility: GetVisibility(m, source),
			static:     HasModifier(m, NodeStaticModifier),
			abstract:   HasModifier(m, NodeAbstractModifier),
			hasBody:    GetMethodBody(m) != nil,
		})
	}

	assert.Equal(t, []method{
		{name: "plain", visibility: "public", hasBody: true},
		{name: "helper", visibility: "protected", static: true, hasBody: true},
		{name: "run", visibility: "public", abstract: true},
		{name: "hidden", visibility: "private", hasBody: true},
	}, got)
}

func TestGetTraitNames(t *testing.T) {
	root, source := parse(t, `<?php
class ArticlesTable extends Table
{
    use TimestampTrait;
    use \App\Model\PublishableTrait, LocatorAwareTrait;
}
`)
	body := GetDeclarationList(first(root, NodeClassDeclaration))
	assert.Equal(t, []string{"TimestampTrait", `\App\Model\PublishableTrait`, "LocatorAwareTrait"}, GetTraitNames(body, source))
}

func TestNamespaceAndUses(t *testing.T) {
	root, source := parse(t, `<?php
namespace App\Model\Table;

use Cake\ORM\Table;
use App\Model\Entity\Article as Post;
`)
	assert.Equal(t, `App\Model\Table`, GetNamespaceName(first(root, NodeNamespaceDefinition), source))

	var clauses []UseClause
	for i := 0; i < int(root.ChildCount()); i++ {
		if child := root.Child(i); child.Type() == NodeNamespaceUse {
			clauses = append(clauses, GetUseClauses(child, source)...)
		}
	}
	assert.Equal(t, []UseClause{
		{Name: `Cake\ORM\Table`, Alias: "Table"},
		{Name: `App\Model\Entity\Article`, Alias: "Post"},
	}, clauses)
}

func TestGetProperties(t *testing.T) {
	root, source := parse(t, `<?php
class PostsController extends AppController
{
    protected $modelClass = 'Articles';
    public $helpers = ['Form'];
    private $cache;
}
`)
	props := GetProperties(GetDeclarationList(first(root, NodeClassDeclaration)), source)
	require.Len(t, props, 3)

	assert.Equal(t, "modelClass", props[0].Name)
	value, ok := StringLiteral(props[0].Value, source)
	assert.True(t, ok)
	assert.Equal(t, "Articles", value)

	assert.Equal(t, "helpers", props[1].Name)
	_, ok = StringLiteral(props[1].Value, source)
	assert.False(t, ok)

	assert.Equal(t, "cache", props[2].Name)
	assert.Nil(t, props[2].Value)
}

func TestCallHelpers(t *testing.T) {
	root, source := parse(t, `<?php
$this->belongsToMany('Tags', [
    'className' => TagsTable::class,
    'through' => "ArticlesTags",
    'joinTable' => "tags_$suffix",
    'dependent' => true,
]);
`)
	call := first(root, NodeMemberCallExpression)
	require.NotNil(t, call)

	assert.True(t, IsThisCall(call, source))
	assert.Equal(t, "belongsToMany", GetCallName(call, source))

	args := GetArguments(call)
	require.Len(t, args, 2)

	alias, ok := StringLiteral(args[0], source)
	assert.True(t, ok)
	assert.Equal(t, "Tags", alias)

	assert.Equal(t, map[string]OptionValue{
		"className": {Text: "TagsTable", ClassConstant: true},
		"through":   {Text: "ArticlesTags"},
	}, GetArrayOptions(args[1], source))
}

func TestIsThisCall_OtherReceiver(t *testing.T) {
	root, source := parse(t, `<?php $table->hasMany('Comments');`)
	call := first(root, NodeMemberCallExpression)
	require.NotNil(t, call)
	assert.False(t, IsThisCall(call, source))
}

func TestTrimQuotes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`'single'`, "single"},
		{`"double"`, "double"},
		{` 'padded' `, "padded"},
		{`'mismatched"`, `'mismatched"`},
		{`x`, "x"},
		{``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, TrimQuotes(tt.input))
		})
	}
}
