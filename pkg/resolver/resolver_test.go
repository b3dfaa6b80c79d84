package resolver

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/specvital/bake/pkg/category"
	"github.com/specvital/bake/pkg/domain"
)

func newResolver() *Resolver {
	return New("App", &DirPaths{
		Root:       "/app",
		Src:        "src",
		Tests:      "tests",
		Plugins:    map[string]string{"Blog": "vendor/acme/blog"},
		PluginsDir: "plugins",
	})
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		raw     string
		plugin  string
		prefix  string
		want    domain.ClassRef
		wantErr bool
	}{
		{
			name: "table",
			typ:  "Table",
			raw:  "Posts",
			want: domain.ClassRef{Name: `App\Model\Table\PostsTable`, Root: "App"},
		},
		{
			name: "suffix already present",
			typ:  "table",
			raw:  "PostsTable",
			want: domain.ClassRef{Name: `App\Model\Table\PostsTable`, Root: "App"},
		},
		{
			name: "entity has no suffix",
			typ:  "Entity",
			raw:  "Article",
			want: domain.ClassRef{Name: `App\Model\Entity\Article`, Root: "App"},
		},
		{
			name: "embedded plugin",
			typ:  "Table",
			raw:  "Blog.Comments",
			want: domain.ClassRef{Name: `Blog\Model\Table\CommentsTable`, Plugin: "Blog", Root: "Blog"},
		},
		{
			name:   "vendor plugin option wins",
			typ:    "Helper",
			raw:    "Other.Form",
			plugin: "Acme/Ui",
			want:   domain.ClassRef{Name: `Acme\Ui\View\Helper\FormHelper`, Plugin: "Acme/Ui", Root: `Acme\Ui`},
		},
		{
			name:   "controller prefix option",
			typ:    "Controller",
			raw:    "Posts",
			prefix: "admin",
			want:   domain.ClassRef{Name: `App\Controller\Admin\PostsController`, Prefix: "Admin", Root: "App"},
		},
		{
			name: "controller embedded nested prefix",
			typ:  "Controller",
			raw:  "api/public/Posts",
			want: domain.ClassRef{Name: `App\Controller\Api\Public\PostsController`, Prefix: `Api\Public`, Root: "App"},
		},
		{
			name: "fully qualified controller",
			typ:  "Controller",
			raw:  `App\Controller\PostsController`,
			want: domain.ClassRef{Name: `App\Controller\PostsController`, Root: "App"},
		},
		{
			name: "fully qualified prefixed controller",
			typ:  "Controller",
			raw:  `\App\Controller\Admin\PostsController`,
			want: domain.ClassRef{Name: `App\Controller\Admin\PostsController`, Prefix: "Admin", Root: "App"},
		},
		{
			name: "fully qualified plugin table",
			typ:  "Table",
			raw:  `Blog.Blog\Model\Table\CommentsTable`,
			want: domain.ClassRef{Name: `Blog\Model\Table\CommentsTable`, Plugin: "Blog", Root: "Blog"},
		},
		{
			name:   "prefix ignored outside controllers",
			typ:    "Component",
			raw:    "Auth",
			prefix: "Admin",
			want:   domain.ClassRef{Name: `App\Controller\Component\AuthComponent`, Root: "App"},
		},
		{
			name: "shell helper",
			typ:  "shell_helper",
			raw:  "Progress",
			want: domain.ClassRef{Name: `App\Shell\Helper\ProgressHelper`, Root: "App"},
		},
		{
			name:    "unknown category",
			typ:     "Foo",
			raw:     "Bar",
			wantErr: true,
		},
		{
			name:    "empty name",
			typ:     "Table",
			raw:     "  ",
			wantErr: true,
		},
	}

	r := newResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.typ, tt.raw, tt.plugin, tt.prefix)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTestCaseFileName(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		fqn    string
		plugin string
		want   string
	}{
		{"table", "Table", `App\Model\Table\PostsTable`, "", "/app/tests/TestCase/Model/Table/PostsTableTest.php"},
		{"prefixed controller", "Controller", `App\Controller\Admin\PostsController`, "", "/app/tests/TestCase/Controller/Admin/PostsControllerTest.php"},
		{"configured plugin", "Table", `Blog\Model\Table\CommentsTable`, "Blog", "/app/vendor/acme/blog/tests/TestCase/Model/Table/CommentsTableTest.php"},
		{"plugins dir", "Cell", `Shop\View\Cell\CartCell`, "Shop", "/app/plugins/Shop/tests/TestCase/View/Cell/CartCellTest.php"},
		{"leading backslash", "Form", `\App\Form\ContactForm`, "", "/app/tests/TestCase/Form/ContactFormTest.php"},
	}

	r := newResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.TestCaseFileName(tt.typ, tt.fqn, tt.plugin)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestTestCaseFileName_UnknownPlugin(t *testing.T) {
	r := New("App", &DirPaths{Root: "/app", Src: "src", Tests: "tests"})
	_, err := r.TestCaseFileName("Table", `Blog\Model\Table\CommentsTable`, "Blog")
	assert.ErrorIs(t, err, ErrUnknownPlugin)
}

func TestTestNamespace(t *testing.T) {
	r := newResolver()

	tests := []struct {
		typ  string
		ref  domain.ClassRef
		want string
	}{
		{"Table", domain.ClassRef{Name: `App\Model\Table\PostsTable`, Root: "App"}, `App\Test\TestCase\Model\Table`},
		{"Controller", domain.ClassRef{Name: `App\Controller\Admin\PostsController`, Root: "App"}, `App\Test\TestCase\Controller\Admin`},
		{"Table", domain.ClassRef{Name: `Blog\Model\Table\CommentsTable`, Plugin: "Blog", Root: "Blog"}, `Blog\Test\TestCase\Model\Table`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := r.TestNamespace(tt.typ, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRefFromClass(t *testing.T) {
	r := newResolver()

	ref, err := r.RefFromClass("Controller", `\App\Controller\Admin\PostsController`, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ClassRef{Name: `App\Controller\Admin\PostsController`, Prefix: "Admin", Root: "App"}, ref)

	ref, err = r.RefFromClass("Table", `Blog\Model\Table\CommentsTable`, "Blog")
	require.NoError(t, err)
	assert.Equal(t, domain.ClassRef{Name: `Blog\Model\Table\CommentsTable`, Plugin: "Blog", Root: "Blog"}, ref)
}

func TestMapType(t *testing.T) {
	got, err := MapType("shell_helper")
	require.NoError(t, err)
	assert.Equal(t, `Shell\Helper`, got)

	_, err = MapType("Nope")
	assert.ErrorIs(t, err, category.ErrUnknown)
}

func TestInflections(t *testing.T) {
	assert.Equal(t, "ArticlesTags", Camelize("articles_tags"))
	assert.Equal(t, "DashedWords", Camelize("dashed-words"))
	assert.Equal(t, "articles_tags", Underscore("ArticlesTags"))
	assert.Equal(t, "posts2_labels", Underscore("Posts2Labels"))
	assert.Equal(t, `Api\Public`, NormalizePrefix("/api//public/"))
}

func TestResolve_SuffixIdempotent(t *testing.T) {
	r := newResolver()

	rapid.Check(t, func(t *rapid.T) {
		cat := rapid.SampledFrom(category.All()).Draw(t, "category")
		name := rapid.StringMatching(`[A-Z][a-z]{1,10}`).
			Filter(func(s string) bool { return s != cat.Suffix }).
			Draw(t, "name")

		ref, err := r.Resolve(string(cat.Name), name, "", "")
		if err != nil {
			t.Fatalf("resolve %s %s: %v", cat.Name, name, err)
		}
		withSuffix, err := r.Resolve(string(cat.Name), name+cat.Suffix, "", "")
		if err != nil {
			t.Fatalf("resolve %s %s: %v", cat.Name, name+cat.Suffix, err)
		}
		if ref != withSuffix {
			t.Fatalf("suffix changed resolution: %v != %v", ref, withSuffix)
		}

		for _, own := range []string{ref.ShortName(), ref.Name, `\` + ref.Name} {
			again, err := r.Resolve(string(cat.Name), own, "", "")
			if err != nil {
				t.Fatalf("resolve own output %s: %v", own, err)
			}
			if again != ref {
				t.Fatalf("resolving %s changed the reference: %v -> %v", own, ref, again)
			}
		}
	})
}
