// Package fixture derives the fixture list of a generated test case from the
// subject's table associations.
package fixture

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/specvital/bake/pkg/category"
	"github.com/specvital/bake/pkg/domain"
	"github.com/specvital/bake/pkg/resolver"
)

var (
	// ErrUnresolvable is returned when the subject class is not in the index.
	ErrUnresolvable = errors.New("fixture: unresolvable subject")
	// ErrNotTable is returned when a controller's default table is not an indexed table class.
	ErrNotTable = errors.New("fixture: default table is not a table class")
)

const (
	tableSegment = `\Model\Table\`
	tableSuffix  = "Table"
)

// ClassIndex is the part of the class index the collector reads.
type ClassIndex interface {
	Lookup(fqn string) (*domain.ClassInfo, bool)
}

// Collector builds fixture lists. It is safe for concurrent use.
type Collector struct {
	index     ClassIndex
	namespace string
	logger    *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger skipped entries are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCollector creates a collector for an application rooted at namespace.
func NewCollector(index ClassIndex, namespace string, opts ...Option) *Collector {
	if namespace == "" {
		namespace = resolver.DefaultNamespace
	}
	c := &Collector{
		index:     index,
		namespace: strings.Trim(namespace, `\`),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tableRef identifies a table by namespace root and alias.
type tableRef struct {
	fqn   string
	alias string
	scope string
}

// Collect returns the fixtures of the subject class.
//
// Tables contribute themselves then their direct associations. Controllers
// contribute the fixtures of their default table. Other categories have no
// fixtures. The returned list is never nil.
func (c *Collector) Collect(cat category.Name, fqn string) (*domain.FixtureList, error) {
	fqn = strings.TrimPrefix(fqn, `\`)
	switch cat {
	case category.Table:
		return c.collectTable(fqn)
	case category.Controller:
		return c.collectController(fqn)
	default:
		return domain.NewFixtureList(), nil
	}
}

func (c *Collector) collectController(fqn string) (*domain.FixtureList, error) {
	info, ok := c.index.Lookup(fqn)
	if !ok {
		return domain.NewFixtureList(), fmt.Errorf("%w: %s", ErrUnresolvable, fqn)
	}

	name := info.DefaultTable
	if name == "" {
		name = category.MustLookup(category.Controller).Alias(info.ShortName())
	}

	table, ok := c.resolveName(name, c.rootOf(fqn, `\Controller\`))
	if !ok || !c.isTable(table.fqn) {
		return domain.NewFixtureList(), fmt.Errorf("%w: %s for %s", ErrNotTable, name, fqn)
	}
	return c.collectTable(table.fqn)
}

func (c *Collector) collectTable(fqn string) (*domain.FixtureList, error) {
	list := domain.NewFixtureList()

	info, ok := c.index.Lookup(fqn)
	if !ok {
		return list, fmt.Errorf("%w: %s", ErrUnresolvable, fqn)
	}

	subject, ok := c.refFromClass(info.Name)
	if !ok {
		return list, fmt.Errorf("%w: %s is outside a table namespace", ErrUnresolvable, fqn)
	}
	list.AddScoped(subject.scope, subject.alias)

	for _, assoc := range info.Associations {
		target, ok := c.resolveTarget(assoc)
		if !ok {
			c.logger.Debug("skipping association", "class", fqn, "alias", assoc.Alias, "type", assoc.Type)
			continue
		}
		if strings.EqualFold(target.fqn, subject.fqn) {
			continue
		}
		list.AddScoped(target.scope, target.alias)

		if assoc.Type != domain.BelongsToMany {
			continue
		}
		if junction, ok := c.junction(assoc, subject, target); ok {
			list.AddScoped(junction.scope, junction.alias)
		} else {
			c.logger.Debug("skipping junction", "class", fqn, "alias", assoc.Alias)
		}
	}
	return list, nil
}

// resolveTarget resolves an association's target table. Bare names belong
// to the application, as they do for the ORM's table locator.
func (c *Collector) resolveTarget(assoc domain.Association) (tableRef, bool) {
	if assoc.Alias == "" {
		return tableRef{}, false
	}
	return c.resolveName(assoc.Target(), c.namespace)
}

// junction names the join table of a many-to-many association: the `through`
// option, else the camelised `joinTable` option, else both table names sorted.
func (c *Collector) junction(assoc domain.Association, subject, target tableRef) (tableRef, bool) {
	if assoc.Through != "" {
		return c.resolveName(assoc.Through, c.namespace)
	}
	name := assoc.JoinTable
	if name == "" {
		tables := []string{resolver.Underscore(subject.alias), resolver.Underscore(target.alias)}
		sort.Strings(tables)
		name = strings.Join(tables, "_")
	}
	alias := resolver.Camelize(name)
	return tableRef{
		fqn:   c.tableFQN(subject.root(c.namespace), alias),
		alias: alias,
		scope: subject.scope,
	}, true
}

// resolveName resolves a table written as a fully-qualified class name,
// `Plugin.Alias` or a bare alias looked up under defaultRoot.
func (c *Collector) resolveName(name, defaultRoot string) (tableRef, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tableRef{}, false
	}
	if strings.Contains(name, `\`) {
		return c.refFromClass(name)
	}

	plugin, alias := resolver.SplitPlugin(name)
	if alias == "" {
		return tableRef{}, false
	}
	root := defaultRoot
	if plugin != "" {
		root = resolver.PluginNamespace(plugin)
	}
	return c.refFromClass(c.tableFQN(root, alias))
}

// refFromClass derives alias and scope from a table class name:
// `Blog\Model\Table\PostsTable` -> Blog.Posts.
func (c *Collector) refFromClass(fqn string) (tableRef, bool) {
	fqn = strings.TrimPrefix(fqn, `\`)
	idx := strings.LastIndex(fqn, tableSegment)
	if idx <= 0 {
		return tableRef{}, false
	}
	short := fqn[idx+len(tableSegment):]
	if strings.Contains(short, `\`) {
		return tableRef{}, false
	}
	alias := strings.TrimSuffix(short, tableSuffix)
	if alias == "" {
		return tableRef{}, false
	}
	return tableRef{fqn: fqn, alias: alias, scope: c.scopeOf(fqn[:idx])}, true
}

func (c *Collector) tableFQN(root, alias string) string {
	return root + tableSegment + alias + tableSuffix
}

// scopeOf maps a namespace root to a fixture scope: `app` or the plugin name.
func (c *Collector) scopeOf(root string) string {
	if strings.EqualFold(root, c.namespace) {
		return domain.AppScope
	}
	return strings.ReplaceAll(root, `\`, "/")
}

// rootOf returns the namespace before segment, or the application namespace.
func (c *Collector) rootOf(fqn, segment string) string {
	if idx := strings.Index(fqn, segment); idx > 0 {
		return fqn[:idx]
	}
	return c.namespace
}

func (t tableRef) root(fallback string) string {
	if idx := strings.LastIndex(t.fqn, tableSegment); idx > 0 {
		return t.fqn[:idx]
	}
	return fallback
}

func (c *Collector) isTable(fqn string) bool {
	info, ok := c.index.Lookup(fqn)
	return ok && info.Kind == domain.KindClass
}
