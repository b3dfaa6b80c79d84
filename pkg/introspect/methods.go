package introspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specvital/bake/pkg/category"
	"github.com/specvital/bake/pkg/domain"
)

// LifecyclePolicy decides whether framework lifecycle hooks are listed.
type LifecyclePolicy string

// Lifecycle policies.
const (
	LifecycleInclude LifecyclePolicy = "include"
	LifecycleExclude LifecyclePolicy = "exclude"
)

// ParseLifecyclePolicy parses a policy name. Empty means LifecycleInclude.
func ParseLifecyclePolicy(s string) (LifecyclePolicy, error) {
	switch LifecyclePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", LifecycleInclude:
		return LifecycleInclude, nil
	case LifecycleExclude:
		return LifecycleExclude, nil
	}
	return "", fmt.Errorf("introspect: unknown lifecycle policy %q", s)
}

// ClassLookup resolves classes by name. *Index implements it.
type ClassLookup interface {
	Lookup(fqn string) (*domain.ClassInfo, bool)
	Extends(fqn, base string) bool
}

// ErrUnknownClass is returned when a class is not in the index.
var ErrUnknownClass = errors.New("introspect: unknown class")

// maxTraitDepth bounds trait composition chains.
const maxTraitDepth = 32

// plumbing are methods every framework class carries that never get a test stub.
var plumbing = map[string]bool{
	"__construct":       true,
	"__destruct":        true,
	"__call":            true,
	"__callstatic":      true,
	"__get":             true,
	"__set":             true,
	"__isset":           true,
	"__unset":           true,
	"__sleep":           true,
	"__wakeup":          true,
	"__serialize":       true,
	"__unserialize":     true,
	"__tostring":        true,
	"__invoke":          true,
	"__set_state":       true,
	"__clone":           true,
	"__debuginfo":       true,
	"implementedevents": true,
}

// ListOwnMethods returns the testable methods declared by the class itself:
// public and protected instance methods of its body followed by those of the
// traits it uses, in declaration order. Inherited and static methods are
// never listed.
//
// An unknown class yields an empty list and ErrUnknownClass.
func ListOwnMethods(ix ClassLookup, fqn string, policy LifecyclePolicy) ([]string, error) {
	info, ok := ix.Lookup(fqn)
	if !ok {
		return []string{}, fmt.Errorf("%w: %s", ErrUnknownClass, fqn)
	}

	exclude := make(map[string]bool)
	if policy == LifecycleExclude {
		for _, name := range lifecycleFor(ix, info) {
			exclude[strings.ToLower(name)] = true
		}
	}

	methods := []string{}
	seen := make(map[string]bool)
	add := func(m domain.Method) {
		key := strings.ToLower(m.Name)
		if m.Static || m.Visibility == domain.VisibilityPrivate || plumbing[key] || exclude[key] || seen[key] {
			return
		}
		seen[key] = true
		methods = append(methods, m.Name)
	}

	for _, m := range info.Methods {
		add(m)
	}
	visited := map[string]bool{strings.ToLower(info.Name): true}
	collectTraitMethods(ix, info.Traits, add, visited, 0)

	return methods, nil
}

func collectTraitMethods(ix ClassLookup, traits []string, add func(domain.Method), visited map[string]bool, depth int) {
	if depth > maxTraitDepth {
		return
	}
	for _, name := range traits {
		key := strings.ToLower(name)
		if visited[key] {
			continue
		}
		visited[key] = true

		trait, ok := ix.Lookup(name)
		if !ok {
			continue
		}
		for _, m := range trait.Methods {
			add(m)
		}
		collectTraitMethods(ix, trait.Traits, add, visited, depth+1)
	}
}

// lifecycleFor returns the lifecycle hooks of the framework base the class derives from.
func lifecycleFor(ix ClassLookup, info *domain.ClassInfo) []string {
	if cat, ok := CategoryOf(ix, info); ok {
		return cat.Lifecycle
	}
	return nil
}

// CategoryOf returns the category of a class: the first whose framework base
// the class extends. Classes whose ancestry leaves the index are matched by
// their namespace segment and suffix.
func CategoryOf(ix ClassLookup, info *domain.ClassInfo) (*category.Category, bool) {
	for _, cat := range category.All() {
		if ix.Extends(info.Name, cat.Base) {
			return cat, true
		}
	}
	for _, cat := range category.All() {
		if strings.Contains(info.Name, `\`+cat.Namespace()+`\`) && strings.HasSuffix(info.ShortName(), cat.Suffix) {
			return cat, true
		}
	}
	return nil, false
}
