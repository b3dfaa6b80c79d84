package bake

import (
	"github.com/specvital/bake/pkg/category"
	"github.com/specvital/bake/pkg/introspect"
)

// SourceRoots locates application and plugin source directories.
type SourceRoots interface {
	SrcRoot(plugin string) (string, error)
}

// DirDiscoverer lists the class files of a category directory.
type DirDiscoverer struct {
	Roots SourceRoots
}

// ClassNames implements Discoverer.
func (d DirDiscoverer) ClassNames(cat *category.Category, plugin string) ([]string, error) {
	root, err := d.Roots.SrcRoot(plugin)
	if err != nil {
		return nil, err
	}
	return introspect.DiscoverClassNames(root, cat.Segment)
}
