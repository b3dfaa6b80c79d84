package domain

// ClassRef is a resolved reference to the class a test is baked for.
type ClassRef struct {
	// Name is the fully-qualified class name.
	Name string
	// Plugin is the owning plugin, empty for application classes.
	Plugin string
	// Prefix is the backslash separated controller prefix, e.g. `Api\Public`.
	Prefix string
	// Root is the namespace root: the application namespace or the plugin's.
	Root string
}

// ShortName returns the class name without namespace.
func (r ClassRef) ShortName() string {
	return ShortName(r.Name)
}

// Namespace returns the class namespace.
func (r ClassRef) Namespace() string {
	return Namespace(r.Name)
}
