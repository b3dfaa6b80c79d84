// Package domain defines the core types for PHP class introspection.
package domain

import "strings"

// ClassKind distinguishes PHP type declarations.
type ClassKind string

// Supported declaration kinds.
const (
	KindClass     ClassKind = "class"
	KindTrait     ClassKind = "trait"
	KindInterface ClassKind = "interface"
)

// Visibility of a method.
type Visibility string

// Method visibility values. Methods without a modifier are public.
const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

// Method is a method declared directly in a class or trait body.
type Method struct {
	Abstract   bool       `json:"abstract,omitempty"`
	Name       string     `json:"name"`
	Static     bool       `json:"static,omitempty"`
	Visibility Visibility `json:"visibility"`
}

// ClassInfo is the introspected shape of one PHP class, trait or interface.
type ClassInfo struct {
	// Associations contains table associations declared in initialize().
	Associations []Association `json:"associations,omitempty"`
	// DefaultTable is the declared $modelClass / $defaultTable value, if any.
	DefaultTable string `json:"defaultTable,omitempty"`
	// File is the path of the source file, relative to the index root.
	File string `json:"file"`
	// Kind is the declaration kind.
	Kind ClassKind `json:"kind"`
	// Methods in declaration order.
	Methods []Method `json:"methods,omitempty"`
	// Name is the fully-qualified class name without a leading backslash.
	Name string `json:"name"`
	// Parent is the fully-qualified name of the extended class.
	Parent string `json:"parent,omitempty"`
	// Traits lists fully-qualified names of traits used in the class body.
	Traits []string `json:"traits,omitempty"`
}

// ShortName returns the class name without its namespace.
func (c *ClassInfo) ShortName() string {
	return ShortName(c.Name)
}

// Namespace returns the namespace part of the class name.
func (c *ClassInfo) Namespace() string {
	return Namespace(c.Name)
}

// ShortName returns the last segment of a backslash separated class name.
func ShortName(fqn string) string {
	fqn = strings.TrimPrefix(fqn, `\`)
	if idx := strings.LastIndex(fqn, `\`); idx >= 0 {
		return fqn[idx+1:]
	}
	return fqn
}

// Namespace returns everything before the last backslash of a class name.
func Namespace(fqn string) string {
	fqn = strings.TrimPrefix(fqn, `\`)
	if idx := strings.LastIndex(fqn, `\`); idx >= 0 {
		return fqn[:idx]
	}
	return ""
}
