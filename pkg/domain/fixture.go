package domain

import "strings"

// AppScope is the fixture scope of classes owned by the application.
const AppScope = "app"

// FixtureList is an ordered, duplicate-free list of fixture identifiers.
// The zero value is ready to use.
type FixtureList struct {
	items []string
	seen  map[string]struct{}
}

// NewFixtureList builds a list from identifiers, dropping duplicates.
func NewFixtureList(ids ...string) *FixtureList {
	l := &FixtureList{}
	for _, id := range ids {
		l.Add(id)
	}
	return l
}

// Add appends id unless it is already present. Returns true when added.
func (l *FixtureList) Add(id string) bool {
	if id == "" {
		return false
	}
	if l.seen == nil {
		l.seen = make(map[string]struct{})
	}
	if _, ok := l.seen[id]; ok {
		return false
	}
	l.seen[id] = struct{}{}
	l.items = append(l.items, id)
	return true
}

// AddScoped appends `<scope>.<name>`.
func (l *FixtureList) AddScoped(scope, name string) bool {
	if name == "" {
		return false
	}
	if scope == "" {
		scope = AppScope
	}
	return l.Add(scope + "." + name)
}

// Contains reports whether id is in the list.
func (l *FixtureList) Contains(id string) bool {
	if l == nil {
		return false
	}
	_, ok := l.seen[id]
	return ok
}

// Len returns the number of fixtures.
func (l *FixtureList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Items returns a copy of the identifiers in insertion order.
func (l *FixtureList) Items() []string {
	if l == nil || len(l.items) == 0 {
		return []string{}
	}
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

// ParseFixtureOverride splits a `--fixtures` value.
// Blanks are trimmed and empty entries dropped: "app.Posts, app.Comments," -> [app.Posts app.Comments].
func ParseFixtureOverride(value string) *FixtureList {
	l := &FixtureList{}
	for _, part := range strings.Split(value, ",") {
		l.Add(strings.TrimSpace(part))
	}
	return l
}
