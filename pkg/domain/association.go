package domain

// AssociationType is the kind of relation between two tables.
type AssociationType string

// Association types, named after the ORM method that declares them.
const (
	BelongsTo     AssociationType = "belongsTo"
	HasOne        AssociationType = "hasOne"
	HasMany       AssociationType = "hasMany"
	BelongsToMany AssociationType = "belongsToMany"
)

// ParseAssociationType maps an ORM method name to an AssociationType.
func ParseAssociationType(method string) (AssociationType, bool) {
	switch AssociationType(method) {
	case BelongsTo, HasOne, HasMany, BelongsToMany:
		return AssociationType(method), true
	default:
		return "", false
	}
}

// Association is one `$this->hasMany('Alias', [...])` style declaration.
type Association struct {
	// Alias is the first argument. Empty when it is not a string literal.
	Alias string `json:"alias"`
	// ClassName is the 'className' option, possibly plugin-qualified.
	ClassName string `json:"className,omitempty"`
	// JoinTable is the 'joinTable' option of a many-to-many association.
	JoinTable string `json:"joinTable,omitempty"`
	// Through is the 'through' option of a many-to-many association.
	Through string `json:"through,omitempty"`
	// Type is the association kind.
	Type AssociationType `json:"type"`
}

// Target returns the name the association's target table is looked up by.
func (a Association) Target() string {
	if a.ClassName != "" {
		return a.ClassName
	}
	return a.Alias
}
