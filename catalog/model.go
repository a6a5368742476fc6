package catalog

import (
	"fmt"
	"strings"

	"github.com/cube2222/distplan/datatype"
)

type RelationKind int

const (
	RelationKindTable RelationKind = iota
	RelationKindView
)

func (k RelationKind) String() string {
	switch k {
	case RelationKindTable:
		return "BASE TABLE"
	case RelationKindView:
		return "VIEW"
	}
	panic("unexhaustive relation kind match")
}

type Ident struct {
	Schema string
	Name   string
}

func (i Ident) String() string {
	return i.Schema + "." + i.Name
}

// Column is a single, possibly nested, column of a relation.
// Nested columns name their enclosing top-level column in Parent.
type Column struct {
	Name     string
	Parent   string
	Type     datatype.Type
	Nullable bool
}

// System columns are maintained by the cluster, like _id or _version.
func (c Column) System() bool {
	return strings.HasPrefix(c.Name, "_")
}

func (c Column) TopLevel() bool {
	return c.Parent == ""
}

// Path is the fully qualified column name, e.g. address['city'].
func (c Column) Path() string {
	if c.TopLevel() {
		return c.Name
	}
	return fmt.Sprintf("%s['%s']", c.Parent, c.Name)
}

func (c Column) supported() bool {
	return c.Type.TypeID != datatype.TypeIDNotSupported
}

type Relation struct {
	Ident       Ident
	Kind        RelationKind
	Columns     []Column
	PrimaryKey  []string
	// Partitioned is set on the physical partitions of a partitioned table.
	// They are an implementation detail and are hidden from the listings.
	Partitioned bool
}

type Schema struct {
	Name   string
	Tables []Relation
	Views  []Relation
}

type Routine struct {
	Name   string
	Type   string
	Schema string
}

type ConstraintType int

const (
	ConstraintTypePrimaryKey ConstraintType = iota
	ConstraintTypeCheck
)

func (t ConstraintType) String() string {
	switch t {
	case ConstraintTypePrimaryKey:
		return "PRIMARY KEY"
	case ConstraintTypeCheck:
		return "CHECK"
	}
	panic("unexhaustive constraint type match")
}

type Constraint struct {
	Relation Ident
	Name     string
	Type     ConstraintType
}

// ColumnEntry is a column listed together with its relation.
// Ordinal is 1-based for top-level columns and 0 for nested ones.
type ColumnEntry struct {
	Relation Ident
	Column   Column
	Ordinal  int
}

type KeyColumnUsage struct {
	Relation Ident
	Column   string
	Ordinal  int
}
