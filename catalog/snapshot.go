package catalog

import (
	"github.com/tidwall/btree"
)

// Snapshot is an immutable view of the catalog.
type Snapshot struct {
	schemas  *btree.BTreeG[*Schema]
	routines []Routine
}

func NewSnapshot(schemas []Schema, routines []Routine) *Snapshot {
	tree := btree.NewBTreeGOptions(func(a, b *Schema) bool {
		return a.Name < b.Name
	}, btree.Options{NoLocks: true})

	for i := range schemas {
		schema := copySchema(schemas[i])
		tree.Set(&schema)
	}

	return &Snapshot{
		schemas:  tree,
		routines: append([]Routine(nil), routines...),
	}
}

func (s *Snapshot) Schema(name string) (*Schema, bool) {
	return s.schemas.Get(&Schema{Name: name})
}

func (s *Snapshot) SchemaCount() int {
	return s.schemas.Len()
}

func copySchema(schema Schema) Schema {
	out := Schema{
		Name:   schema.Name,
		Tables: make([]Relation, len(schema.Tables)),
		Views:  make([]Relation, len(schema.Views)),
	}
	for i := range schema.Tables {
		out.Tables[i] = copyRelation(schema.Name, RelationKindTable, schema.Tables[i])
	}
	for i := range schema.Views {
		out.Views[i] = copyRelation(schema.Name, RelationKindView, schema.Views[i])
	}
	return out
}

func copyRelation(schema string, kind RelationKind, relation Relation) Relation {
	relation.Ident.Schema = schema
	relation.Kind = kind
	relation.Columns = append([]Column(nil), relation.Columns...)
	relation.PrimaryKey = append([]string(nil), relation.PrimaryKey...)
	return relation
}
