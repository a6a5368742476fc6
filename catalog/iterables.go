package catalog

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

var ignoredSchemas = map[string]bool{
	"information_schema": true,
	"sys":                true,
	"blob":               true,
	"pg_catalog":         true,
}

type state struct {
	snapshot *Snapshot
	routines []Routine
	updated  bool
}

// Iterables exposes the information schema listings over the current catalog snapshot.
// Every iterator binds to the snapshot current at the time it is created.
type Iterables struct {
	mu    sync.Mutex
	state atomic.Pointer[state]
}

func NewIterables() *Iterables {
	iterables := &Iterables{}
	iterables.state.Store(&state{snapshot: NewSnapshot(nil, nil)})
	return iterables
}

// Update swaps in a new snapshot. Routines are taken from it only on the first update
// or when routinesChanged is set, otherwise the previous routines are kept.
func (it *Iterables) Update(snapshot *Snapshot, routinesChanged bool) {
	it.mu.Lock()
	defer it.mu.Unlock()

	previous := it.state.Load()
	next := &state{
		snapshot: snapshot,
		routines: previous.routines,
		updated:  true,
	}
	if !previous.updated || routinesChanged {
		next.routines = snapshot.routines
	}
	it.state.Store(next)
}

func (it *Iterables) Schemas() Source[*Schema] {
	return SourceFunc[*Schema](func() Iterator[*Schema] {
		return newTreeIterator(it.state.Load().snapshot.schemas)
	})
}

func (it *Iterables) Tables() Source[*Relation] {
	return SourceFunc[*Relation](func() Iterator[*Relation] {
		return it.tables(it.state.Load().snapshot)
	})
}

func (it *Iterables) tables(snapshot *Snapshot) Iterator[*Relation] {
	return flatMap[*Schema, *Relation](newTreeIterator(snapshot.schemas), func(schema *Schema) Iterator[*Relation] {
		return relationsOf(schema.Tables)
	})
}

func (it *Iterables) Views() Source[*Relation] {
	return SourceFunc[*Relation](func() Iterator[*Relation] {
		return it.views(it.state.Load().snapshot)
	})
}

func (it *Iterables) views(snapshot *Snapshot) Iterator[*Relation] {
	return flatMap[*Schema, *Relation](newTreeIterator(snapshot.schemas), func(schema *Schema) Iterator[*Relation] {
		return relationsOf(schema.Views)
	})
}

// Relations lists all tables, then all views.
func (it *Iterables) Relations() Source[*Relation] {
	return SourceFunc[*Relation](func() Iterator[*Relation] {
		return it.relations(it.state.Load().snapshot)
	})
}

func (it *Iterables) relations(snapshot *Snapshot) Iterator[*Relation] {
	return concat(it.tables(snapshot), it.views(snapshot))
}

// Partitions lists the physical partitions of partitioned tables, which the other listings hide.
func (it *Iterables) Partitions() Source[*Relation] {
	return SourceFunc[*Relation](func() Iterator[*Relation] {
		schemas := newTreeIterator(it.state.Load().snapshot.schemas)
		return flatMap[*Schema, *Relation](schemas, func(schema *Schema) Iterator[*Relation] {
			return filter(pointersTo(schema.Tables), func(r *Relation) bool {
				return r.Partitioned
			})
		})
	})
}

func relationsOf(relations []Relation) Iterator[*Relation] {
	return filter(pointersTo(relations), func(r *Relation) bool {
		return !r.Partitioned
	})
}

func pointersTo(relations []Relation) Iterator[*Relation] {
	pointers := make([]*Relation, len(relations))
	for i := range relations {
		pointers[i] = &relations[i]
	}
	return newSliceIterator(pointers)
}

func (it *Iterables) Columns() Source[ColumnEntry] {
	return SourceFunc[ColumnEntry](func() Iterator[ColumnEntry] {
		return flatMap(it.relations(it.state.Load().snapshot), columnsOf)
	})
}

func columnsOf(relation *Relation) Iterator[ColumnEntry] {
	return &columnIterator{relation: relation}
}

type columnIterator struct {
	relation *Relation
	index    int
	ordinal  int
}

func (ci *columnIterator) Next() (ColumnEntry, error) {
	for ci.index < len(ci.relation.Columns) {
		column := ci.relation.Columns[ci.index]
		ci.index++
		if column.System() || !column.supported() {
			continue
		}
		entry := ColumnEntry{
			Relation: ci.relation.Ident,
			Column:   column,
		}
		if column.TopLevel() {
			ci.ordinal++
			entry.Ordinal = ci.ordinal
		}
		return entry, nil
	}
	return ColumnEntry{}, ErrNoSuchElement
}

// Constraints lists primary key constraints, then not null check constraints.
func (it *Iterables) Constraints() Source[Constraint] {
	return SourceFunc[Constraint](func() Iterator[Constraint] {
		snapshot := it.state.Load().snapshot
		primaryKeys := flatMap(filter(it.relations(snapshot), hasUserPrimaryKey), func(r *Relation) Iterator[Constraint] {
			return newSliceIterator([]Constraint{{
				Relation: r.Ident,
				Name:     r.Ident.Name + "_pk",
				Type:     ConstraintTypePrimaryKey,
			}})
		})
		notNulls := flatMap(it.relations(snapshot), notNullConstraintsOf)
		return concat(primaryKeys, notNulls)
	})
}

func hasUserPrimaryKey(r *Relation) bool {
	return len(r.PrimaryKey) > 1 || (len(r.PrimaryKey) == 1 && r.PrimaryKey[0] != "_id")
}

func notNullConstraintsOf(r *Relation) Iterator[Constraint] {
	var out []Constraint
	for _, column := range r.Columns {
		if column.System() || !column.supported() || column.Nullable {
			continue
		}
		out = append(out, Constraint{
			Relation: r.Ident,
			Name:     fmt.Sprintf("%s_%s_%s_not_null", r.Ident.Schema, r.Ident.Name, column.Name),
			Type:     ConstraintTypeCheck,
		})
	}
	return newSliceIterator(out)
}

func (it *Iterables) KeyColumnUsage() Source[KeyColumnUsage] {
	return SourceFunc[KeyColumnUsage](func() Iterator[KeyColumnUsage] {
		keyed := filter(it.relations(it.state.Load().snapshot), func(r *Relation) bool {
			return hasUserPrimaryKey(r) && !ignoredSchemas[r.Ident.Schema]
		})
		return flatMap(keyed, func(r *Relation) Iterator[KeyColumnUsage] {
			out := make([]KeyColumnUsage, len(r.PrimaryKey))
			for i, column := range r.PrimaryKey {
				out[i] = KeyColumnUsage{
					Relation: r.Ident,
					Column:   column,
					Ordinal:  i + 1,
				}
			}
			return newSliceIterator(out)
		})
	})
}

func (it *Iterables) Routines() Source[Routine] {
	return SourceFunc[Routine](func() Iterator[Routine] {
		return newSliceIterator(it.state.Load().routines)
	})
}
