package catalog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/distplan/datatype"
)

func loadFixture(t *testing.T) *Iterables {
	t.Helper()
	snapshot, err := LoadSnapshot("fixtures/catalog.yaml")
	require.NoError(t, err)

	iterables := NewIterables()
	iterables.Update(snapshot, false)
	return iterables
}

func collect[T any](t *testing.T, source Source[T]) []T {
	t.Helper()
	out, err := Collect(source.Iterator())
	require.NoError(t, err)
	return out
}

func identsOf(relations []*Relation) []string {
	out := make([]string, len(relations))
	for i, r := range relations {
		out[i] = r.Ident.String()
	}
	return out
}

func TestSchemas(t *testing.T) {
	iterables := loadFixture(t)

	var names []string
	for _, schema := range collect(t, iterables.Schemas()) {
		names = append(names, schema.Name)
	}
	assert.Equal(t, []string{"doc", "sys"}, names)
}

func TestRelations(t *testing.T) {
	iterables := loadFixture(t)

	relations := collect(t, iterables.Relations())
	assert.Equal(t, []string{"doc.users", "doc.events", "doc.metrics", "sys.nodes", "doc.active_users"}, identsOf(relations))
	assert.Equal(t, RelationKindTable, relations[0].Kind)
	assert.Equal(t, RelationKindView, relations[4].Kind)

	assert.Equal(t, []string{"doc.active_users"}, identsOf(collect(t, iterables.Views())))
	assert.Equal(t, []string{"doc.users", "doc.events", "doc.metrics", "sys.nodes"}, identsOf(collect(t, iterables.Tables())))
}

func TestPartitions(t *testing.T) {
	iterables := loadFixture(t)

	assert.Equal(t, []string{"doc.events_202601"}, identsOf(collect(t, iterables.Partitions())))
}

func TestColumns(t *testing.T) {
	iterables := loadFixture(t)

	type row struct {
		Relation string
		Path     string
		Ordinal  int
	}
	var got []row
	for _, entry := range collect(t, iterables.Columns()) {
		got = append(got, row{entry.Relation.String(), entry.Column.Path(), entry.Ordinal})
	}
	assert.Equal(t, []row{
		{"doc.users", "id", 1},
		{"doc.users", "name", 2},
		{"doc.users", "address", 3},
		{"doc.users", "address['city']", 0},
		{"doc.users", "tags", 4},
		{"doc.events", "ts", 1},
		{"doc.metrics", "host", 1},
		{"doc.metrics", "ts", 2},
		{"doc.metrics", "value", 3},
		{"sys.nodes", "id", 1},
		{"doc.active_users", "id", 1},
		{"doc.active_users", "name", 2},
	}, got)
}

func TestConstraints(t *testing.T) {
	iterables := loadFixture(t)

	var names []string
	var types []ConstraintType
	for _, constraint := range collect(t, iterables.Constraints()) {
		names = append(names, constraint.Name)
		types = append(types, constraint.Type)
	}
	assert.Equal(t, []string{
		"users_pk",
		"metrics_pk",
		"nodes_pk",
		"doc_users_id_not_null",
		"doc_metrics_host_not_null",
		"doc_metrics_ts_not_null",
		"sys_nodes_id_not_null",
	}, names)
	assert.Equal(t, []ConstraintType{
		ConstraintTypePrimaryKey,
		ConstraintTypePrimaryKey,
		ConstraintTypePrimaryKey,
		ConstraintTypeCheck,
		ConstraintTypeCheck,
		ConstraintTypeCheck,
		ConstraintTypeCheck,
	}, types)
}

func TestKeyColumnUsage(t *testing.T) {
	iterables := loadFixture(t)

	assert.Equal(t, []KeyColumnUsage{
		{Relation: Ident{Schema: "doc", Name: "users"}, Column: "id", Ordinal: 1},
		{Relation: Ident{Schema: "doc", Name: "metrics"}, Column: "host", Ordinal: 1},
		{Relation: Ident{Schema: "doc", Name: "metrics"}, Column: "ts", Ordinal: 2},
	}, collect(t, iterables.KeyColumnUsage()))
}

func TestIteratorExhaustion(t *testing.T) {
	iterables := loadFixture(t)

	it := iterables.Routines().Iterator()
	for i := 0; i < 2; i++ {
		_, err := it.Next()
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := it.Next()
		assert.Equal(t, ErrNoSuchElement, err)
	}

	// A fresh iterator starts over.
	routines := collect(t, iterables.Routines())
	assert.Len(t, routines, 2)

	schemas := iterables.Schemas().Iterator()
	for {
		if _, err := schemas.Next(); err != nil {
			break
		}
	}
	_, err := schemas.Next()
	assert.Equal(t, ErrNoSuchElement, err)
}

func TestUpdateRoutines(t *testing.T) {
	iterables := NewIterables()
	assert.Empty(t, collect(t, iterables.Routines()))

	first := NewSnapshot(nil, []Routine{{Name: "a", Type: "FUNCTION", Schema: "doc"}})
	second := NewSnapshot(nil, []Routine{{Name: "b", Type: "FUNCTION", Schema: "doc"}})

	iterables.Update(first, false)
	assert.Equal(t, []Routine{{Name: "a", Type: "FUNCTION", Schema: "doc"}}, collect(t, iterables.Routines()))

	iterables.Update(second, false)
	assert.Equal(t, []Routine{{Name: "a", Type: "FUNCTION", Schema: "doc"}}, collect(t, iterables.Routines()))

	iterables.Update(second, true)
	assert.Equal(t, []Routine{{Name: "b", Type: "FUNCTION", Schema: "doc"}}, collect(t, iterables.Routines()))
}

func TestIteratorBindsSnapshot(t *testing.T) {
	iterables := NewIterables()
	iterables.Update(NewSnapshot([]Schema{{Name: "a"}, {Name: "b"}}, nil), false)

	it := iterables.Schemas().Iterator()
	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", first.Name)

	iterables.Update(NewSnapshot([]Schema{{Name: "c"}}, nil), false)

	second, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", second.Name)

	schemas := collect(t, iterables.Schemas())
	require.Len(t, schemas, 1)
	assert.Equal(t, "c", schemas[0].Name)
}

func TestConcurrentIteration(t *testing.T) {
	iterables := loadFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries, err := Collect(iterables.Columns().Iterator())
			assert.NoError(t, err)
			assert.Len(t, entries, 12)
		}()
	}
	wg.Wait()
}

func TestSnapshotCopiesInput(t *testing.T) {
	tables := []Relation{{
		Ident:   Ident{Name: "t"},
		Columns: []Column{{Name: "a", Type: datatype.Long}},
	}}
	snapshot := NewSnapshot([]Schema{{Name: "doc", Tables: tables}}, nil)
	tables[0].Columns[0].Name = "b"

	schema, ok := snapshot.Schema("doc")
	require.True(t, ok)
	assert.Equal(t, "a", schema.Tables[0].Columns[0].Name)
	assert.Equal(t, "doc", schema.Tables[0].Ident.Schema)
	assert.Equal(t, 1, snapshot.SchemaCount())

	_, ok = snapshot.Schema("sys")
	assert.False(t, ok)
}

func TestParseSnapshotErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unnamed schema", data: "schemas:\n  - tables: []\n"},
		{name: "duplicate schema", data: "schemas:\n  - name: doc\n  - name: doc\n"},
		{name: "unnamed relation", data: "schemas:\n  - name: doc\n    tables:\n      - columns: []\n"},
		{name: "unknown type", data: "schemas:\n  - name: doc\n    tables:\n      - name: t\n        columns:\n          - name: a\n            type: varchar\n"},
		{name: "not yaml", data: "schemas: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := LoadSnapshot("fixtures/missing.yaml")
	assert.Error(t, err)
}
