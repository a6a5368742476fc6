package catalog

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cube2222/distplan/datatype"
)

type fileSnapshot struct {
	Schemas []struct {
		Name   string         `yaml:"name"`
		Tables []fileRelation `yaml:"tables"`
		Views  []fileRelation `yaml:"views"`
	} `yaml:"schemas"`
	Routines []struct {
		Name   string `yaml:"name"`
		Type   string `yaml:"type"`
		Schema string `yaml:"schema"`
	} `yaml:"routines"`
}

type fileRelation struct {
	Name        string   `yaml:"name"`
	PrimaryKey  []string `yaml:"primaryKey"`
	Partitioned bool     `yaml:"partitioned"`
	Columns     []struct {
		Name     string `yaml:"name"`
		Parent   string `yaml:"parent"`
		Type     string `yaml:"type"`
		Nullable *bool  `yaml:"nullable"`
	} `yaml:"columns"`
}

// LoadSnapshot reads a yaml catalog description. Columns are nullable unless stated otherwise.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read catalog file")
	}
	return ParseSnapshot(data)
}

func ParseSnapshot(data []byte) (*Snapshot, error) {
	var file fileSnapshot
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "couldn't decode catalog")
	}

	seen := make(map[string]bool)
	schemas := make([]Schema, len(file.Schemas))
	for i, fs := range file.Schemas {
		if fs.Name == "" {
			return nil, errors.Errorf("schema %d has no name", i)
		}
		if seen[fs.Name] {
			return nil, errors.Errorf("duplicate schema '%s'", fs.Name)
		}
		seen[fs.Name] = true

		schema := Schema{Name: fs.Name}
		for _, fr := range fs.Tables {
			relation, err := fr.relation(fs.Name)
			if err != nil {
				return nil, err
			}
			schema.Tables = append(schema.Tables, relation)
		}
		for _, fr := range fs.Views {
			relation, err := fr.relation(fs.Name)
			if err != nil {
				return nil, err
			}
			schema.Views = append(schema.Views, relation)
		}
		schemas[i] = schema
	}

	routines := make([]Routine, len(file.Routines))
	for i, fr := range file.Routines {
		routines[i] = Routine{
			Name:   fr.Name,
			Type:   fr.Type,
			Schema: fr.Schema,
		}
	}

	return NewSnapshot(schemas, routines), nil
}

func (fr fileRelation) relation(schema string) (Relation, error) {
	ident := Ident{Schema: schema, Name: fr.Name}
	if fr.Name == "" {
		return Relation{}, errors.Errorf("relation in schema '%s' has no name", schema)
	}

	relation := Relation{
		Ident:       ident,
		PrimaryKey:  fr.PrimaryKey,
		Partitioned: fr.Partitioned,
	}
	for _, fc := range fr.Columns {
		t, err := datatype.ParseType(fc.Type)
		if err != nil {
			return Relation{}, errors.Wrapf(err, "invalid type of column '%s' in %s", fc.Name, ident)
		}
		nullable := true
		if fc.Nullable != nil {
			nullable = *fc.Nullable
		}
		relation.Columns = append(relation.Columns, Column{
			Name:     fc.Name,
			Parent:   fc.Parent,
			Type:     t,
			Nullable: nullable,
		})
	}
	return relation, nil
}
