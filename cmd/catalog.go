package cmd

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cube2222/distplan/catalog"
)

var catalogList string

var catalogCmd = &cobra.Command{
	Use:   "catalog [catalog file]",
	Short: "List information schema views of a catalog description.",
	Long: `List information schema views of a catalog description.
The catalog file defaults to catalog.path from the configuration.
Available listings: schemas, relations, views, partitions, columns, constraints, keys, routines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Catalog.Path
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return errors.New("no catalog file given")
		}

		snapshot, err := catalog.LoadSnapshot(path)
		if err != nil {
			return err
		}
		iterables := catalog.NewIterables()
		iterables.Update(snapshot, true)

		return printCatalog(cmd.OutOrStdout(), iterables, catalogList)
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogList, "list", "relations", "Listing to print.")
	rootCmd.AddCommand(catalogCmd)
}

func printCatalog(w io.Writer, iterables *catalog.Iterables, list string) error {
	switch list {
	case "schemas":
		return printRows(w, iterables.Schemas(), []string{"schema", "tables", "views"}, func(s *catalog.Schema) []string {
			return []string{s.Name, strconv.Itoa(len(s.Tables)), strconv.Itoa(len(s.Views))}
		})
	case "relations":
		return printRows(w, iterables.Relations(), []string{"schema", "name", "type"}, relationRow)
	case "views":
		return printRows(w, iterables.Views(), []string{"schema", "name", "type"}, relationRow)
	case "partitions":
		return printRows(w, iterables.Partitions(), []string{"schema", "name", "type"}, relationRow)
	case "columns":
		return printRows(w, iterables.Columns(), []string{"schema", "relation", "column", "type", "ordinal", "nullable"}, func(c catalog.ColumnEntry) []string {
			ordinal := ""
			if c.Ordinal > 0 {
				ordinal = strconv.Itoa(c.Ordinal)
			}
			return []string{c.Relation.Schema, c.Relation.Name, c.Column.Path(), c.Column.Type.String(), ordinal, strconv.FormatBool(c.Column.Nullable)}
		})
	case "constraints":
		return printRows(w, iterables.Constraints(), []string{"schema", "relation", "constraint", "type"}, func(c catalog.Constraint) []string {
			return []string{c.Relation.Schema, c.Relation.Name, c.Name, c.Type.String()}
		})
	case "keys":
		return printRows(w, iterables.KeyColumnUsage(), []string{"schema", "relation", "column", "ordinal"}, func(k catalog.KeyColumnUsage) []string {
			return []string{k.Relation.Schema, k.Relation.Name, k.Column, strconv.Itoa(k.Ordinal)}
		})
	case "routines":
		return printRows(w, iterables.Routines(), []string{"schema", "name", "type"}, func(r catalog.Routine) []string {
			return []string{r.Schema, r.Name, r.Type}
		})
	}
	return errors.Errorf("unknown listing '%s'", list)
}

func relationRow(r *catalog.Relation) []string {
	return []string{r.Ident.Schema, r.Ident.Name, r.Kind.String()}
}

func printRows[T any](w io.Writer, source catalog.Source[T], header []string, row func(T) []string) error {
	table := newTable(w, header...)
	it := source.Iterator()
	for {
		item, err := it.Next()
		if err == catalog.ErrNoSuchElement {
			break
		} else if err != nil {
			return err
		}
		table.Append(row(item))
	}
	table.Render()
	return nil
}
