package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/vitalvas/typeschema/catalog"
	"github.com/vitalvas/typeschema/openapi"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Generate the document and check it against OpenAPI 3.0",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.buildDocument()
			if err != nil {
				return err
			}
			if err := doc.Validate(cmd.Context()); err != nil {
				return err
			}

			schemas := 0
			if doc.Components != nil && doc.Components.Schemas != nil {
				schemas = doc.Components.Schemas.Len()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: %d paths, %d schemas\n", len(doc.Paths), schemas)
			return nil
		},
	}
}

// schemaResult is the output of the schema command: the resolved schema and
// every component it refers to.
type schemaResult struct {
	Schema  *openapi.Schema                                 `json:"schema"`
	Schemas *orderedmap.OrderedMap[string, *openapi.Schema] `json:"schemas,omitempty"`
}

func (a *app) schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <expression>",
		Short: "Resolve one type expression",
		Long: `Resolve one type expression against the configured sources and print
the schema together with the component schemas it references.

Examples:
  typeschema schema -c api.yaml 'App\Model\User'
  typeschema schema -c api.yaml 'list<App\Model\User>|null' -f yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := a.outputFormat()
			if err != nil {
				return err
			}

			p, err := a.loadProject()
			if err != nil {
				return err
			}

			r := a.engine(p.types).NewResolver()
			s, err := r.Resolve(args[0])
			if err != nil {
				return err
			}
			if s == nil {
				return errors.Newf("%q does not describe a value", args[0])
			}

			result := schemaResult{Schema: s}
			if snap := r.Snapshot(); snap.Schemas.Len() > 0 {
				result.Schemas = snap.Schemas
			}

			data, err := encode(result, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringP("format", "f", "", "output format: json or yaml")
	return cmd
}

func (a *app) catalogSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog-schema",
		Short: "Print the JSON Schema of the catalog file format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := catalog.FileSchemaJSON()
			if err != nil {
				return errors.Wrap(err, "encode catalog schema")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
