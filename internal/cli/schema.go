package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/wikiroll/internal/adf"
	"github.com/aidanlsb/wikiroll/internal/jsonschema"
	"github.com/aidanlsb/wikiroll/internal/ui"
)

var (
	schemaFile       string
	schemaNormalized bool
	schemaRaw        bool
	schemaDumpRef    string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect a JSON schema document",
	Long: `Inspect the bundled ADF schema or a schema file given with --schema.

Subcommands:
  dump    Print definitions as parsed or normalized
  nodes   List the node types allowed in a document's content`,
}

type definitionDump struct {
	Ref  string `json:"ref"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

var schemaDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print schema definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadSchemaForDump(schemaFile, schemaNormalized)
		if err != nil {
			return handleErr(err)
		}

		refs := doc.Names()
		if schemaDumpRef != "" {
			refs = []string{jsonschema.RefName(schemaDumpRef)}
		}
		dumps := make([]definitionDump, 0, len(refs))
		for _, ref := range refs {
			node, ok := doc.Lookup(ref)
			if !ok {
				return handleErr(&jsonschema.RefError{Ref: ref})
			}
			text := jsonschema.FormatNode(node)
			if schemaRaw {
				text = jsonschema.Dump(node)
			}
			dumps = append(dumps, definitionDump{Ref: ref, Kind: node.Kind().String(), Text: text})
		}

		if isJSONOutput() {
			outputSuccess(dumps, &Meta{Count: len(dumps)})
			return nil
		}
		for _, d := range dumps {
			fmt.Println(ui.Header(d.Ref))
			fmt.Println(strings.TrimRight(d.Text, "\n"))
			fmt.Println()
		}
		return nil
	},
}

type contentNodeInfo struct {
	Name string `json:"name"`
	Ref  string `json:"ref"`
	Kind string `json:"kind"`
}

var schemaNodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List node types allowed in the top-level content array",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _, err := loadSchema(schemaFile)
		if err != nil {
			return handleErr(err)
		}
		nodes, err := jsonschema.ContentNodes(doc)
		if err != nil {
			return handleError(ErrSchemaInvalid, err, "")
		}

		infos := make([]contentNodeInfo, 0, len(nodes))
		for _, n := range nodes {
			infos = append(infos, contentNodeInfo{Name: n.Name, Ref: n.Ref, Kind: n.Schema.Kind().String()})
		}
		if isJSONOutput() {
			outputSuccess(infos, &Meta{Count: len(infos)})
			return nil
		}

		t := ui.NewTable(3)
		t.SetHeader("NAME", "REF", "KIND")
		for _, n := range infos {
			t.AddRow(n.Name, n.Ref, n.Kind)
		}
		fmt.Print(t.String())
		fmt.Println(ui.Count(len(infos), "node type", "node types"))
		return nil
	},
}

// loadSchemaForDump returns the parsed document, normalized on request.
func loadSchemaForDump(path string, normalized bool) (*jsonschema.Document, error) {
	if normalized {
		doc, _, err := loadSchema(path)
		return doc, err
	}
	if path == "" {
		v, err := jsonschema.Decode(adf.SchemaJSON(), jsonschema.FormatJSON)
		if err != nil {
			return nil, err
		}
		return jsonschema.ParseValue(v)
	}
	return jsonschema.LoadDocument(path)
}

func init() {
	schemaCmd.PersistentFlags().StringVar(&schemaFile, "schema", "", "Schema file (JSON or YAML); defaults to the bundled ADF schema")
	schemaDumpCmd.Flags().BoolVar(&schemaNormalized, "normalized", false, "Resolve $ref and merge allOf before printing")
	schemaDumpCmd.Flags().BoolVar(&schemaRaw, "raw", false, "Print the Go structure of each node")
	schemaDumpCmd.Flags().StringVar(&schemaDumpRef, "ref", "", "Only print this definition")
	schemaCmd.AddCommand(schemaDumpCmd)
	schemaCmd.AddCommand(schemaNodesCmd)
	rootCmd.AddCommand(schemaCmd)
}
