package cli

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/wikiroll/internal/adf"
	"github.com/aidanlsb/wikiroll/internal/jsonschema"
	"github.com/aidanlsb/wikiroll/internal/ui"
)

var (
	validateSchemaPath string
	validateValuePath  string
	validateRef        string
	validateExplain    bool
)

type validateResult struct {
	Valid       bool   `json:"valid"`
	Schema      string `json:"schema"`
	Ref         string `json:"ref,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a JSON or YAML value against a schema definition",
	Long: `Validates a value against the bundled ADF schema or a schema file.

With --ref the value is checked against one definition ("heading_node" or
"#/definitions/heading_node"); otherwise against the schema's top-level $ref.
--explain adds the diagnostics of a full JSON Schema validator to a rejection.

Examples:
  wroll validate --value doc.json
  wroll validate --value node.yaml --ref paragraph_node --explain
  wroll validate --schema my-schema.json --value item.json`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validateValuePath == "" {
		return handleErrorMsg(ErrMissingArgument, "--value is required", "Pass a JSON or YAML file, or - for stdin")
	}

	doc, schemaName, err := loadSchema(validateSchemaPath)
	if err != nil {
		return handleErr(err)
	}
	data, err := readInput(validateValuePath)
	if err != nil {
		return handleError(ErrFileReadError, err, "")
	}
	value, err := jsonschema.Decode(data, jsonschema.FormatFor(validateValuePath))
	if err != nil {
		return handleError(ErrInvalidInput, err, "")
	}

	v := jsonschema.NewValidator(doc, jsonschema.WithLogger(getLogger()))
	var ok bool
	if validateRef != "" {
		ok, err = v.ValidateRef(jsonschema.RefName(validateRef), value)
	} else {
		ok, err = v.ValidateTop(value)
	}
	if err != nil {
		return handleErr(err)
	}

	res := validateResult{Valid: ok, Schema: schemaName, Ref: validateRef}
	if !ok && validateExplain {
		res.Explanation = explainRejection(validateSchemaPath, validateRef, value)
	}

	if isJSONOutput() {
		if !ok {
			return handleErrorWithDetails(ErrValidationFailed, "value does not match the schema", "", res)
		}
		outputSuccess(res, nil)
		return nil
	}
	if ok {
		fmt.Println(ui.Success("valid"))
		return nil
	}
	fmt.Println(ui.Error("invalid"))
	if res.Explanation != "" {
		fmt.Println(res.Explanation)
	}
	return fmt.Errorf("value does not match the schema")
}

// loadSchema reads and normalizes a schema file; an empty path selects
// the bundled ADF schema.
func loadSchema(path string) (*jsonschema.Document, string, error) {
	if path == "" {
		doc, err := adf.Schema()
		return doc, "adf", err
	}
	doc, err := jsonschema.LoadDocument(path)
	if err != nil {
		return nil, path, err
	}
	doc, err = jsonschema.Normalize(doc)
	return doc, path, err
}

// schemaJSON returns the schema source as JSON for the reference
// validator, converting YAML schemas.
func schemaJSON(path string) ([]byte, error) {
	if path == "" {
		return adf.SchemaJSON(), nil
	}
	if jsonschema.FormatFor(path) == jsonschema.FormatJSON {
		return readInput(path)
	}
	v, err := jsonschema.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func explainRejection(schemaPath, ref string, value any) string {
	src, err := schemaJSON(schemaPath)
	if err != nil {
		return "no explanation: " + err.Error()
	}
	r, err := jsonschema.NewReference(src)
	if err != nil {
		return "no explanation: " + err.Error()
	}
	err = r.Check(ref, value)
	if err == nil {
		return "the reference validator accepts this value"
	}
	return strings.TrimRight(jsonschema.Explain(err), "\n")
}

func init() {
	validateCmd.Flags().StringVar(&validateSchemaPath, "schema", "", "Schema file (JSON or YAML); defaults to the bundled ADF schema")
	validateCmd.Flags().StringVar(&validateValuePath, "value", "", "Value file (JSON or YAML), or - for stdin")
	validateCmd.Flags().StringVar(&validateRef, "ref", "", "Definition to validate against")
	validateCmd.Flags().BoolVar(&validateExplain, "explain", false, "Explain rejections with a full JSON Schema validator")
	rootCmd.AddCommand(validateCmd)
}
