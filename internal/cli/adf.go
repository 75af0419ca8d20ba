package cli

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/wikiroll/internal/adf"
)

var (
	adfIn  string
	adfOut string
)

var adfCmd = &cobra.Command{
	Use:   "adf",
	Short: "Convert markdown to an Atlassian Document Format document",
	Long: `Converts headings, paragraphs, lists, code blocks, rules and tables of a
markdown file to ADF JSON. The result is validated against the bundled
schema before it is written.

Examples:
  wroll adf --in notes.md --out notes.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if adfIn == "" {
			return handleErrorMsg(ErrMissingArgument, "--in is required", "Pass a markdown file, or - for stdin")
		}
		src, err := readInput(adfIn)
		if err != nil {
			return handleError(ErrFileReadError, err, "")
		}
		doc := adf.FromMarkdown(src)
		if err := adf.Validate("", doc); err != nil {
			return handleErr(err)
		}

		if isJSONOutput() && (adfOut == "" || adfOut == "-") {
			outputSuccess(doc, nil)
			return nil
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		if err := writeOutput(adfOut, append(data, '\n')); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]string{"output": adfOut}, nil)
		}
		return nil
	},
}

func init() {
	adfCmd.Flags().StringVar(&adfIn, "in", "", "Markdown input file, or - for stdin")
	adfCmd.Flags().StringVar(&adfOut, "out", "", "Output file (default stdout)")
	rootCmd.AddCommand(adfCmd)
}
