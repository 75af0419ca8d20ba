package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/wikiroll/internal/rollover"
	"github.com/aidanlsb/wikiroll/internal/ui"
)

var (
	rolloverIn      string
	rolloverOut     string
	rolloverFormat  string
	rolloverPreview bool
)

type rolloverResult struct {
	Input   string           `json:"input"`
	Output  string           `json:"output,omitempty"`
	Format  rollover.Format  `json:"format"`
	Summary rollover.Summary `json:"summary"`
	Body    string           `json:"body,omitempty"`
}

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Carry the newest heading group of a local page forward",
	Long: `Reads a Confluence storage-format (xml) or markdown (md) body, duplicates
its leading heading group and writes the result.

The format defaults to md for .md and .markdown inputs and to xml otherwise.
Without --out the result is written to stdout; --preview renders it for the
terminal instead.

Examples:
  wroll rollover --in journal.xml --out journal.xml
  wroll rollover --in week.md --preview`,
	Args: cobra.NoArgs,
	RunE: runRollover,
}

func runRollover(cmd *cobra.Command, args []string) error {
	if rolloverIn == "" {
		return handleErrorMsg(ErrMissingArgument, "--in is required", "Pass a file, or - for stdin")
	}
	format, err := rollover.ParseFormat(firstNonEmpty(rolloverFormat, formatForPath(rolloverIn)))
	if err != nil {
		return handleError(ErrInvalidInput, err, "")
	}

	src, err := readInput(rolloverIn)
	if err != nil {
		return handleError(ErrFileReadError, err, "")
	}
	tr := rollover.New(rollover.WithLogger(getLogger()))
	out, sum, err := tr.Transform(format, src)
	if err != nil {
		return handleErr(err)
	}

	res := rolloverResult{Input: rolloverIn, Format: format, Summary: sum}
	var warnings []Warning
	if !sum.Duplicated {
		warnings = append(warnings, Warning{Code: WarnNothingCarried, Message: "fewer than two heading groups; body unchanged"})
	}

	if rolloverPreview {
		if isJSONOutput() {
			res.Body = string(out)
			outputSuccessWithWarnings(res, warnings, nil)
			return nil
		}
		return previewBody(format, out, sum)
	}

	if isJSONOutput() && (rolloverOut == "" || rolloverOut == "-") {
		res.Body = string(out)
	} else if err := writeOutput(rolloverOut, out); err != nil {
		return handleError(ErrFileWriteError, err, "")
	}
	res.Output = rolloverOut

	if isJSONOutput() {
		outputSuccessWithWarnings(res, warnings, nil)
		return nil
	}
	if rolloverOut != "" && rolloverOut != "-" {
		fmt.Println(ui.Successf("Wrote %s %s", rolloverOut, ui.Hint(summaryLine(sum))))
	}
	return nil
}

func previewBody(format rollover.Format, body []byte, sum rollover.Summary) error {
	fmt.Println(ui.Info(summaryLine(sum)))
	if format != rollover.FormatMarkdown {
		fmt.Println(string(body))
		return nil
	}
	display := ui.NewDisplayContext()
	rendered, err := ui.RenderMarkdown(string(body), display.TermWidth)
	if err != nil {
		return handleError(ErrInternal, err, "")
	}
	fmt.Print(rendered)
	return nil
}

func summaryLine(sum rollover.Summary) string {
	if !sum.Duplicated {
		return fmt.Sprintf("%d groups, nothing carried", sum.GroupsIn)
	}
	return fmt.Sprintf("%d -> %d groups, carried %q", sum.GroupsIn, sum.GroupsOut, sum.Carried)
}

func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return string(rollover.FormatMarkdown)
	}
	return string(rollover.FormatStorage)
}

func init() {
	rolloverCmd.Flags().StringVar(&rolloverIn, "in", "", "Input body file, or - for stdin")
	rolloverCmd.Flags().StringVar(&rolloverOut, "out", "", "Output file (default stdout; may equal --in)")
	rolloverCmd.Flags().StringVar(&rolloverFormat, "format", "", "Body format: xml or md")
	rolloverCmd.Flags().BoolVar(&rolloverPreview, "preview", false, "Render the result instead of writing it")
	rootCmd.AddCommand(rolloverCmd)
}
