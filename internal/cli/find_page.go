package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/wikiroll/internal/ui"
)

var (
	findSpace string
	findPath  string
)

type foundPage struct {
	Space    string `json:"space"`
	SpaceKey string `json:"space_key"`
	Path     string `json:"path"`
	ID       string `json:"id"`
	Title    string `json:"title"`
}

var findPageCmd = &cobra.Command{
	Use:   "find-page",
	Short: "Resolve a slash-separated title path to a page",
	Long: `Walks a space from its top-level pages, matching one path component per
level. A component matches a title exactly, or as a strftime pattern such as
"%Y-%m-%d", in which case the newest matching date wins.

Examples:
  wroll find-page --space Team --path "Journal/%Y/week %W"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		space := firstNonEmpty(findSpace, getConfig().Rollover.Space)
		if space == "" || findPath == "" {
			return handleErrorMsg(ErrMissingArgument, "--space and --path are required", "")
		}
		client, err := newConfluenceClient()
		if err != nil {
			return handleErr(err)
		}
		ctx := commandContext(cmd)

		sp, err := client.SpaceByName(ctx, space)
		if err != nil {
			return handleErr(err)
		}
		page, err := client.FindPageByPath(ctx, sp.Key, findPath)
		if err != nil {
			return handleErr(err)
		}

		res := foundPage{Space: sp.Name, SpaceKey: sp.Key, Path: findPath, ID: page.ID, Title: page.Title}
		if isJSONOutput() {
			outputSuccess(res, nil)
			return nil
		}
		fmt.Println(ui.Page(page.Title, page.ID))
		return nil
	},
}

func init() {
	findPageCmd.Flags().StringVar(&findSpace, "space", "", "Space name (default rollover.space)")
	findPageCmd.Flags().StringVar(&findPath, "path", "", "Slash-separated title path")
	rootCmd.AddCommand(findPageCmd)
}
