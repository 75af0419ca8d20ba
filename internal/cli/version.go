package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/wikiroll/internal/buildinfo"
)

const defaultModulePath = "github.com/aidanlsb/wikiroll"

type versionInfo struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show wroll version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()

		if isJSONOutput() {
			outputSuccess(info, nil)
			return nil
		}

		fmt.Printf("wroll %s\n", info.Version)
		fmt.Printf("module: %s\n", info.ModulePath)
		if info.Commit != "" {
			fmt.Printf("commit: %s", info.Commit)
			if info.Modified {
				fmt.Print(" (modified)")
			}
			fmt.Println()
		}
		if info.CommitTime != "" {
			fmt.Printf("commit_time: %s\n", info.CommitTime)
		}
		fmt.Printf("go: %s %s\n", info.GoVersion, info.Platform)
		return nil
	},
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:    "devel",
		ModulePath: defaultModulePath,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		applyLdflags(&info)
		return info
	}

	if bi.Main.Path != "" {
		info.ModulePath = bi.Main.Path
	}
	info.Version = normalizeVersion(bi.Main.Version)
	if bi.GoVersion != "" {
		info.GoVersion = bi.GoVersion
	}
	goos, goarch := buildSetting(bi, "GOOS"), buildSetting(bi, "GOARCH")
	if goos != "" && goarch != "" {
		info.Platform = goos + "/" + goarch
	}

	info.Commit = buildSetting(bi, "vcs.revision")
	info.CommitTime = buildSetting(bi, "vcs.time")
	info.Modified = strings.EqualFold(buildSetting(bi, "vcs.modified"), "true")
	applyLdflags(&info)
	return info
}

func normalizeVersion(version string) string {
	if version == "" || version == "(devel)" {
		return "devel"
	}
	return version
}

func buildSetting(bi *debug.BuildInfo, key string) string {
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// applyLdflags fills what the module build info left empty.
func applyLdflags(info *versionInfo) {
	if info.Version == "devel" && buildinfo.Version != "" {
		info.Version = normalizeVersion(buildinfo.Version)
	}
	if info.Commit == "" {
		info.Commit = buildinfo.Commit
	}
	if info.CommitTime == "" {
		info.CommitTime = buildinfo.Date
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
