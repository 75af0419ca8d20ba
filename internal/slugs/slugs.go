// Package slugs builds file names from page titles.
package slugs

import (
	"strconv"
	"strings"

	goslug "github.com/gosimple/slug"
)

// maxTitleLen bounds the title part of generated names.
const maxTitleLen = 60

// Title slugifies a page title for use in a file name. Titles with
// nothing sluggable become "page".
func Title(title string) string {
	s := goslug.Make(title)
	if len(s) > maxTitleLen {
		s = strings.TrimRight(s[:maxTitleLen], "-")
	}
	if s == "" {
		return "page"
	}
	return s
}

// BackupName names the file a page body is saved to before it is
// overwritten: title slug, page id and version, then ext.
func BackupName(title, pageID string, version int, ext string) string {
	var sb strings.Builder
	sb.WriteString(Title(title))
	if pageID != "" {
		sb.WriteString("-")
		sb.WriteString(goslug.Make(pageID))
	}
	if version > 0 {
		sb.WriteString("-v")
		sb.WriteString(strconv.Itoa(version))
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		sb.WriteString(".")
	}
	sb.WriteString(ext)
	return sb.String()
}
