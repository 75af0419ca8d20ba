package confluence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// SplitPath splits a slash-separated page path, dropping empty components.
func SplitPath(path string) []string {
	var out []string
	for _, c := range strings.Split(path, "/") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// NewTitle renders a strftime title format for t.
func NewTitle(format string, t time.Time) string {
	return strftime.Format(format, t)
}

// MatchTitle reports whether title matches a path component. An exact
// match is reported with exact set. Otherwise the component is read as a
// strftime pattern and the parsed date is returned. Patterns holding
// literal digits cannot be parsed and only ever match exactly.
func MatchTitle(title, component string) (date time.Time, exact, ok bool) {
	if title == component {
		return time.Time{}, true, true
	}
	if !strings.Contains(component, "%") {
		return time.Time{}, false, false
	}
	d, err := strftime.Parse(component, title)
	if err != nil {
		return time.Time{}, false, false
	}
	return d, false, true
}

// BestMatch picks the page matching component: an exact title wins,
// otherwise the newest parsed date. Ties keep the earliest page.
func BestMatch(pages []Page, component string) (*Page, bool) {
	var (
		best   *Page
		newest time.Time
	)
	for i := range pages {
		date, exact, ok := MatchTitle(pages[i].Title, component)
		if !ok {
			continue
		}
		if exact {
			return &pages[i], true
		}
		if best == nil || date.After(newest) {
			best, newest = &pages[i], date
		}
	}
	return best, best != nil
}

// ChildLister lists the children of a page.
type ChildLister interface {
	Children(ctx context.Context, pageID string) ([]Page, error)
}

// FindPageByPath resolves components level by level, starting from the
// given top pages and descending through children.
func FindPageByPath(ctx context.Context, lister ChildLister, top []Page, components []string) (*Page, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("empty page path: %w", ErrNotFound)
	}
	pages := top
	for i, comp := range components {
		page, ok := BestMatch(pages, comp)
		if !ok {
			return nil, fmt.Errorf("page path %q: no page matches %q: %w",
				strings.Join(components, "/"), comp, ErrNotFound)
		}
		if i == len(components)-1 {
			return page, nil
		}
		children, err := lister.Children(ctx, page.ID)
		if err != nil {
			return nil, err
		}
		pages = children
	}
	return nil, ErrNotFound
}

// FindPageByPath resolves a slash-separated path in a space.
func (c *Client) FindPageByPath(ctx context.Context, spaceKey, path string) (*Page, error) {
	top, err := c.TopPages(ctx, spaceKey)
	if err != nil {
		return nil, err
	}
	return FindPageByPath(ctx, c, top, SplitPath(path))
}
