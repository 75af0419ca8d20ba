package confluence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Space is a Confluence space.
type Space struct {
	ID   int64  `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Version is a page version.
type Version struct {
	Number int `json:"number"`
}

// Storage holds a body in storage representation.
type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// PageBody is the expanded body of a page.
type PageBody struct {
	Storage Storage `json:"storage"`
}

// Page is a content item. Version and Body are only set when the
// request expanded them.
type Page struct {
	ID       string    `json:"id"`
	Type     string    `json:"type,omitempty"`
	Status   string    `json:"status,omitempty"`
	Title    string    `json:"title"`
	ParentID string    `json:"parentId,omitempty"`
	Version  *Version  `json:"version,omitempty"`
	Body     *PageBody `json:"body,omitempty"`
}

// VersionNumber returns the current version, or 0 when it was not expanded.
func (p *Page) VersionNumber() int {
	if p.Version == nil {
		return 0
	}
	return p.Version.Number
}

// StorageValue returns the storage body, or "" when it was not expanded.
func (p *Page) StorageValue() string {
	if p.Body == nil {
		return ""
	}
	return p.Body.Storage.Value
}

// Results is one page of a paged listing.
type Results[T any] struct {
	Results []T `json:"results"`
	Start   int `json:"start"`
	Limit   int `json:"limit"`
	Size    int `json:"size"`
}

// MergeResults concatenates offset-paged responses. Sizes are summed and
// the limit grows by each page's size.
func MergeResults[T any](pages ...Results[T]) Results[T] {
	var out Results[T]
	for i, p := range pages {
		if i == 0 {
			out.Start = p.Start
			out.Limit = p.Limit
		} else {
			out.Limit += p.Size
		}
		out.Results = append(out.Results, p.Results...)
		out.Size += p.Size
	}
	return out
}

// MergeResultsV2 concatenates cursor-paged responses, which carry no
// sizes of their own.
func MergeResultsV2[T any](pages ...Results[T]) Results[T] {
	var out Results[T]
	for _, p := range pages {
		out.Results = append(out.Results, p.Results...)
	}
	out.Size = len(out.Results)
	out.Limit = out.Size + 1
	return out
}

// NextLink extracts the rel="next" target of a Link header.
func NextLink(h http.Header) string {
	for _, v := range h.Values("Link") {
		for _, part := range strings.Split(v, ",") {
			segs := strings.Split(part, ";")
			target := strings.TrimSpace(segs[0])
			if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
				continue
			}
			for _, param := range segs[1:] {
				k, val, ok := strings.Cut(strings.TrimSpace(param), "=")
				if ok && strings.TrimSpace(k) == "rel" && strings.Trim(strings.TrimSpace(val), `"`) == "next" {
					return target[1 : len(target)-1]
				}
			}
		}
	}
	return ""
}

// offsetPages walks a start/limit listing until an empty page comes back.
func offsetPages[T any](ctx context.Context, c *Client, path string, query url.Values) (Results[T], error) {
	var pages []Results[T]
	for start := 0; ; {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		q.Set("start", strconv.Itoa(start))
		q.Set("limit", strconv.Itoa(c.limit))

		var page Results[T]
		if _, err := c.do(ctx, http.MethodGet, path, q, nil, &page); err != nil {
			return Results[T]{}, err
		}
		if page.Size == 0 || len(page.Results) == 0 {
			break
		}
		pages = append(pages, page)
		start += len(page.Results)
	}
	return MergeResults(pages...), nil
}

// cursorPages follows Link rel="next" headers.
func cursorPages[T any](ctx context.Context, c *Client, path string, query url.Values) (Results[T], error) {
	var pages []Results[T]
	for path != "" {
		var page Results[T]
		h, err := c.do(ctx, http.MethodGet, path, query, nil, &page)
		if err != nil {
			return Results[T]{}, err
		}
		pages = append(pages, page)
		// the next link carries the full query, cursor included
		path, query = NextLink(h), nil
	}
	return MergeResultsV2(pages...), nil
}

// Spaces lists every space visible to the user.
func (c *Client) Spaces(ctx context.Context) ([]Space, error) {
	res, err := offsetPages[Space](ctx, c, "/wiki/rest/api/space", nil)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return res.Results, nil
}

// SpaceByName finds the single space with the given display name.
func (c *Client) SpaceByName(ctx context.Context, name string) (Space, error) {
	spaces, err := c.Spaces(ctx)
	if err != nil {
		return Space{}, err
	}
	var found []Space
	for _, s := range spaces {
		if s.Name == name {
			found = append(found, s)
		}
	}
	switch len(found) {
	case 0:
		return Space{}, fmt.Errorf("space %q: %w", name, ErrNotFound)
	case 1:
		return found[0], nil
	}
	return Space{}, fmt.Errorf("space name %q is ambiguous: %d spaces match", name, len(found))
}

// TopPages lists the root pages of a space.
func (c *Client) TopPages(ctx context.Context, spaceKey string) ([]Page, error) {
	path := "/wiki/rest/api/space/" + url.PathEscape(spaceKey) + "/content/page"
	q := url.Values{"depth": {"root"}, "expand": {"children.page.page"}}
	res, err := offsetPages[Page](ctx, c, path, q)
	if err != nil {
		return nil, fmt.Errorf("top pages of %s: %w", spaceKey, err)
	}
	return res.Results, nil
}

// Children lists the direct child pages of a page.
func (c *Client) Children(ctx context.Context, pageID string) ([]Page, error) {
	path := "/wiki/api/v2/pages/" + url.PathEscape(pageID) + "/children"
	res, err := cursorPages[Page](ctx, c, path, url.Values{"limit": {strconv.Itoa(c.limit)}})
	if err != nil {
		return nil, fmt.Errorf("children of %s: %w", pageID, err)
	}
	return res.Results, nil
}

// Page fetches a page with its storage body and version.
func (c *Client) Page(ctx context.Context, id string) (*Page, error) {
	var p Page
	q := url.Values{"expand": {"body.storage,version.number"}}
	if _, err := c.do(ctx, http.MethodGet, "/wiki/rest/api/content/"+url.PathEscape(id), q, nil, &p); err != nil {
		return nil, fmt.Errorf("page %s: %w", id, err)
	}
	return &p, nil
}

// PagesByTitle returns every page in the space titled exactly title.
func (c *Client) PagesByTitle(ctx context.Context, spaceKey, title string) ([]Page, error) {
	var res Results[Page]
	q := url.Values{"spaceKey": {spaceKey}, "title": {title}, "expand": {"version.number"}}
	if _, err := c.do(ctx, http.MethodGet, "/wiki/rest/api/content", q, nil, &res); err != nil {
		return nil, fmt.Errorf("page %q in %s: %w", title, spaceKey, err)
	}
	var out []Page
	for _, p := range res.Results {
		if p.Title == title {
			out = append(out, p)
		}
	}
	return out, nil
}

// PageByTitle returns the first page in the space titled exactly title.
func (c *Client) PageByTitle(ctx context.Context, spaceKey, title string) (*Page, error) {
	pages, err := c.PagesByTitle(ctx, spaceKey, title)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("page %q in %s: %w", title, spaceKey, ErrNotFound)
	}
	return &pages[0], nil
}

type copyOptions struct {
	Prefix  string `json:"prefix"`
	Replace string `json:"replace"`
	Search  string `json:"search"`
}

type copyRequest struct {
	CopyAttachments    bool        `json:"copyAttachments"`
	CopyPermissions    bool        `json:"copyPermissions"`
	CopyProperties     bool        `json:"copyProperties"`
	CopyLabels         bool        `json:"copyLabels"`
	CopyCustomContents bool        `json:"copyCustomContents"`
	CopyDescendants    bool        `json:"copyDescendants"`
	DestinationPageID  string      `json:"destinationPageId"`
	TitleOptions       copyOptions `json:"titleOptions"`
}

// CopyHierarchy copies src and its descendants under destID. The copy is
// asynchronous: it returns the long task id and the title the copied root
// will carry until renamed.
func (c *Client) CopyHierarchy(ctx context.Context, src Page, destID, prefix string) (taskID, tempTitle string, err error) {
	req := copyRequest{
		CopyAttachments:    true,
		CopyPermissions:    true,
		CopyProperties:     true,
		CopyLabels:         true,
		CopyCustomContents: true,
		CopyDescendants:    true,
		DestinationPageID:  destID,
		TitleOptions:       copyOptions{Prefix: prefix},
	}
	var resp struct {
		ID string `json:"id"`
	}
	path := "/wiki/rest/api/content/" + url.PathEscape(src.ID) + "/pagehierarchy/copy"
	if _, err := c.do(ctx, http.MethodPost, path, nil, req, &resp); err != nil {
		return "", "", fmt.Errorf("copy %s under %s: %w", src.ID, destID, err)
	}
	if resp.ID == "" {
		return "", "", fmt.Errorf("copy %s under %s: no task id in response", src.ID, destID)
	}
	return resp.ID, prefix + src.Title, nil
}

type updateRequest struct {
	Version Version   `json:"version"`
	Title   string    `json:"title"`
	Type    string    `json:"type"`
	Status  string    `json:"status"`
	Body    *PageBody `json:"body,omitempty"`
}

// Rename retitles page, bumping its version.
func (c *Client) Rename(ctx context.Context, page Page, title string) (*Page, error) {
	req := updateRequest{
		Version: Version{Number: page.VersionNumber() + 1},
		Title:   title,
		Type:    "page",
		Status:  "current",
	}
	var out Page
	if _, err := c.do(ctx, http.MethodPut, "/wiki/rest/api/content/"+url.PathEscape(page.ID), nil, req, &out); err != nil {
		return nil, fmt.Errorf("rename %s to %q: %w", page.ID, title, err)
	}
	return &out, nil
}

// Update replaces the storage body and title of a page. version is the
// version the body was read at; the update writes version+1.
func (c *Client) Update(ctx context.Context, id, body string, version int, title string) (*Page, error) {
	req := updateRequest{
		Version: Version{Number: version + 1},
		Title:   title,
		Type:    "page",
		Status:  "current",
		Body:    &PageBody{Storage: Storage{Value: body, Representation: "storage"}},
	}
	var out Page
	if _, err := c.do(ctx, http.MethodPut, "/wiki/rest/api/content/"+url.PathEscape(id), nil, req, &out); err != nil {
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	return &out, nil
}

// Task is a long-running server task such as a hierarchy copy.
type Task struct {
	ID                 string `json:"id"`
	Name               Name   `json:"name"`
	PercentageComplete int    `json:"percentageComplete"`
	Successful         bool   `json:"successful"`
	Finished           bool   `json:"finished"`
	ElapsedTime        int64  `json:"elapsedTime"`
}

// Name is a localized task name.
type Name struct {
	Key string `json:"key"`
}

// LongTask fetches the state of a long task.
func (c *Client) LongTask(ctx context.Context, id string) (*Task, error) {
	var t Task
	if _, err := c.do(ctx, http.MethodGet, "/wiki/rest/api/longtask/"+url.PathEscape(id), nil, nil, &t); err != nil {
		return nil, fmt.Errorf("long task %s: %w", id, err)
	}
	return &t, nil
}

var errTaskRunning = errors.New("long task still running")

// WaitTask polls a long task until it finishes, up to attempts polls
// spaced by interval.
func (c *Client) WaitTask(ctx context.Context, id string, attempts uint, interval time.Duration) (*Task, error) {
	var task *Task
	err := retry.Do(
		func() error {
			t, err := c.LongTask(ctx, id)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			task = t
			if !t.Finished {
				return errTaskRunning
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return task, fmt.Errorf("wait for task %s: %w", id, err)
	}
	if !task.Successful {
		return task, fmt.Errorf("task %s finished unsuccessfully", id)
	}
	return task, nil
}
