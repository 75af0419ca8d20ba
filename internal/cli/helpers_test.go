package cli

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/aidanlsb/wikiroll/internal/config"
	"github.com/aidanlsb/wikiroll/internal/confluence"
)

var captureStdoutMu sync.Mutex

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	outputCh := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		_ = r.Close()
		outputCh <- buf.String()
	}()

	fn()

	os.Stdout = orig
	_ = w.Close()
	return <-outputCh
}

// setupGlobals points the process-wide CLI state at a temp directory and
// restores it when the test ends.
func setupGlobals(t *testing.T, c *config.Config) string {
	t.Helper()
	dir := t.TempDir()

	prevConfigPath, prevState, prevJournal := configPath, statePathFlag, journalFlag
	prevResolvedConfig, prevResolvedState := resolvedConfigPath, resolvedStatePath
	prevCfg, prevLogger, prevJSON := cfg, logger, jsonOutput
	t.Cleanup(func() {
		configPath, statePathFlag, journalFlag = prevConfigPath, prevState, prevJournal
		resolvedConfigPath, resolvedStatePath = prevResolvedConfig, prevResolvedState
		cfg, logger, jsonOutput = prevCfg, prevLogger, prevJSON
	})

	configPath = filepath.Join(dir, "config.toml")
	statePathFlag = filepath.Join(dir, "state.toml")
	journalFlag = filepath.Join(dir, "journal.db")
	resolvedConfigPath, resolvedStatePath = "", ""
	if c == nil {
		c = &config.Config{}
	}
	cfg = c
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	jsonOutput = true
	return dir
}

// decodeResponse parses a JSON envelope, decoding data into out when set.
func decodeResponse(t *testing.T, output string, out any) Response {
	t.Helper()
	var raw struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(output), &raw); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, output)
	}
	if out != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, out); err != nil {
			t.Fatalf("decode data: %v\n%s", err, raw.Data)
		}
	}
	return raw.Response
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

type testPage struct {
	confluence.Page
	parent string
	body   string
}

// pageServer is a small fake Confluence site.
type pageServer struct {
	mu    sync.Mutex
	pages map[string]*testPage
	order []string
	puts  int
}

func newPageServer(t *testing.T) (*pageServer, *config.Config) {
	t.Helper()
	s := &pageServer{pages: map[string]*testPage{}}
	srv := httptest.NewServer(s.handler(t))
	t.Cleanup(srv.Close)
	c := &config.Config{
		Confluence: config.ConfluenceConfig{URL: srv.URL, Email: "me@example.com", Token: "secret"},
		Retry:      config.RetryConfig{Attempts: 1},
	}
	return s, c
}

func (s *pageServer) add(id, parent, title, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[id] = &testPage{
		Page:   confluence.Page{ID: id, Type: "page", Status: "current", Title: title, Version: &confluence.Version{Number: 3}},
		parent: parent,
		body:   body,
	}
	s.order = append(s.order, id)
}

func (s *pageServer) page(id string) testPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.pages[id]
}

func (s *pageServer) children(parent string) []confluence.Page {
	var out []confluence.Page
	for _, id := range s.order {
		if p := s.pages[id]; p.parent == parent {
			out = append(out, confluence.Page{ID: p.ID, Title: p.Title})
		}
	}
	return out
}

func (s *pageServer) handler(t *testing.T) http.Handler {
	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(v); err != nil {
			t.Errorf("encode: %v", err)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wiki/rest/api/space", func(w http.ResponseWriter, r *http.Request) {
		var res confluence.Results[confluence.Space]
		if r.URL.Query().Get("start") == "" || r.URL.Query().Get("start") == "0" {
			res.Results = []confluence.Space{{ID: 1, Key: "TEAM", Name: "Team"}}
		}
		res.Size = len(res.Results)
		write(w, 200, res)
	})
	mux.HandleFunc("GET /wiki/rest/api/space/{key}/content/page", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var res confluence.Results[confluence.Page]
		if r.URL.Query().Get("start") == "" || r.URL.Query().Get("start") == "0" {
			res.Results = s.children("")
		}
		res.Size = len(res.Results)
		write(w, 200, res)
	})
	mux.HandleFunc("GET /wiki/api/v2/pages/{id}/children", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		write(w, 200, map[string]any{"results": s.children(r.PathValue("id"))})
	})
	mux.HandleFunc("GET /wiki/rest/api/content/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		p, ok := s.pages[r.PathValue("id")]
		if !ok {
			write(w, 404, map[string]string{"message": "not found"})
			return
		}
		out := p.Page
		out.Body = &confluence.PageBody{Storage: confluence.Storage{Value: p.body, Representation: "storage"}}
		write(w, 200, out)
	})
	mux.HandleFunc("PUT /wiki/rest/api/content/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var req struct {
			Version confluence.Version   `json:"version"`
			Title   string               `json:"title"`
			Body    *confluence.PageBody `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("put request: %v", err)
		}
		p := s.pages[r.PathValue("id")]
		if req.Version.Number != p.Version.Number+1 {
			write(w, http.StatusConflict, map[string]string{"message": "version conflict"})
			return
		}
		s.puts++
		p.Version = &confluence.Version{Number: req.Version.Number}
		p.Title = req.Title
		if req.Body != nil {
			p.body = req.Body.Storage.Value
		}
		write(w, 200, p.Page)
	})
	return mux
}

// setVar assigns a package-level flag variable for the length of a test.
func setVar[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}
