package demoserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/raysh454/sitecheck/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// 1x1 transparent PNG.
var pixelPNG, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

var controlPanel = template.Must(template.New("control").Parse(controlPanelHTML))

// Server serves pages with known defects so each engine can be checked by
// hand against a local target. Every page can be switched between its
// defective and fixed version at runtime.
type Server struct {
	cfg      Config
	logger   logging.Logger
	pages    map[string]PageDefinition
	versions map[string]int // path -> current version
	mu       sync.RWMutex
}

// NewServer creates a new fixture server instance.
func NewServer(cfg Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.InitialVersion == 0 {
		cfg.InitialVersion = VersionDefective
	}
	pageMap := make(map[string]PageDefinition)
	versions := make(map[string]int)

	for _, p := range GetAllPages() {
		pageMap[p.Path] = p
		versions[p.Path] = cfg.InitialVersion
	}

	return &Server{
		cfg:      cfg,
		logger:   logger.With(logging.Component("fixtures")),
		pages:    pageMap,
		versions: versions,
	}
}

// Handler returns the fixture routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register page handlers
	for path := range s.pages {
		pattern := "GET " + path
		if path == "/" {
			pattern = "GET /{$}"
		}
		mux.HandleFunc(pattern, s.pageHandler(path))
	}

	// Control panel for version switching
	mux.HandleFunc("GET /fixtures/control", s.controlPanelHandler)
	mux.HandleFunc("GET /fixtures/versions", s.getVersionsHandler)
	mux.HandleFunc("POST /fixtures/set-version", s.setVersionHandler)
	mux.HandleFunc("POST /fixtures/bump-all", s.bumpAllVersionsHandler)
	mux.HandleFunc("POST /fixtures/reset", s.resetVersionsHandler)

	mux.HandleFunc("GET /static/slow.js", s.slowScriptHandler)
	mux.HandleFunc("GET /static/pixel.png", s.pixelHandler)

	return mux
}

// ListenAndServe serves on cfg.Port until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("fixture server listening",
			logging.Field{Key: "url", Value: fmt.Sprintf("http://localhost:%d", s.cfg.Port)},
			logging.Field{Key: "control_panel", Value: fmt.Sprintf("http://localhost:%d/fixtures/control", s.cfg.Port)})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Version returns the version currently served at path.
func (s *Server) Version(path string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[path]
	return v, ok
}

// SetVersion switches path to version. Unknown paths and versions are
// rejected.
func (s *Server) SetVersion(path string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[path]
	if !ok {
		return fmt.Errorf("unknown page %q", path)
	}
	if _, ok := p.Versions[version]; !ok {
		return fmt.Errorf("page %q has no version %d", path, version)
	}
	s.versions[path] = version
	return nil
}

// pageHandler returns a handler for a specific page path.
func (s *Server) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		pageDef := s.pages[path]
		version := s.versions[path]
		s.mu.RUnlock()

		pageVersion, ok := pageDef.Versions[version]
		if !ok {
			pageVersion = pageDef.Versions[VersionDefective]
		}

		// Set headers
		for k, v := range pageVersion.Headers {
			w.Header().Set(k, v)
		}

		// Set cookies
		for _, c := range pageVersion.Cookies {
			cookie := &http.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Path:     c.Path,
				HttpOnly: c.HttpOnly,
				Secure:   c.Secure,
			}
			switch c.SameSite {
			case "Strict":
				cookie.SameSite = http.SameSiteStrictMode
			case "Lax":
				cookie.SameSite = http.SameSiteLaxMode
			case "None":
				cookie.SameSite = http.SameSiteNoneMode
			}
			http.SetCookie(w, cookie)
		}

		contentType := pageVersion.ContentType
		if contentType == "" {
			contentType = "text/html; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(pageVersion.HTML))
	}
}

// slowScriptHandler delays for cfg.SlowScriptDelay, or until the client
// gives up.
func (s *Server) slowScriptHandler(w http.ResponseWriter, r *http.Request) {
	if d := s.cfg.SlowScriptDelay; d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte("window.slowScriptLoaded = true;\n"))
}

func (s *Server) pixelHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(pixelPNG)
}

// PageInfo describes one fixture page and its current version.
type PageInfo struct {
	Path              string `json:"path"`
	Description       string `json:"description"`
	Engine            string `json:"engine"`
	CurrentVersion    int    `json:"current_version"`
	AvailableVersions []int  `json:"available_versions"`
}

func (s *Server) pageInfos() []PageInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]PageInfo, 0, len(s.pages))
	for path, pageDef := range s.pages {
		versions := make([]int, 0, len(pageDef.Versions))
		for v := range pageDef.Versions {
			versions = append(versions, v)
		}
		sort.Ints(versions)
		pages = append(pages, PageInfo{
			Path:              path,
			Description:       pageDef.Description,
			Engine:            pageDef.Engine,
			CurrentVersion:    s.versions[path],
			AvailableVersions: versions,
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	return pages
}

// controlPanelHandler serves the control panel for version management.
func (s *Server) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := controlPanel.Execute(w, s.pageInfos()); err != nil {
		s.logger.Warn("rendering control panel", logging.Err(err))
	}
}

// getVersionsHandler returns the current versions of all pages.
func (s *Server) getVersionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pageInfos())
}

// setVersionHandler sets the version for a specific page.
func (s *Server) setVersionHandler(w http.ResponseWriter, r *http.Request) {
	path := r.FormValue("path")
	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil {
		http.Error(w, "Invalid version number", http.StatusBadRequest)
		return
	}
	if err := s.SetVersion(path, version); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Info("fixture version set", logging.Field{Key: "path", Value: path}, logging.Field{Key: "version", Value: version})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"path":    path,
		"version": version,
	})
}

// bumpAllVersionsHandler moves every page to its next version, capped at
// the highest available.
func (s *Server) bumpAllVersionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	for path := range s.versions {
		maxV := 1
		for v := range s.pages[path].Versions {
			maxV = max(maxV, v)
		}
		s.versions[path] = min(s.versions[path]+1, maxV)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All versions bumped",
	})
}

// resetVersionsHandler resets all pages to the defective version.
func (s *Server) resetVersionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	for path := range s.versions {
		s.versions[path] = VersionDefective
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All versions reset to 1",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const controlPanelHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Fixture Control Panel</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 1000px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        h1 { color: #333; border-bottom: 2px solid #007bff; padding-bottom: 10px; }
        .page-card { background: white; border-radius: 8px; padding: 20px; margin: 15px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .page-path { font-size: 1.2em; font-weight: bold; color: #007bff; }
        .engine { float: right; color: #666; }
        .version-btn { padding: 8px 16px; border: none; border-radius: 4px; cursor: pointer; }
        .active { background: #007bff; color: white; }
        .inactive { background: #e9ecef; color: #333; }
    </style>
</head>
<body>
    <h1>Fixture Control Panel</h1>
    <p>Version 1 of each page carries known defects, version 2 fixes them.</p>
    <button onclick="post('/fixtures/bump-all')">Fix all</button>
    <button onclick="post('/fixtures/reset')">Break all</button>
    {{range .}}
    <div class="page-card">
        <a href="{{.Path}}" target="_blank" class="page-path">{{.Path}}</a>
        <span class="engine">{{.Engine}}</span>
        <p>{{.Description}}</p>
        {{$current := .CurrentVersion}}{{$path := .Path}}
        {{range .AvailableVersions}}
        <button class="version-btn {{if eq $current .}}active{{else}}inactive{{end}}"
                onclick="setVersion('{{$path}}', {{.}})">v{{.}}</button>
        {{end}}
    </div>
    {{end}}
    <script>
        function post(url, body) {
            fetch(url, {
                method: 'POST',
                headers: {'Content-Type': 'application/x-www-form-urlencoded'},
                body: body || ''
            }).then(function () { location.reload(); });
        }
        function setVersion(path, version) {
            post('/fixtures/set-version', 'path=' + encodeURIComponent(path) + '&version=' + version);
        }
    </script>
</body>
</html>`
