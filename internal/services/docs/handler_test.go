package docs

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/httpx"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/metrics"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/localeroute"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/site"
)

func writeDist(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":                 `<html lang="en-US"><head><title>UltiTools API Docs</title></head><body><main><p>Welcome home</p></main></body></html>`,
		"guide/introduction.html":    `<html lang="en-US"><head><title>Introduction | UltiTools API Docs</title></head><body><main><h1>Introduction</h1><p>Plugin framework for servers.</p></main></body></html>`,
		"zh/index.html":              `<html lang="zh-CN"><head><title>UltiTools API 开发文档</title></head><body><main><p>欢迎</p></main></body></html>`,
		"zh/guide/introduction.html": `<html lang="zh-CN"><head><title>简介 | UltiTools API 开发文档</title></head><body><main><h1>简介</h1></main></body></html>`,
		"assets/app.js":              `console.log("docs")`,
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newTestHandler(t *testing.T, config Config) *Handler {
	t.Helper()
	if config.Logger == nil {
		config.Logger = log.New(io.Discard, "", 0)
	}
	h, err := NewHandler(context.Background(), config)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func serve(h http.Handler, method string, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func acceptLanguage(value string) http.Header {
	return http.Header{"Accept-Language": []string{value}}
}

func TestRootRedirectsChineseReaders(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	h := newTestHandler(t, Config{DistDir: writeDist(t), Metrics: m})

	rec := serve(h, http.MethodGet, "/", acceptLanguage("zh-CN,zh;q=0.9,en;q=0.8"))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if got := rec.Header().Get("Location"); got != "http://example.com/zh/" {
		t.Fatalf("Location = %q, want %q", got, "http://example.com/zh/")
	}
	if got := testutil.ToFloat64(m.LocaleRouteTotal.WithLabelValues("redirect", "zh")); got != 1 {
		t.Fatalf("redirect counter = %v, want 1", got)
	}
}

func TestCustomSiteWithoutRedirectMatchStillRedirects(t *testing.T) {
	t.Parallel()

	s, err := site.Parse([]byte("title: Docs\nlang: en-US\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	h := newTestHandler(t, Config{Site: s})

	rec := serve(h, http.MethodGet, "/", acceptLanguage("ZH"))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if got := rec.Header().Get("Location"); got != "http://example.com/zh/" {
		t.Fatalf("Location = %q, want %q", got, "http://example.com/zh/")
	}
}

func TestRootServesEnglishOtherwise(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	h := newTestHandler(t, Config{DistDir: writeDist(t), Metrics: m})

	for _, header := range []http.Header{acceptLanguage("en-US,en;q=0.9"), nil, acceptLanguage("")} {
		rec := serve(h, http.MethodGet, "/", header)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), "Welcome home") {
			t.Fatalf("body = %q", rec.Body.String())
		}
	}
	if got := testutil.ToFloat64(m.LocaleRouteTotal.WithLabelValues("passthrough", "root")); got != 3 {
		t.Fatalf("passthrough counter = %v, want 3", got)
	}
}

func TestNonRootPathsAreNeverRedirected(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{DistDir: writeDist(t)})
	rec := serve(h, http.MethodGet, "/guide/introduction", acceptLanguage("zh-CN"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Plugin framework") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestRedirectHonorsTrustedForwardedProto(t *testing.T) {
	t.Parallel()

	header := acceptLanguage("zh")
	header.Set("X-Forwarded-Proto", "https")

	trusted := newTestHandler(t, Config{TrustForwardedProto: true})
	if got := serve(trusted, http.MethodGet, "/", header).Header().Get("Location"); got != "https://example.com/zh/" {
		t.Fatalf("trusted Location = %q", got)
	}
	untrusted := newTestHandler(t, Config{})
	if got := serve(untrusted, http.MethodGet, "/", header).Header().Get("Location"); got != "http://example.com/zh/" {
		t.Fatalf("untrusted Location = %q", got)
	}
}

func TestTagLocaleMatchHonorsQuality(t *testing.T) {
	t.Parallel()

	substring := newTestHandler(t, Config{DistDir: writeDist(t)})
	if rec := serve(substring, http.MethodGet, "/", acceptLanguage("en, zh;q=0")); rec.Code != http.StatusFound {
		t.Fatalf("substring status = %d, want %d", rec.Code, http.StatusFound)
	}
	tag := newTestHandler(t, Config{DistDir: writeDist(t), LocaleMatch: localeroute.MatchTag})
	if rec := serve(tag, http.MethodGet, "/", acceptLanguage("en, zh;q=0")); rec.Code != http.StatusOK {
		t.Fatalf("tag status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestStaticCleanURLs(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{DistDir: writeDist(t)})

	rec := serve(h, http.MethodGet, "/zh", nil)
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/zh/" {
		t.Fatalf("/zh = %d %q, want 301 /zh/", rec.Code, rec.Header().Get("Location"))
	}
	rec = serve(h, http.MethodGet, "/zh/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "欢迎") {
		t.Fatalf("/zh/ = %d %q", rec.Code, rec.Body.String())
	}
	rec = serve(h, http.MethodGet, "/guide/introduction.html", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/guide/introduction.html = %d", rec.Code)
	}
	rec = serve(h, http.MethodGet, "/assets/app.js", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Cache-Control") != immutableCache {
		t.Fatalf("asset = %d cache %q", rec.Code, rec.Header().Get("Cache-Control"))
	}
	rec = serve(h, http.MethodPost, "/guide/introduction", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestMissingPagesRenderLocalizedNotFound(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{DistDir: writeDist(t)})
	rec := serve(h, http.MethodGet, "/zh/guide/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "页面未找到") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestWithoutDistEverythingIsNotFound(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	rec := serve(h, http.MethodGet, "/", acceptLanguage("en"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSiteAPI(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	rec := serve(h, http.MethodGet, "/api/site?locale=zh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var cfg struct {
		Locale string         `json:"locale"`
		Lang   string         `json:"lang"`
		Title  string         `json:"title"`
		I18n   map[string]any `json:"i18n"`
		Nav    []struct {
			Text string `json:"text"`
		} `json:"nav"`
		Search struct {
			Provider string `json:"provider"`
			Algolia  struct {
				IndexName        string         `json:"indexName"`
				SearchParameters map[string]any `json:"searchParameters"`
			} `json:"algolia"`
		} `json:"search"`
		EditLink struct {
			Text string `json:"text"`
		} `json:"editLink"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Locale != "zh" || cfg.Lang != "zh-CN" || cfg.Title != "UltiTools API 开发文档" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.I18n["search"] != "搜索" {
		t.Fatalf("i18n.search = %v", cfg.I18n["search"])
	}
	if len(cfg.Nav) == 0 || cfg.Nav[0].Text != "文档 (v6.0.0)" {
		t.Fatalf("nav = %+v", cfg.Nav)
	}
	if cfg.Search.Provider != "algolia" || cfg.Search.Algolia.IndexName != "ultikits" {
		t.Fatalf("search = %+v", cfg.Search)
	}
	filters, _ := cfg.Search.Algolia.SearchParameters["facetFilters"].([]any)
	if len(filters) != 1 || filters[0] != "lang:zh-CN" {
		t.Fatalf("facetFilters = %v", cfg.Search.Algolia.SearchParameters["facetFilters"])
	}
	if cfg.EditLink.Text != "在 GitHub 上编辑此页" {
		t.Fatalf("editLink = %+v", cfg.EditLink)
	}

	rec = serve(h, http.MethodGet, "/api/site?path=/guide/introduction", nil)
	if !strings.Contains(rec.Body.String(), `"locale":"root"`) {
		t.Fatalf("path lookup body = %s", rec.Body.String())
	}
	rec = serve(h, http.MethodGet, "/api/site?locale=fr", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown locale status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSidebarAPI(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	rec := serve(h, http.MethodGet, "/api/sidebar?path=/zh/guide/introduction", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp sidebarResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Locale != "zh" || resp.Key != "/zh/guide/" || len(resp.Groups) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Version == nil || resp.Version.Name != "v6" {
		t.Fatalf("version = %+v", resp.Version)
	}

	rec = serve(h, http.MethodGet, "/api/sidebar", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing path status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSearchAPIUsesBuiltPages(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	h := newTestHandler(t, Config{DistDir: writeDist(t), Metrics: m})
	rec := serve(h, http.MethodGet, "/api/search?q=servers&locale=root", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"link":"/guide/introduction"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if got := testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("local")); got != 1 {
		t.Fatalf("search counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SearchIndexedPages); got == 0 {
		t.Fatal("expected indexed documents gauge to be set")
	}
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})

	rec := serve(h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(httpx.HeaderRequestID) == "" {
		t.Fatal("expected request id header")
	}

	rec = serve(h, http.MethodGet, "/manifest.webmanifest", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"short_name":"UltiTools"`) {
		t.Fatalf("manifest = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ultitools_docs_http_requests_total") {
		t.Fatalf("metrics = %d", rec.Code)
	}
}

func TestNewHandlerRejectsMissingDist(t *testing.T) {
	t.Parallel()

	_, err := NewHandler(context.Background(), Config{DistDir: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatal("expected error for missing dist dir")
	}
}

func TestNewHandlerRejectsBadMatchMode(t *testing.T) {
	t.Parallel()

	_, err := NewHandler(context.Background(), Config{LocaleMatch: "fuzzy"})
	if err == nil {
		t.Fatal("expected error for unknown match mode")
	}
}
