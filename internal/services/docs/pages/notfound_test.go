package pages

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/i18n/catalog"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/site"
)

func TestNotFoundDataForLocales(t *testing.T) {
	t.Parallel()

	s := site.Default()
	bundle := catalog.Default()

	en := NotFoundDataFor(s, bundle, "/guide/missing")
	if en.Lang != "en-US" || en.Heading != "Page Not Found" || en.HomeLink != "/" {
		t.Fatalf("en = %+v", en)
	}
	if en.ReportURL != "https://github.com/UltiKits/UltiTools-Dev-Doc/issues" {
		t.Fatalf("ReportURL = %q", en.ReportURL)
	}

	zh := NotFoundDataFor(s, bundle, "/zh/guide/missing")
	if zh.Lang != "zh-CN" || zh.Heading != "页面未找到" || zh.HomeLink != "/zh/" || zh.HomeText != "返回首页" {
		t.Fatalf("zh = %+v", zh)
	}
	if zh.Title != "页面未找到 | UltiTools API 开发文档" {
		t.Fatalf("zh title = %q", zh.Title)
	}
}

func TestNotFoundEscapesPath(t *testing.T) {
	t.Parallel()

	data := NotFoundDataFor(site.Default(), catalog.Default(), `/<script>alert(1)</script>`)
	var b bytes.Buffer
	if err := NotFound(data).Render(context.Background(), &b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := b.String()
	if strings.Contains(got, "<script>") {
		t.Fatalf("path was not escaped: %s", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Fatalf("expected escaped path, got %s", got)
	}
}

func TestNotFoundWithoutEditLinkOmitsReport(t *testing.T) {
	t.Parallel()

	s, err := site.Parse([]byte("title: Docs\nlang: en-US\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var b bytes.Buffer
	if err := NotFound(NotFoundDataFor(s, catalog.Default(), "/x")).Render(context.Background(), &b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(b.String(), `class="report"`) {
		t.Fatalf("unexpected report link: %s", b.String())
	}
}

func TestNotFoundHandler(t *testing.T) {
	t.Parallel()

	h := NotFoundHandler(site.Default(), catalog.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/zh/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("Content-Type = %q", got)
	}
	body := rec.Body.String()
	for _, want := range []string{`lang="zh-CN"`, "页面未找到", "<code>/zh/nope</code>", `href="/zh/"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q: %s", want, body)
		}
	}
}

func TestIssuesURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                             "",
		"UltiKits/UltiTools-Dev-Doc":   "https://github.com/UltiKits/UltiTools-Dev-Doc/issues",
		"https://git.example.com/a/b/": "https://git.example.com/a/b/issues",
	}
	for in, want := range tests {
		if got := issuesURL(in); got != want {
			t.Fatalf("issuesURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNotFoundSanitizesLinks(t *testing.T) {
	t.Parallel()

	data := NotFoundData{
		Lang:       "en-US",
		Heading:    "Page Not Found",
		HomeLink:   "/",
		HomeText:   "Take me home",
		ReportLink: "let us know",
		ReportURL:  "javascript:alert(1)",
	}
	var b bytes.Buffer
	if err := NotFound(data).Render(context.Background(), &b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := b.String()
	if strings.Contains(got, "javascript:") {
		t.Fatalf("unsafe report URL rendered: %s", got)
	}
	for _, want := range []string{`class="report"`, `href="about:invalid#TemplFailedSanitizationURL"`, `<a class="link" href="/">Take me home</a>`} {
		if !strings.Contains(got, want) {
			t.Fatalf("body missing %q: %s", want, got)
		}
	}
}
