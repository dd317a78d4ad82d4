package docs

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/localeroute"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("docs", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "localhost:8080")
	}
	if cfg.SearchDB != ":memory:" {
		t.Fatalf("SearchDB = %q, want %q", cfg.SearchDB, ":memory:")
	}
	if cfg.LocaleMatch != "substring" {
		t.Fatalf("LocaleMatch = %q, want substring", cfg.LocaleMatch)
	}
	if cfg.TrustForwardedProto || cfg.TrustForwardedHost {
		t.Fatal("forwarded headers must not be trusted by default")
	}
	if cfg.DistDir != "" || cfg.SiteConfig != "" {
		t.Fatalf("DistDir/SiteConfig = %q/%q, want empty", cfg.DistDir, cfg.SiteConfig)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("ULTITOOLS_DOCS_HTTP_ADDR", "0.0.0.0:9000")
	t.Setenv("ULTITOOLS_DOCS_DIST_DIR", "/srv/dist")
	t.Setenv("ULTITOOLS_DOCS_TRUST_FORWARDED_PROTO", "true")

	fs := flag.NewFlagSet("docs", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "127.0.0.1:9100", "-locale-match", "tag"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9100" {
		t.Fatalf("HTTPAddr = %q, want flag value", cfg.HTTPAddr)
	}
	if cfg.DistDir != "/srv/dist" {
		t.Fatalf("DistDir = %q, want env value", cfg.DistDir)
	}
	if !cfg.TrustForwardedProto {
		t.Fatal("TrustForwardedProto = false, want true from env")
	}
	if cfg.LocaleMatch != "tag" {
		t.Fatalf("LocaleMatch = %q, want tag", cfg.LocaleMatch)
	}
}

func TestParseConfigRejectsUnknownLocaleMatch(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("docs", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-locale-match", "fuzzy"}); err == nil {
		t.Fatal("expected error for unknown locale match")
	}
}

func TestParseConfigRejectsEmptyAddress(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("docs", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-http-addr", " "}); err == nil {
		t.Fatal("expected error for empty http address")
	}
}

func TestParseConfigRejectsUnknownFlag(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("docs", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, []string{"-nope"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestServerConfigLoadsSiteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(path, []byte("title: Mirror\nlang: en-US\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := serverConfig(Config{HTTPAddr: "x", SiteConfig: path, LocaleMatch: "tag"})
	if err != nil {
		t.Fatalf("serverConfig: %v", err)
	}
	if got.Site.Title != "Mirror" {
		t.Fatalf("Site.Title = %q, want Mirror", got.Site.Title)
	}
	if got.LocaleMatch != localeroute.MatchTag {
		t.Fatalf("LocaleMatch = %q, want tag", got.LocaleMatch)
	}

	if _, err := serverConfig(Config{SiteConfig: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatal("expected error for missing site config")
	}
}

func TestServerConfigDefaultsToEmbeddedSite(t *testing.T) {
	t.Parallel()

	got, err := serverConfig(Config{})
	if err != nil {
		t.Fatalf("serverConfig: %v", err)
	}
	if got.Site == nil || got.Site.Title != "UltiTools API Docs" {
		t.Fatalf("Site = %+v", got.Site)
	}
	if got.LocaleMatch != localeroute.MatchSubstring {
		t.Fatalf("LocaleMatch = %q, want substring", got.LocaleMatch)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, Config{HTTPAddr: "127.0.0.1:0", SearchDB: ":memory:"}); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestRunReportsStartupErrors(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), Config{
		HTTPAddr: "127.0.0.1:0",
		DistDir:  filepath.Join(t.TempDir(), "missing"),
		SearchDB: ":memory:",
	})
	if err == nil || !strings.Contains(err.Error(), "init docs server") {
		t.Fatalf("Run() = %v, want init docs server error", err)
	}
}
