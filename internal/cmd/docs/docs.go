// Package docs parses docs service flags and launches the service.
package docs

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/ultikits/ultitools-dev-doc/internal/platform/cmd"
	server "github.com/ultikits/ultitools-dev-doc/internal/services/docs"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/localeroute"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/site"
)

// Config holds docs command configuration.
type Config struct {
	HTTPAddr            string `env:"ULTITOOLS_DOCS_HTTP_ADDR" envDefault:"localhost:8080"`
	DistDir             string `env:"ULTITOOLS_DOCS_DIST_DIR"`
	SiteConfig          string `env:"ULTITOOLS_DOCS_SITE_CONFIG"`
	SearchDB            string `env:"ULTITOOLS_DOCS_SEARCH_DB" envDefault:":memory:"`
	TrustForwardedProto bool   `env:"ULTITOOLS_DOCS_TRUST_FORWARDED_PROTO" envDefault:"false"`
	TrustForwardedHost  bool   `env:"ULTITOOLS_DOCS_TRUST_FORWARDED_HOST" envDefault:"false"`
	LocaleMatch         string `env:"ULTITOOLS_DOCS_LOCALE_MATCH" envDefault:"substring"`
}

// Validate checks settings that flags and env cannot constrain.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("http address is required")
	}
	_, err := localeroute.ParseMatchMode(c.LocaleMatch)
	return err
}

// ParseConfig parses the dotenv file, environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args, registerFlags); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func registerFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DistDir, "dist-dir", cfg.DistDir, "Built site directory (empty serves only the API)")
	fs.StringVar(&cfg.SiteConfig, "site-config", cfg.SiteConfig, "Site configuration YAML (empty uses the embedded site)")
	fs.StringVar(&cfg.SearchDB, "search-db", cfg.SearchDB, "Search index SQLite path or :memory:")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "Honor X-Forwarded-Proto when building redirect origins")
	fs.BoolVar(&cfg.TrustForwardedHost, "trust-forwarded-host", cfg.TrustForwardedHost, "Honor X-Forwarded-Host when building redirect origins")
	fs.StringVar(&cfg.LocaleMatch, "locale-match", cfg.LocaleMatch, "Root redirect matching: substring or tag")
}

// Run starts the docs HTTP service.
func Run(ctx context.Context, cfg Config) error {
	serverConfig, err := serverConfig(cfg)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDocs, func(ctx context.Context) error {
		srv, err := server.NewServer(ctx, serverConfig)
		if err != nil {
			// Shutdown requested while the index was still being built.
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("init docs server: %w", err)
		}
		defer srv.Close()

		if err := srv.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve docs: %w", err)
		}
		return nil
	})
}

func serverConfig(cfg Config) (server.Config, error) {
	mode, err := localeroute.ParseMatchMode(cfg.LocaleMatch)
	if err != nil {
		return server.Config{}, err
	}
	siteConfig := site.Default()
	if path := strings.TrimSpace(cfg.SiteConfig); path != "" {
		siteConfig, err = site.Load(path)
		if err != nil {
			return server.Config{}, fmt.Errorf("load site config: %w", err)
		}
	}
	return server.Config{
		HTTPAddr:            cfg.HTTPAddr,
		DistDir:             cfg.DistDir,
		Site:                siteConfig,
		SearchDSN:           cfg.SearchDB,
		TrustForwardedProto: cfg.TrustForwardedProto,
		TrustForwardedHost:  cfg.TrustForwardedHost,
		LocaleMatch:         mode,
	}, nil
}
