// Package cmd holds the startup plumbing shared by command entrypoints.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/config"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/otel"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/timeouts"
)

// ServiceDocs identifies the documentation site service in telemetry.
const ServiceDocs = "docs"

// DefaultDotEnvFile is read before env parsing when present.
const DefaultDotEnvFile = ".env"

// EnvDotEnvFile points at a dotenv file other than DefaultDotEnvFile.
const EnvDotEnvFile = "ULTITOOLS_DOCS_DOTENV"

// Validator is implemented by configs that check themselves after parsing.
type Validator interface {
	Validate() error
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// ParseConfigFromArgs fills cfg from the dotenv file, the environment and
// then flags, so flags win. register binds flags to fields of cfg. A cfg
// implementing Validator is checked last.
func ParseConfigFromArgs[T any](cfg *T, fs *flag.FlagSet, args []string, register func(*flag.FlagSet, *T)) error {
	if err := config.LoadDotEnv(DotEnvFile()); err != nil {
		return err
	}
	if err := ParseConfig(cfg); err != nil {
		return err
	}
	if register != nil && fs != nil {
		register(fs, cfg)
	}
	if err := ParseArgs(fs, args); err != nil {
		return err
	}
	if v, ok := any(cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// DotEnvFile returns the dotenv path to load.
func DotEnvFile() string {
	if path := strings.TrimSpace(os.Getenv(EnvDotEnvFile)); path != "" {
		return path
	}
	return DefaultDotEnvFile
}

// RunWithTelemetry installs tracing for service, runs it, and flushes
// pending spans once run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer flushTelemetry(service, shutdown)

	log.Printf("service=%s starting", service)
	err = run(ctx)
	if err != nil {
		log.Printf("service=%s stopped err=%v", service, err)
		return err
	}
	log.Printf("service=%s stopped", service)
	return nil
}

func flushTelemetry(service string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.TelemetryShutdown)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Printf("service=%s otel shutdown: %v", service, err)
	}
}
