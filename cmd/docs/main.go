// Package main starts the documentation site service.
//
// The process serves the built site behind the root locale redirect and
// exposes site configuration and local search to the browser theme.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	docscmd "github.com/ultikits/ultitools-dev-doc/internal/cmd/docs"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/config"
)

func main() {
	log.SetPrefix("[DOCS] ")
	cfg, err := docscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := docscmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
