package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/streamdown/pkg/api"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "load configuration from a specific file")
	bind := fs.String("bind", "", "listen address (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *bind != "" {
		cfg.Server.Bind = *bind
	}

	logger, err := newSessionLogger(cfg.Logging, newSessionID())
	if err != nil {
		return err
	}
	if logger != nil {
		defer logger.Close()
	}

	server := api.NewServer(cfg.Server, logger, segmentOptions(cfg.Segmenter)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("streamdown listening on %s\n", cfg.Server.Bind)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})
	return g.Wait()
}
