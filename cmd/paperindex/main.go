package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/paperstack/paperindex/internal/config"
	"github.com/paperstack/paperindex/internal/mcp"
	"github.com/paperstack/paperindex/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to a paperindex.yaml config file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	// stdout carries the MCP protocol, so all logging goes to stderr.
	log.SetOutput(os.Stderr)

	if err := run(*configPath); err != nil {
		log.Fatalf("paperindex: %v", err)
	}
}

func printVersion() {
	fmt.Printf("paperindex %s (built %s)\n", version, buildTime)
	fmt.Printf("  driver: %s (%s build)\n", storage.DriverName, storage.BuildMode)
	fmt.Printf("  vector extension: %v\n", storage.VectorExtensionAvailable)
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	srv, err := mcp.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("paperindex %s serving MCP on stdio (driver=%s vector=%v)",
			version, storage.DriverName, storage.VectorExtensionAvailable)
		serveErr <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("received %v, shutting down", sig)
		cancel()
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	log.Println("server stopped")
	return nil
}
