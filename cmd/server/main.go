package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/server"
)

func main() {
	configPath := flag.String("config", "", "Config file (yaml or toml)")
	port := flag.String("port", "", "Server port (overrides PORT)")
	mode := flag.String("surface", "", "Surface mode: client, host or none")
	dev := flag.Bool("dev", false, "Development logging")
	flag.Parse()

	if *configPath != "" {
		os.Setenv(config.FileEnv, *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *mode != "" {
		cfg.Surface.Mode = *mode
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Close(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
