// Package main is the entry point for the pplxproxy server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/howard-nolan/pplxproxy/internal/config"
	"github.com/howard-nolan/pplxproxy/internal/provider"
	"github.com/howard-nolan/pplxproxy/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.Perplexity.APIKey == "" {
		log.Printf("WARNING: PERPLEXITY_API_KEY not set; /ask, /ask_text and /search_text will return 500")
	}
	if cfg.Auth.ClientIdentKey == "" {
		log.Printf("WARNING: CLIENT_IDENT_KEY not set; /ask_text and /search_text will return 500")
	}

	// One HTTP client for the whole process so connections to Perplexity
	// are pooled. Per-call timeouts are applied by the provider through
	// the request context, not here.
	p := provider.NewPerplexityProvider(cfg.Perplexity, &http.Client{})
	log.Printf("provider %q using default model %q (timeout %s)",
		p.Name(), cfg.Perplexity.Model, cfg.Perplexity.Timeout())

	srv := server.New(cfg, p)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("pplxproxy listening on :%d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown: stop accepting connections and let in-flight
	// requests finish, up to ShutdownTimeout.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	log.Println("pplxproxy stopped")
}
