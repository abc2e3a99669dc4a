// Tacscope Server
// Serves the live tactical snapshot feed: session allocation, SSE/WebSocket
// streaming and disposition updates
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsdeck/tacscope/internal/catalog"
	"github.com/opsdeck/tacscope/internal/observability"
	"github.com/opsdeck/tacscope/internal/server"
	"github.com/opsdeck/tacscope/internal/session"
	"github.com/opsdeck/tacscope/pkg/config"
	"github.com/opsdeck/tacscope/pkg/geo"
)

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	port       = flag.String("port", "", "HTTP server port (overrides config)")
)

func main() {
	flag.Parse()

	log.Println("🚀 Starting Tacscope Server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	center := geo.Coordinate{
		Longitude: cfg.Theater.CenterLongitude,
		Latitude:  cfg.Theater.CenterLatitude,
	}

	// The catalog is built once; every session shares its trajectories
	cat := catalog.New(center, cfg.Stream.SampleSeconds())
	log.Printf("🗺️  Theater centered at %.6f, %.6f (%d statics, %d movers)",
		cat.Center().Longitude, cat.Center().Latitude, len(cat.Statics()), len(cat.Movers()))

	store := session.NewStore()
	metrics := observability.NewCollector(nil)
	srv := server.New(cfg, cat, store, metrics)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     srv,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE and WebSocket streams stay open for the
		// life of a session
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("📡 Server listening on http://%s", addr)
		log.Printf("💡 GET /session to start, then /stream?session=CODE")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n👋 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Printf("✅ Server stopped (%d sessions were live)", store.Count())
}
