package main

import (
	"context"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/fittrack/internal/config"
	"example.com/fittrack/internal/identity"
	httptransport "example.com/fittrack/internal/transport/http"
)

func main() {
	cfg := config.Load()

	downstream, err := url.Parse(cfg.DownstreamURL)
	if err != nil {
		log.Fatalf("invalid downstream url %q: %v", cfg.DownstreamURL, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(downstream)
	users := identity.NewUserClient(cfg.UserServiceURL, cfg.IdentityCallTimeout)
	filter := identity.NewFilter(users, log.New(log.Writer(), "[identity] ", log.LstdFlags))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", filter.Wrap(proxy))

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.GatewayAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, mux)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("gateway listening on %s (downstream=%s)", cfg.GatewayAddress, cfg.DownstreamURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
