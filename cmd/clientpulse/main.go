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
	"time"

	"github.com/clientpulse/internal/analytics"
	"github.com/clientpulse/internal/api"
	"github.com/clientpulse/internal/billing"
	"github.com/clientpulse/internal/cache"
	"github.com/clientpulse/internal/config"
	"github.com/clientpulse/internal/events"
	"github.com/clientpulse/internal/health"
	"github.com/clientpulse/internal/kafka"
	"github.com/clientpulse/internal/monitor"
	"github.com/clientpulse/internal/playbooks"
	"github.com/clientpulse/internal/store"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "config/config.yaml", "Configuration file path")
		showVer     = flag.Bool("version", false, "Show version information")
		showHelpMsg = flag.Bool("help", false, "Show help information")
	)
	flag.Parse()

	if *showHelpMsg {
		showHelp()
		return
	}

	if *showVer {
		showVersion()
		return
	}

	log.Printf("Starting ClientPulse v%s (commit: %s, built: %s)", version, commit, date)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Client store
	clientStore, err := store.NewNeo4jStore(store.Config{
		URI:         cfg.Store.URI,
		Database:    cfg.Store.Database,
		Username:    cfg.Store.Username,
		Password:    cfg.Store.Password,
		MaxPoolSize: cfg.Store.MaxPoolSize,
		ConnTimeout: cfg.Store.ConnTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize client store: %v", err)
	}
	defer clientStore.Close(context.Background())

	// Event publishing is optional; without brokers the engine runs
	// compute-only.
	var publisher analytics.Publisher
	var eventPublisher *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka producer: %v", err)
		}
		eventPublisher = events.NewPublisher(producer)
		defer eventPublisher.Close()
		publisher = eventPublisher

		topicManager := kafka.NewTopicManager(cfg.Kafka.Brokers)
		if err := topicManager.CreateTopics(); err != nil {
			log.Printf("Warning: failed to create Kafka topics: %v", err)
		}
	} else {
		log.Printf("No Kafka brokers configured, event publishing disabled")
	}

	// Contract end dates come from Stripe when a key is configured.
	var resolver analytics.ContractResolver
	if cfg.Stripe.APIKey != "" {
		resolver = billing.NewRenewalService(cfg.Stripe.APIKey)
	} else {
		log.Printf("No Stripe API key configured, contract sync disabled")
	}

	window, err := cfg.Analytics.Window()
	if err != nil {
		log.Fatalf("Invalid business-hours window: %v", err)
	}

	engine := analytics.NewEngine(clientStore, publisher, resolver, window)

	// Summary cache
	var summaryCache api.SummaryCache
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		redisCache = cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "clientpulse", cfg.Redis.TTL)
		summaryCache = redisCache
	} else {
		log.Printf("No Redis address configured, summary caching disabled")
	}

	// Playbook suggestions
	var suggester api.PlaybookSuggester
	if cfg.Playbooks.PostgresDSN != "" {
		playbookStore, err := playbooks.NewPostgresStore(cfg.Playbooks.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to initialize playbook store: %v", err)
		}
		defer playbookStore.Close()

		suggester = playbooks.NewService(playbookStore, playbookStore, playbooks.Config{
			OpenAIAPIKey:        cfg.Playbooks.OpenAIAPIKey,
			EmbeddingModel:      cfg.Playbooks.EmbeddingModel,
			SimilarityThreshold: cfg.Playbooks.SimilarityThreshold,
			MaxResults:          cfg.Playbooks.MaxResults,
		})
	} else {
		log.Printf("No playbook database configured, suggestions disabled")
	}

	// Health checks
	checker := health.NewHealthChecker()
	checker.Register(health.NewPingCheck("store", clientStore, 100*time.Millisecond))
	if redisCache != nil {
		checker.Register(health.NewPingCheck("cache", redisCache, 50*time.Millisecond))
	}

	gateway := api.NewGateway(api.GatewayConfig{
		Host:           cfg.API.Host,
		Port:           cfg.API.Port,
		ReadTimeout:    cfg.API.ReadTimeout,
		WriteTimeout:   cfg.API.WriteTimeout,
		IdleTimeout:    cfg.API.IdleTimeout,
		EnableCORS:     cfg.API.EnableCORS,
		AllowedOrigins: cfg.API.AllowedOrigins,
		AllowedMethods: cfg.API.AllowedMethods,
		AllowedHeaders: cfg.API.AllowedHeaders,
		EnableMetrics:  true,
		RequestTimeout: cfg.API.RequestTimeout,
	}, engine, summaryCache, suggester, checker.HTTPHandler())

	// Background at-risk scan
	if cfg.Monitor.Enabled && eventPublisher != nil {
		riskMonitor := monitor.NewMonitor(clientStore, eventPublisher, cfg.Monitor.Interval)
		go riskMonitor.Run(ctx)
	}

	go func() {
		if err := gateway.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API gateway failed: %v", err)
		}
	}()

	waitForShutdown(cancel, gateway)
}

func showHelp() {
	fmt.Printf(`ClientPulse - Client Success Analytics Engine

Usage:
  clientpulse [flags]

Flags:
  -config string
        Configuration file path (default "config/config.yaml")
  -version
        Show version information
  -help
        Show this help message

Examples:
  clientpulse                                    # Start with default config
  clientpulse -config config/production.yaml     # Start with production config
  clientpulse -version                           # Show version
`)
}

func showVersion() {
	fmt.Printf("ClientPulse version %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Built: %s\n", date)
}

func waitForShutdown(cancel context.CancelFunc, gateway *api.Gateway) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := gateway.Stop(shutdownCtx); err != nil {
		log.Printf("Error during gateway shutdown: %v", err)
	}

	cancel()
	log.Println("ClientPulse stopped")
}
