// Package api exposes the analytics engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/clientpulse/internal/analytics"
	"github.com/clientpulse/internal/milestones"
	"github.com/clientpulse/internal/playbooks"
	"github.com/clientpulse/pkg/models"
)

// Gateway represents the analytics API gateway
type Gateway struct {
	server     *http.Server
	router     *mux.Router
	engine     AnalyticsEngine
	cache      SummaryCache
	suggester  PlaybookSuggester
	health     http.HandlerFunc
	config     GatewayConfig
	middleware []Middleware
	metrics    *GatewayMetrics
}

// AnalyticsEngine is the computation surface the gateway serves.
type AnalyticsEngine interface {
	Summary(ctx context.Context, r models.TimeRange, filters analytics.Filters) (*analytics.Summary, error)
	Activity(ctx context.Context, r models.TimeRange) (*analytics.ActivityReport, error)
	WeekOverWeek(ctx context.Context, weekStart time.Time) (*analytics.WeekComparison, error)
	ClientProgress(ctx context.Context, clientID string) (*milestones.Progress, error)
}

// SummaryCache caches summary responses. A nil cache disables caching.
type SummaryCache interface {
	GetSummary(ctx context.Context, r models.TimeRange, filters analytics.Filters) (*analytics.Summary, bool, error)
	SetSummary(ctx context.Context, r models.TimeRange, filters analytics.Filters, summary *analytics.Summary) error
}

// PlaybookSuggester recommends playbooks for a situation. A nil
// suggester disables the playbook routes.
type PlaybookSuggester interface {
	Suggest(ctx context.Context, query string) ([]playbooks.Suggestion, error)
}

// GatewayConfig represents gateway configuration
type GatewayConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	IdleTimeout    time.Duration `json:"idle_timeout"`
	EnableCORS     bool          `json:"enable_cors"`
	AllowedOrigins []string      `json:"allowed_origins"`
	AllowedMethods []string      `json:"allowed_methods"`
	AllowedHeaders []string      `json:"allowed_headers"`
	EnableMetrics  bool          `json:"enable_metrics"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultGatewayConfig returns default gateway configuration
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		EnableMetrics:  true,
		RequestTimeout: 30 * time.Second,
	}
}

// Middleware represents HTTP middleware
type Middleware func(http.Handler) http.Handler

// GatewayMetrics represents gateway metrics
type GatewayMetrics struct {
	mu               sync.Mutex
	RequestsTotal    int64            `json:"requests_total"`
	AverageLatency   time.Duration    `json:"average_latency"`
	RequestsByPath   map[string]int64 `json:"requests_by_path"`
	RequestsByMethod map[string]int64 `json:"requests_by_method"`
	RequestsByStatus map[int]int64    `json:"requests_by_status"`
	LastRequest      time.Time        `json:"last_request"`
}

// NewGateway creates a new API gateway. cache, suggester and health may
// be nil; their routes degrade accordingly.
func NewGateway(config GatewayConfig, engine AnalyticsEngine, cache SummaryCache, suggester PlaybookSuggester, health http.HandlerFunc) *Gateway {
	router := mux.NewRouter()

	gateway := &Gateway{
		router:     router,
		engine:     engine,
		cache:      cache,
		suggester:  suggester,
		health:     health,
		config:     config,
		middleware: make([]Middleware, 0),
		metrics: &GatewayMetrics{
			RequestsByPath:   make(map[string]int64),
			RequestsByMethod: make(map[string]int64),
			RequestsByStatus: make(map[int]int64),
		},
	}

	gateway.setupRoutes()
	gateway.setupMiddleware()

	gateway.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return gateway
}

// setupRoutes configures all API routes
func (g *Gateway) setupRoutes() {
	api := g.router.PathPrefix("/api/v1").Subrouter()

	reports := api.PathPrefix("/analytics").Subrouter()
	reports.HandleFunc("/summary", g.handleSummary).Methods("GET")
	reports.HandleFunc("/activity", g.handleActivity).Methods("GET")

	clients := api.PathPrefix("/clients").Subrouter()
	clients.HandleFunc("/{id}/progress", g.handleClientProgress).Methods("GET")

	if g.suggester != nil {
		library := api.PathPrefix("/playbooks").Subrouter()
		library.HandleFunc("/suggest", g.handleSuggestPlaybooks).Methods("GET")
	}

	if g.health != nil {
		g.router.HandleFunc("/health", g.health).Methods("GET")
	}
	if g.config.EnableMetrics {
		g.router.HandleFunc("/metrics", g.handleMetrics).Methods("GET")
	}
}

// setupMiddleware configures HTTP middleware
func (g *Gateway) setupMiddleware() {
	for i := len(g.middleware) - 1; i >= 0; i-- {
		g.router.Use(mux.MiddlewareFunc(g.middleware[i]))
	}

	if g.config.EnableCORS {
		c := cors.New(cors.Options{
			AllowedOrigins:   g.config.AllowedOrigins,
			AllowedMethods:   g.config.AllowedMethods,
			AllowedHeaders:   g.config.AllowedHeaders,
			AllowCredentials: true,
		})
		g.router.Use(c.Handler)
	}

	// Metrics middleware goes last so it sees every request
	g.router.Use(g.metricsMiddleware)
}

// Start starts the API gateway
func (g *Gateway) Start() error {
	log.Printf("Starting API gateway on %s", g.server.Addr)
	return g.server.ListenAndServe()
}

// Stop stops the API gateway
func (g *Gateway) Stop(ctx context.Context) error {
	log.Printf("Stopping API gateway")
	return g.server.Shutdown(ctx)
}

// AddMiddleware adds middleware to the gateway
func (g *Gateway) AddMiddleware(middleware Middleware) {
	g.middleware = append(g.middleware, middleware)
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Response types

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type APIMeta struct {
	Total   int  `json:"total,omitempty"`
	Cached  bool `json:"cached,omitempty"`
	HasMore bool `json:"has_more,omitempty"`
}

// Helper functions

func writeJSONResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message, details string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	writeJSONResponse(w, status, response)
}

func writeSuccessResponse(w http.ResponseWriter, data interface{}, meta *APIMeta) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// Middleware implementations

func (g *Gateway) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		g.updateMetrics(r, wrapped.statusCode, duration)
	})
}

func (g *Gateway) updateMetrics(r *http.Request, statusCode int, duration time.Duration) {
	g.metrics.mu.Lock()
	defer g.metrics.mu.Unlock()

	g.metrics.RequestsTotal++
	g.metrics.RequestsByPath[r.URL.Path]++
	g.metrics.RequestsByMethod[r.Method]++
	g.metrics.RequestsByStatus[statusCode]++
	g.metrics.LastRequest = time.Now()

	if g.metrics.AverageLatency == 0 {
		g.metrics.AverageLatency = duration
	} else {
		g.metrics.AverageLatency = (g.metrics.AverageLatency + duration) / 2
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
