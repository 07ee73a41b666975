// Package http exposes the store API: auth, customers, ledger entries,
// summary, settings, audit log, imports and report export. Handlers are
// JSON in and JSON out; the summary endpoint is cached per store and
// invalidated through the event broker.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fiado/internal/cache"
	"fiado/internal/core"
	"fiado/internal/events"
	"fiado/internal/log"
	"fiado/internal/services"
	"fiado/internal/storage"
)

type Server struct {
	http.Server

	ledger  *services.LedgerService
	imports *services.ImportService
	repo    *storage.Repository
	broker  *events.Broker
	secret  []byte
	logger  *log.Logger

	rateLimiter  *rateLimiter
	summaryCache *cache.LRU[core.FinancialSummary]
	cacheManager *cache.Manager

	// One broker subscription per store with a cached summary; the
	// drain goroutine deletes the cache entry on any change.
	subMu sync.Mutex
	subs  map[string]*events.Subscription

	shutdownOnce sync.Once
}

type Config struct {
	Addr             string
	JWTSecret        []byte
	SummaryCacheTTL  time.Duration
	SummaryCacheSize int
}

func NewServer(cfg Config, ledger *services.LedgerService, imports *services.ImportService, repo *storage.Repository, broker *events.Broker, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
		ledger:       ledger,
		imports:      imports,
		repo:         repo,
		broker:       broker,
		secret:       cfg.JWTSecret,
		logger:       logger.WithComponent(log.ComponentHTTP),
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRU[core.FinancialSummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL),
		cacheManager: cache.NewManager(),
		subs:         make(map[string]*events.Subscription),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.wrap(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.wrap(s.handleLogin))

	mux.HandleFunc("POST /api/logout", s.wrapAuth(s.handleLogout))
	mux.HandleFunc("POST /api/join-store", s.wrapAuth(s.handleJoinStore))

	mux.HandleFunc("GET /api/customers", s.wrapAuth(s.handleListCustomers))
	mux.HandleFunc("POST /api/customers", s.wrapAuth(s.handleCreateCustomer))
	mux.HandleFunc("GET /api/customers/{id}", s.wrapAuth(s.handleGetCustomer))
	mux.HandleFunc("POST /api/customers/{id}/transactions", s.wrapAuth(s.handleAddTransaction))

	mux.HandleFunc("GET /api/summary", s.wrapAuth(s.handleSummary))
	mux.HandleFunc("GET /api/logs", s.wrapAuth(s.handleLogs))
	mux.HandleFunc("GET /api/settings", s.wrapAuth(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.wrapAuth(s.handleUpdateSettings))

	mux.HandleFunc("POST /api/import/extract", s.wrapAuth(s.handleImportExtract))
	mux.HandleFunc("POST /api/import/rematch", s.wrapAuth(s.handleImportRematch))
	mux.HandleFunc("POST /api/import/commit", s.wrapAuth(s.handleImportCommit))

	mux.HandleFunc("GET /api/reports/aging.xlsx", s.wrapAuth(s.handleAgingReport))

	return s
}

// cachedSummary returns the store's summary from cache, building it on
// a miss and wiring up invalidation for that store.
func (s *Server) cachedSummary(ctx context.Context, r *http.Request) (core.FinancialSummary, error) {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return core.FinancialSummary{}, err
	}
	if summary, ok := s.summaryCache.Get(sess.StoreID); ok {
		return summary, nil
	}

	summary, err := s.ledger.Summary(ctx, sess)
	if err != nil {
		return core.FinancialSummary{}, err
	}
	s.summaryCache.Set(sess.StoreID, summary)
	s.watchStore(sess.StoreID)
	return summary, nil
}

func (s *Server) watchStore(storeID string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if _, ok := s.subs[storeID]; ok {
		return
	}
	sub := s.broker.Subscribe(storeID)
	s.subs[storeID] = sub
	go func() {
		for range sub.C {
			s.summaryCache.Delete(storeID)
		}
	}()
}

// Shutdown stops the server and releases broker subscriptions and the
// rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.subMu.Lock()
		for _, sub := range s.subs {
			sub.Unsubscribe()
		}
		s.subs = nil
		s.subMu.Unlock()

		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// wrap adds security headers, rate limiting and request logging.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := r.Context()

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "rate limit exceeded", "client_ip", clientIP, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// wrapAuth is wrap plus bearer-token authentication; the session lands
// in the request context.
func (s *Server) wrapAuth(next http.HandlerFunc) http.HandlerFunc {
	return s.wrap(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.authenticate(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
