// Package api serves the read façade over the store plus the indexer run
// trigger.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shrike-indexer/shrike/internal/models"
	"github.com/shrike-indexer/shrike/internal/repository"
)

// Runner triggers an indexing run. The ingester service implements it.
type Runner interface {
	Run(ctx context.Context) error
}

// StatsSource serves the cached aggregate snapshots.
type StatsSource interface {
	Chain() models.ChainStats
	Network() models.NetworkStats
}

type Server struct {
	repo   *repository.Repository
	runner Runner
	stats  StatsSource
	log    *zap.SugaredLogger

	httpServer *http.Server
}

func NewServer(port int, repo *repository.Repository, runner Runner, stats StatsSource, log *zap.SugaredLogger) *Server {
	s := &Server{
		repo:   repo,
		runner: runner,
		stats:  stats,
		log:    log,
	}

	router := mux.NewRouter()
	s.registerRoutes(router)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           commonMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS")

	r.HandleFunc("/v1/block/{id}", s.handleBlock).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/block/{id}/transactions", s.handleBlockTransactions).Methods("GET", "OPTIONS")

	r.HandleFunc("/v1/transaction/{hash}", s.handleTransaction).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/transaction/sender/{address}", s.handleSenderTransactions).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/transaction/transfers/{address}", s.handleAddressTransfers).Methods("GET", "OPTIONS")

	r.HandleFunc("/v1/balance-history/{address}/{token}", s.handleBalanceHistory).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/tokens/{token}/price-history", s.handlePriceHistory).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/contracts/{contract}/daily-usage", s.handleContractUsage).Methods("GET", "OPTIONS")

	r.HandleFunc("/v1/stat", s.handleChainStats).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/network-statistics", s.handleNetworkStats).Methods("GET", "OPTIONS")

	r.HandleFunc("/v1/indexer/run", s.handleIndexerRun).Methods("POST", "OPTIONS")
}

// Handler exposes the wired router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Infow("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func commonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
