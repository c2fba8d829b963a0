package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lzpending/internal/constants"
	apperrors "lzpending/internal/errors"
	"lzpending/internal/metrics"
	"lzpending/internal/middleware"
	"lzpending/internal/models"
	"lzpending/internal/service"
	"lzpending/internal/tracing"
	"lzpending/internal/validation"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// SightingReader is the read side of the sighting store.
type SightingReader interface {
	ListSightings(ctx context.Context, owner string, limit int) ([]models.Sighting, error)
	GetSighting(ctx context.Context, owner, txHash string) (*models.Sighting, error)
	HealthCheck(ctx context.Context) error
}

type Server struct {
	router    *mux.Router
	logger    *logrus.Logger
	pending   service.PendingService
	sightings SightingReader
	owner     string
	config    models.ServerConfig
	verbose   bool
	server    *http.Server
}

// NewServer wires the HTTP routes. sightings is nil when the watcher is
// disabled.
func NewServer(pending service.PendingService, sightings SightingReader, owner string, cfg models.ServerConfig, verbose bool, logger *logrus.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		logger:    logger,
		pending:   pending,
		sightings: sightings,
		owner:     owner,
		config:    cfg,
		verbose:   verbose,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RecoveryMiddleware(s.logger))
	s.router.Use(middleware.ObservabilityMiddleware(s.logger, s.verbose))

	s.router.HandleFunc("/", s.handleBanner()).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)
	s.router.Handle("/metrics/prometheus", metrics.PrometheusHandler()).Methods(http.MethodGet)

	s.router.HandleFunc("/pending", s.handlePending()).Methods(http.MethodGet)
	s.router.HandleFunc("/pending/seen", s.handleListSightings()).Methods(http.MethodGet)
	s.router.HandleFunc("/pending/seen/{txHash}", s.handleGetSighting()).Methods(http.MethodGet)
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return middleware.CORSMiddleware(s.router)
}

func (s *Server) Start() error {
	port := s.config.Port
	if port <= 0 {
		port = constants.DefaultServerPort
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  secondsOr(s.config.ReadTimeoutSec, constants.DefaultServerReadTimeoutSec),
		WriteTimeout: secondsOr(s.config.WriteTimeoutSec, constants.DefaultServerWriteTimeoutSec),
		IdleTimeout:  time.Duration(constants.DefaultServerIdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// scanBudget bounds a /pending scan so it finishes before the server's
// WriteTimeout closes the connection.
func (s *Server) scanBudget() time.Duration {
	write := secondsOr(s.config.WriteTimeoutSec, constants.DefaultServerWriteTimeoutSec)
	margin := time.Duration(constants.ScanWriteMarginMillis) * time.Millisecond
	if write <= 2*margin {
		return write / 2
	}
	return write - margin
}

func secondsOr(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

func (s *Server) handleBanner() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "lzpending %s: LayerZero messages awaiting executor delivery for %s. GET /pending for the list.\n", Version, s.owner)
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sightings != nil {
			if err := s.sightings.HealthCheck(r.Context()); err != nil {
				s.logger.WithError(err).Warn("Sighting store health check failed")
				http.Error(w, "sighting store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func (s *Server) handlePending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.scanBudget())
		defer cancel()

		results, err := s.pending.GetPendingMessages(ctx, s.owner)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"request_id":              tracing.GetRequestID(r.Context()),
				service.LogFieldErrorCode: string(apperrors.GetCode(err)),
			}).WithError(err).Error("Failed to collect pending messages")
			status := http.StatusInternalServerError
			if errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusGatewayTimeout
			}
			writeError(w, status, err.Error())
			return
		}
		if results == nil {
			results = []models.PendingMessageSummary{}
		}

		writeJSON(w, http.StatusOK, models.PendingResponse{
			OK:      true,
			Owner:   s.owner,
			Count:   len(results),
			Results: results,
		})
	}
}

func (s *Server) handleListSightings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sightings == nil {
			writeError(w, http.StatusServiceUnavailable, "sighting watcher is disabled")
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		sightings, err := s.sightings.ListSightings(r.Context(), s.owner, limit)
		if err != nil {
			s.logger.WithError(err).Error("Failed to list sightings")
			writeError(w, apperrors.HTTPStatusCode(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, models.SightingsResponse{
			OK:      true,
			Owner:   s.owner,
			Count:   len(sightings),
			Results: sightings,
		})
	}
}

func (s *Server) handleGetSighting() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sightings == nil {
			writeError(w, http.StatusServiceUnavailable, "sighting watcher is disabled")
			return
		}

		txHash := strings.ToLower(mux.Vars(r)["txHash"])
		if err := validation.ValidateTxHash(txHash); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		sighting, err := s.sightings.GetSighting(r.Context(), s.owner, txHash)
		if err != nil {
			status := apperrors.HTTPStatusCode(err)
			if status >= http.StatusInternalServerError {
				s.logger.WithError(err).Error("Failed to load sighting")
			}
			writeError(w, status, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, models.SightingResponse{OK: true, Sighting: *sighting})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{OK: false, Error: message})
}
