package main

import (
	"encoding/json"
	"net/http"

	"lzpending/internal/metrics"
	"lzpending/internal/tracing"

	"github.com/sirupsen/logrus"
)

// handleMetrics returns a JSON snapshot of the in-process metrics registry.
func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestInfo := tracing.GetRequestInfo(r.Context())

		snapshot := metrics.GetAllMetrics()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(snapshot); err != nil {
			s.logger.WithFields(logrus.Fields{
				"request_id": requestInfo.RequestID,
				"trace_id":   requestInfo.TraceID,
				"error":      err,
			}).Error("Failed to encode metrics response")
			return
		}

		s.logger.WithFields(logrus.Fields{
			"request_id": requestInfo.RequestID,
			"counters":   len(snapshot.Counters),
			"timers":     len(snapshot.Timers),
		}).Debug("Metrics snapshot served")
	}
}
