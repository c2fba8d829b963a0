package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"lzpending/internal/metrics"
	"lzpending/internal/service"
	"lzpending/internal/tracing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

const (
	logFieldRequestID = "request_id"
	logFieldTraceID   = "trace_id"
	logFieldMethod    = "method"
	logFieldRoute     = "route"
	logFieldRemoteIP  = "remote_ip"
	logFieldSize      = "size_bytes"
)

// ObservabilityMiddleware traces, measures and logs each request. Routes are
// labelled by their mux path template so per-transaction URLs share a series.
// With verbose set, handlers see a context that asks for full hex values in
// logs.
func ObservabilityMiddleware(logger *logrus.Logger, verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeTemplate(r)

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("%s %s", r.Method, route),
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("url.path", r.URL.Path),
				attribute.String("user_agent.original", r.UserAgent()),
				attribute.String("client.address", clientIP(r)),
			)
			defer span.End()

			ctx = tracing.WithRequestTracing(ctx, r.Header.Get(tracing.RequestIDHeader))
			if verbose {
				ctx = service.WithVerbose(ctx, true)
			}
			r = r.WithContext(ctx)

			requestInfo := tracing.GetRequestInfo(ctx)
			w.Header().Set(tracing.RequestIDHeader, requestInfo.RequestID)

			wrapper := &responseWrapper{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			logger.WithFields(logrus.Fields{
				logFieldRequestID: requestInfo.RequestID,
				logFieldTraceID:   requestInfo.TraceID,
				logFieldMethod:    r.Method,
				logFieldRoute:     route,
				logFieldRemoteIP:  clientIP(r),
			}).Debug("HTTP request started")

			next.ServeHTTP(wrapper, r)

			duration := tracing.Duration(ctx)

			span.SetAttributes(
				attribute.Int("http.response.status_code", wrapper.statusCode),
				attribute.Int64("http.response.body.size", wrapper.responseSize),
			)
			if wrapper.statusCode >= 500 {
				span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", wrapper.statusCode))
			}

			metrics.RecordHTTPRequest(r.Method, route, wrapper.statusCode, duration)

			logLevel := logrus.InfoLevel
			if wrapper.statusCode >= 400 && wrapper.statusCode < 500 {
				logLevel = logrus.WarnLevel
			} else if wrapper.statusCode >= 500 {
				logLevel = logrus.ErrorLevel
			}

			logger.WithFields(logrus.Fields{
				logFieldRequestID:          requestInfo.RequestID,
				logFieldTraceID:            requestInfo.TraceID,
				logFieldMethod:             r.Method,
				logFieldRoute:              route,
				service.LogFieldStatusCode: wrapper.statusCode,
				service.LogFieldDuration:   duration.Milliseconds(),
				logFieldSize:               wrapper.responseSize,
			}).Log(logLevel, "HTTP request completed")
		})
	}
}

func routeTemplate(r *http.Request) string {
	if current := mux.CurrentRoute(r); current != nil {
		if tpl, err := current.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// responseWrapper captures response metrics
type responseWrapper struct {
	http.ResponseWriter
	statusCode   int
	responseSize int64
	wroteHeader  bool
}

func (rw *responseWrapper) WriteHeader(statusCode int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWrapper) Write(data []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(data)
	rw.responseSize += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWrapper) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
