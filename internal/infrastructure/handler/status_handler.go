// Package handler internal/infrastructure/handler/status_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusHandler serves health, metrics and the latest check results
type StatusHandler struct {
	gatherer prometheus.Gatherer
	board    *ResultBoard
	logger   logger.Logger
}

// NewStatusHandler creates a new status handler. board may be nil, in which case the
// check routes report no results.
func NewStatusHandler(gatherer prometheus.Gatherer, board *ResultBoard, log logger.Logger) *StatusHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if board == nil {
		board = NewResultBoard()
	}

	return &StatusHandler{
		gatherer: gatherer,
		board:    board,
		logger:   log,
	}
}

// Health reports that the process is up
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ListChecks returns the latest result of every checked country
func (h *StatusHandler) ListChecks(w http.ResponseWriter, r *http.Request) {
	results := h.board.All()

	resp := make([]CheckResultResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, toCheckResultResponse(res))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCheck returns the latest result for one country
func (h *StatusHandler) GetCheck(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	code := strings.ToUpper(mux.Vars(r)["country"])

	res, ok := h.board.Get(code)
	if !ok {
		h.logger.Warn("No check result for country", map[string]interface{}{
			"request_id":   requestID,
			"country_code": code,
		})
		sendErrorResponse(w, h.logger, "Check result not found",
			"The country has not been checked yet", http.StatusNotFound, requestID)
		return
	}

	writeJSON(w, http.StatusOK, toCheckResultResponse(res))
}

// RegisterRoutes registers the status routes
func (h *StatusHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	router.HandleFunc("/checks", h.ListChecks).Methods("GET")
	router.HandleFunc("/checks/{country}", h.GetCheck).Methods("GET")

	h.logger.Info("Status routes registered", map[string]interface{}{
		"routes": []string{
			"GET /healthz",
			"GET /metrics",
			"GET /checks",
			"GET /checks/{country}",
		},
	})
}

// NewRouter builds the status router with request-ID and access-log middleware
func NewRouter(h *StatusHandler, log logger.Logger) *mux.Router {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware, middleware.LoggingMiddleware(log))
	h.RegisterRoutes(router)

	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	resp := ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	}

	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	writeJSON(w, statusCode, resp)
}
