package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/k-code-yt/saga-choreography/internal/sale/domain"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgmetrics "github.com/k-code-yt/saga-choreography/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const createSalePath = "/api/v1/sales"

type HTTPHandler struct {
	svc Handlers
}

func NewHTTPHandler(svc Handlers) *HTTPHandler {
	return &HTTPHandler{
		svc: svc,
	}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post(createSalePath, h.createSale)
	r.Get("/health", h.health)
	r.Handle("/metrics", pkgmetrics.Handler())
	return r
}

// createSale answers 201 with no body once the sale is stored and CREATED_SALE is published.
func (h *HTTPHandler) createSale(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusCreated
	defer func() {
		pkgmetrics.HTTPDuration.WithLabelValues(r.Method, createSalePath).Observe(time.Since(start).Seconds())
		pkgmetrics.HTTPRequests.WithLabelValues(r.Method, createSalePath, strconv.Itoa(status)).Inc()
	}()

	var req domain.CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = http.StatusBadRequest
		writeError(w, status, "failed to parse request body")
		return
	}

	sale, err := h.svc.Create(r.Context(), req)
	if err != nil {
		status = http.StatusInternalServerError
		if pkgerrors.IsValidationError(err) {
			status = http.StatusBadRequest
		}
		fields := logrus.Fields{"STATUS": status}
		if sale != nil {
			fields["SALE_ID"] = sale.ID
		}
		logrus.WithFields(fields).Errorf("HTTP:CREATE:ERROR %v", err)
		writeError(w, status, err.Error())
		return
	}

	w.WriteHeader(status)
}

func (h *HTTPHandler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
