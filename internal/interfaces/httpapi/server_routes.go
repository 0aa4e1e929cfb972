package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
	if !metricsEnabled {
		return
	}

	mux.Handle("GET /metrics", promhttp.Handler())
}

func registerRelayRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/applications/{applicationID}/status", handler.GetApplicationStatus)
	mux.HandleFunc("POST /v1/events", handler.PublishEvent)
}
