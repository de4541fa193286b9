package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garnizeh/staffdir/internal/attachment"
	"github.com/garnizeh/staffdir/internal/config"
	"github.com/garnizeh/staffdir/internal/record"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, store *record.Store, files *attachment.Manager, database HealthCheck, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	checks := map[string]HealthCheck{"attachments": files.Check}
	if database != nil {
		checks["database"] = database
	}
	systemHandler := NewSystemHandler(checks)
	staffHandler := NewStaffHandler(store, files, cfg.MaxUploadBytes)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	apiV1 := r.PathPrefix("/v1").Subrouter()

	// Staff endpoints
	apiV1.HandleFunc("/staff", staffHandler.ListStaff).Methods("GET")
	apiV1.HandleFunc("/staff", staffHandler.CreateStaff).Methods("POST")
	apiV1.HandleFunc("/staff/{id:[0-9]+}", staffHandler.GetStaff).Methods("GET")
	apiV1.HandleFunc("/staff/{id:[0-9]+}", staffHandler.UpdateStaff).Methods("PATCH")
	apiV1.HandleFunc("/staff/{id:[0-9]+}", staffHandler.DeleteStaff).Methods("DELETE")
	apiV1.HandleFunc("/staff/{id:[0-9]+}/photo", staffHandler.GetPhoto).Methods("GET")

	// Export
	apiV1.HandleFunc("/export.xlsx", staffHandler.ExportXLSX).Methods("GET")

	return r
}
