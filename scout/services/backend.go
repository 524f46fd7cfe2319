package services

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"scout/scout/monitoring"
)

type BackendService struct {
	discovery DiscoveryService
}

func NewBackendService(db *gorm.DB, discoverer Discoverer) BackendService {
	return BackendService{
		discovery: NewDiscoveryService(db, discoverer),
	}
}

func (s *BackendService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(monitoring.HandlerMetrics)

	r.Mount("/api/v1/discovery", s.discovery.Routes())

	return r
}
