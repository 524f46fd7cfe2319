package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"scout/scout/cache"
	"scout/scout/cmd"
	"scout/scout/discovery"
	"scout/scout/monitoring"
	"scout/scout/openalex"
	"scout/scout/orcid"
	"scout/scout/schema/migrations"
	"scout/scout/services"
)

type Config struct {
	DbUri   string `env:"DB_URI,notEmpty,required"`
	Logfile string `env:"LOGFILE,notEmpty" envDefault:"scout_backend.log"`

	Port        int `env:"PORT" envDefault:"8000"`
	MetricsPort int `env:"METRICS_PORT" envDefault:"9100"`

	// ContactEmail is sent to the upstream APIs as a courtesy identifier.
	ContactEmail string `env:"CONTACT_EMAIL,notEmpty,required"`

	// DetailCache is an optional path to a bbolt file memoizing author detail
	// lookups across runs.
	DetailCache string `env:"DETAIL_CACHE"`

	Discovery struct {
		BackstopThreshold int           `env:"BACKSTOP_THRESHOLD" envDefault:"5"`
		DetailLookupLimit int           `env:"DETAIL_LOOKUP_LIMIT" envDefault:"20"`
		DetailPacing      time.Duration `env:"DETAIL_PACING" envDefault:"500ms"`
		ResolvePacing     time.Duration `env:"RESOLVE_PACING" envDefault:"1s"`
		KeywordPacing     time.Duration `env:"KEYWORD_PACING" envDefault:"2s"`
	} `envPrefix:"DISCOVERY_"`
}

func main() {
	cmd.LoadEnvFile()

	var config Config
	if err := env.Parse(&config); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	logFile, err := os.OpenFile(config.Logfile, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer logFile.Close()

	cmd.InitLogging(logFile)

	db := cmd.OpenDB(config.DbUri)
	migrations.RunMigrations(db)

	kb := openalex.NewRemoteKnowledgeBase(config.ContactEmail)
	enricher := orcid.NewEnricher(config.ContactEmail)

	orchestrator := discovery.NewOrchestrator(kb, enricher, discovery.Config{
		BackstopThreshold: config.Discovery.BackstopThreshold,
		DetailLookupLimit: config.Discovery.DetailLookupLimit,
		DetailPacing:      config.Discovery.DetailPacing,
		ResolvePacing:     config.Discovery.ResolvePacing,
		KeywordPacing:     config.Discovery.KeywordPacing,
	})

	if config.DetailCache != "" {
		detailCache, err := cache.NewDataCache[openalex.AuthorDetails]("author_details", config.DetailCache)
		if err != nil {
			log.Fatalf("error opening detail cache: %v", err)
		}
		defer detailCache.Close()

		orchestrator.Engine().DetailCache = detailCache
	}

	backend := services.NewBackendService(db, orchestrator)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Mount("/", backend.Routes())

	monitoring.ExposeBackendMetrics(config.MetricsPort)

	slog.Info("starting server", "port", config.Port)
	err = http.ListenAndServe(fmt.Sprintf(":%d", config.Port), r)
	if err != nil {
		log.Fatalf("listen and serve returned error: %v", err.Error())
	}
}
