package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"scout/scout/api"
	"scout/scout/cache"
	"scout/scout/cmd"
	"scout/scout/discovery"
	"scout/scout/export"
	"scout/scout/lists"
	"scout/scout/openalex"
	"scout/scout/orcid"
	"scout/scout/services"
)

type Config struct {
	Logfile string `env:"LOGFILE,notEmpty" envDefault:"scout_discover.log"`

	ContactEmail string `env:"CONTACT_EMAIL,notEmpty,required"`

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
	uniPath := flag.String("unis", "uni.txt", "path to the institution list, one name per line")
	kwPath := flag.String("keywords", "kw.txt", "path to the keyword list, one per line")
	outPath := flag.String("out", "researchers.csv", "output path, .csv or .xlsx")
	uniMode := flag.String("uni-mode", api.MatchAny, "institution match mode, 'any' or 'all'")
	kwMode := flag.String("kw-mode", api.MatchAny, "keyword match mode, 'any' or 'all'")

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

	institutions, err := lists.Load(*uniPath)
	if err != nil {
		log.Fatalf("error loading institution list: %v", err)
	}

	keywords, err := lists.Load(*kwPath)
	if err != nil {
		log.Fatalf("error loading keyword list: %v", err)
	}

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

	slog.Info("running discovery",
		"n_institutions", len(institutions), "n_keywords", len(keywords),
		"uni_mode", *uniMode, "kw_mode", *kwMode)

	records, err := services.DiscoverWithModes(context.Background(), orchestrator, api.DiscoveryRequest{
		Institutions:    institutions,
		Keywords:        keywords,
		InstitutionMode: *uniMode,
		KeywordMode:     *kwMode,
	})
	if err != nil {
		if errors.Is(err, discovery.ErrNoAuthorsFound) {
			slog.Info("no authors found")
			return
		}
		log.Fatalf("discovery failed: %v", err)
	}

	export.SortByCitations(records)

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("error creating output file: %v", err)
	}
	defer out.Close()

	if filepath.Ext(*outPath) == ".xlsx" {
		err = export.WriteXLSX(out, records, nil)
	} else {
		err = export.WriteCSV(out, records, nil)
	}
	if err != nil {
		log.Fatalf("error writing results: %v", err)
	}

	slog.Info("discovery complete", "authors", len(records), "output", *outPath)
}
