package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"scout/scout/api"
	"scout/scout/monitoring"
	"scout/scout/openalex"
)

// ErrNoAuthorsFound is the empty-signal: the run completed but discovered
// nothing, which callers may want to present differently from an empty table.
var ErrNoAuthorsFound = errors.New("no authors found")

// Orchestrator drives a full discovery: institution resolution, the
// institutions x keywords cross product through the engine, and final
// deduplication by author id.
type Orchestrator struct {
	resolver *Resolver
	engine   *Engine
	config   Config
	logger   *slog.Logger
}

func NewOrchestrator(kb openalex.KnowledgeBase, enricher IdentityEnricher, config Config) *Orchestrator {
	return &Orchestrator{
		resolver: NewResolver(kb),
		engine:   NewEngine(kb, enricher, config),
		config:   config,
		logger:   slog.Default(),
	}
}

// Engine exposes the underlying discovery engine so callers can attach the
// optional cross-run detail cache or adjust test timing hooks.
func (o *Orchestrator) Engine() *Engine {
	return o.engine
}

// Discover resolves each institution once, runs the engine for every resolved
// institution and keyword pair, and returns the deduplicated result in
// iteration order (institutions outer, keywords inner). Institutions that
// fail to resolve are dropped with a warning. Pacing between iterations is a
// single-token rate limit to stay under informal API rate expectations; the
// context is only consulted at those loop boundaries.
func (o *Orchestrator) Discover(ctx context.Context, institutions, keywords []string) ([]api.AuthorRecord, error) {
	if len(institutions) == 0 {
		return nil, fmt.Errorf("at least one institution is required")
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("at least one keyword is required")
	}

	monitoring.DiscoveriesRun.Inc()

	resolvePacer := rate.NewLimiter(rate.Every(o.config.ResolvePacing), 1)
	resolved := make([]ResolvedInstitution, 0, len(institutions))

	for _, name := range institutions {
		if err := resolvePacer.Wait(ctx); err != nil {
			return nil, err
		}

		institution, err := o.resolver.Resolve(name)
		if err != nil {
			o.logger.Warn("dropping unresolved institution", "name", name, "error", err)
			continue
		}
		resolved = append(resolved, institution)
	}

	o.logger.Info("resolved institutions", "requested", len(institutions), "resolved", len(resolved))

	keywordPacer := rate.NewLimiter(rate.Every(o.config.KeywordPacing), 1)
	var all []api.AuthorRecord

	for _, institution := range resolved {
		o.logger.Info("processing institution", "name", institution.Name, "id", institution.Id)

		for _, keyword := range keywords {
			if err := keywordPacer.Wait(ctx); err != nil {
				return nil, err
			}

			records := o.engine.FindAuthors(institution, keyword)
			o.logger.Info("keyword search complete", "institution", institution.Name, "keyword", keyword, "authors", len(records))
			all = append(all, records...)
		}
	}

	unique := Deduplicate(all)
	if len(unique) == 0 {
		return nil, ErrNoAuthorsFound
	}

	monitoring.AuthorsDiscovered.Add(float64(len(unique)))
	o.logger.Info("discovery complete", "unique_authors", len(unique))

	return unique, nil
}

// Deduplicate keeps the first record encountered for each author id,
// preserving order.
func Deduplicate(records []api.AuthorRecord) []api.AuthorRecord {
	seen := make(map[string]bool, len(records))
	unique := make([]api.AuthorRecord, 0, len(records))

	for _, record := range records {
		if !seen[record.AuthorId] {
			seen[record.AuthorId] = true
			unique = append(unique, record)
		}
	}

	return unique
}
