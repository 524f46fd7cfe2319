package discovery

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"scout/scout/api"
	"scout/scout/cache"
	"scout/scout/openalex"
	"scout/scout/orcid"
)

// Config holds the discovery tuning knobs. The defaults mirror informal rate
// expectations of the upstream API; none of the thresholds are semantic
// constants.
type Config struct {
	// BackstopThreshold is the minimum work-centric yield below which the
	// author-centric backstop search also runs.
	BackstopThreshold int

	// DetailLookupLimit caps per-author detail lookups per keyword and
	// institution pair, bounding worst-case request volume.
	DetailLookupLimit int

	DetailPacing  time.Duration
	ResolvePacing time.Duration
	KeywordPacing time.Duration
}

func DefaultConfig() Config {
	return Config{
		BackstopThreshold: 5,
		DetailLookupLimit: 20,
		DetailPacing:      500 * time.Millisecond,
		ResolvePacing:     time.Second,
		KeywordPacing:     2 * time.Second,
	}
}

// IdentityEnricher resolves an external registry id to contact/affiliation
// metadata. Failures degrade to an empty Enrichment, never an error.
type IdentityEnricher interface {
	Enrich(orcidId string) orcid.Enrichment
}

// Engine discovers authors for one institution and keyword using two
// strategies: a work-centric search, and an author-centric backstop that runs
// when the work-centric yield is below the configured threshold.
type Engine struct {
	openalex openalex.KnowledgeBase
	enricher IdentityEnricher
	config   Config
	logger   *slog.Logger

	// DetailCache optionally memoizes author detail lookups across runs.
	DetailCache *cache.DataCache[openalex.AuthorDetails]

	// Overridable in tests to avoid real delays.
	Sleep func(time.Duration)
}

func NewEngine(kb openalex.KnowledgeBase, enricher IdentityEnricher, config Config) *Engine {
	return &Engine{
		openalex: kb,
		enricher: enricher,
		config:   config,
		logger:   slog.Default(),
		Sleep:    time.Sleep,
	}
}

// FindAuthors runs both strategies and merges their results. Records from the
// backstop are appended only for author ids the work-centric search did not
// already produce.
func (e *Engine) FindAuthors(institution ResolvedInstitution, keyword string) []api.AuthorRecord {
	records := e.findByWorks(institution, keyword)

	if len(records) < e.config.BackstopThreshold {
		e.logger.Info("work-centric yield below threshold, trying direct author search",
			"institution", institution.Name, "keyword", keyword, "yield", len(records))

		seen := make(map[string]bool, len(records))
		for _, record := range records {
			seen[record.AuthorId] = true
		}

		for _, record := range e.findDirect(institution, keyword) {
			if !seen[record.AuthorId] {
				seen[record.AuthorId] = true
				records = append(records, record)
			}
		}
	}

	return records
}

// findByWorks searches works matching the keyword at the institution and
// builds one record per first-seen author id across their authorships, then
// backfills citation counts via per-author detail lookups.
func (e *Engine) findByWorks(institution ResolvedInstitution, keyword string) []api.AuthorRecord {
	e.logger.Info("searching works", "institution", institution.Name, "keyword", keyword)

	works, err := e.openalex.SearchWorks(institution.Id, keyword)
	if err != nil {
		e.logger.Warn("works search yielded no data", "institution", institution.Name, "keyword", keyword, "error", err)
		return nil
	}

	var records []api.AuthorRecord
	seen := make(map[string]bool)

	for _, work := range works {
		for _, authorship := range work.Authorships {
			author := authorship.Author
			if author.AuthorId == "" || seen[author.AuthorId] {
				continue
			}
			seen[author.AuthorId] = true

			// Authorship-level institution data is often missing; fall back
			// to the name the institution was queried under.
			institutionName := institution.Name
			for _, entry := range authorship.Institutions {
				if openalex.ShortId(entry.InstitutionId) == institution.Id {
					if entry.InstitutionName != "" {
						institutionName = entry.InstitutionName
					}
					break
				}
			}

			record := api.AuthorRecord{
				AuthorId:        author.AuthorId,
				FullName:        author.DisplayName,
				Institution:     institutionName,
				Orcid:           author.Orcid,
				MatchedKeyword:  keyword,
				RecentWorkTitle: work.Title,
				Doi:             work.Doi,
				PaperUrl:        paperUrl(work),
			}

			if author.Orcid != "" {
				enriched := e.enricher.Enrich(author.Orcid)
				record.Email = enriched.Email
				record.Department = enriched.Department
			}

			records = append(records, record)
		}
	}

	detailLimit := min(len(records), e.config.DetailLookupLimit)
	for i := 0; i < detailLimit; i++ {
		e.Sleep(e.config.DetailPacing)

		details, ok := e.authorDetails(records[i].AuthorId)
		if !ok {
			continue
		}

		records[i].WorksCount = details.WorksCount
		records[i].CitedByCount = details.CitedByCount

		// The detail record's last known institution is more authoritative
		// than the work-level fallback.
		if details.LastKnownInstitution != nil && details.LastKnownInstitution.DisplayName != "" {
			records[i].Institution = details.LastKnownInstitution.DisplayName
		}
	}

	return records
}

// findDirect searches authors by last-known institution and keyword, building
// records straight from the summaries. No work context exists here, so the
// paper reference fields stay empty.
func (e *Engine) findDirect(institution ResolvedInstitution, keyword string) []api.AuthorRecord {
	authors, err := e.openalex.SearchAuthors(institution.Id, keyword)
	if err != nil {
		e.logger.Warn("author search yielded no data", "institution", institution.Name, "keyword", keyword, "error", err)
		return nil
	}

	records := make([]api.AuthorRecord, 0, len(authors))
	for _, author := range authors {
		if author.AuthorId == "" {
			continue
		}

		institutionName := institution.Name
		if author.LastKnownInstitution != nil && author.LastKnownInstitution.DisplayName != "" {
			institutionName = author.LastKnownInstitution.DisplayName
		}

		record := api.AuthorRecord{
			AuthorId:       author.AuthorId,
			FullName:       author.DisplayName,
			Institution:    institutionName,
			Orcid:          author.Orcid,
			MatchedKeyword: keyword,
			WorksCount:     author.WorksCount,
			CitedByCount:   author.CitedByCount,
		}

		if author.Orcid != "" {
			enriched := e.enricher.Enrich(author.Orcid)
			record.Email = enriched.Email
			record.Department = enriched.Department
		}

		if record.Department == "" && author.LastKnownInstitution != nil {
			record.Department = author.LastKnownInstitution.Type
		}

		records = append(records, record)
	}

	return records
}

func (e *Engine) authorDetails(authorId string) (openalex.AuthorDetails, bool) {
	key := openalex.ShortId(authorId)

	if e.DetailCache != nil {
		if details, ok := e.DetailCache.Get(key); ok {
			return details, true
		}
	}

	details, err := e.openalex.GetAuthor(authorId)
	if err != nil {
		e.logger.Warn("author detail lookup failed", "author_id", authorId, "error", err)
		return openalex.AuthorDetails{}, false
	}

	if e.DetailCache != nil {
		e.DetailCache.Put(key, details)
	}

	return details, true
}

func paperUrl(work openalex.Work) string {
	if work.Doi != "" {
		return doiUrl(work.Doi)
	}
	if work.Title != "" {
		return "https://scholar.google.com/scholar?q=" + url.QueryEscape(work.Title)
	}
	return strings.Replace(work.WorkId, "https://openalex.org/", "https://openalex.org/works/", 1)
}

func doiUrl(doi string) string {
	if strings.HasPrefix(doi, "https://") || strings.HasPrefix(doi, "http://") {
		return doi
	}
	return "https://doi.org/" + doi
}
