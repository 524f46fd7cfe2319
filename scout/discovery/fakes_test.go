package discovery_test

import (
	"fmt"
	"time"

	"scout/scout/discovery"
	"scout/scout/openalex"
	"scout/scout/orcid"
)

// fakeKnowledgeBase serves canned responses and records call counts so tests
// can assert which strategies ran.
type fakeKnowledgeBase struct {
	institutions map[string][]openalex.Institution   // keyed by search query
	works        map[string][]openalex.Work          // keyed by institutionId|keyword
	authors      map[string][]openalex.AuthorSummary // keyed by institutionId|keyword
	details      map[string]openalex.AuthorDetails   // keyed by short author id

	institutionQueries []string
	workSearches       int
	authorSearches     int
	detailLookups      int
}

func searchKey(institutionId, keyword string) string {
	return institutionId + "|" + keyword
}

func (kb *fakeKnowledgeBase) SearchInstitutions(query string) ([]openalex.Institution, error) {
	kb.institutionQueries = append(kb.institutionQueries, query)
	return kb.institutions[query], nil
}

func (kb *fakeKnowledgeBase) SearchWorks(institutionId, keyword string) ([]openalex.Work, error) {
	kb.workSearches++
	return kb.works[searchKey(institutionId, keyword)], nil
}

func (kb *fakeKnowledgeBase) SearchAuthors(institutionId, keyword string) ([]openalex.AuthorSummary, error) {
	kb.authorSearches++
	return kb.authors[searchKey(institutionId, keyword)], nil
}

func (kb *fakeKnowledgeBase) GetAuthor(authorId string) (openalex.AuthorDetails, error) {
	kb.detailLookups++
	details, ok := kb.details[openalex.ShortId(authorId)]
	if !ok {
		return openalex.AuthorDetails{}, fmt.Errorf("no details for %s", authorId)
	}
	return details, nil
}

type fakeEnricher struct {
	enrichments map[string]orcid.Enrichment // keyed by bare orcid id
	calls       int
}

func (e *fakeEnricher) Enrich(orcidId string) orcid.Enrichment {
	e.calls++
	return e.enrichments[orcid.NormalizeId(orcidId)]
}

func quietConfig() discovery.Config {
	config := discovery.DefaultConfig()
	config.DetailPacing = 0
	config.ResolvePacing = 0
	config.KeywordPacing = 0
	return config
}

func newQuietEngine(kb openalex.KnowledgeBase, enricher discovery.IdentityEnricher, config discovery.Config) *discovery.Engine {
	engine := discovery.NewEngine(kb, enricher, config)
	engine.Sleep = func(time.Duration) {}
	return engine
}
