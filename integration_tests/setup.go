package tests

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"scout/scout/api"
	"scout/scout/discovery"
	"scout/scout/openalex"
	"scout/scout/orcid"
	"scout/scout/schema/migrations"
	"scout/scout/services"
)

// Canned OpenAlex responses for a single institution with two keyword-matched
// works (authors A1, A2) and one author-centric backstop hit (A3).

const institutionsBody = `{
	"results": [
		{"id": "https://openalex.org/I222", "display_name": "Rice University"}
	]
}`

const worksBody = `{
	"results": [
		{
			"id": "https://openalex.org/W1",
			"title": "Liquid Cooling at Scale",
			"doi": "https://doi.org/10.1000/xyz",
			"authorships": [
				{
					"author": {
						"id": "https://openalex.org/A1",
						"display_name": "Ada One",
						"orcid": "https://orcid.org/0000-0001-2345-6789"
					},
					"institutions": [
						{"id": "https://openalex.org/I222", "display_name": "Rice University"}
					]
				},
				{
					"author": {"id": "https://openalex.org/A2", "display_name": "Bob Two"},
					"institutions": [
						{"id": "https://openalex.org/I222", "display_name": "Rice University"}
					]
				}
			]
		}
	]
}`

const authorsBody = `{
	"results": [
		{
			"id": "https://openalex.org/A3",
			"display_name": "Cam Three",
			"works_count": 12,
			"cited_by_count": 340,
			"last_known_institution": {"display_name": "Rice University", "type": "education"}
		}
	]
}`

var authorDetails = map[string]string{
	"A1": `{"works_count": 40, "cited_by_count": 1200, "last_known_institution": {"display_name": "Rice University", "type": "education"}}`,
	"A2": `{"works_count": 7, "cited_by_count": 55, "last_known_institution": {"display_name": "Rice University", "type": "education"}}`,
}

const orcidProfileBody = `{
	"person": {
		"emails": {"email": [{"email": "ada@rice.edu", "visibility": "PUBLIC"}]}
	},
	"activities-summary": {
		"employments": {"employment-summary": [{"department-name": "Mechanical Engineering"}]}
	}
}`

func newStubOpenalex(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/institutions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, institutionsBody)
	})

	mux.HandleFunc("/works", func(w http.ResponseWriter, r *http.Request) {
		if filter := r.URL.Query().Get("filter"); filter != "institutions.id:I222" {
			t.Errorf("unexpected works filter %q", filter)
		}
		fmt.Fprint(w, worksBody)
	})

	mux.HandleFunc("/authors", func(w http.ResponseWriter, r *http.Request) {
		if filter := r.URL.Query().Get("filter"); filter != "last_known_institution.id:I222" {
			t.Errorf("unexpected authors filter %q", filter)
		}
		fmt.Fprint(w, authorsBody)
	})

	mux.HandleFunc("/authors/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/authors/")
		details, ok := authorDetails[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, details)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func newStubOrcid(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/0000-0001-2345-6789" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, orcidProfileBody)
	}))
	t.Cleanup(server.Close)

	return server
}

// setupBackend wires the full pipeline against stub upstream servers and an
// in-memory database, returning a client against the running backend.
func setupBackend(t *testing.T) *api.Client {
	kb := openalex.NewRemoteKnowledgeBase("test@example.com")
	kb.BaseUrl = newStubOpenalex(t).URL
	kb.Executor.Sleep = func(time.Duration) {}

	enricher := orcid.NewEnricher("test@example.com")
	enricher.BaseUrl = newStubOrcid(t).URL

	orchestrator := discovery.NewOrchestrator(kb, enricher, discovery.Config{
		BackstopThreshold: 5,
		DetailLookupLimit: 20,
	})
	orchestrator.Engine().Sleep = func(time.Duration) {}

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := migrations.GetMigrator(db).Migrate(); err != nil {
		t.Fatal(err)
	}

	backend := services.NewBackendService(db, orchestrator)

	server := httptest.NewServer(backend.Routes())
	t.Cleanup(server.Close)

	return api.NewClient(server.URL)
}
