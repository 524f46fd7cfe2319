package openalex_test

import (
	"net/http"
	"net/http/httptest"
	"scout/scout/openalex"
	"testing"
	"time"
)

func newStubKnowledgeBase(t *testing.T, handler http.HandlerFunc) *openalex.RemoteKnowledgeBase {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	kb := openalex.NewRemoteKnowledgeBase("test@example.com")
	kb.BaseUrl = server.URL
	kb.Executor.Sleep = func(time.Duration) {}
	return kb
}

func TestSearchInstitutions(t *testing.T) {
	kb := newStubKnowledgeBase(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/institutions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("search") != "rice university" || r.URL.Query().Get("per_page") != "10" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"results": [
			{"id": "https://openalex.org/I74775410", "display_name": "Rice University"},
			{"id": "https://openalex.org/I2799700084", "display_name": "Rice Lake (United States)"}
		]}`))
	})

	results, err := kb.SearchInstitutions("rice university")
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 ||
		results[0].InstitutionId != "https://openalex.org/I74775410" ||
		results[0].InstitutionName != "Rice University" {
		t.Fatal("invalid results")
	}
}

func TestSearchWorks(t *testing.T) {
	kb := newStubKnowledgeBase(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("filter") != "institutions.id:I74775410" || r.URL.Query().Get("per_page") != "50" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"results": [
			{
				"id": "https://openalex.org/W100",
				"title": "Liquid Cooling at Scale",
				"doi": "https://doi.org/10.1000/xyz",
				"authorships": [
					{
						"author": {"id": "https://openalex.org/A1", "display_name": "Ada One", "orcid": "https://orcid.org/0000-0001-2345-6789"},
						"institutions": [{"id": "https://openalex.org/I74775410", "display_name": "Rice University"}]
					},
					{
						"author": {"id": "https://openalex.org/A2", "display_name": "Bob Two"}
					}
				]
			},
			{
				"id": "https://openalex.org/W200",
				"title": "Untitled Preprint"
			}
		]}`))
	})

	works, err := kb.SearchWorks("I74775410", "cooling")
	if err != nil {
		t.Fatal(err)
	}

	if len(works) != 2 {
		t.Fatalf("expected 2 works, got %d", len(works))
	}

	first := works[0]
	if first.WorkId != "https://openalex.org/W100" || first.Title != "Liquid Cooling at Scale" ||
		first.Doi != "https://doi.org/10.1000/xyz" || len(first.Authorships) != 2 {
		t.Fatal("invalid work")
	}

	if first.Authorships[0].Author.Orcid != "https://orcid.org/0000-0001-2345-6789" ||
		len(first.Authorships[0].Institutions) != 1 ||
		first.Authorships[0].Institutions[0].InstitutionName != "Rice University" {
		t.Fatal("invalid authorship")
	}

	// Absent nested fields must decode as zero values, not fail.
	if first.Authorships[1].Author.Orcid != "" || len(first.Authorships[1].Institutions) != 0 {
		t.Fatal("absent fields should be empty")
	}
	if works[1].Doi != "" || len(works[1].Authorships) != 0 {
		t.Fatal("absent fields should be empty")
	}
}

func TestSearchAuthors(t *testing.T) {
	kb := newStubKnowledgeBase(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/authors" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("filter") != "last_known_institution.id:I74775410" || r.URL.Query().Get("per_page") != "25" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"results": [
			{
				"id": "https://openalex.org/A1",
				"display_name": "Ada One",
				"orcid": "https://orcid.org/0000-0001-2345-6789",
				"works_count": 12,
				"cited_by_count": 345,
				"last_known_institution": {"display_name": "Rice University", "type": "education"}
			},
			{
				"id": "https://openalex.org/A2",
				"display_name": "Bob Two",
				"last_known_institution": null
			}
		]}`))
	})

	authors, err := kb.SearchAuthors("I74775410", "cooling")
	if err != nil {
		t.Fatal(err)
	}

	if len(authors) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(authors))
	}

	if authors[0].WorksCount != 12 || authors[0].CitedByCount != 345 ||
		authors[0].LastKnownInstitution == nil ||
		authors[0].LastKnownInstitution.DisplayName != "Rice University" ||
		authors[0].LastKnownInstitution.Type != "education" {
		t.Fatal("invalid author summary")
	}

	if authors[1].LastKnownInstitution != nil {
		t.Fatal("null last_known_institution should decode to nil")
	}
}

func TestGetAuthor(t *testing.T) {
	kb := newStubKnowledgeBase(t, func(w http.ResponseWriter, r *http.Request) {
		// Full entity URLs are reduced to their short id for the detail path.
		if r.URL.Path != "/authors/A1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"works_count": 40,
			"cited_by_count": 1200,
			"last_known_institution": {"display_name": "Example Institute of Technology", "type": "education"}
		}`))
	})

	details, err := kb.GetAuthor("https://openalex.org/A1")
	if err != nil {
		t.Fatal(err)
	}

	if details.WorksCount != 40 || details.CitedByCount != 1200 ||
		details.LastKnownInstitution == nil ||
		details.LastKnownInstitution.DisplayName != "Example Institute of Technology" {
		t.Fatal("invalid author details")
	}
}

func TestShortId(t *testing.T) {
	if openalex.ShortId("https://openalex.org/I74775410") != "I74775410" {
		t.Fatal("url form should reduce to short id")
	}
	if openalex.ShortId("I74775410") != "I74775410" {
		t.Fatal("short form should pass through")
	}
}
