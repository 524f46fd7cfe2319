package orcid_test

import (
	"net/http"
	"net/http/httptest"
	"scout/scout/orcid"
	"testing"
)

const profileBody = `{
	"person": {
		"emails": {
			"email": [
				{"email": "private@example.com", "visibility": "LIMITED"},
				{"email": "ada@example.edu", "visibility": "PUBLIC"},
				{"email": "second@example.edu", "visibility": "PUBLIC"}
			]
		}
	},
	"activities-summary": {
		"employments": {
			"employment-summary": [
				{"department-name": ""},
				{"department-name": "Mechanical Engineering"},
				{"department-name": "Physics"}
			]
		}
	}
}`

func newTestEnricher(t *testing.T, handler http.HandlerFunc) *orcid.Enricher {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	enricher := orcid.NewEnricher("test@example.com")
	enricher.BaseUrl = server.URL
	return enricher
}

func TestEnrichFirstFoundWins(t *testing.T) {
	enricher := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/0000-0001-2345-6789" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(profileBody))
	})

	result := enricher.Enrich("0000-0001-2345-6789")

	if result.Email != "ada@example.edu" {
		t.Fatalf("expected first public email, got %q", result.Email)
	}

	if result.Department != "Mechanical Engineering" {
		t.Fatalf("expected first non-empty department, got %q", result.Department)
	}
}

func TestEnrichAcceptsOrcidUrls(t *testing.T) {
	enricher := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/0000-0001-2345-6789" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(profileBody))
	})

	// OpenAlex returns orcid ids as full urls.
	result := enricher.Enrich("https://orcid.org/0000-0001-2345-6789")
	if result.Email != "ada@example.edu" {
		t.Fatalf("url form not handled, got %q", result.Email)
	}
}

func TestEnrichSecondCallHitsCache(t *testing.T) {
	requests := 0
	enricher := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(profileBody))
	})

	first := enricher.Enrich("0000-0001-2345-6789")
	second := enricher.Enrich("0000-0001-2345-6789")

	if requests != 1 {
		t.Fatalf("second call must make zero network requests, got %d total", requests)
	}

	if first != second {
		t.Fatalf("cached result differs: %+v vs %+v", first, second)
	}

	// The url form resolves to the same cache entry.
	enricher.Enrich("https://orcid.org/0000-0001-2345-6789")
	if requests != 1 {
		t.Fatal("url form should hit the same cache entry")
	}
}

func TestEnrichFailureNotCached(t *testing.T) {
	requests := 0
	enricher := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(profileBody))
	})

	if result := enricher.Enrich("0000-0001-2345-6789"); result != (orcid.Enrichment{}) {
		t.Fatalf("failed lookup should return empty result, got %+v", result)
	}

	// Failures are not cached, so the next call retries the registry.
	result := enricher.Enrich("0000-0001-2345-6789")
	if requests != 2 {
		t.Fatalf("expected a retry after failure, got %d requests", requests)
	}

	if result.Email != "ada@example.edu" {
		t.Fatalf("retry should succeed, got %+v", result)
	}
}

func TestEnrichEmptyProfile(t *testing.T) {
	enricher := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})

	if result := enricher.Enrich("0000-0001-2345-6789"); result != (orcid.Enrichment{}) {
		t.Fatalf("profile without public data should enrich to empty, got %+v", result)
	}
}

func TestNormalizeId(t *testing.T) {
	if orcid.NormalizeId("https://orcid.org/0000-0001-2345-678X") != "0000-0001-2345-678X" {
		t.Fatal("url form should reduce to bare id")
	}
	if orcid.NormalizeId("0000-0001-2345-6789") != "0000-0001-2345-6789" {
		t.Fatal("bare id should pass through")
	}
}
