package services_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"scout/scout/api"
	"scout/scout/schema"
	"scout/scout/services"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createBackend(t *testing.T, discoverer services.Discoverer) *httptest.Server {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.AutoMigrate(&schema.DiscoveryRun{}, &schema.DiscoveredAuthor{}); err != nil {
		t.Fatal(err)
	}

	backend := services.NewBackendService(db, discoverer)

	server := httptest.NewServer(backend.Routes())
	t.Cleanup(server.Close)

	return server
}

func TestDiscoveryEndpoints(t *testing.T) {
	d := &fakeDiscoverer{results: map[string][]api.AuthorRecord{
		"Rice University|cooling": {
			{AuthorId: "A1", FullName: "Ada One", Institution: "Rice University", MatchedKeyword: "cooling", CitedByCount: 10},
			{AuthorId: "A2", FullName: "Bob Two", Institution: "Rice University", MatchedKeyword: "cooling", CitedByCount: 90},
		},
	}}

	server := createBackend(t, d)
	client := api.NewClient(server.URL)

	res, err := client.RunDiscovery(api.DiscoveryRequest{
		Institutions: []string{"Rice University"},
		Keywords:     []string{"cooling"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.RunId == uuid.Nil || res.Empty || len(res.Authors) != 2 {
		t.Fatalf("unexpected response: %+v", res)
	}

	fetched, err := client.GetRun(res.RunId)
	if err != nil {
		t.Fatal(err)
	}

	if fetched.RunId != res.RunId || len(fetched.Authors) != 2 {
		t.Fatalf("unexpected run: %+v", fetched)
	}
	for _, author := range fetched.Authors {
		if author.Institution != "Rice University" || author.MatchedKeyword != "cooling" {
			t.Fatalf("unexpected stored author: %+v", author)
		}
	}

	runs, err := client.ListRuns()
	if err != nil {
		t.Fatal(err)
	}

	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %v", runs)
	}
	if runs[0].Id != res.RunId || runs[0].Status != schema.RunCompleted || runs[0].NumAuthors != 2 {
		t.Fatalf("unexpected summary: %+v", runs[0])
	}
	if len(runs[0].Institutions) != 1 || runs[0].Institutions[0] != "Rice University" {
		t.Fatalf("unexpected summary institutions: %v", runs[0].Institutions)
	}
}

func TestDiscoveryEmptyRun(t *testing.T) {
	server := createBackend(t, &fakeDiscoverer{})
	client := api.NewClient(server.URL)

	res, err := client.RunDiscovery(api.DiscoveryRequest{
		Institutions: []string{"Nowhere University"},
		Keywords:     []string{"cooling"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !res.Empty || len(res.Authors) != 0 {
		t.Fatalf("expected empty run, got %+v", res)
	}

	fetched, err := client.GetRun(res.RunId)
	if err != nil {
		t.Fatal(err)
	}
	if !fetched.Empty {
		t.Fatalf("expected fetched run to be empty, got %+v", fetched)
	}

	runs, err := client.ListRuns()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != schema.RunEmpty {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestDiscoveryValidatesRequest(t *testing.T) {
	server := createBackend(t, &fakeDiscoverer{})
	client := api.NewClient(server.URL)

	if _, err := client.RunDiscovery(api.DiscoveryRequest{Keywords: []string{"cooling"}}); err == nil {
		t.Fatal("expected error for empty institution list")
	}

	if _, err := client.RunDiscovery(api.DiscoveryRequest{Institutions: []string{"Rice University"}}); err == nil {
		t.Fatal("expected error for empty keyword list")
	}
}

func TestDiscoveryRunNotFound(t *testing.T) {
	server := createBackend(t, &fakeDiscoverer{})
	client := api.NewClient(server.URL)

	if _, err := client.GetRun(uuid.New()); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDiscoveryCSVDownload(t *testing.T) {
	d := &fakeDiscoverer{results: map[string][]api.AuthorRecord{
		"Rice University|cooling": {
			{AuthorId: "A1", FullName: "Ada One", Institution: "Rice University", MatchedKeyword: "cooling", CitedByCount: 10},
			{AuthorId: "A2", FullName: "Bob Two", Institution: "Rice University", MatchedKeyword: "cooling", CitedByCount: 90},
		},
	}}

	server := createBackend(t, d)
	client := api.NewClient(server.URL)

	run, err := client.RunDiscovery(api.DiscoveryRequest{
		Institutions: []string{"Rice University"},
		Keywords:     []string{"cooling"},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := http.Get(server.URL + "/api/v1/discovery/" + run.RunId.String() + "/csv")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %q", ct)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %q", string(body))
	}

	// Rows are ordered by citation count descending.
	if !strings.HasPrefix(lines[1], "Bob Two,") || !strings.HasPrefix(lines[2], "Ada One,") {
		t.Fatalf("unexpected row order: %v", lines[1:])
	}
}
