package orcid

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"scout/scout/monitoring"
)

const defaultBaseUrl = "https://pub.orcid.org/v3.0"

// Enrichment holds the contact/affiliation metadata resolved from an ORCID
// profile. Either field may be empty; not all profiles expose them.
type Enrichment struct {
	Email      string
	Department string
}

// Enricher resolves ORCID ids to Enrichments, memoizing successful lookups
// for the process lifetime. Lookups are a single best-effort attempt with a
// short timeout; failures are returned empty and deliberately not cached, so
// a later call in the same run may retry after a transient registry outage.
type Enricher struct {
	BaseUrl string

	client *resty.Client

	mu    sync.Mutex
	cache map[string]Enrichment
}

func NewEnricher(contactEmail string) *Enricher {
	client := resty.New().
		SetTimeout(15*time.Second).
		SetHeader("User-Agent", fmt.Sprintf("scout/1.0 (mailto:%s)", contactEmail)).
		SetHeader("Accept", "application/json").
		OnAfterResponse(func(c *resty.Client, res *resty.Response) error {
			monitoring.OrcidCalls.WithLabelValues(strconv.Itoa(res.StatusCode())).Inc()
			return nil
		})

	return &Enricher{
		BaseUrl: defaultBaseUrl,
		client:  client,
		cache:   make(map[string]Enrichment),
	}
}

// orcid ids are 16 digits in hyphenated groups of 4, last char may be X.
var orcidIdPattern = regexp.MustCompile(`(?i)(\d{4}-\d{4}-\d{4}-\d{3}[\dX])`)

// NormalizeId reduces a bare ORCID id or an orcid.org URL (the form OpenAlex
// returns) to the bare id. Inputs that don't look like an ORCID id pass
// through trimmed, the registry will reject them.
func NormalizeId(id string) string {
	if match := orcidIdPattern.FindString(id); match != "" {
		return strings.ToUpper(match)
	}
	return strings.TrimSpace(id)
}

// Enrich resolves an ORCID id to an email/department pair. A cached result is
// returned without a network call. Any lookup failure degrades to an empty
// Enrichment.
func (e *Enricher) Enrich(orcidId string) Enrichment {
	id := NormalizeId(orcidId)
	if id == "" {
		return Enrichment{}
	}

	e.mu.Lock()
	if cached, ok := e.cache[id]; ok {
		e.mu.Unlock()
		return cached
	}
	e.mu.Unlock()

	result, err := e.lookup(id)
	if err != nil {
		slog.Warn("orcid lookup failed", "orcid_id", id, "error", err)
		return Enrichment{}
	}

	e.mu.Lock()
	e.cache[id] = result
	e.mu.Unlock()

	return result
}

func (e *Enricher) lookup(id string) (Enrichment, error) {
	var record struct {
		Person struct {
			Emails struct {
				Email []struct {
					Email      string `json:"email"`
					Visibility string `json:"visibility"`
				} `json:"email"`
			} `json:"emails"`
		} `json:"person"`
		ActivitiesSummary struct {
			Employments struct {
				EmploymentSummary []struct {
					DepartmentName string `json:"department-name"`
				} `json:"employment-summary"`
			} `json:"employments"`
		} `json:"activities-summary"`
	}

	res, err := e.client.R().
		SetResult(&record).
		Get(fmt.Sprintf("%s/%s", e.BaseUrl, id))

	if err != nil {
		return Enrichment{}, fmt.Errorf("orcid request failed: %w", err)
	}

	if !res.IsSuccess() {
		return Enrichment{}, fmt.Errorf("orcid returned status %d", res.StatusCode())
	}

	var result Enrichment

	// First public email wins; most profiles expose none.
	for _, email := range record.Person.Emails.Email {
		if email.Visibility == "PUBLIC" {
			result.Email = email.Email
			break
		}
	}

	// First listed department across the employment history, not most recent.
	for _, employment := range record.ActivitiesSummary.Employments.EmploymentSummary {
		if employment.DepartmentName != "" {
			result.Department = employment.DepartmentName
			break
		}
	}

	return result, nil
}
