package services

import (
	"context"
	"errors"
	"fmt"
	"scout/scout/api"
	"scout/scout/discovery"
)

// Discoverer runs a discovery over institution and keyword lists. Satisfied by
// discovery.Orchestrator.
type Discoverer interface {
	Discover(ctx context.Context, institutions, keywords []string) ([]api.AuthorRecord, error)
}

// discoverTolerant treats an empty result as an empty slice rather than an
// error so that mode combinators can union or intersect partial results.
func discoverTolerant(ctx context.Context, d Discoverer, institutions, keywords []string) ([]api.AuthorRecord, error) {
	records, err := d.Discover(ctx, institutions, keywords)
	if err != nil {
		if errors.Is(err, discovery.ErrNoAuthorsFound) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

// keepFullKeywordCoverage keeps the records of authors that matched all n
// keywords, preserving record order.
func keepFullKeywordCoverage(records []api.AuthorRecord, n int) []api.AuthorRecord {
	keywordsSeen := make(map[string]map[string]bool)
	for _, record := range records {
		if keywordsSeen[record.AuthorId] == nil {
			keywordsSeen[record.AuthorId] = make(map[string]bool)
		}
		keywordsSeen[record.AuthorId][record.MatchedKeyword] = true
	}

	kept := make([]api.AuthorRecord, 0, len(records))
	for _, record := range records {
		if len(keywordsSeen[record.AuthorId]) == n {
			kept = append(kept, record)
		}
	}
	return kept
}

// keepFullInstitutionCoverage keeps the records of authors that were found at
// all n institutions, preserving record order.
func keepFullInstitutionCoverage(records []api.AuthorRecord, n int) []api.AuthorRecord {
	institutionsSeen := make(map[string]map[string]bool)
	for _, record := range records {
		if institutionsSeen[record.AuthorId] == nil {
			institutionsSeen[record.AuthorId] = make(map[string]bool)
		}
		institutionsSeen[record.AuthorId][record.Institution] = true
	}

	kept := make([]api.AuthorRecord, 0, len(records))
	for _, record := range records {
		if len(institutionsSeen[record.AuthorId]) == n {
			kept = append(kept, record)
		}
	}
	return kept
}

// allKeywordsAtInstitution runs each keyword separately against one
// institution and keeps only authors covered by every keyword.
func allKeywordsAtInstitution(ctx context.Context, d Discoverer, institution string, keywords []string) ([]api.AuthorRecord, error) {
	var merged []api.AuthorRecord
	for _, keyword := range keywords {
		records, err := discoverTolerant(ctx, d, []string{institution}, []string{keyword})
		if err != nil {
			return nil, err
		}
		merged = append(merged, records...)
	}
	return keepFullKeywordCoverage(merged, len(keywords)), nil
}

// DiscoverWithModes runs a discovery honoring the request's institution and
// keyword match modes. In "any" mode a single match suffices; in "all" mode an
// author must match every keyword, be present at every institution, or both.
// Returns discovery.ErrNoAuthorsFound when the combination leaves no authors.
func DiscoverWithModes(ctx context.Context, d Discoverer, req api.DiscoveryRequest) ([]api.AuthorRecord, error) {
	institutionMode := req.InstitutionMode
	if institutionMode == "" {
		institutionMode = api.MatchAny
	}
	keywordMode := req.KeywordMode
	if keywordMode == "" {
		keywordMode = api.MatchAny
	}
	if institutionMode != api.MatchAny && institutionMode != api.MatchAll {
		return nil, fmt.Errorf("invalid institution match mode %q", institutionMode)
	}
	if keywordMode != api.MatchAny && keywordMode != api.MatchAll {
		return nil, fmt.Errorf("invalid keyword match mode %q", keywordMode)
	}

	var results []api.AuthorRecord
	var err error

	switch {
	case institutionMode == api.MatchAny && keywordMode == api.MatchAny:
		results, err = discoverTolerant(ctx, d, req.Institutions, req.Keywords)

	case institutionMode == api.MatchAny && keywordMode == api.MatchAll:
		for _, institution := range req.Institutions {
			var covered []api.AuthorRecord
			covered, err = allKeywordsAtInstitution(ctx, d, institution, req.Keywords)
			if err != nil {
				break
			}
			results = append(results, covered...)
		}
		results = discovery.Deduplicate(results)

	case institutionMode == api.MatchAll && keywordMode == api.MatchAny:
		var merged []api.AuthorRecord
		for _, institution := range req.Institutions {
			var records []api.AuthorRecord
			records, err = discoverTolerant(ctx, d, []string{institution}, req.Keywords)
			if err != nil {
				break
			}
			merged = append(merged, records...)
		}
		results = keepFullInstitutionCoverage(merged, len(req.Institutions))

	default:
		var merged []api.AuthorRecord
		for _, institution := range req.Institutions {
			var covered []api.AuthorRecord
			covered, err = allKeywordsAtInstitution(ctx, d, institution, req.Keywords)
			if err != nil {
				break
			}
			merged = append(merged, covered...)
		}
		results = keepFullInstitutionCoverage(merged, len(req.Institutions))
	}

	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, discovery.ErrNoAuthorsFound
	}

	return results, nil
}
