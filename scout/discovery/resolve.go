package discovery

import (
	"errors"
	"log/slog"
	"strings"

	"scout/scout/openalex"
)

// ErrInstitutionNotFound indicates every fallback search term yielded zero
// results. Callers should skip the institution, not abort the run.
var ErrInstitutionNotFound = errors.New("no matching institution found")

// ResolvedInstitution pairs an institution name as the caller supplied it
// with its canonical short id (e.g. "I136199984").
type ResolvedInstitution struct {
	Name string
	Id   string
}

// Resolver maps free-text institution names to stable OpenAlex ids via a
// fuzzy search-term fallback.
type Resolver struct {
	openalex openalex.KnowledgeBase
	logger   *slog.Logger
}

func NewResolver(kb openalex.KnowledgeBase) *Resolver {
	return &Resolver{openalex: kb, logger: slog.Default()}
}

// searchTerms orders candidate queries from most to least specific: the name
// verbatim, the name without the word "University", and the bare first token
// as a last resort for short or irregular names.
func searchTerms(name string) []string {
	terms := make([]string, 0, 3)

	add := func(term string) {
		term = strings.TrimSpace(term)
		if term != "" {
			terms = append(terms, term)
		}
	}

	add(name)
	add(strings.ReplaceAll(name, "University", ""))
	if fields := strings.Fields(name); len(fields) > 0 {
		add(fields[0])
	}

	return terms
}

// Resolve tries each search term in order and stops at the first term that
// yields any results at all, even without a qualifying name match. Within
// that result page a case-insensitive substring match in either direction is
// preferred; otherwise the first (highest-relevance) result is used, so a
// non-empty page never resolves to nothing.
func (r *Resolver) Resolve(name string) (ResolvedInstitution, error) {
	r.logger.Info("resolving institution", "name", name)

	for _, term := range searchTerms(name) {
		results, err := r.openalex.SearchInstitutions(term)
		if err != nil {
			r.logger.Warn("institution search term failed", "name", name, "term", term, "error", err)
			continue
		}

		if len(results) == 0 {
			continue
		}

		match := results[0]
		for _, candidate := range results {
			if nameMatches(name, candidate.InstitutionName) {
				match = candidate
				break
			}
		}

		resolved := ResolvedInstitution{Name: name, Id: openalex.ShortId(match.InstitutionId)}
		r.logger.Info("resolved institution", "name", name, "term", term, "match", match.InstitutionName, "id", resolved.Id)
		return resolved, nil
	}

	r.logger.Warn("institution not found", "name", name)
	return ResolvedInstitution{}, ErrInstitutionNotFound
}

func nameMatches(query, candidate string) bool {
	query, candidate = strings.ToLower(query), strings.ToLower(candidate)
	return strings.Contains(candidate, query) || strings.Contains(query, candidate)
}
