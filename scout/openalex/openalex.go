package openalex

// Institution is an institution entry as it appears in search results and
// work authorships.
type Institution struct {
	InstitutionId   string
	InstitutionName string
}

type WorkAuthor struct {
	AuthorId    string
	DisplayName string
	Orcid       string // Full orcid.org URL when present, empty otherwise
}

type Authorship struct {
	Author       WorkAuthor
	Institutions []Institution // Often empty, authorship-level institution data is unreliable
}

type Work struct {
	WorkId      string
	Title       string
	Doi         string
	Authorships []Authorship
}

// KnownInstitution is the last-known institution attached to an author
// record. A nil *KnownInstitution means the field was absent upstream.
type KnownInstitution struct {
	DisplayName string
	Type        string
}

type AuthorSummary struct {
	AuthorId             string
	DisplayName          string
	Orcid                string
	WorksCount           int
	CitedByCount         int
	LastKnownInstitution *KnownInstitution
}

type AuthorDetails struct {
	WorksCount           int
	CitedByCount         int
	LastKnownInstitution *KnownInstitution
}

type KnowledgeBase interface {
	// SearchInstitutions queries the institution search endpoint with free
	// text, returning up to 10 results in relevance order.
	SearchInstitutions(query string) ([]Institution, error)

	// SearchWorks returns up to 50 works matching the keyword at the given
	// institution (canonical short id, e.g. "I136199984").
	SearchWorks(institutionId, keyword string) ([]Work, error)

	// SearchAuthors returns up to 25 authors whose last known institution is
	// the given institution and who match the keyword.
	SearchAuthors(institutionId, keyword string) ([]AuthorSummary, error)

	// GetAuthor fetches the detail record for a single author id.
	GetAuthor(authorId string) (AuthorDetails, error)
}
