package api

import (
	"time"

	"github.com/google/uuid"
)

// AuthorRecord is the unit of discovery output. AuthorId is the identity key;
// within one run exactly one record survives per unique id.
type AuthorRecord struct {
	AuthorId string

	FullName    string
	Institution string

	Email      string
	Department string
	Orcid      string

	MatchedKeyword string

	WorksCount   int
	CitedByCount int

	RecentWorkTitle string
	Doi             string
	PaperUrl        string
}

const (
	MatchAny = "any"
	MatchAll = "all"
)

type DiscoveryRequest struct {
	Institutions []string
	Keywords     []string

	// Match modes per axis, "any" (default) or "all".
	InstitutionMode string
	KeywordMode     string
}

type DiscoveryResponse struct {
	RunId uuid.UUID

	// Empty distinguishes "ran but found nothing" from "not yet run".
	Empty bool

	Authors []AuthorRecord
}

type RunSummary struct {
	Id        uuid.UUID
	CreatedAt time.Time
	Status    string

	Institutions []string
	Keywords     []string

	NumAuthors int
}
