package schema

import (
	"time"

	"github.com/google/uuid"
)

const (
	RunInProgress = "in-progress"
	RunFailed     = "failed"
	RunCompleted  = "complete"
	RunEmpty      = "empty"
)

type DiscoveryRun struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time

	Status string `gorm:"size:20;not null"`

	// Newline-joined input lists, as submitted.
	Institutions string
	Keywords     string

	InstitutionMode string `gorm:"size:10;not null"`
	KeywordMode     string `gorm:"size:10;not null"`

	Authors []DiscoveredAuthor `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
}

type DiscoveredAuthor struct {
	RunId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuthorId string    `gorm:"primaryKey"`

	FullName    string
	Institution string
	Email       string
	Department  string
	Orcid       string

	MatchedKeyword string

	WorksCount   int
	CitedByCount int

	RecentWorkTitle string
	Doi             string
	PaperUrl        string
}
