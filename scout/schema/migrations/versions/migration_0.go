package versions

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func Migration0(db *gorm.DB) error {
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

	type DiscoveryRun struct {
		Id uuid.UUID `gorm:"type:uuid;primaryKey"`

		CreatedAt time.Time

		Status string `gorm:"size:20;not null"`

		Institutions string
		Keywords     string

		InstitutionMode string `gorm:"size:10;not null"`
		KeywordMode     string `gorm:"size:10;not null"`

		Authors []DiscoveredAuthor `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
	}

	// This uses the structs defined here instead of in schema.go because they need
	// to be consistent with the original schema definition and not reflect any schema
	// changes.
	err := db.AutoMigrate(&DiscoveredAuthor{}, &DiscoveryRun{})
	if err != nil {
		return fmt.Errorf("initial migration failed: %w", err)
	}
	return nil
}
