package migrations_test

import (
	"scout/scout/schema"
	"scout/scout/schema/migrations"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrateCleanDatabase(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := migrations.GetMigrator(db).Migrate(); err != nil {
		t.Fatal(err)
	}

	run := schema.DiscoveryRun{
		Id:              uuid.New(),
		CreatedAt:       time.Now().UTC(),
		Status:          schema.RunCompleted,
		Institutions:    "Rice University",
		Keywords:        "cooling",
		InstitutionMode: "any",
		KeywordMode:     "any",
		Authors: []schema.DiscoveredAuthor{
			{AuthorId: "A1", FullName: "Ada One", Institution: "Rice University"},
		},
	}

	if err := db.Create(&run).Error; err != nil {
		t.Fatal(err)
	}

	var fetched schema.DiscoveryRun
	if err := db.Preload("Authors").First(&fetched, "id = ?", run.Id).Error; err != nil {
		t.Fatal(err)
	}

	if fetched.Status != schema.RunCompleted || len(fetched.Authors) != 1 || fetched.Authors[0].AuthorId != "A1" {
		t.Fatalf("unexpected run state: %+v", fetched)
	}

	// Migrating an already migrated database is a no-op.
	if err := migrations.GetMigrator(db).Migrate(); err != nil {
		t.Fatal(err)
	}
}
