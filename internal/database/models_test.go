package database

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumepager/internal/resume"
)

func TestResumeRoundTripThroughDatabase(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	demo := resume.Demo()
	var row Resume
	if err := row.SetData(demo); err != nil {
		t.Fatalf("set data: %v", err)
	}
	row.Status = StatusDraft
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var loaded Resume
	if err := db.First(&loaded, row.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Title != demo.PersonalInfo.Name {
		t.Fatalf("title should follow the name, got %q", loaded.Title)
	}
	data, err := loaded.Data()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Experiences) != len(demo.Experiences) || data.Experiences[0].ID != demo.Experiences[0].ID {
		t.Fatalf("experiences not preserved: %+v", data.Experiences)
	}
	if data.Summary != demo.Summary || data.Style != demo.Style {
		t.Fatal("summary or style not preserved")
	}
}

func TestResumeDataRejectsGarbage(t *testing.T) {
	row := Resume{Content: []byte("{")}
	if _, err := row.Data(); err == nil {
		t.Fatal("expected decode error")
	}
}
