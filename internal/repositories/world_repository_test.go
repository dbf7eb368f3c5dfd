package repositories

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/multiarchi/claimsbot/internal/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "claims.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Player{},
		&models.Reality{},
		&models.World{},
		&models.Slot{},
		&models.TrackedWorld{},
		&models.TrackedSlot{},
		&models.Preclaim{},
		&models.Claim{},
		&models.StatusUpdate{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestWorldRepository_ActiveTrackedWorldNames(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorldRepository(db)

	seed := []struct {
		world    string
		statuses []models.SlotStatus
	}{
		{"Caverns", []models.SlotStatus{models.StatusAllChecks, models.StatusDone}},
		{"Summit", []models.SlotStatus{models.StatusGoal, models.StatusDone}},
		{"Meadow", []models.SlotStatus{models.StatusInProgress}},
	}
	for _, s := range seed {
		world := &models.TrackedWorld{Name: s.world, TrackerID: "t-" + s.world}
		if err := repo.CreateTrackedWorld(world); err != nil {
			t.Fatalf("CreateTrackedWorld(%s) error = %v", s.world, err)
		}
		for i, status := range s.statuses {
			slot := &models.TrackedSlot{
				WorldID: world.ID,
				Name:    fmt.Sprintf("S%d", i+1),
				Games:   "Clique",
				Status:  status,
			}
			if err := repo.CreateTrackedSlot(slot); err != nil {
				t.Fatalf("CreateTrackedSlot(%s/%s) error = %v", s.world, slot.Name, err)
			}
		}
	}

	names, err := repo.ActiveTrackedWorldNames()
	if err != nil {
		t.Fatalf("ActiveTrackedWorldNames() error = %v", err)
	}

	got := make(map[string]bool, len(names))
	for _, name := range names {
		got[name] = true
	}
	// A slot at AllChecks still needs its goal, so the world stays active.
	if !got["Caverns"] {
		t.Error("Caverns with an AllChecks slot missing from the refresh candidates")
	}
	if !got["Meadow"] {
		t.Error("Meadow with an InProgress slot missing from the refresh candidates")
	}
	if got["Summit"] {
		t.Error("Summit with only Goal/Done slots should not be refreshed")
	}
}
