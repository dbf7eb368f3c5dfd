package repositories

import (
	"github.com/multiarchi/claimsbot/internal/models"
	"github.com/multiarchi/claimsbot/pkg/errors"
	"gorm.io/gorm"
)

type WorldRepository struct {
	db *gorm.DB
}

func NewWorldRepository(db *gorm.DB) *WorldRepository {
	return &WorldRepository{db: db}
}

// --- Realities ---

func (r *WorldRepository) CreateReality(reality *models.Reality) error {
	if err := r.db.Create(reality).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create reality")
	}
	return nil
}

func (r *WorldRepository) GetRealityByName(name string) (*models.Reality, error) {
	var reality models.Reality
	result := r.db.Where("name = ?", name).First(&reality)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "reality not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get reality")
	}

	return &reality, nil
}

// --- Pre-tracking worlds ---

func (r *WorldRepository) CreateWorld(world *models.World) error {
	if err := r.db.Create(world).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create world")
	}
	return nil
}

func (r *WorldRepository) GetWorldByName(name string) (*models.World, error) {
	var world models.World
	result := r.db.Preload("Reality").Where("name = ?", name).First(&world)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "world not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get world")
	}

	return &world, nil
}

func (r *WorldRepository) UpdatePreclaimEnd(name string, preclaimEnd int64) error {
	result := r.db.Model(&models.World{}).Where("name = ?", name).Update("preclaim_end", preclaimEnd)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to set preclaim end")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "world not found")
	}
	return nil
}

func (r *WorldRepository) MarkPreclaimsResolved(name string) error {
	result := r.db.Model(&models.World{}).Where("name = ?", name).Update("resolved_preclaims", true)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to mark preclaims resolved")
	}
	return nil
}

// DueWorldNames lists worlds whose preclaim window has closed but whose
// lottery has not run yet.
func (r *WorldRepository) DueWorldNames(now int64) ([]string, error) {
	var names []string
	err := r.db.Model(&models.World{}).
		Where("preclaim_end <= ? AND resolved_preclaims = false", now).
		Pluck("name", &names).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list due worlds")
	}
	return names, nil
}

// DeleteWorldByName removes a pre-tracking world; slots and their preclaims
// go with it.
func (r *WorldRepository) DeleteWorldByName(name string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var world models.World
		if err := tx.Where("name = ?", name).First(&world).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.ErrCodeNotFound, "world not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get world")
		}

		if err := tx.Where("slot_id IN (SELECT id FROM slots WHERE world_id = ?)", world.ID).Delete(&models.Preclaim{}).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete preclaims")
		}
		if err := tx.Where("world_id = ?", world.ID).Delete(&models.Slot{}).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete slots")
		}
		if err := tx.Delete(&world).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete world")
		}
		return nil
	})
}

// --- Pre-tracking slots ---

func (r *WorldRepository) CreateSlots(slots []models.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	if err := r.db.Create(&slots).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create slots")
	}
	return nil
}

func (r *WorldRepository) SlotsForWorld(worldID uint) ([]models.Slot, error) {
	var slots []models.Slot
	if err := r.db.Where("world_id = ?", worldID).Order("name").Find(&slots).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get slots")
	}
	return slots, nil
}

func (r *WorldRepository) GetSlotByID(id uint) (*models.Slot, error) {
	var slot models.Slot
	result := r.db.First(&slot, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "slot not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get slot")
	}

	return &slot, nil
}

func (r *WorldRepository) FindSlot(worldName, slotName string) (*models.Slot, error) {
	var slot models.Slot
	result := r.db.Where(
		"name = ? AND world_id IN (SELECT id FROM worlds WHERE name = ?)",
		slotName, worldName,
	).First(&slot)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "slot not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get slot")
	}

	return &slot, nil
}

// RealityForTrackedSlot resolves the reality governing a tracked slot, nil
// when the world has none.
func (r *WorldRepository) RealityForTrackedSlot(tx *gorm.DB, slotID uint) (*models.Reality, error) {
	if tx == nil {
		tx = r.db
	}

	var reality models.Reality
	err := tx.Model(&models.Reality{}).
		Joins("JOIN tracked_worlds ON tracked_worlds.reality_id = realities.id").
		Joins("JOIN tracked_slots ON tracked_slots.world_id = tracked_worlds.id").
		Where("tracked_slots.id = ?", slotID).
		First(&reality).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get reality")
	}
	return &reality, nil
}

// --- Tracked worlds ---

func (r *WorldRepository) CreateTrackedWorld(world *models.TrackedWorld) error {
	if err := r.db.Create(world).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create tracked world")
	}
	return nil
}

func (r *WorldRepository) GetTrackedWorldByName(name string) (*models.TrackedWorld, error) {
	var world models.TrackedWorld
	result := r.db.Preload("Reality").Where("name = ?", name).First(&world)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "world not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get tracked world")
	}

	return &world, nil
}

func (r *WorldRepository) UpdateLastScrape(worldID uint, now int64) error {
	result := r.db.Model(&models.TrackedWorld{}).Where("id = ?", worldID).Update("last_scrape", now)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update last scrape")
	}
	return nil
}

func (r *WorldRepository) MarkTrackedWorldDone(worldID uint) error {
	result := r.db.Model(&models.TrackedWorld{}).Where("id = ?", worldID).Update("done", true)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to mark world done")
	}
	return nil
}

// ActiveTrackedWorldNames lists tracked worlds that still have unfinished
// slots, the candidates for a scrape refresh. A slot is finished at Goal or
// Done; AllChecks still needs its goal.
func (r *WorldRepository) ActiveTrackedWorldNames() ([]string, error) {
	var names []string
	err := r.db.Model(&models.TrackedWorld{}).
		Where("id IN (SELECT world_id FROM tracked_slots WHERE status NOT IN (?, ?))",
			models.StatusGoal, models.StatusDone).
		Pluck("name", &names).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list active worlds")
	}
	return names, nil
}

// --- Tracked slots ---

func (r *WorldRepository) CreateTrackedSlot(slot *models.TrackedSlot) error {
	if err := r.db.Create(slot).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create tracked slot")
	}
	return nil
}

func (r *WorldRepository) TrackedSlotsForWorld(worldID uint) ([]models.TrackedSlot, error) {
	var slots []models.TrackedSlot
	if err := r.db.Where("world_id = ?", worldID).Order("name").Find(&slots).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get tracked slots")
	}
	return slots, nil
}

func (r *WorldRepository) FindTrackedSlot(worldName, slotName string) (*models.TrackedSlot, error) {
	var slot models.TrackedSlot
	result := r.db.Where(
		"name = ? AND world_id IN (SELECT id FROM tracked_worlds WHERE name = ?)",
		slotName, worldName,
	).First(&slot)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "slot not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get tracked slot")
	}

	return &slot, nil
}

func (r *WorldRepository) MarkTrackedSlotFree(worldName, slotName string) (int64, error) {
	result := r.db.Model(&models.TrackedSlot{}).
		Where("name = ? AND world_id IN (SELECT id FROM tracked_worlds WHERE name = ?)", slotName, worldName).
		Update("free", true)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to mark slot free")
	}
	return result.RowsAffected, nil
}

// ApplyScrape writes the freshly scraped state of one tracked slot.
func (r *WorldRepository) ApplyScrape(slotID uint, status models.SlotStatus, checks, checksTotal int64, lastActivity *int64) error {
	result := r.db.Model(&models.TrackedSlot{}).Where("id = ?", slotID).Updates(map[string]interface{}{
		"status":        status,
		"checks":        checks,
		"checks_total":  checksTotal,
		"last_activity": lastActivity,
	})
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to apply scrape")
	}
	return nil
}

func (r *WorldRepository) CreateStatusUpdate(update *models.StatusUpdate) error {
	if err := r.db.Create(update).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to record status update")
	}
	return nil
}

// ClaimantForPriorSlot finds who claimed the same-named slot in a prior
// tracked world, used by the import-claims option at tracking start.
func (r *WorldRepository) ClaimantForPriorSlot(priorWorldName, slotName string) (*uint, error) {
	var claim models.Claim
	err := r.db.Where(
		"slot_id IN (SELECT id FROM tracked_slots WHERE name = ? AND world_id IN (SELECT id FROM tracked_worlds WHERE name = ?))",
		slotName, priorWorldName,
	).First(&claim).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get prior claim")
	}
	return &claim.PlayerID, nil
}

// WorldOverview is one row of the per-world status summary.
type WorldOverview struct {
	Name       string
	Unclaimed  int64
	InProgress int64
	Goal       int64
	AllChecks  int64
	Done       int64
}

// Overview aggregates tracked slot states per world: unclaimed counts slots
// without a claim, the status buckets count claimed slots.
func (r *WorldRepository) Overview() ([]WorldOverview, error) {
	var overview []WorldOverview
	err := r.db.Raw(`
		SELECT tracked_worlds.name AS name,
			COUNT(*) FILTER (WHERE claims.id IS NULL) AS unclaimed,
			COUNT(*) FILTER (WHERE claims.id IS NOT NULL AND tracked_slots.status IN (?, ?)) AS in_progress,
			COUNT(*) FILTER (WHERE claims.id IS NOT NULL AND tracked_slots.status = ?) AS goal,
			COUNT(*) FILTER (WHERE claims.id IS NOT NULL AND tracked_slots.status = ?) AS all_checks,
			COUNT(*) FILTER (WHERE claims.id IS NOT NULL AND tracked_slots.status = ?) AS done
		FROM tracked_worlds
		JOIN tracked_slots ON tracked_slots.world_id = tracked_worlds.id
		LEFT JOIN claims ON claims.slot_id = tracked_slots.id
		GROUP BY tracked_worlds.id, tracked_worlds.name
		ORDER BY tracked_worlds.id`,
		models.StatusUnstarted, models.StatusInProgress,
		models.StatusGoal, models.StatusAllChecks, models.StatusDone,
	).Scan(&overview).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get overview")
	}
	return overview, nil
}

// ExportRow is one spreadsheet line of the live summary mirror.
type ExportRow struct {
	World  string
	Slot   string
	Status models.SlotStatus
	Free   bool
	Player *string
}

func (r *WorldRepository) ExportRows() ([]ExportRow, error) {
	var rows []ExportRow
	err := r.db.Raw(`
		SELECT tracked_worlds.name AS world,
			tracked_slots.name AS slot,
			tracked_slots.status AS status,
			tracked_slots.free AS free,
			players.name AS player
		FROM tracked_slots
		JOIN tracked_worlds ON tracked_worlds.id = tracked_slots.world_id
		LEFT JOIN claims ON claims.slot_id = tracked_slots.id
		LEFT JOIN players ON players.id = claims.player_id
		ORDER BY tracked_worlds.id, tracked_slots.name`).Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get export rows")
	}
	return rows, nil
}
