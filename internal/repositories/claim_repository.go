package repositories

import (
	"github.com/multiarchi/claimsbot/internal/models"
	"github.com/multiarchi/claimsbot/pkg/errors"
	"gorm.io/gorm"
)

// ClaimRepository owns claim rows and the two capacity projections the
// admission policy depends on. Every code path that counts claims goes
// through these two queries so the limits cannot drift between the preclaim
// and claim paths.
type ClaimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// CountInReality is the current-claims projection: the number of
// capacity-consuming claims the player holds in the given reality, or in the
// no-reality pool when realityID is nil.
func (r *ClaimRepository) CountInReality(tx *gorm.DB, playerID uint, realityID *uint) (int64, error) {
	if tx == nil {
		tx = r.db
	}

	query := tx.Model(&models.Claim{}).
		Joins("JOIN tracked_slots ON tracked_slots.id = claims.slot_id").
		Joins("JOIN tracked_worlds ON tracked_worlds.id = tracked_slots.world_id").
		Where("claims.player_id = ? AND tracked_slots.free = false", playerID)

	if realityID != nil {
		query = query.Where("tracked_worlds.reality_id = ?", *realityID)
	} else {
		query = query.Where("tracked_worlds.reality_id IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count current claims")
	}
	return count, nil
}

// CurrentRealities is the current-realities projection: the distinct
// realities the player holds at least one capacity-consuming claim in. The
// no-reality pool is not a reality and never appears here.
func (r *ClaimRepository) CurrentRealities(tx *gorm.DB, playerID uint) ([]uint, error) {
	if tx == nil {
		tx = r.db
	}

	var realities []uint
	err := tx.Model(&models.Claim{}).
		Joins("JOIN tracked_slots ON tracked_slots.id = claims.slot_id").
		Joins("JOIN tracked_worlds ON tracked_worlds.id = tracked_slots.world_id").
		Where("claims.player_id = ? AND tracked_slots.free = false AND tracked_worlds.reality_id IS NOT NULL", playerID).
		Distinct().
		Pluck("tracked_worlds.reality_id", &realities).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get current realities")
	}
	return realities, nil
}

func (r *ClaimRepository) Create(tx *gorm.DB, claim *models.Claim) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(claim).Error
}

func (r *ClaimRepository) ExistsForSlot(tx *gorm.DB, slotID uint) (bool, error) {
	if tx == nil {
		tx = r.db
	}

	var count int64
	if err := tx.Model(&models.Claim{}).Where("slot_id = ?", slotID).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check claim for slot")
	}
	return count > 0, nil
}

func (r *ClaimRepository) GetBySlotID(slotID uint) (*models.Claim, error) {
	var claim models.Claim
	result := r.db.Where("slot_id = ?", slotID).First(&claim)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "claim not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get claim")
	}

	return &claim, nil
}

func (r *ClaimRepository) DeleteBySlotID(slotID uint) (int64, error) {
	result := r.db.Where("slot_id = ?", slotID).Delete(&models.Claim{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to delete claim")
	}
	return result.RowsAffected, nil
}

// PlayerClaimRow is one line of a player's claim listing.
type PlayerClaimRow struct {
	World  string
	Slot   string
	Status models.SlotStatus
	Free   bool
}

func (r *ClaimRepository) ListByPlayer(playerID uint) ([]PlayerClaimRow, error) {
	var rows []PlayerClaimRow
	err := r.db.Raw(`
		SELECT tracked_worlds.name AS world,
			tracked_slots.name AS slot,
			tracked_slots.status AS status,
			tracked_slots.free AS free
		FROM claims
		JOIN tracked_slots ON tracked_slots.id = claims.slot_id
		JOIN tracked_worlds ON tracked_worlds.id = tracked_slots.world_id
		WHERE claims.player_id = ?
		ORDER BY tracked_worlds.id, tracked_slots.name`, playerID).Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list claims")
	}
	return rows, nil
}

func (r *ClaimRepository) SetPublic(slotID uint, description string) error {
	result := r.db.Model(&models.Claim{}).Where("slot_id = ?", slotID).Update("public", description)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to set claim description")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "claim not found")
	}
	return nil
}
