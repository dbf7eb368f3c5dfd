package repositories

import (
	"github.com/multiarchi/claimsbot/internal/models"
	"github.com/multiarchi/claimsbot/pkg/errors"
	"gorm.io/gorm"
)

// PreclaimPair is one (slot, player) contender returned by the lottery flip.
type PreclaimPair struct {
	SlotID   uint
	PlayerID uint
}

type PreclaimRepository struct {
	db *gorm.DB
}

func NewPreclaimRepository(db *gorm.DB) *PreclaimRepository {
	return &PreclaimRepository{db: db}
}

// Create inserts a pending preclaim. Callers must delete the player's
// previous pending preclaim first; the one-pending-per-player rule is
// delete-before-insert.
func (r *PreclaimRepository) Create(preclaim *models.Preclaim) error {
	if err := r.db.Create(preclaim).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create preclaim")
	}
	return nil
}

func (r *PreclaimRepository) DeletePendingByPlayer(playerID uint) (int64, error) {
	result := r.db.Where("player_id = ? AND status = ?", playerID, models.PreclaimPending).Delete(&models.Preclaim{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to delete pending preclaims")
	}
	return result.RowsAffected, nil
}

// DeletePendingForOpenWorlds removes the player's pending preclaims in worlds
// whose preclaim window is still open (the user-facing unpreclaim action).
func (r *PreclaimRepository) DeletePendingForOpenWorlds(playerID uint, now int64) (int64, error) {
	result := r.db.Where(
		"player_id = ? AND status = ? AND slot_id IN (SELECT id FROM slots WHERE world_id IN (SELECT id FROM worlds WHERE preclaim_end > ?))",
		playerID, models.PreclaimPending, now,
	).Delete(&models.Preclaim{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to delete preclaim")
	}
	return result.RowsAffected, nil
}

// FlipPendingToSuperseded atomically marks every pending preclaim under the
// named world as superseded and returns the affected pairs. The single
// UPDATE ... RETURNING statement claims the contender set, so a concurrent
// resolver invocation cannot read the same rows.
func (r *PreclaimRepository) FlipPendingToSuperseded(worldName string) ([]PreclaimPair, error) {
	var pairs []PreclaimPair
	err := r.db.Raw(
		`UPDATE preclaims SET status = ?
		 WHERE status = ?
		   AND slot_id IN (SELECT id FROM slots WHERE world_id IN (SELECT id FROM worlds WHERE name = ?))
		 RETURNING slot_id, player_id`,
		models.PreclaimSuperseded, models.PreclaimPending, worldName,
	).Scan(&pairs).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to supersede preclaims")
	}
	return pairs, nil
}

func (r *PreclaimRepository) MarkWon(slotID, playerID uint) error {
	result := r.db.Model(&models.Preclaim{}).
		Where("slot_id = ? AND player_id = ?", slotID, playerID).
		Update("status", models.PreclaimWon)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to mark preclaim won")
	}
	return nil
}

// WonForWorld returns the recorded lottery outcome for an already resolved
// world.
func (r *PreclaimRepository) WonForWorld(worldName string) ([]PreclaimPair, error) {
	var pairs []PreclaimPair
	err := r.db.Raw(
		`SELECT slot_id, player_id FROM preclaims
		 WHERE status = ?
		   AND slot_id IN (SELECT id FROM slots WHERE world_id IN (SELECT id FROM worlds WHERE name = ?))`,
		models.PreclaimWon, worldName,
	).Scan(&pairs).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get won preclaims")
	}
	return pairs, nil
}

// WonPlayerForSlotName finds the lottery winner for a slot by name, used when
// transferring preclaims into claims at tracking start.
func (r *PreclaimRepository) WonPlayerForSlotName(worldName, slotName string) (*uint, error) {
	var preclaim models.Preclaim
	err := r.db.Where(
		"status = ? AND slot_id IN (SELECT id FROM slots WHERE name = ? AND world_id IN (SELECT id FROM worlds WHERE name = ?))",
		models.PreclaimWon, slotName, worldName,
	).First(&preclaim).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get won preclaim")
	}
	return &preclaim.PlayerID, nil
}

// PendingSlotName returns the name of the slot the player currently has a
// pending preclaim on, or "" when there is none.
func (r *PreclaimRepository) PendingSlotName(playerID uint) (string, error) {
	var names []string
	err := r.db.Model(&models.Slot{}).
		Joins("JOIN preclaims ON preclaims.slot_id = slots.id").
		Where("preclaims.player_id = ? AND preclaims.status = ?", playerID, models.PreclaimPending).
		Limit(1).
		Pluck("slots.name", &names).Error
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to get pending preclaim")
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}
