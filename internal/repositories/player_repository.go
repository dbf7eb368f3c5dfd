package repositories

import (
	"github.com/multiarchi/claimsbot/internal/models"
	"github.com/multiarchi/claimsbot/pkg/errors"
	"gorm.io/gorm"
)

type PlayerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GetOrCreate upserts a player by telegram ID. Players are created lazily on
// first interaction and never deleted.
func (r *PlayerRepository) GetOrCreate(telegramID int64, name string) (*models.Player, error) {
	var player models.Player
	result := r.db.Where("telegram_id = ?", telegramID).First(&player)
	if result.Error == nil {
		return &player, nil
	}
	if result.Error != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get player")
	}

	player = models.Player{TelegramID: telegramID, Name: name}
	if err := r.db.Create(&player).Error; err != nil {
		// Lost a create race; the row exists now.
		if retry := r.db.Where("telegram_id = ?", telegramID).First(&player); retry.Error == nil {
			return &player, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create player")
	}
	return &player, nil
}

func (r *PlayerRepository) GetByID(id uint) (*models.Player, error) {
	var player models.Player
	result := r.db.First(&player, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "player not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get player")
	}

	return &player, nil
}

func (r *PlayerRepository) GetByTelegramID(telegramID int64) (*models.Player, error) {
	var player models.Player
	result := r.db.Where("telegram_id = ?", telegramID).First(&player)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "player not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get player")
	}

	return &player, nil
}

// GetByName finds a player by display name, case insensitively.
func (r *PlayerRepository) GetByName(name string) (*models.Player, error) {
	var player models.Player
	result := r.db.Where("lower(name) = lower(?)", name).First(&player)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "player not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get player")
	}

	return &player, nil
}

// SetTransferTarget redirects future point awards to another player, or
// clears the redirect when target is nil.
func (r *PlayerRepository) SetTransferTarget(playerID uint, target *uint) error {
	result := r.db.Model(&models.Player{}).Where("id = ?", playerID).Update("transfer_to", target)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to set transfer target")
	}
	return nil
}

func (r *PlayerRepository) SetModerator(playerID uint, moderator bool) error {
	result := r.db.Model(&models.Player{}).Where("id = ?", playerID).Update("moderator", moderator)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to set moderator flag")
	}
	return nil
}

func (r *PlayerRepository) SetUnspentPointsByName(name string, unspent int64) error {
	result := r.db.Model(&models.Player{}).Where("lower(name) = lower(?)", name).Update("unspent_points", unspent)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to set unspent points")
	}
	return nil
}

// ListAll returns every player ordered by id, used for the export mirror.
func (r *PlayerRepository) ListAll() ([]models.Player, error) {
	var players []models.Player
	if err := r.db.Order("id").Find(&players).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list players")
	}
	return players, nil
}
