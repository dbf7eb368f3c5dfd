package services

import (
	stderrors "errors"

	"github.com/multiarchi/claimsbot/internal/models"
	"github.com/multiarchi/claimsbot/internal/repositories"
	"github.com/multiarchi/claimsbot/pkg/errors"
	"github.com/multiarchi/claimsbot/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExportMarker flags the exported summary as stale so the next scheduled
// push rewrites it.
type ExportMarker interface {
	MarkPending()
}

// ClaimService admits players onto tracked slots. Admission and insertion
// happen in one transaction holding the player's row lock, so two concurrent
// claims by the same player cannot both pass the capacity check.
type ClaimService struct {
	db           *gorm.DB
	claimRepo    *repositories.ClaimRepository
	preclaimRepo *repositories.PreclaimRepository
	worldRepo    *repositories.WorldRepository
	playerRepo   *repositories.PlayerRepository
	admission    *AdmissionService
	exporter     ExportMarker
}

func NewClaimService(
	db *gorm.DB,
	claimRepo *repositories.ClaimRepository,
	preclaimRepo *repositories.PreclaimRepository,
	worldRepo *repositories.WorldRepository,
	playerRepo *repositories.PlayerRepository,
	admission *AdmissionService,
	exporter ExportMarker,
) *ClaimService {
	return &ClaimService{
		db:           db,
		claimRepo:    claimRepo,
		preclaimRepo: preclaimRepo,
		worldRepo:    worldRepo,
		playerRepo:   playerRepo,
		admission:    admission,
		exporter:     exporter,
	}
}

// Claim takes the named tracked slot for the player. Free slots bypass the
// capacity rules but still admit only one claimant. Claiming forfeits the
// player's pending preclaims elsewhere.
func (s *ClaimService) Claim(telegramID int64, playerName, worldName, slotName string) (*models.TrackedSlot, error) {
	player, err := s.playerRepo.GetOrCreate(telegramID, playerName)
	if err != nil {
		return nil, err
	}

	slot, err := s.worldRepo.FindTrackedSlot(worldName, slotName)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Serialize this player's claims; the capacity projections are only
		// trustworthy while no sibling transaction is inserting for them.
		var locked models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, player.ID).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock player")
		}

		if !slot.Free {
			reality, err := s.worldRepo.RealityForTrackedSlot(tx, slot.ID)
			if err != nil {
				return err
			}
			if err := s.admission.CanClaim(tx, player.ID, reality); err != nil {
				return err
			}
		}

		taken, err := s.claimRepo.ExistsForSlot(tx, slot.ID)
		if err != nil {
			return err
		}
		if taken {
			return errors.New(errors.ErrCodeAlreadyClaimed, "this slot is already claimed")
		}

		if err := s.claimRepo.Create(tx, &models.Claim{SlotID: slot.ID, PlayerID: player.ID}); err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.New(errors.ErrCodeAlreadyClaimed, "this slot is already claimed")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create claim")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.preclaimRepo.DeletePendingByPlayer(player.ID); err != nil {
		// The claim already stands; losing the forfeit only means a stale
		// pending row until the next lottery supersedes it.
		logger.Warn("Failed to forfeit pending preclaims after claim",
			"player", player.ID, "error", err)
	}

	if s.exporter != nil {
		s.exporter.MarkPending()
	}
	return slot, nil
}

// Unclaim releases a slot regardless of who holds it. Moderator action.
func (s *ClaimService) Unclaim(worldName, slotName string) error {
	slot, err := s.worldRepo.FindTrackedSlot(worldName, slotName)
	if err != nil {
		return err
	}
	rows, err := s.claimRepo.DeleteBySlotID(slot.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.New(errors.ErrCodeNotFound, "slot is not claimed")
	}
	if s.exporter != nil {
		s.exporter.MarkPending()
	}
	return nil
}

// SetPublic stores a player-facing description on the player's own claim.
func (s *ClaimService) SetPublic(telegramID int64, playerName, worldName, slotName, description string) error {
	player, err := s.playerRepo.GetOrCreate(telegramID, playerName)
	if err != nil {
		return err
	}

	slot, err := s.worldRepo.FindTrackedSlot(worldName, slotName)
	if err != nil {
		return err
	}

	claim, err := s.claimRepo.GetBySlotID(slot.ID)
	if err != nil {
		return err
	}
	if claim.PlayerID != player.ID {
		return errors.New(errors.ErrCodeForbidden, "you can only describe your own claim")
	}

	return s.claimRepo.SetPublic(slot.ID, description)
}

// Claimant returns the player holding a slot, or a not-found error.
func (s *ClaimService) Claimant(worldName, slotName string) (*models.Player, error) {
	slot, err := s.worldRepo.FindTrackedSlot(worldName, slotName)
	if err != nil {
		return nil, err
	}
	claim, err := s.claimRepo.GetBySlotID(slot.ID)
	if err != nil {
		return nil, err
	}
	return s.playerRepo.GetByID(claim.PlayerID)
}
