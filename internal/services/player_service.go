package services

import (
	"github.com/multiarchi/claimsbot/internal/models"
	"github.com/multiarchi/claimsbot/internal/repositories"
	"github.com/multiarchi/claimsbot/pkg/errors"
)

// PlayerStatus is the player's own summary: points, claims and any pending
// preclaim.
type PlayerStatus struct {
	Player          *models.Player
	Claims          []repositories.PlayerClaimRow
	PendingPreclaim string
}

type PlayerService struct {
	playerRepo   *repositories.PlayerRepository
	claimRepo    *repositories.ClaimRepository
	preclaimRepo *repositories.PreclaimRepository
}

func NewPlayerService(
	playerRepo *repositories.PlayerRepository,
	claimRepo *repositories.ClaimRepository,
	preclaimRepo *repositories.PreclaimRepository,
) *PlayerService {
	return &PlayerService{
		playerRepo:   playerRepo,
		claimRepo:    claimRepo,
		preclaimRepo: preclaimRepo,
	}
}

func (s *PlayerService) Register(telegramID int64, name string) (*models.Player, error) {
	return s.playerRepo.GetOrCreate(telegramID, name)
}

// Status gathers everything a player sees about themselves.
func (s *PlayerService) Status(telegramID int64, name string) (*PlayerStatus, error) {
	player, err := s.playerRepo.GetOrCreate(telegramID, name)
	if err != nil {
		return nil, err
	}

	claims, err := s.claimRepo.ListByPlayer(player.ID)
	if err != nil {
		return nil, err
	}

	pending, err := s.preclaimRepo.PendingSlotName(player.ID)
	if err != nil {
		return nil, err
	}

	return &PlayerStatus{Player: player, Claims: claims, PendingPreclaim: pending}, nil
}

// SetTransfer redirects the player's future point awards to the named
// player, or clears the redirect when targetName is empty.
func (s *PlayerService) SetTransfer(telegramID int64, name, targetName string) error {
	player, err := s.playerRepo.GetOrCreate(telegramID, name)
	if err != nil {
		return err
	}

	if targetName == "" {
		return s.playerRepo.SetTransferTarget(player.ID, nil)
	}

	target, err := s.playerRepo.GetByName(targetName)
	if err != nil {
		return err
	}
	if target.ID == player.ID {
		return errors.New(errors.ErrCodeValidation, "you cannot transfer points to yourself")
	}
	return s.playerRepo.SetTransferTarget(player.ID, &target.ID)
}

// SetModerator flips the moderator flag on the named player.
func (s *PlayerService) SetModerator(telegramID int64, moderator bool) error {
	player, err := s.playerRepo.GetByTelegramID(telegramID)
	if err != nil {
		return err
	}
	return s.playerRepo.SetModerator(player.ID, moderator)
}

// IsModerator reports whether the player carries the moderator flag.
func (s *PlayerService) IsModerator(telegramID int64) bool {
	player, err := s.playerRepo.GetByTelegramID(telegramID)
	if err != nil {
		return false
	}
	return player.Moderator
}
