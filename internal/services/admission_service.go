package services

import (
	"github.com/multiarchi/claimsbot/internal/models"
	"github.com/multiarchi/claimsbot/internal/repositories"
	"github.com/multiarchi/claimsbot/pkg/errors"
	"gorm.io/gorm"
)

// AdmissionService decides whether a player may take on another claim. The
// same decision gates both the live claim path and the preclaim lottery, so
// neither can admit a player the other would reject.
type AdmissionService struct {
	claimRepo       *repositories.ClaimRepository
	maxRealities    int
	noRealityClaims int64
}

func NewAdmissionService(claimRepo *repositories.ClaimRepository, maxRealities int, noRealityClaims int64) *AdmissionService {
	return &AdmissionService{
		claimRepo:       claimRepo,
		maxRealities:    maxRealities,
		noRealityClaims: noRealityClaims,
	}
}

// CanClaim checks the two capacity rules for the given player against the
// target reality (nil means the shared no-reality pool). Pass tx to evaluate
// inside a claim transaction.
func (s *AdmissionService) CanClaim(tx *gorm.DB, playerID uint, reality *models.Reality) error {
	var realityID *uint
	maxClaims := s.noRealityClaims
	if reality != nil {
		realityID = &reality.ID
		maxClaims = reality.MaxClaims
	}

	current, err := s.claimRepo.CurrentRealities(tx, playerID)
	if err != nil {
		return err
	}

	count, err := s.claimRepo.CountInReality(tx, playerID, realityID)
	if err != nil {
		return err
	}

	return decideAdmission(realityID, maxClaims, current, count, s.maxRealities)
}

// decideAdmission is the pure admission rule. A player may hold claims in at
// most maxRealities distinct realities; the no-reality pool does not count as
// one. Within the target pool the player may hold at most maxClaims
// capacity-consuming claims.
func decideAdmission(target *uint, maxClaims int64, currentRealities []uint, currentCount int64, maxRealities int) error {
	if target != nil && len(currentRealities) >= maxRealities && !containsReality(currentRealities, *target) {
		return errors.New(errors.ErrCodeTooManyRealities, "player is already claiming in the maximum number of realities")
	}
	if currentCount >= maxClaims {
		return errors.New(errors.ErrCodeNoAvailableClaim, "player has no claim capacity left in this reality")
	}
	return nil
}

func containsReality(realities []uint, id uint) bool {
	for _, r := range realities {
		if r == id {
			return true
		}
	}
	return false
}
