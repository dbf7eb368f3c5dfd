package services

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/multiarchi/claimsbot/internal/models"
	"github.com/multiarchi/claimsbot/internal/repositories"
	"github.com/multiarchi/claimsbot/pkg/errors"
	"github.com/multiarchi/claimsbot/pkg/logger"
)

// PreclaimService owns the preclaim lifecycle: taking requests while a
// world's window is open and running the lottery that turns them into
// winners once tracking begins.
type PreclaimService struct {
	preclaimRepo *repositories.PreclaimRepository
	worldRepo    *repositories.WorldRepository
	playerRepo   *repositories.PlayerRepository
	admission    *AdmissionService
	notifier     Notifier
	rng          *rand.Rand
}

func NewPreclaimService(
	preclaimRepo *repositories.PreclaimRepository,
	worldRepo *repositories.WorldRepository,
	playerRepo *repositories.PlayerRepository,
	admission *AdmissionService,
	notifier Notifier,
	rng *rand.Rand,
) *PreclaimService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &PreclaimService{
		preclaimRepo: preclaimRepo,
		worldRepo:    worldRepo,
		playerRepo:   playerRepo,
		admission:    admission,
		notifier:     notifier,
		rng:          rng,
	}
}

// Request registers a pending preclaim on a slot of a pre-tracking world. A
// player holds at most one pending preclaim, so any previous one is dropped
// first.
func (s *PreclaimService) Request(telegramID int64, playerName, worldName, slotName string) (*models.Slot, error) {
	player, err := s.playerRepo.GetOrCreate(telegramID, playerName)
	if err != nil {
		return nil, err
	}

	world, err := s.worldRepo.GetWorldByName(worldName)
	if err != nil {
		return nil, err
	}
	if !world.PreclaimsOpen(time.Now()) {
		return nil, errors.New(errors.ErrCodeValidation, "the preclaim window for this world has closed")
	}

	slot, err := s.worldRepo.FindSlot(worldName, slotName)
	if err != nil {
		return nil, err
	}

	// Advisory early feedback; admission is re-checked at resolution, so a
	// player who frees up capacity before the window closes still wins.
	if err := s.admission.CanClaim(nil, player.ID, world.Reality); err != nil {
		return nil, err
	}

	if _, err := s.preclaimRepo.DeletePendingByPlayer(player.ID); err != nil {
		return nil, err
	}
	preclaim := &models.Preclaim{SlotID: slot.ID, PlayerID: player.ID}
	if err := s.preclaimRepo.Create(preclaim); err != nil {
		return nil, err
	}

	return slot, nil
}

// Withdraw removes the player's pending preclaims in worlds whose window is
// still open and reports how many were dropped.
func (s *PreclaimService) Withdraw(telegramID int64, playerName string) (int64, error) {
	player, err := s.playerRepo.GetOrCreate(telegramID, playerName)
	if err != nil {
		return 0, err
	}
	return s.preclaimRepo.DeletePendingForOpenWorlds(player.ID, time.Now().Unix())
}

// PendingSlot names the slot the player currently has a pending preclaim on.
func (s *PreclaimService) PendingSlot(telegramID int64, playerName string) (string, error) {
	player, err := s.playerRepo.GetOrCreate(telegramID, playerName)
	if err != nil {
		return "", err
	}
	return s.preclaimRepo.PendingSlotName(player.ID)
}

// Resolve runs the preclaim lottery for a world and returns the winning
// (slot, player) pairs. Resolving is idempotent: once a world is marked
// resolved, later calls return the recorded outcome instead of drawing again.
func (s *PreclaimService) Resolve(worldName string) ([]repositories.PreclaimPair, error) {
	world, err := s.worldRepo.GetWorldByName(worldName)
	if err != nil {
		return nil, err
	}
	if world.ResolvedPreclaims {
		return s.preclaimRepo.WonForWorld(worldName)
	}

	// The flip both supersedes every pending preclaim and fixes the contender
	// set; a concurrent resolution sees no pending rows left.
	pairs, err := s.preclaimRepo.FlipPendingToSuperseded(worldName)
	if err != nil {
		return nil, err
	}

	eligible := make([]repositories.PreclaimPair, 0, len(pairs))
	for _, pair := range pairs {
		if err := s.admission.CanClaim(nil, pair.PlayerID, world.Reality); err != nil {
			if code := errors.Code(err); code == errors.ErrCodeTooManyRealities || code == errors.ErrCodeNoAvailableClaim {
				logger.Info("Preclaim contender dropped at resolution",
					"world", worldName, "player", pair.PlayerID, "reason", code)
				continue
			}
			return nil, err
		}
		eligible = append(eligible, pair)
	}

	winners := pickWinners(eligible, s.rng)

	for _, winner := range winners {
		if err := s.preclaimRepo.MarkWon(winner.SlotID, winner.PlayerID); err != nil {
			// The draw stands even if recording it fails; surface the gap so
			// an operator can fix the row.
			logger.Error("Failed to record preclaim winner",
				"world", worldName, "slot", winner.SlotID, "player", winner.PlayerID, "error", err)
			if s.notifier != nil {
				_ = s.notifier.Notify(fmt.Sprintf(
					"Failed to record preclaim winner for slot %d in %s, please check the preclaims table.",
					winner.SlotID, worldName))
			}
		}
	}

	if err := s.worldRepo.MarkPreclaimsResolved(worldName); err != nil {
		return nil, err
	}

	return winners, nil
}

// ResolveDue runs the lottery for every world whose preclaim window has
// closed, announcing each outcome. Called on a schedule; admins can also
// resolve a single world explicitly.
func (s *PreclaimService) ResolveDue(now time.Time) {
	names, err := s.worldRepo.DueWorldNames(now.Unix())
	if err != nil {
		logger.Error("Failed to list due preclaim windows", "error", err)
		return
	}

	for _, name := range names {
		winners, err := s.Resolve(name)
		if err != nil {
			logger.Error("Preclaim resolution failed", "world", name, "error", err)
			continue
		}
		s.announce(name, winners)
	}
}

// ResolveNow resolves one world on demand, announcing the outcome.
func (s *PreclaimService) ResolveNow(worldName string) ([]repositories.PreclaimPair, error) {
	winners, err := s.Resolve(worldName)
	if err != nil {
		return nil, err
	}
	s.announce(worldName, winners)
	return winners, nil
}

func (s *PreclaimService) announce(worldName string, winners []repositories.PreclaimPair) {
	if s.notifier == nil {
		return
	}
	if len(winners) == 0 {
		_ = s.notifier.Notify(fmt.Sprintf("Preclaims for %s are closed. No lottery entries this time.", worldName))
		return
	}

	lines := []string{fmt.Sprintf("Preclaims for %s are resolved:", worldName)}
	for _, winner := range winners {
		slotName := fmt.Sprintf("slot %d", winner.SlotID)
		if slot, err := s.worldRepo.GetSlotByID(winner.SlotID); err == nil {
			slotName = slot.Name
		}
		playerName := fmt.Sprintf("player %d", winner.PlayerID)
		if player, err := s.playerRepo.GetByID(winner.PlayerID); err == nil {
			playerName = player.Name
		}
		lines = append(lines, fmt.Sprintf("  %s goes to %s", slotName, playerName))
	}
	_ = s.notifier.Notify(strings.Join(lines, "\n"))
}

// pickWinners draws one winner per slot, uniformly among that slot's
// contenders. Slot order follows first appearance in pairs.
func pickWinners(pairs []repositories.PreclaimPair, rng *rand.Rand) []repositories.PreclaimPair {
	bySlot := make(map[uint][]uint)
	var order []uint
	for _, pair := range pairs {
		if _, seen := bySlot[pair.SlotID]; !seen {
			order = append(order, pair.SlotID)
		}
		bySlot[pair.SlotID] = append(bySlot[pair.SlotID], pair.PlayerID)
	}

	winners := make([]repositories.PreclaimPair, 0, len(order))
	for _, slotID := range order {
		contenders := bySlot[slotID]
		winners = append(winners, repositories.PreclaimPair{
			SlotID:   slotID,
			PlayerID: contenders[rng.Intn(len(contenders))],
		})
	}
	return winners
}
