package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/multiarchi/claimsbot/internal/models"
	"github.com/multiarchi/claimsbot/internal/repositories"
	"github.com/multiarchi/claimsbot/internal/tracker"
	"github.com/multiarchi/claimsbot/pkg/errors"
	"github.com/multiarchi/claimsbot/pkg/logger"
	"github.com/multiarchi/claimsbot/pkg/utils"
	"gorm.io/gorm"
)

// TrackerFetcher fetches aggregated per-slot data for a tracker id.
type TrackerFetcher interface {
	Fetch(ctx context.Context, trackerID string) (map[string]tracker.SlotData, error)
}

// SlotInput is one slot of a newly announced world, parsed from the slot
// listing an admin posts.
type SlotInput struct {
	Name   string
	Games  string
	Notes  string
	Points string
}

// TrackOptions tune how a world enters tracking.
type TrackOptions struct {
	// UseClaims false marks every slot free, outside the capacity rules.
	UseClaims bool
	// AwardsPoints false zeroes every slot's point value.
	AwardsPoints bool
	// ImportFrom copies claims from the same-named slots of a previously
	// tracked world.
	ImportFrom string
	// RealityName overrides the reality inherited from the pre-tracking
	// world.
	RealityName string
}

// TrackResult summarizes what tracking start produced.
type TrackResult struct {
	World     *models.TrackedWorld
	Slots     int
	Claimed   int
	Unclaimed int
}

// WorldService owns the world lifecycle: announcement with a preclaim
// window, entry into tracking, scrape refreshes, and the transactional
// finish that pays out points.
type WorldService struct {
	db                *gorm.DB
	worldRepo         *repositories.WorldRepository
	claimRepo         *repositories.ClaimRepository
	preclaimRepo      *repositories.PreclaimRepository
	preclaims         *PreclaimService
	fetcher           TrackerFetcher
	notifier          Notifier
	exporter          ExportMarker
	scrapeMinInterval time.Duration
}

func NewWorldService(
	db *gorm.DB,
	worldRepo *repositories.WorldRepository,
	claimRepo *repositories.ClaimRepository,
	preclaimRepo *repositories.PreclaimRepository,
	preclaims *PreclaimService,
	fetcher TrackerFetcher,
	notifier Notifier,
	exporter ExportMarker,
	scrapeMinInterval time.Duration,
) *WorldService {
	return &WorldService{
		db:                db,
		worldRepo:         worldRepo,
		claimRepo:         claimRepo,
		preclaimRepo:      preclaimRepo,
		preclaims:         preclaims,
		fetcher:           fetcher,
		notifier:          notifier,
		exporter:          exporter,
		scrapeMinInterval: scrapeMinInterval,
	}
}

// NewReality registers a claim-capacity pool.
func (s *WorldService) NewReality(name string, maxClaims int64) error {
	if maxClaims < 1 {
		return errors.New(errors.ErrCodeValidation, "max claims must be a positive number")
	}
	return s.worldRepo.CreateReality(&models.Reality{Name: name, MaxClaims: maxClaims})
}

// NewWorld announces a world and opens its preclaim window.
func (s *WorldService) NewWorld(name, realityName string, preclaimEnd time.Time, slots []SlotInput) (*models.World, error) {
	if len(slots) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "a world needs at least one slot")
	}
	if preclaimEnd.Before(time.Now()) {
		return nil, errors.New(errors.ErrCodeValidation, "the preclaim window must end in the future")
	}

	var realityID *uint
	if realityName != "" {
		reality, err := s.worldRepo.GetRealityByName(realityName)
		if err != nil {
			return nil, err
		}
		realityID = &reality.ID
	}

	world := &models.World{
		Name:        name,
		RealityID:   realityID,
		PreclaimEnd: preclaimEnd.Unix(),
	}
	if err := s.worldRepo.CreateWorld(world); err != nil {
		return nil, err
	}

	rows := make([]models.Slot, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, models.Slot{
			WorldID: world.ID,
			Name:    slot.Name,
			Games:   slot.Games,
			Notes:   slot.Notes,
			Points:  slot.Points,
		})
	}
	if err := s.worldRepo.CreateSlots(rows); err != nil {
		return nil, err
	}

	return world, nil
}

// Reschedule moves a world's preclaim deadline.
func (s *WorldService) Reschedule(worldName string, preclaimEnd time.Time) error {
	return s.worldRepo.UpdatePreclaimEnd(worldName, preclaimEnd.Unix())
}

// Cancel withdraws an announced world before tracking, dropping its slots
// and preclaims.
func (s *WorldService) Cancel(worldName string) error {
	return s.worldRepo.DeleteWorldByName(worldName)
}

// Track moves a world into tracking: it resolves the preclaim lottery,
// scrapes the initial slot states, and seats the lottery winners as claims.
func (s *WorldService) Track(ctx context.Context, worldName, trackerURL string, opts TrackOptions) (*TrackResult, error) {
	if _, err := s.worldRepo.GetTrackedWorldByName(worldName); err == nil {
		return nil, errors.New(errors.ErrCodeValidation, "this world is already tracked")
	} else if errors.Code(err) != errors.ErrCodeNotFound {
		return nil, err
	}

	// Resolve the lottery first so winners exist before slots go claimable.
	// A world may also be tracked directly without an announcement phase.
	var realityID *uint
	hasAnnouncement := true
	if world, err := s.worldRepo.GetWorldByName(worldName); err == nil {
		realityID = world.RealityID
		if _, err := s.preclaims.Resolve(worldName); err != nil {
			return nil, err
		}
	} else if errors.Code(err) == errors.ErrCodeNotFound {
		hasAnnouncement = false
	} else {
		return nil, err
	}

	if opts.RealityName != "" {
		reality, err := s.worldRepo.GetRealityByName(opts.RealityName)
		if err != nil {
			return nil, err
		}
		realityID = &reality.ID
	}

	trackerID := tracker.IDFromURL(trackerURL)
	scraped, err := s.fetcher.Fetch(ctx, trackerID)
	if err != nil {
		return nil, err
	}
	if len(scraped) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "the tracker page lists no slots")
	}

	world := &models.TrackedWorld{
		TrackerID:  trackerID,
		Name:       worldName,
		RealityID:  realityID,
		LastScrape: time.Now().Unix(),
	}
	if err := s.worldRepo.CreateTrackedWorld(world); err != nil {
		return nil, err
	}

	claimed := 0
	for name, data := range scraped {
		points := int64(0)
		if opts.AwardsPoints {
			points = CalcPoints(data.Games)
		}
		slot := &models.TrackedSlot{
			WorldID:      world.ID,
			Name:         name,
			Games:        utils.FormatGameList(data.Games),
			Status:       data.Status,
			Checks:       data.Checks,
			ChecksTotal:  data.ChecksTotal,
			LastActivity: data.LastActivity,
			Points:       points,
			Free:         !opts.UseClaims,
		}
		if err := s.worldRepo.CreateTrackedSlot(slot); err != nil {
			return nil, err
		}

		if s.seatClaim(world, slot, hasAnnouncement, opts.ImportFrom) {
			claimed++
		}
	}

	if s.exporter != nil {
		s.exporter.MarkPending()
	}

	result := &TrackResult{
		World:     world,
		Slots:     len(scraped),
		Claimed:   claimed,
		Unclaimed: len(scraped) - claimed,
	}
	if s.notifier != nil {
		_ = s.notifier.Notify(fmt.Sprintf(
			"%s is now being tracked: %d slots, %d unclaimed.",
			worldName, result.Slots, result.Unclaimed))
	}
	return result, nil
}

// seatClaim attaches a claim to a fresh tracked slot, from the lottery
// outcome or, failing that, from an imported prior world. Best effort; a
// failed seat leaves the slot claimable.
func (s *WorldService) seatClaim(world *models.TrackedWorld, slot *models.TrackedSlot, hasAnnouncement bool, importFrom string) bool {
	if hasAnnouncement {
		winner, err := s.preclaimRepo.WonPlayerForSlotName(world.Name, slot.Name)
		if err != nil {
			logger.Warn("Failed to look up lottery winner", "world", world.Name, "slot", slot.Name, "error", err)
		} else if winner != nil {
			if err := s.claimRepo.Create(nil, &models.Claim{SlotID: slot.ID, PlayerID: *winner}); err != nil {
				logger.Warn("Failed to seat lottery winner", "world", world.Name, "slot", slot.Name, "error", err)
			} else {
				return true
			}
		}
	}

	if importFrom == "" {
		return false
	}
	prior, err := s.worldRepo.ClaimantForPriorSlot(importFrom, slot.Name)
	if err != nil {
		logger.Warn("Failed to look up imported claim", "world", importFrom, "slot", slot.Name, "error", err)
		return false
	}
	if prior == nil {
		return false
	}
	if err := s.claimRepo.Create(nil, &models.Claim{SlotID: slot.ID, PlayerID: *prior}); err != nil {
		logger.Warn("Failed to import claim", "world", world.Name, "slot", slot.Name, "error", err)
		return false
	}
	return true
}

// FinishOutcome is one slot's closing entry: the claimant's name, or nil for
// a slot nobody held.
type FinishOutcome struct {
	Slot   string
	Player *string
}

// Finish retires a tracked world: it pays out every claimed slot's points,
// honoring transfer redirects, and removes the world and all its rows. Every
// slot appears in the outcome and the report, claimed or not. The whole
// finish is one transaction, the closing report included, so a failed payout
// or announcement leaves the world untouched.
func (s *WorldService) Finish(worldName string) ([]FinishOutcome, error) {
	var outcomes []FinishOutcome
	err := s.db.Transaction(func(tx *gorm.DB) error {
		outcomes = nil
		var world models.TrackedWorld
		if err := tx.Preload("Slots").Where("name = ?", worldName).First(&world).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.ErrCodeNotFound, "world not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get tracked world")
		}

		if err := tx.Exec(
			"DELETE FROM status_updates WHERE slot_id IN (SELECT id FROM tracked_slots WHERE world_id = ?)",
			world.ID,
		).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete status updates")
		}

		lines := []string{fmt.Sprintf("%s has finished!", world.Name)}
		for _, slot := range world.Slots {
			var claim models.Claim
			err := tx.Where("slot_id = ?", slot.ID).First(&claim).Error
			switch {
			case err == gorm.ErrRecordNotFound:
				outcomes = append(outcomes, FinishOutcome{Slot: slot.Name})
				lines = append(lines, fmt.Sprintf("%s went unclaimed", slot.Name))
			case err != nil:
				return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get claim")
			default:
				var claimant models.Player
				if err := tx.First(&claimant, claim.PlayerID).Error; err != nil {
					return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get claimant")
				}
				name := claimant.Name
				outcomes = append(outcomes, FinishOutcome{Slot: slot.Name, Player: &name})

				if slot.Points > 0 {
					line, err := s.awardPoints(tx, claimant, slot)
					if err != nil {
						return err
					}
					lines = append(lines, line)
				} else {
					lines = append(lines, fmt.Sprintf("%s finished %s", claimant.Name, slot.Name))
				}
				if err := tx.Delete(&claim).Error; err != nil {
					return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete claim")
				}
			}

			if err := tx.Delete(&models.TrackedSlot{}, slot.ID).Error; err != nil {
				return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete slot")
			}
		}

		if err := tx.Delete(&world).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete world")
		}

		// Drop the superseded announcement world of the same name, if any.
		if err := tx.Exec(
			"DELETE FROM preclaims WHERE slot_id IN (SELECT id FROM slots WHERE world_id IN (SELECT id FROM worlds WHERE name = ?))",
			worldName,
		).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete preclaims")
		}
		if err := tx.Exec(
			"DELETE FROM slots WHERE world_id IN (SELECT id FROM worlds WHERE name = ?)", worldName,
		).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete announcement slots")
		}
		if err := tx.Exec("DELETE FROM worlds WHERE name = ?", worldName).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete announcement world")
		}

		// The report is part of the transaction: if nobody hears about the
		// payout, it did not happen.
		if s.notifier != nil {
			if err := s.notifier.Notify(strings.Join(lines, "\n")); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternalError, "failed to post finish report")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.exporter != nil {
		s.exporter.MarkPending()
	}
	return outcomes, nil
}

func (s *WorldService) awardPoints(tx *gorm.DB, player models.Player, slot models.TrackedSlot) (string, error) {
	recipient := player
	if player.TransferTo != nil {
		var target models.Player
		if err := tx.First(&target, *player.TransferTo).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to get transfer target")
			}
			// Dangling redirect, pay the claimant.
		} else {
			recipient = target
		}
	}

	result := tx.Model(&models.Player{}).Where("id = ?", recipient.ID).
		Updates(map[string]interface{}{
			"points":         gorm.Expr("points + ?", slot.Points),
			"unspent_points": gorm.Expr("unspent_points + ?", slot.Points),
		})
	if result.Error != nil {
		return "", errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to award points")
	}

	if recipient.ID != player.ID {
		return fmt.Sprintf("%s earned %d points for %s (sent to %s)",
			player.Name, slot.Points, slot.Name, recipient.Name), nil
	}
	return fmt.Sprintf("%s earned %d points for %s", player.Name, slot.Points, slot.Name), nil
}

// MarkDone forces a slot to Done, pays out its points and releases the
// claim, so the claimant's capacity frees up before the world finishes.
func (s *WorldService) MarkDone(worldName, slotName string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var slot models.TrackedSlot
		err := tx.Where(
			"name = ? AND world_id IN (SELECT id FROM tracked_worlds WHERE name = ?)",
			slotName, worldName,
		).First(&slot).Error
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "slot not found")
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get tracked slot")
		}

		if err := tx.Model(&models.TrackedSlot{}).Where("id = ?", slot.ID).
			Update("status", models.StatusDone).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to set slot status")
		}

		var claim models.Claim
		err = tx.Where("slot_id = ?", slot.ID).First(&claim).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get claim")
		}

		if slot.Points > 0 {
			var claimant models.Player
			if err := tx.First(&claimant, claim.PlayerID).Error; err != nil {
				return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get claimant")
			}
			if _, err := s.awardPoints(tx, claimant, slot); err != nil {
				return err
			}
		}
		if err := tx.Delete(&claim).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete claim")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.exporter != nil {
		s.exporter.MarkPending()
	}
	return nil
}

// MarkFree takes a slot out of the capacity rules.
func (s *WorldService) MarkFree(worldName, slotName string) error {
	rows, err := s.worldRepo.MarkTrackedSlotFree(worldName, slotName)
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.New(errors.ErrCodeNotFound, "slot not found")
	}
	if s.exporter != nil {
		s.exporter.MarkPending()
	}
	return nil
}

// Overview returns the per-world slot status summary.
func (s *WorldService) Overview() ([]repositories.WorldOverview, error) {
	return s.worldRepo.Overview()
}

// RefreshAll re-scrapes every active tracked world whose last scrape is old
// enough. Failures are per-world; one broken tracker page does not stop the
// sweep.
func (s *WorldService) RefreshAll(ctx context.Context) {
	names, err := s.worldRepo.ActiveTrackedWorldNames()
	if err != nil {
		logger.Error("Failed to list worlds for refresh", "error", err)
		return
	}

	for _, name := range names {
		if err := s.refreshWorld(ctx, name); err != nil {
			logger.Error("World refresh failed", "world", name, "error", err)
		}
	}
}

func (s *WorldService) refreshWorld(ctx context.Context, worldName string) error {
	world, err := s.worldRepo.GetTrackedWorldByName(worldName)
	if err != nil {
		return err
	}
	if time.Since(time.Unix(world.LastScrape, 0)) < s.scrapeMinInterval {
		return nil
	}

	scraped, err := s.fetcher.Fetch(ctx, world.TrackerID)
	if err != nil {
		return err
	}

	slots, err := s.worldRepo.TrackedSlotsForWorld(world.ID)
	if err != nil {
		return err
	}

	var changes []string
	finished := true
	for _, slot := range slots {
		data, ok := scraped[slot.Name]
		if !ok {
			if slot.Status != models.StatusGoal && slot.Status != models.StatusDone {
				finished = false
			}
			continue
		}

		if data.Status != slot.Status {
			if err := s.worldRepo.CreateStatusUpdate(&models.StatusUpdate{
				SlotID:    slot.ID,
				OldStatus: slot.Status,
				NewStatus: data.Status,
			}); err != nil {
				return err
			}
			changes = append(changes, fmt.Sprintf("%s: %s is now %s", worldName, slot.Name, data.Status))
		}
		if err := s.worldRepo.ApplyScrape(slot.ID, data.Status, data.Checks, data.ChecksTotal, data.LastActivity); err != nil {
			return err
		}
		if data.Status != models.StatusGoal && data.Status != models.StatusDone {
			finished = false
		}
	}

	if err := s.worldRepo.UpdateLastScrape(world.ID, time.Now().Unix()); err != nil {
		return err
	}

	if len(changes) > 0 {
		if s.notifier != nil {
			_ = s.notifier.Notify(strings.Join(changes, "\n"))
		}
		if s.exporter != nil {
			s.exporter.MarkPending()
		}
	}

	if finished && !world.Done {
		if err := s.worldRepo.MarkTrackedWorldDone(world.ID); err != nil {
			return err
		}
		if s.notifier != nil {
			_ = s.notifier.Notify(fmt.Sprintf("Every slot in %s has reached its goal. Time to finish the world!", worldName))
		}
	}
	return nil
}
