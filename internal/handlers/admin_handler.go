package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/multiarchi/claimsbot/internal/security"
	"github.com/multiarchi/claimsbot/internal/services"
	"github.com/multiarchi/claimsbot/pkg/logger"
)

// HandleNewWorld announces a world. The first argument line is
// "Name / <preclaim window, e.g. 72h> / [Reality]"; every following line is
// one slot as "Name | games | notes | points".
func (h *HandlerManager) HandleNewWorld(chatID int64, args string, bot Responder) {
	lines := strings.Split(args, "\n")
	header := strings.Split(lines[0], "/")
	if len(header) < 2 {
		bot.SendMessage(chatID, "Usage: /newworld Name / 72h / [Reality]\nOne slot per following line: Name | games | notes | points")
		return
	}

	name := security.SanitizeString(header[0])
	window, err := time.ParseDuration(strings.TrimSpace(header[1]))
	if err != nil || window <= 0 {
		bot.SendMessage(chatID, "The preclaim window must be a positive duration like 72h.")
		return
	}
	reality := ""
	if len(header) > 2 {
		reality = security.SanitizeString(header[2])
	}

	slots := parseSlotLines(lines[1:])
	world, err := h.WorldSvc.NewWorld(name, reality, time.Now().Add(window), slots)
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}

	bot.SendMessage(chatID, fmt.Sprintf(
		"%s announced with %d slots. Preclaims close %s.",
		world.Name, len(slots), time.Unix(world.PreclaimEnd, 0).UTC().Format("2006-01-02 15:04 MST")))
}

func parseSlotLines(lines []string) []services.SlotInput {
	var slots []services.SlotInput
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		slot := services.SlotInput{Name: security.SanitizeString(parts[0])}
		if len(parts) > 1 {
			slot.Games = security.SanitizeString(parts[1])
		}
		if len(parts) > 2 {
			slot.Notes = security.SanitizeString(parts[2])
		}
		if len(parts) > 3 {
			slot.Points = security.SanitizeString(parts[3])
		}
		if slot.Name != "" {
			slots = append(slots, slot)
		}
	}
	return slots
}

// HandleNewReality registers a capacity pool: /newreality Name / maxClaims
func (h *HandlerManager) HandleNewReality(chatID int64, args string, bot Responder) {
	parts := strings.SplitN(args, "/", 2)
	if len(parts) != 2 {
		bot.SendMessage(chatID, "Usage: /newreality Name / maxClaims")
		return
	}
	maxClaims, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		bot.SendMessage(chatID, "maxClaims must be a number.")
		return
	}

	name := security.SanitizeString(parts[0])
	if err := h.WorldSvc.NewReality(name, maxClaims); err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("Reality %s created with %d claims per player.", name, maxClaims))
}

// HandleTrackWorld starts tracking: /trackworld Name / trackerURL / [flags]
// Flags: noclaims, nopoints, import=World, reality=Name
func (h *HandlerManager) HandleTrackWorld(chatID int64, args string, bot Responder) {
	parts := strings.Split(args, "/")
	if len(parts) < 2 {
		bot.SendMessage(chatID, "Usage: /trackworld Name / trackerURL / [noclaims] [nopoints] [import=World] [reality=Name]")
		return
	}

	name := security.SanitizeString(parts[0])

	// The tracker URL itself contains slashes; rejoin everything between the
	// name and a trailing flags segment that has no dots.
	rest := strings.TrimSpace(strings.Join(parts[1:], "/"))
	url := rest
	flags := ""
	if idx := strings.LastIndex(rest, " / "); idx >= 0 {
		url = strings.TrimSpace(rest[:idx])
		flags = rest[idx+3:]
	}

	opts := services.TrackOptions{UseClaims: true, AwardsPoints: true}
	for _, flag := range strings.Fields(flags) {
		switch {
		case flag == "noclaims":
			opts.UseClaims = false
		case flag == "nopoints":
			opts.AwardsPoints = false
		case strings.HasPrefix(flag, "import="):
			opts.ImportFrom = strings.TrimPrefix(flag, "import=")
		case strings.HasPrefix(flag, "reality="):
			opts.RealityName = strings.TrimPrefix(flag, "reality=")
		default:
			bot.SendMessage(chatID, fmt.Sprintf("Unknown flag %q.", flag))
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := h.WorldSvc.Track(ctx, name, url, opts)
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf(
		"%s is now tracked: %d slots, %d already claimed, %d open.",
		name, result.Slots, result.Claimed, result.Unclaimed))
}

func (h *HandlerManager) HandleFinishWorld(chatID int64, args string, bot Responder) {
	name := security.SanitizeString(args)
	if name == "" {
		bot.SendMessage(chatID, "Usage: /finishworld Name")
		return
	}
	outcomes, err := h.WorldSvc.Finish(name)
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}

	claimed := 0
	for _, outcome := range outcomes {
		if outcome.Player != nil {
			claimed++
		}
	}
	bot.SendMessage(chatID, fmt.Sprintf(
		"%s finished and paid out: %d slots, %d of them claimed.", name, len(outcomes), claimed))
}

func (h *HandlerManager) HandleCancelPreclaims(chatID int64, args string, bot Responder) {
	name := security.SanitizeString(args)
	if name == "" {
		bot.SendMessage(chatID, "Usage: /cancelpreclaims Name")
		return
	}
	if err := h.WorldSvc.Cancel(name); err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("%s withdrawn, all its preclaims dropped.", name))
}

// HandleReschedule moves a preclaim deadline: /reschedule Name / 48h
func (h *HandlerManager) HandleReschedule(chatID int64, args string, bot Responder) {
	parts := strings.SplitN(args, "/", 2)
	if len(parts) != 2 {
		bot.SendMessage(chatID, "Usage: /reschedule Name / 48h")
		return
	}
	window, err := time.ParseDuration(strings.TrimSpace(parts[1]))
	if err != nil || window <= 0 {
		bot.SendMessage(chatID, "The new window must be a positive duration like 48h.")
		return
	}

	name := security.SanitizeString(parts[0])
	if err := h.WorldSvc.Reschedule(name, time.Now().Add(window)); err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("Preclaims for %s now close %s.",
		name, time.Now().Add(window).UTC().Format("2006-01-02 15:04 MST")))
}

func (h *HandlerManager) HandleUnclaim(chatID int64, args string, bot Responder) {
	world, slot, ok := parseWorldSlot(args)
	if !ok {
		bot.SendMessage(chatID, "Usage: /unclaim World / Slot")
		return
	}
	if err := h.ClaimSvc.Unclaim(world, slot); err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("%s in %s is open again.", slot, world))
}

// HandleMarkDone finishes a slot early: /done World / Slot. Players may
// finish their own slot; staff may finish any.
func (h *HandlerManager) HandleMarkDone(chatID, telegramID int64, isStaff bool, args string, bot Responder) {
	world, slot, ok := parseWorldSlot(args)
	if !ok {
		bot.SendMessage(chatID, "Usage: /done World / Slot")
		return
	}

	if !isStaff {
		claimant, err := h.ClaimSvc.Claimant(world, slot)
		if err != nil {
			h.replyError(chatID, err, bot)
			return
		}
		if claimant.TelegramID != telegramID {
			bot.SendMessage(chatID, "Only the claimant or a moderator can finish that slot.")
			return
		}
	}

	if err := h.WorldSvc.MarkDone(world, slot); err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("%s in %s marked done. Any points have been paid out and the claim is released.", slot, world))
}

// HandleResolvePreclaims runs a world's lottery ahead of schedule.
func (h *HandlerManager) HandleResolvePreclaims(chatID int64, args string, bot Responder) {
	name := security.SanitizeString(args)
	if name == "" {
		bot.SendMessage(chatID, "Usage: /resolvepreclaims Name")
		return
	}
	winners, err := h.PreclaimSvc.ResolveNow(name)
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("Lottery for %s resolved with %d winners.", name, len(winners)))
}

func (h *HandlerManager) HandleMarkFree(chatID int64, args string, bot Responder) {
	world, slot, ok := parseWorldSlot(args)
	if !ok {
		bot.SendMessage(chatID, "Usage: /markfree World / Slot")
		return
	}
	if err := h.WorldSvc.MarkFree(world, slot); err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("%s in %s is now free.", slot, world))
}

// HandleGrant issues a moderator grant token the admin can pass on.
func (h *HandlerManager) HandleGrant(chatID, telegramID int64, bot Responder) {
	token, err := security.GenerateGrantToken(telegramID, h.Config.JWTSecret)
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf(
		"Moderator grant (valid 24h). The recipient redeems it with:\n/redeem %s", token))
}

// HandleRedeem turns a grant token into the moderator flag.
func (h *HandlerManager) HandleRedeem(chatID, telegramID int64, name, args string, bot Responder) {
	token := strings.TrimSpace(args)
	if token == "" {
		bot.SendMessage(chatID, "Usage: /redeem <token>")
		return
	}

	claims, err := security.ValidateGrantToken(token, h.Config.JWTSecret)
	if err != nil {
		bot.SendMessage(chatID, "That grant token is invalid or expired.")
		return
	}

	if _, err := h.PlayerSvc.Register(telegramID, security.SanitizeString(name)); err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	if err := h.PlayerSvc.SetModerator(telegramID, true); err != nil {
		h.replyError(chatID, err, bot)
		return
	}

	logger.Info("Moderator grant redeemed", "player", telegramID, "issued_by", claims.IssuedBy)
	bot.SendMessage(chatID, "You are now a moderator.")
}

// HandleImportPoints pulls manually edited unspent balances back from the
// spreadsheet.
func (h *HandlerManager) HandleImportPoints(chatID int64, bot Responder) {
	imported, err := h.Exporter.ImportUnspentPoints()
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("Imported unspent points for %d players.", imported))
}
