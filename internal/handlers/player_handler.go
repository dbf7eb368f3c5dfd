package handlers

import (
	"fmt"
	"strings"

	"github.com/multiarchi/claimsbot/internal/security"
)

func (h *HandlerManager) HandleStart(chatID, telegramID int64, name string, bot Responder) {
	player, err := h.PlayerSvc.Register(telegramID, security.SanitizeString(name))
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}

	bot.SendMessage(chatID, fmt.Sprintf(
		"Welcome, %s!\n\n"+
			"/worlds shows the tracked worlds.\n"+
			"/claim World / Slot takes a slot.\n"+
			"/preclaim World / Slot enters the lottery for an upcoming world.\n"+
			"/status shows your claims and points.",
		player.Name))
}

func (h *HandlerManager) HandleStatus(chatID, telegramID int64, name string, bot Responder) {
	status, err := h.PlayerSvc.Status(telegramID, security.SanitizeString(name))
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d points (%d unspent)\n", status.Player.Name, status.Player.Points, status.Player.UnspentPoints)

	if len(status.Claims) == 0 {
		b.WriteString("No active claims.\n")
	} else {
		b.WriteString("Claims:\n")
		for _, claim := range status.Claims {
			line := fmt.Sprintf("  %s / %s: %s", claim.World, claim.Slot, claim.Status)
			if claim.Free {
				line += " (free)"
			}
			b.WriteString(line + "\n")
		}
	}

	if status.PendingPreclaim != "" {
		fmt.Fprintf(&b, "Pending preclaim on %s.\n", status.PendingPreclaim)
	}
	bot.SendMessage(chatID, b.String())
}

// HandleTransfer points /transfer at another player, or clears the redirect
// when called without arguments.
func (h *HandlerManager) HandleTransfer(chatID, telegramID int64, name, args string, bot Responder) {
	target := security.SanitizeString(args)
	if err := h.PlayerSvc.SetTransfer(telegramID, security.SanitizeString(name), target); err != nil {
		h.replyError(chatID, err, bot)
		return
	}

	if target == "" {
		bot.SendMessage(chatID, "Point transfer cleared. You keep your own points again.")
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("Points you earn will now go to %s.", target))
}

// HandlePublic stores a description on the player's own claim:
// /public World / Slot / text
func (h *HandlerManager) HandlePublic(chatID, telegramID int64, name, args string, bot Responder) {
	parts := strings.SplitN(args, "/", 3)
	if len(parts) != 3 {
		bot.SendMessage(chatID, "Usage: /public World / Slot / description")
		return
	}
	world := strings.TrimSpace(parts[0])
	slot := strings.TrimSpace(parts[1])
	description := security.SanitizeHTML(security.SanitizeString(parts[2]))

	if err := h.ClaimSvc.SetPublic(telegramID, security.SanitizeString(name), world, slot, description); err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("Description saved for %s / %s.", world, slot))
}
