package handlers

import (
	"fmt"

	"github.com/multiarchi/claimsbot/internal/security"
)

// HandleClaim takes a slot: /claim World / Slot
func (h *HandlerManager) HandleClaim(chatID, telegramID int64, name, args string, bot Responder) {
	world, slotName, ok := parseWorldSlot(args)
	if !ok {
		bot.SendMessage(chatID, "Usage: /claim World / Slot")
		return
	}

	slot, err := h.ClaimSvc.Claim(telegramID, security.SanitizeString(name), world, slotName)
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}

	msg := fmt.Sprintf("%s in %s is yours. Good luck!", slot.Name, world)
	if slot.Free {
		msg += " (free slot, it doesn't count against your capacity)"
	}
	bot.SendMessage(chatID, msg)
}

// HandleWho shows who holds a slot: /who World / Slot
func (h *HandlerManager) HandleWho(chatID int64, args string, bot Responder) {
	world, slotName, ok := parseWorldSlot(args)
	if !ok {
		bot.SendMessage(chatID, "Usage: /who World / Slot")
		return
	}

	player, err := h.ClaimSvc.Claimant(world, slotName)
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("%s in %s is claimed by %s.", slotName, world, player.Name))
}
