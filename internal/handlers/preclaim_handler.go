package handlers

import (
	"fmt"

	"github.com/multiarchi/claimsbot/internal/security"
	"github.com/multiarchi/claimsbot/internal/services"
	"github.com/multiarchi/claimsbot/pkg/utils"
)

// HandlePreclaim enters the lottery for a slot of an announced world:
// /preclaim World / Slot
func (h *HandlerManager) HandlePreclaim(chatID, telegramID int64, name, args string, bot Responder) {
	world, slotName, ok := parseWorldSlot(args)
	if !ok {
		bot.SendMessage(chatID, "Usage: /preclaim World / Slot")
		return
	}

	slot, err := h.PreclaimSvc.Request(telegramID, security.SanitizeString(name), world, slotName)
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	games := utils.FormatGameList(services.SplitGames(slot.Games))
	msg := fmt.Sprintf("You're in the lottery for %s in %s.", slot.Name, world)
	if games != "" {
		msg = fmt.Sprintf("You're in the lottery for %s (%s) in %s.", slot.Name, games, world)
	}
	bot.SendMessage(chatID, msg+" Any earlier preclaim has been replaced.")
}

func (h *HandlerManager) HandleUnpreclaim(chatID, telegramID int64, name string, bot Responder) {
	dropped, err := h.PreclaimSvc.Withdraw(telegramID, security.SanitizeString(name))
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	if dropped == 0 {
		bot.SendMessage(chatID, "You had no pending preclaims.")
		return
	}
	bot.SendMessage(chatID, "Your pending preclaim has been withdrawn.")
}
