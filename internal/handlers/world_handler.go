package handlers

import (
	"fmt"
	"strings"
)

// HandleWorlds shows the per-world slot summary.
func (h *HandlerManager) HandleWorlds(chatID int64, bot Responder) {
	overview, err := h.WorldSvc.Overview()
	if err != nil {
		h.replyError(chatID, err, bot)
		return
	}
	if len(overview) == 0 {
		bot.SendMessage(chatID, "No worlds are being tracked right now.")
		return
	}

	var b strings.Builder
	for _, world := range overview {
		fmt.Fprintf(&b, "%s: %d unclaimed", world.Name, world.Unclaimed)
		if world.InProgress > 0 {
			fmt.Fprintf(&b, ", %d in progress", world.InProgress)
		}
		if world.Goal > 0 {
			fmt.Fprintf(&b, ", %d goal", world.Goal)
		}
		if world.AllChecks > 0 {
			fmt.Fprintf(&b, ", %d all checks", world.AllChecks)
		}
		if world.Done > 0 {
			fmt.Fprintf(&b, ", %d done", world.Done)
		}
		b.WriteString("\n")
	}
	bot.SendMessage(chatID, b.String())
}
