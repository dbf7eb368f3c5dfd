package handlers

import (
	"strings"

	"github.com/multiarchi/claimsbot/internal/config"
	"github.com/multiarchi/claimsbot/internal/export"
	"github.com/multiarchi/claimsbot/internal/services"
	apperrors "github.com/multiarchi/claimsbot/pkg/errors"
	"github.com/multiarchi/claimsbot/pkg/logger"
)

// Responder sends replies back to a chat. The telegram layer implements it;
// keeping it an interface here avoids a circular dependency.
type Responder interface {
	SendMessage(chatID int64, text string)
}

type HandlerManager struct {
	Config      *config.Config
	PlayerSvc   *services.PlayerService
	PreclaimSvc *services.PreclaimService
	ClaimSvc    *services.ClaimService
	WorldSvc    *services.WorldService
	Exporter    *export.Exporter
}

func NewHandlerManager(
	cfg *config.Config,
	playerSvc *services.PlayerService,
	preclaimSvc *services.PreclaimService,
	claimSvc *services.ClaimService,
	worldSvc *services.WorldService,
	exporter *export.Exporter,
) *HandlerManager {
	return &HandlerManager{
		Config:      cfg,
		PlayerSvc:   playerSvc,
		PreclaimSvc: preclaimSvc,
		ClaimSvc:    claimSvc,
		WorldSvc:    worldSvc,
		Exporter:    exporter,
	}
}

// replyError turns a service error into a player-facing message. Unknown
// codes get a generic reply and a log entry with the real cause.
func (h *HandlerManager) replyError(chatID int64, err error, bot Responder) {
	switch apperrors.Code(err) {
	case apperrors.ErrCodeNotFound,
		apperrors.ErrCodeValidation,
		apperrors.ErrCodeForbidden:
		if appErr, ok := err.(*apperrors.AppError); ok {
			bot.SendMessage(chatID, appErr.Message)
			return
		}
		bot.SendMessage(chatID, "That didn't work, please check the command.")
	case apperrors.ErrCodeAlreadyClaimed:
		bot.SendMessage(chatID, "That slot is already claimed.")
	case apperrors.ErrCodeTooManyRealities:
		bot.SendMessage(chatID, "You're already playing in the maximum number of realities. Finish something first!")
	case apperrors.ErrCodeNoAvailableClaim:
		bot.SendMessage(chatID, "You have no claim capacity left in that reality. Finish something first!")
	default:
		logger.Error("Command failed", "error", err)
		bot.SendMessage(chatID, "Something went wrong, please try again later.")
	}
}

// parseWorldSlot splits a "World / Slot" argument pair. Both names may
// contain spaces, so the slash is the only separator.
func parseWorldSlot(args string) (string, string, bool) {
	parts := strings.SplitN(args, "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	world := strings.TrimSpace(parts[0])
	slot := strings.TrimSpace(parts[1])
	if world == "" || slot == "" {
		return "", "", false
	}
	return world, slot, true
}
