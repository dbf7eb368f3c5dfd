package telegram

import (
	"fmt"
	"math/rand"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/multiarchi/claimsbot/internal/config"
	"github.com/multiarchi/claimsbot/internal/export"
	"github.com/multiarchi/claimsbot/internal/handlers"
	"github.com/multiarchi/claimsbot/internal/middleware"
	"github.com/multiarchi/claimsbot/internal/repositories"
	"github.com/multiarchi/claimsbot/internal/services"
	"github.com/multiarchi/claimsbot/internal/tracker"
	"github.com/multiarchi/claimsbot/pkg/logger"
	"gorm.io/gorm"
)

const numWorkers = 10

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	db       *gorm.DB
	handlers *handlers.HandlerManager
	limiter  *middleware.RateLimiter

	// Exported for the scheduler in main.
	PlayerSvc   *services.PlayerService
	PreclaimSvc *services.PreclaimService
	WorldSvc    *services.WorldService
	Exporter    *export.Exporter

	// Worker pool for parallel processing
	workerChans []chan tgbotapi.Update
}

func InitBot(cfg *config.Config, db *gorm.DB) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	bot := &Bot{
		api:         api,
		config:      cfg,
		db:          db,
		limiter:     middleware.NewRateLimiter(cfg.RateLimitPerUser, time.Minute),
		workerChans: make([]chan tgbotapi.Update, numWorkers),
	}

	// Initialize repositories
	playerRepo := repositories.NewPlayerRepository(db)
	claimRepo := repositories.NewClaimRepository(db)
	preclaimRepo := repositories.NewPreclaimRepository(db)
	worldRepo := repositories.NewWorldRepository(db)

	exporter := export.NewExporter(cfg.ExportPath, cfg.GetExportMinInterval(), worldRepo, playerRepo)
	fetcher := tracker.NewClient(cfg.TrackerBaseURL, cfg.GetTrackerHTTPTimeout())

	// Initialize services; the bot itself is the announcement channel.
	admission := services.NewAdmissionService(claimRepo, cfg.MaxRealities, cfg.NoRealityClaims)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	preclaimSvc := services.NewPreclaimService(preclaimRepo, worldRepo, playerRepo, admission, bot, rng)
	claimSvc := services.NewClaimService(db, claimRepo, preclaimRepo, worldRepo, playerRepo, admission, exporter)
	worldSvc := services.NewWorldService(db, worldRepo, claimRepo, preclaimRepo, preclaimSvc, fetcher, bot, exporter, cfg.GetScrapeMinInterval())
	playerSvc := services.NewPlayerService(playerRepo, claimRepo, preclaimRepo)

	bot.handlers = handlers.NewHandlerManager(cfg, playerSvc, preclaimSvc, claimSvc, worldSvc, exporter)
	bot.PlayerSvc = playerSvc
	bot.PreclaimSvc = preclaimSvc
	bot.WorldSvc = worldSvc
	bot.Exporter = exporter

	// Start workers
	for i := 0; i < numWorkers; i++ {
		bot.workerChans[i] = make(chan tgbotapi.Update, 100)
		go bot.startWorker(bot.workerChans[i])
	}

	// Start update listener
	go bot.startUpdateListener()

	return bot, nil
}

func (b *Bot) startUpdateListener() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			// Hashed dispatch so each user's commands stay ordered.
			userID := update.Message.From.ID
			workerIdx := userID % int64(len(b.workerChans))
			if workerIdx < 0 {
				workerIdx = -workerIdx
			}
			b.workerChans[workerIdx] <- update
		}

		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
}

func (b *Bot) startWorker(updates chan tgbotapi.Update) {
	for update := range updates {
		b.handleUpdate(update)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	if update.Message != nil {
		b.handleMessage(update.Message)
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}

	userID := message.From.ID
	chatID := message.Chat.ID
	name := displayName(message.From)
	args := message.CommandArguments()

	logger.Debug("Received command",
		"user_id", userID,
		"command", message.Command(),
	)

	if !b.limiter.Allow(userID) {
		b.SendMessage(chatID, "Slow down a little and try again in a minute.")
		return
	}

	switch message.Command() {
	case "start", "help":
		b.handlers.HandleStart(chatID, userID, name, b)
	case "status":
		b.handlers.HandleStatus(chatID, userID, name, b)
	case "worlds":
		b.handlers.HandleWorlds(chatID, b)
	case "claim":
		b.handlers.HandleClaim(chatID, userID, name, args, b)
	case "who":
		b.handlers.HandleWho(chatID, args, b)
	case "preclaim":
		b.handlers.HandlePreclaim(chatID, userID, name, args, b)
	case "unpreclaim":
		b.handlers.HandleUnpreclaim(chatID, userID, name, b)
	case "public":
		b.handlers.HandlePublic(chatID, userID, name, args, b)
	case "transfer":
		b.handlers.HandleTransfer(chatID, userID, name, args, b)
	case "redeem":
		b.handlers.HandleRedeem(chatID, userID, name, args, b)
	case "done", "markdone":
		b.handlers.HandleMarkDone(chatID, userID, b.isStaff(userID), args, b)

	// Staff commands
	case "newworld":
		b.staff(chatID, userID, func() { b.handlers.HandleNewWorld(chatID, args, b) })
	case "newreality":
		b.staff(chatID, userID, func() { b.handlers.HandleNewReality(chatID, args, b) })
	case "trackworld":
		b.staff(chatID, userID, func() { b.handlers.HandleTrackWorld(chatID, args, b) })
	case "finishworld":
		b.staff(chatID, userID, func() { b.handlers.HandleFinishWorld(chatID, args, b) })
	case "cancelpreclaims":
		b.staff(chatID, userID, func() { b.handlers.HandleCancelPreclaims(chatID, args, b) })
	case "reschedule":
		b.staff(chatID, userID, func() { b.handlers.HandleReschedule(chatID, args, b) })
	case "resolvepreclaims":
		b.staff(chatID, userID, func() { b.handlers.HandleResolvePreclaims(chatID, args, b) })
	case "unclaim":
		b.staff(chatID, userID, func() { b.handlers.HandleUnclaim(chatID, args, b) })
	case "markfree":
		b.staff(chatID, userID, func() { b.handlers.HandleMarkFree(chatID, args, b) })
	case "grant":
		b.staff(chatID, userID, func() { b.handlers.HandleGrant(chatID, userID, b) })
	case "importpoints":
		b.staff(chatID, userID, func() { b.handlers.HandleImportPoints(chatID, b) })

	default:
		b.SendMessage(chatID, "Unknown command. /start lists what I can do.")
	}
}

// staff runs handler only for admins and moderators.
func (b *Bot) staff(chatID, userID int64, handler func()) {
	if !b.isStaff(userID) {
		b.SendMessage(chatID, "That command is for moderators.")
		return
	}
	handler()
}

func (b *Bot) isStaff(userID int64) bool {
	return b.config.IsAdmin(userID) || b.PlayerSvc.IsModerator(userID)
}

func displayName(user *tgbotapi.User) string {
	if user.UserName != "" {
		return user.UserName
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return name
}

// SendMessage implements handlers.Responder.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		logger.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// Notify implements services.Notifier: announcements go to the configured
// community chat. With no chat configured they land in the log only.
func (b *Bot) Notify(message string) error {
	if b.config.AnnounceChatID == 0 {
		logger.Info("Announcement", "message", message)
		return nil
	}
	msg := tgbotapi.NewMessage(b.config.AnnounceChatID, message)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to post announcement: %w", err)
	}
	return nil
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	logger.Info("Bot stopped")
}
