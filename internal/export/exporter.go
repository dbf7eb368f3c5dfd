package export

import (
	"fmt"
	"sync"
	"time"

	"github.com/multiarchi/claimsbot/internal/repositories"
	"github.com/multiarchi/claimsbot/pkg/errors"
	"github.com/multiarchi/claimsbot/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	slotsSheet   = "Slots"
	playersSheet = "Players"
)

// Exporter mirrors the live claim overview into a spreadsheet. Writes are
// debounced: every state change marks the mirror dirty, and the scheduler
// pushes at most once per minInterval.
type Exporter struct {
	path        string
	minInterval time.Duration
	worldRepo   *repositories.WorldRepository
	playerRepo  *repositories.PlayerRepository

	mu         sync.Mutex
	pending    bool
	latestPush time.Time
}

func NewExporter(path string, minInterval time.Duration, worldRepo *repositories.WorldRepository, playerRepo *repositories.PlayerRepository) *Exporter {
	return &Exporter{
		path:        path,
		minInterval: minInterval,
		worldRepo:   worldRepo,
		playerRepo:  playerRepo,
	}
}

// MarkPending flags the mirror as stale.
func (e *Exporter) MarkPending() {
	e.mu.Lock()
	e.pending = true
	e.mu.Unlock()
}

// PushIfNeeded writes the mirror when it is stale and the debounce interval
// has passed. Meant to run on a schedule.
func (e *Exporter) PushIfNeeded() {
	e.mu.Lock()
	if !e.needsPush(time.Now()) {
		e.mu.Unlock()
		return
	}
	e.pending = false
	e.latestPush = time.Now()
	e.mu.Unlock()

	if err := e.push(); err != nil {
		logger.Error("Failed to push export", "path", e.path, "error", err)
		e.MarkPending()
	}
}

func (e *Exporter) needsPush(now time.Time) bool {
	return e.pending && now.Sub(e.latestPush) >= e.minInterval
}

func (e *Exporter) push() error {
	rows, err := e.worldRepo.ExportRows()
	if err != nil {
		return err
	}
	players, err := e.playerRepo.ListAll()
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", slotsSheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to name sheet")
	}
	if _, err := f.NewSheet(playersSheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create sheet")
	}

	header := []interface{}{"World", "Slot", "Status", "Free", "Claimed By"}
	if err := f.SetSheetRow(slotsSheet, "A1", &header); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write header")
	}
	for i, row := range rows {
		claimant := ""
		if row.Player != nil {
			claimant = *row.Player
		}
		cells := []interface{}{row.World, row.Slot, row.Status.String(), row.Free, claimant}
		if err := f.SetSheetRow(slotsSheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write slot row")
		}
	}

	playerHeader := []interface{}{"Player", "Points", "Unspent Points"}
	if err := f.SetSheetRow(playersSheet, "A1", &playerHeader); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write header")
	}
	for i, player := range players {
		cells := []interface{}{player.Name, player.Points, player.UnspentPoints}
		if err := f.SetSheetRow(playersSheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write player row")
		}
	}

	if err := f.SaveAs(e.path); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save export")
	}
	logger.Info("Export pushed", "path", e.path, "slots", len(rows), "players", len(players))
	return nil
}

// ImportUnspentPoints reads manually edited unspent point balances back from
// the spreadsheet. Point spending happens off-bot, so the sheet is the
// authority for the unspent column.
func (e *Exporter) ImportUnspentPoints() (int, error) {
	f, err := excelize.OpenFile(e.path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to open export")
	}
	defer f.Close()

	rows, err := f.GetRows(playersSheet)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to read player sheet")
	}

	imported := 0
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		name := row[0]
		var unspent int64
		if _, err := fmt.Sscanf(row[2], "%d", &unspent); err != nil {
			logger.Warn("Skipping unparsable unspent points", "player", name, "value", row[2])
			continue
		}
		if err := e.playerRepo.SetUnspentPointsByName(name, unspent); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
