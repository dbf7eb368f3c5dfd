package tracker

import (
	"strconv"
	"strings"

	"github.com/multiarchi/claimsbot/internal/models"
	"golang.org/x/net/html"
)

// SlotRow is one scraped tracker table row: one game of one slot.
type SlotRow struct {
	Name          string
	Game          string
	GoalCompleted bool
	Checks        int64
	ChecksTotal   int64
	LastActivity  *int64 // minutes, nil when the row shows no activity
}

// SlotData is the per-slot aggregate of all its game rows.
type SlotData struct {
	Status       models.SlotStatus
	Games        []string
	Checks       int64
	ChecksTotal  int64
	LastActivity *int64
}

// ParseChecksTable extracts the per-game rows from a tracker page. The page
// carries a table with id "checks-table"; each body row is
// (#, name, game, status, checks, last activity).
func ParseChecksTable(page []byte) ([]SlotRow, error) {
	doc, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return nil, err
	}

	table := findByID(doc, "checks-table")
	if table == nil {
		return nil, ErrNoChecksTable
	}

	var rows []SlotRow
	for _, tr := range tableRows(table) {
		cells := rowCells(tr)
		if len(cells) < 6 {
			continue
		}

		checks, checksTotal := parseChecks(cells[4])
		rows = append(rows, SlotRow{
			Name:          cleanSlotName(cells[1]),
			Game:          cells[2],
			GoalCompleted: strings.Contains(cells[3], "Goal Completed"),
			Checks:        checks,
			ChecksTotal:   checksTotal,
			LastActivity:  parseLastActivity(cells[5]),
		})
	}
	return rows, nil
}

// Aggregate folds game rows into one entry per slot, merging statuses and
// summing check counts. A slot is only as fresh as its stalest game, and a
// game with no recorded activity leaves the slot's activity unknown.
func Aggregate(rows []SlotRow) map[string]SlotData {
	slots := make(map[string]SlotData)
	for _, row := range rows {
		status := models.DeriveStatus(row.GoalCompleted, row.Checks, row.ChecksTotal)

		data, seen := slots[row.Name]
		if !seen {
			slots[row.Name] = SlotData{
				Status:       status,
				Games:        []string{row.Game},
				Checks:       row.Checks,
				ChecksTotal:  row.ChecksTotal,
				LastActivity: row.LastActivity,
			}
			continue
		}

		data.Status = data.Status.Merge(status)
		data.Games = append(data.Games, row.Game)
		data.Checks += row.Checks
		data.ChecksTotal += row.ChecksTotal
		if data.LastActivity == nil || row.LastActivity == nil {
			data.LastActivity = nil
		} else if *row.LastActivity > *data.LastActivity {
			data.LastActivity = row.LastActivity
		}
		slots[row.Name] = data
	}
	return slots
}

// cleanSlotName strips the per-game decorations the tracker adds to slot
// names. A multigame slot appears as "Alias (SlotName)" with the real name in
// parentheses, and duplicate games get a numeric suffix.
func cleanSlotName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, ")") {
		if open := strings.LastIndex(name, "("); open >= 0 {
			name = name[open+1 : len(name)-1]
		}
	}
	return strings.TrimRight(name, "0123456789")
}

func parseChecks(text string) (int64, int64) {
	parts := strings.SplitN(strings.TrimSpace(text), "/", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	checks, err1 := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	total, err2 := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return checks, total
}

// parseLastActivity converts the tracker's seconds-since-activity cell into
// whole minutes. "None" means the slot has never checked anything.
func parseLastActivity(text string) *int64 {
	text = strings.TrimSpace(text)
	if text == "" || text == "None" {
		return nil
	}
	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	minutes := int64(seconds / 60)
	return &minutes
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(n *html.Node, inBody bool)
	walk = func(n *html.Node, inBody bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "tbody":
				walk(c, true)
			case "tr":
				if inBody {
					rows = append(rows, c)
				}
			default:
				walk(c, inBody)
			}
		}
	}
	walk(table, false)
	return rows
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "td" {
			cells = append(cells, strings.TrimSpace(nodeText(c)))
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}
