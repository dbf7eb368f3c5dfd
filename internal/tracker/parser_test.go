package tracker

import (
	"testing"

	"github.com/multiarchi/claimsbot/internal/models"
)

const trackerPage = `<!DOCTYPE html>
<html><body>
<table id="checks-table" class="table">
<thead><tr><th>#</th><th>Name</th><th>Game</th><th>Status</th><th>Checks</th><th>Last Activity</th></tr></thead>
<tbody>
<tr><td>1</td><td>Alice</td><td>Hollow Knight</td><td>Goal Completed</td><td>240/240</td><td>312.5</td></tr>
<tr><td>2</td><td>Bob</td><td>Stardew Valley</td><td></td><td>10/130</td><td>61.2</td></tr>
<tr><td>3</td><td>Carol1 (Carol)</td><td>Clique</td><td>Goal Completed</td><td>1/1</td><td>900</td></tr>
<tr><td>4</td><td>Carol2 (Carol)</td><td>Ocarina of Time</td><td></td><td>0/120</td><td>None</td></tr>
<tr><td>5</td><td>Dave</td><td>APBingo</td><td></td><td>0/25</td><td>None</td></tr>
</tbody>
</table>
</body></html>`

func TestParseChecksTable(t *testing.T) {
	rows, err := ParseChecksTable([]byte(trackerPage))
	if err != nil {
		t.Fatalf("ParseChecksTable() error = %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}

	alice := rows[0]
	if alice.Name != "Alice" || alice.Game != "Hollow Knight" {
		t.Errorf("row 0 = %q playing %q, want Alice playing Hollow Knight", alice.Name, alice.Game)
	}
	if !alice.GoalCompleted {
		t.Error("Alice should have the goal completed")
	}
	if alice.Checks != 240 || alice.ChecksTotal != 240 {
		t.Errorf("Alice checks = %d/%d, want 240/240", alice.Checks, alice.ChecksTotal)
	}
	if alice.LastActivity == nil || *alice.LastActivity != 5 {
		t.Errorf("Alice last activity = %v, want 5 minutes", alice.LastActivity)
	}

	// Multigame rows resolve to the parenthesised slot name.
	if rows[2].Name != "Carol" || rows[3].Name != "Carol" {
		t.Errorf("multigame rows = %q, %q, want Carol twice", rows[2].Name, rows[3].Name)
	}

	if rows[4].LastActivity != nil {
		t.Errorf("Dave last activity = %v, want nil", rows[4].LastActivity)
	}
}

func TestParseChecksTable_NoTable(t *testing.T) {
	_, err := ParseChecksTable([]byte(`<html><body><p>Room not found</p></body></html>`))
	if err != ErrNoChecksTable {
		t.Errorf("ParseChecksTable() error = %v, want ErrNoChecksTable", err)
	}
}

func TestAggregate(t *testing.T) {
	rows, err := ParseChecksTable([]byte(trackerPage))
	if err != nil {
		t.Fatalf("ParseChecksTable() error = %v", err)
	}
	slots := Aggregate(rows)

	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(slots))
	}

	if got := slots["Alice"].Status; got != models.StatusDone {
		t.Errorf("Alice status = %v, want Done", got)
	}
	if got := slots["Bob"].Status; got != models.StatusInProgress {
		t.Errorf("Bob status = %v, want In Progress", got)
	}
	if got := slots["Dave"].Status; got != models.StatusUnstarted {
		t.Errorf("Dave status = %v, want Unstarted", got)
	}

	// Carol finished Clique but has not started Ocarina of Time; an
	// unstarted game drags the whole slot back to Unstarted.
	carol := slots["Carol"]
	if carol.Status != models.StatusUnstarted {
		t.Errorf("Carol status = %v, want Unstarted", carol.Status)
	}
	if len(carol.Games) != 2 {
		t.Errorf("Carol games = %v, want 2 games", carol.Games)
	}
	if carol.Checks != 1 || carol.ChecksTotal != 121 {
		t.Errorf("Carol checks = %d/%d, want 1/121", carol.Checks, carol.ChecksTotal)
	}
	// Ocarina of Time has no recorded activity, so the slot has none either.
	if carol.LastActivity != nil {
		t.Errorf("Carol last activity = %d, want nil", *carol.LastActivity)
	}
}

func TestAggregate_LastActivity(t *testing.T) {
	minutes := func(m int64) *int64 { return &m }

	tests := []struct {
		name string
		rows []SlotRow
		want *int64
	}{
		{
			name: "Stalest game wins",
			rows: []SlotRow{
				{Name: "S", Game: "A", LastActivity: minutes(10)},
				{Name: "S", Game: "B", LastActivity: minutes(20)},
			},
			want: minutes(20),
		},
		{
			name: "Unknown activity spreads to the slot",
			rows: []SlotRow{
				{Name: "S", Game: "A", LastActivity: minutes(10)},
				{Name: "S", Game: "B"},
			},
			want: nil,
		},
		{
			name: "Unknown activity is not overwritten",
			rows: []SlotRow{
				{Name: "S", Game: "A"},
				{Name: "S", Game: "B", LastActivity: minutes(10)},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.rows)["S"].LastActivity
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("last activity = %d, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("last activity = nil, want %d", *tt.want)
			case tt.want != nil && got != nil && *got != *tt.want:
				t.Errorf("last activity = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestCleanSlotName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice", "Alice"},
		{"Carol1 (Carol)", "Carol"},
		{"Bob2", "Bob"},
		{"  Dave  ", "Dave"},
		{"Eve (Eve3)", "Eve"},
	}
	for _, tt := range tests {
		if got := cleanSlotName(tt.in); got != tt.want {
			t.Errorf("cleanSlotName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIDFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://archipelago.gg/tracker/abc123", "abc123"},
		{"https://archipelago.gg/tracker/abc123/", "abc123"},
		{"abc123", "abc123"},
	}
	for _, tt := range tests {
		if got := IDFromURL(tt.in); got != tt.want {
			t.Errorf("IDFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
