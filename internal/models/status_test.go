package models

import "testing"

func TestSlotStatus_Merge(t *testing.T) {
	tests := []struct {
		name string
		cur  SlotStatus
		next SlotStatus
		want SlotStatus
	}{
		{"Unstarted observation always wins", StatusDone, StatusUnstarted, StatusUnstarted},
		{"Unstarted absorbs progress", StatusUnstarted, StatusInProgress, StatusUnstarted},
		{"In progress absorbs goal", StatusInProgress, StatusGoal, StatusInProgress},
		{"In progress absorbs done", StatusInProgress, StatusDone, StatusInProgress},
		{"Goal requires agreement", StatusGoal, StatusInProgress, StatusInProgress},
		{"Goal plus goal", StatusGoal, StatusGoal, StatusGoal},
		{"Goal plus all checks degrades", StatusGoal, StatusAllChecks, StatusInProgress},
		{"Goal plus done stays goal", StatusGoal, StatusDone, StatusGoal},
		{"All checks requires agreement", StatusAllChecks, StatusGoal, StatusInProgress},
		{"All checks plus done stays all checks", StatusAllChecks, StatusDone, StatusAllChecks},
		{"Done yields to in progress", StatusDone, StatusInProgress, StatusInProgress},
		{"Done yields to goal", StatusDone, StatusGoal, StatusGoal},
		{"Done yields to all checks", StatusDone, StatusAllChecks, StatusAllChecks},
		{"Done plus done", StatusDone, StatusDone, StatusDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cur.Merge(tt.next); got != tt.want {
				t.Errorf("Merge(%v, %v) = %v, want %v", tt.cur, tt.next, got, tt.want)
			}
		})
	}
}

func TestSlotStatus_MergeTotal(t *testing.T) {
	// Every pair of valid statuses must merge to a valid status.
	for cur := StatusUnstarted; cur <= StatusDone; cur++ {
		for next := StatusUnstarted; next <= StatusDone; next++ {
			got := cur.Merge(next)
			if !got.Valid() {
				t.Errorf("Merge(%v, %v) = %v, not a valid status", cur, next, got)
			}
		}
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name          string
		goalCompleted bool
		checks        int64
		checksTotal   int64
		want          SlotStatus
	}{
		{"No checks and no goal", false, 0, 100, StatusUnstarted},
		{"Some checks", false, 5, 100, StatusInProgress},
		{"All checks without goal", false, 100, 100, StatusAllChecks},
		{"Goal without all checks", true, 5, 100, StatusGoal},
		{"Goal with all checks", true, 100, 100, StatusDone},
		{"Goal with no checks", true, 0, 100, StatusGoal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.goalCompleted, tt.checks, tt.checksTotal); got != tt.want {
				t.Errorf("DeriveStatus(%v, %d, %d) = %v, want %v", tt.goalCompleted, tt.checks, tt.checksTotal, got, tt.want)
			}
		})
	}
}

func TestSlotStatus_String(t *testing.T) {
	tests := []struct {
		status SlotStatus
		want   string
	}{
		{StatusUnstarted, "Unstarted"},
		{StatusInProgress, "In Progress"},
		{StatusGoal, "Goal"},
		{StatusAllChecks, "All Checks"},
		{StatusDone, "Done"},
		{SlotStatus(9), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
