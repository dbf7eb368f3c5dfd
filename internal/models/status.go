package models

// SlotStatus is the persisted completion state of a tracked slot.
type SlotStatus int64

const (
	StatusUnstarted  SlotStatus = 0
	StatusInProgress SlotStatus = 1
	StatusGoal       SlotStatus = 2
	StatusAllChecks  SlotStatus = 3
	StatusDone       SlotStatus = 4
)

func (s SlotStatus) Valid() bool {
	return s >= StatusUnstarted && s <= StatusDone
}

func (s SlotStatus) String() string {
	switch s {
	case StatusUnstarted:
		return "Unstarted"
	case StatusInProgress:
		return "In Progress"
	case StatusGoal:
		return "Goal"
	case StatusAllChecks:
		return "All Checks"
	case StatusDone:
		return "Done"
	}
	return "Unknown"
}

// mergeTable is the full merge relation for combining the statuses of two
// games belonging to the same slot. Rows are the accumulated status, columns
// the next observed one. An unstarted observation always wins; a slot only
// counts as Goal/AllChecks/Done when every game agrees; Done is the weakest
// of the finished states and yields to whatever the other game reports.
var mergeTable = [5][5]SlotStatus{
	//                          Unstarted        InProgress        Goal              AllChecks        Done
	StatusUnstarted:  {StatusUnstarted, StatusUnstarted, StatusUnstarted, StatusUnstarted, StatusUnstarted},
	StatusInProgress: {StatusUnstarted, StatusInProgress, StatusInProgress, StatusInProgress, StatusInProgress},
	StatusGoal:       {StatusUnstarted, StatusInProgress, StatusGoal, StatusInProgress, StatusGoal},
	StatusAllChecks:  {StatusUnstarted, StatusInProgress, StatusInProgress, StatusAllChecks, StatusAllChecks},
	StatusDone:       {StatusUnstarted, StatusInProgress, StatusGoal, StatusAllChecks, StatusDone},
}

// Merge combines s with the status observed for another game of the same slot.
func (s SlotStatus) Merge(next SlotStatus) SlotStatus {
	if !s.Valid() || !next.Valid() {
		return s
	}
	return mergeTable[s][next]
}

// DeriveStatus computes a single game's status from its scraped tracker row.
func DeriveStatus(goalCompleted bool, checks, checksTotal int64) SlotStatus {
	status := StatusInProgress
	if goalCompleted {
		status = StatusGoal
	}

	if status != StatusGoal && checks == 0 {
		return StatusUnstarted
	}
	if checks == checksTotal {
		if status == StatusGoal {
			return StatusDone
		}
		return StatusAllChecks
	}
	return status
}
