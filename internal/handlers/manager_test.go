package handlers

import "testing"

func TestParseWorldSlot(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		wantWorld string
		wantSlot  string
		wantOK    bool
	}{
		{"Simple", "Async 12 / Alice", "Async 12", "Alice", true},
		{"No separator", "Async 12 Alice", "", "", false},
		{"Empty slot", "Async 12 / ", "", "", false},
		{"Empty world", " / Alice", "", "", false},
		{"Extra slashes stay in slot", "Async / Alice / Bob", "Async", "Alice / Bob", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world, slot, ok := parseWorldSlot(tt.args)
			if world != tt.wantWorld || slot != tt.wantSlot || ok != tt.wantOK {
				t.Errorf("parseWorldSlot(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.args, world, slot, ok, tt.wantWorld, tt.wantSlot, tt.wantOK)
			}
		})
	}
}

func TestParseSlotLines(t *testing.T) {
	lines := []string{
		"Alice | Hollow Knight, Clique | likes hints | 3",
		"",
		"Bob | Stardew Valley",
		"   ",
		"Carol",
	}

	slots := parseSlotLines(lines)
	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}

	if slots[0].Name != "Alice" || slots[0].Games != "Hollow Knight, Clique" || slots[0].Notes != "likes hints" || slots[0].Points != "3" {
		t.Errorf("slot 0 parsed as %+v", slots[0])
	}
	if slots[1].Name != "Bob" || slots[1].Games != "Stardew Valley" || slots[1].Notes != "" {
		t.Errorf("slot 1 parsed as %+v", slots[1])
	}
	if slots[2].Name != "Carol" || slots[2].Games != "" {
		t.Errorf("slot 2 parsed as %+v", slots[2])
	}
}
