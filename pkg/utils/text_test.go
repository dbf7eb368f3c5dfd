package utils

import "testing"

func TestFormatGameList(t *testing.T) {
	tests := []struct {
		name  string
		games []string
		want  string
	}{
		{
			name:  "Single game",
			games: []string{"Noita"},
			want:  "Noita",
		},
		{
			name:  "Repeated game",
			games: []string{"Clique", "Clique"},
			want:  "Clique x2",
		},
		{
			name:  "Mixed games sorted",
			games: []string{"Noita", "Clique", "Clique"},
			want:  "Clique x2, Noita",
		},
		{
			name:  "Empty list",
			games: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatGameList(tt.games); got != tt.want {
				t.Errorf("FormatGameList() = %q, want %q", got, tt.want)
			}
		})
	}
}
