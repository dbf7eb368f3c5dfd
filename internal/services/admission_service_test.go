package services

import (
	"testing"

	"github.com/multiarchi/claimsbot/pkg/errors"
)

func TestDecideAdmission(t *testing.T) {
	r1, r2, r3 := uint(1), uint(2), uint(3)

	tests := []struct {
		name             string
		target           *uint
		maxClaims        int64
		currentRealities []uint
		currentCount     int64
		maxRealities     int
		wantCode         string
	}{
		{
			name:         "First claim anywhere",
			target:       &r1,
			maxClaims:    2,
			maxRealities: 2,
		},
		{
			name:             "Room left in known reality",
			target:           &r1,
			maxClaims:        2,
			currentRealities: []uint{r1},
			currentCount:     1,
			maxRealities:     2,
		},
		{
			name:             "Known reality full",
			target:           &r1,
			maxClaims:        2,
			currentRealities: []uint{r1},
			currentCount:     2,
			maxRealities:     2,
			wantCode:         errors.ErrCodeNoAvailableClaim,
		},
		{
			name:             "New reality under the limit",
			target:           &r2,
			maxClaims:        2,
			currentRealities: []uint{r1},
			maxRealities:     2,
		},
		{
			name:             "New reality over the limit",
			target:           &r3,
			maxClaims:        2,
			currentRealities: []uint{r1, r2},
			maxRealities:     2,
			wantCode:         errors.ErrCodeTooManyRealities,
		},
		{
			name:             "Reality limit does not block a known reality",
			target:           &r2,
			maxClaims:        2,
			currentRealities: []uint{r1, r2},
			currentCount:     1,
			maxRealities:     2,
		},
		{
			name:             "No-reality pool ignores the reality limit",
			target:           nil,
			maxClaims:        2,
			currentRealities: []uint{r1, r2},
			currentCount:     1,
			maxRealities:     2,
		},
		{
			name:         "No-reality pool full",
			target:       nil,
			maxClaims:    2,
			currentCount: 2,
			maxRealities: 2,
			wantCode:     errors.ErrCodeNoAvailableClaim,
		},
		{
			name:             "Reality limit checked before capacity",
			target:           &r3,
			maxClaims:        2,
			currentRealities: []uint{r1, r2},
			currentCount:     2,
			maxRealities:     2,
			wantCode:         errors.ErrCodeTooManyRealities,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decideAdmission(tt.target, tt.maxClaims, tt.currentRealities, tt.currentCount, tt.maxRealities)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("decideAdmission() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("decideAdmission() = nil, want code %s", tt.wantCode)
			}
			if got := errors.Code(err); got != tt.wantCode {
				t.Errorf("decideAdmission() code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}
