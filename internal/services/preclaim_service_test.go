package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/multiarchi/claimsbot/internal/models"
	"github.com/multiarchi/claimsbot/internal/repositories"
)

func TestPickWinners_OnePerSlot(t *testing.T) {
	pairs := []repositories.PreclaimPair{
		{SlotID: 1, PlayerID: 10},
		{SlotID: 2, PlayerID: 11},
		{SlotID: 1, PlayerID: 12},
		{SlotID: 3, PlayerID: 10},
		{SlotID: 2, PlayerID: 13},
	}
	rng := rand.New(rand.NewSource(1))

	winners := pickWinners(pairs, rng)

	if len(winners) != 3 {
		t.Fatalf("got %d winners, want 3", len(winners))
	}
	seen := make(map[uint]bool)
	for i, winner := range winners {
		if seen[winner.SlotID] {
			t.Errorf("slot %d drawn twice", winner.SlotID)
		}
		seen[winner.SlotID] = true

		found := false
		for _, pair := range pairs {
			if pair.SlotID == winner.SlotID && pair.PlayerID == winner.PlayerID {
				found = true
			}
		}
		if !found {
			t.Errorf("winner %d of slot %d was not a contender", winner.PlayerID, winner.SlotID)
		}
		// Slots come out in first-appearance order.
		wantSlot := []uint{1, 2, 3}[i]
		if winner.SlotID != wantSlot {
			t.Errorf("winner %d has slot %d, want %d", i, winner.SlotID, wantSlot)
		}
	}
}

func TestPickWinners_Empty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if winners := pickWinners(nil, rng); len(winners) != 0 {
		t.Errorf("got %d winners for no contenders, want 0", len(winners))
	}
}

func TestPickWinners_SoleContenderAlwaysWins(t *testing.T) {
	pairs := []repositories.PreclaimPair{{SlotID: 7, PlayerID: 42}}
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 50; i++ {
		winners := pickWinners(pairs, rng)
		if len(winners) != 1 || winners[0].PlayerID != 42 {
			t.Fatalf("iteration %d: got %v, want sole contender 42", i, winners)
		}
	}
}

func TestPreclaimService_ResolveIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	playerRepo := repositories.NewPlayerRepository(db)
	claimRepo := repositories.NewClaimRepository(db)
	preclaimRepo := repositories.NewPreclaimRepository(db)
	worldRepo := repositories.NewWorldRepository(db)
	admission := NewAdmissionService(claimRepo, 2, 2)
	svc := NewPreclaimService(preclaimRepo, worldRepo, playerRepo, admission, nil, rand.New(rand.NewSource(3)))

	world := &models.World{Name: "Glacier", PreclaimEnd: time.Now().Add(-time.Hour).Unix()}
	if err := worldRepo.CreateWorld(world); err != nil {
		t.Fatalf("CreateWorld() error = %v", err)
	}
	slots := []models.Slot{{WorldID: world.ID, Name: "Frost", Games: "Clique"}}
	if err := worldRepo.CreateSlots(slots); err != nil {
		t.Fatalf("CreateSlots() error = %v", err)
	}

	for i, name := range []string{"alice", "bob"} {
		player, err := playerRepo.GetOrCreate(int64(i+1), name)
		if err != nil {
			t.Fatalf("GetOrCreate(%s) error = %v", name, err)
		}
		if err := preclaimRepo.Create(&models.Preclaim{SlotID: slots[0].ID, PlayerID: player.ID}); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	first, err := svc.Resolve("Glacier")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(first) != 1 || first[0].SlotID != slots[0].ID {
		t.Fatalf("first resolution = %v, want one winner for slot %d", first, slots[0].ID)
	}

	// A preclaim sneaking in after resolution must not trigger a redraw.
	late, err := playerRepo.GetOrCreate(3, "carol")
	if err != nil {
		t.Fatalf("GetOrCreate(carol) error = %v", err)
	}
	if err := preclaimRepo.Create(&models.Preclaim{SlotID: slots[0].ID, PlayerID: late.ID}); err != nil {
		t.Fatalf("Create(carol) error = %v", err)
	}

	second, err := svc.Resolve("Glacier")
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if len(second) != 1 || second[0] != first[0] {
		t.Errorf("second resolution = %v, want the recorded outcome %v", second, first)
	}
}

func TestPickWinners_UniformAmongContenders(t *testing.T) {
	pairs := []repositories.PreclaimPair{
		{SlotID: 1, PlayerID: 10},
		{SlotID: 1, PlayerID: 11},
		{SlotID: 1, PlayerID: 12},
	}
	rng := rand.New(rand.NewSource(7))

	const draws = 9000
	wins := make(map[uint]int)
	for i := 0; i < draws; i++ {
		winners := pickWinners(pairs, rng)
		wins[winners[0].PlayerID]++
	}

	for _, pair := range pairs {
		got := wins[pair.PlayerID]
		// Expect roughly a third each; allow a wide margin to keep the test
		// stable across rand implementations.
		if got < draws/3-draws/10 || got > draws/3+draws/10 {
			t.Errorf("player %d won %d of %d draws, want about %d", pair.PlayerID, got, draws, draws/3)
		}
	}
}
