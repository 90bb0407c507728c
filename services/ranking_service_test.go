package services

import (
	"context"
	"testing"

	"github.com/jpmahinay/smashers/models"
)

func TestPlayerLeaderboard(t *testing.T) {
	pending := approvedPlayer(5, "Egor", 1990)
	pending.Status = models.StatusPending
	users := newFakeUserRepo(
		approvedPlayer(1, "Anna", 1516),
		approvedPlayer(2, "Boris", 1484),
		approvedPlayer(3, "Carl", 1516),
		approvedPlayer(4, "Dina", 1600),
		pending,
	)
	svc := NewRankingService(users, newFakeCoupleRepo())

	leaderboard, err := svc.PlayerLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("PlayerLeaderboard: %v", err)
	}

	// Рейтинг по убыванию, при равенстве по имени; pending не попадает.
	wantNames := []string{"Dina", "Anna", "Carl", "Boris"}
	if len(leaderboard) != len(wantNames) {
		t.Fatalf("leaderboard size = %d, want %d", len(leaderboard), len(wantNames))
	}
	for i, name := range wantNames {
		if leaderboard[i].Name != name {
			t.Errorf("leaderboard[%d] = %q, want %q", i, leaderboard[i].Name, name)
		}
	}
}

func TestCoupleLeaderboard(t *testing.T) {
	users := newFakeUserRepo(
		approvedPlayer(1, "Anna", 1516),
		approvedPlayer(2, "Boris", 1484),
		approvedPlayer(3, "Carl", 1600),
		approvedPlayer(4, "Dina", 1600),
	)
	couples := newFakeCoupleRepo(
		&models.Couple{ID: 1, Player1ID: 1, Player2ID: 2, Rating: 1500},
		&models.Couple{ID: 2, Player1ID: 3, Player2ID: 4, Rating: 1600},
	)
	svc := NewRankingService(users, couples)

	leaderboard, err := svc.CoupleLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("CoupleLeaderboard: %v", err)
	}
	if len(leaderboard) != 2 {
		t.Fatalf("leaderboard size = %d, want 2", len(leaderboard))
	}
	if leaderboard[0].Rating < leaderboard[1].Rating {
		t.Errorf("couples not sorted by rating: %d before %d", leaderboard[0].Rating, leaderboard[1].Rating)
	}
	for _, couple := range leaderboard {
		if couple.Player1 == nil || couple.Player2 == nil {
			t.Errorf("couple %d missing resolved players", couple.ID)
		}
	}
}
