package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/jpmahinay/smashers/models"
	"github.com/jpmahinay/smashers/repositories"
	"golang.org/x/sync/errgroup"
)

// RankingService - тонкое read-only представление поверх текущих
// рейтингов. Ничего не пишет и не кэширует.
type RankingService interface {
	PlayerLeaderboard(ctx context.Context) ([]models.User, error)
	CoupleLeaderboard(ctx context.Context) ([]*models.Couple, error)
}

type rankingService struct {
	userRepo   repositories.UserRepository
	coupleRepo repositories.CoupleRepository
}

func NewRankingService(userRepo repositories.UserRepository, coupleRepo repositories.CoupleRepository) RankingService {
	return &rankingService{userRepo: userRepo, coupleRepo: coupleRepo}
}

// PlayerLeaderboard - approved игроки по убыванию рейтинга, при
// равенстве по имени.
func (s *rankingService) PlayerLeaderboard(ctx context.Context) ([]models.User, error) {
	status := models.StatusApproved
	users, err := s.userRepo.List(ctx, &status)
	if err != nil {
		return nil, fmt.Errorf("failed to load player leaderboard: %w", err)
	}

	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Rating != users[j].Rating {
			return users[i].Rating > users[j].Rating
		}
		return users[i].Name < users[j].Name
	})
	return users, nil
}

// CoupleLeaderboard подгружает пары и их игроков параллельно.
func (s *rankingService) CoupleLeaderboard(ctx context.Context) ([]*models.Couple, error) {
	var couples []*models.Couple
	var users []models.User

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		couples, err = s.coupleRepo.List(gCtx)
		return err
	})
	g.Go(func() error {
		status := models.StatusApproved
		var err error
		users, err = s.userRepo.List(gCtx, &status)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load couple leaderboard: %w", err)
	}

	byID := make(map[int]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	for _, couple := range couples {
		couple.Player1 = byID[couple.Player1ID]
		couple.Player2 = byID[couple.Player2ID]
	}
	return couples, nil
}
