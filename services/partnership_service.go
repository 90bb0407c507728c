package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jpmahinay/smashers/models"
	"github.com/jpmahinay/smashers/repositories"
)

type PartnershipService interface {
	RequestPartner(ctx context.Context, requesterID, partnerID int) (*models.PartnershipRequest, error)
	AcceptRequest(ctx context.Context, requestID, actorID int) (*models.Couple, error)
	DeclineRequest(ctx context.Context, requestID, actorID int) error
	CancelRequest(ctx context.Context, requestID, actorID int) error
	ListRequests(ctx context.Context, userID int) ([]*models.PartnershipRequest, error)
	CreateCouple(ctx context.Context, player1ID, player2ID int) (*models.Couple, error)
	Disband(ctx context.Context, coupleID int) error
	ListCouples(ctx context.Context) ([]*models.Couple, error)
}

type partnershipService struct {
	partnershipRepo repositories.PartnershipRepository
	coupleRepo      repositories.CoupleRepository
	userRepo        repositories.UserRepository
}

func NewPartnershipService(
	partnershipRepo repositories.PartnershipRepository,
	coupleRepo repositories.CoupleRepository,
	userRepo repositories.UserRepository,
) PartnershipService {
	return &partnershipService{
		partnershipRepo: partnershipRepo,
		coupleRepo:      coupleRepo,
		userRepo:        userRepo,
	}
}

func (s *partnershipService) RequestPartner(ctx context.Context, requesterID, partnerID int) (*models.PartnershipRequest, error) {
	if requesterID == partnerID {
		return nil, ErrSelfPartnership
	}

	requester, err := s.approvedUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.approvedUser(ctx, partnerID); err != nil {
		return nil, err
	}

	// Игрок состоит максимум в одной активной паре.
	if err := s.ensureUnpaired(ctx, requesterID, partnerID); err != nil {
		return nil, err
	}

	exists, err := s.partnershipRepo.ExistsBetween(ctx, requesterID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing requests: %w", err)
	}
	if exists {
		return nil, ErrRequestAlreadyExists
	}

	request := &models.PartnershipRequest{
		RequesterID:   requesterID,
		RequesterName: requester.Name,
		PartnerID:     partnerID,
	}
	if err := s.partnershipRepo.Create(ctx, request); err != nil {
		if errors.Is(err, repositories.ErrPartnershipRequestConflict) {
			return nil, ErrRequestAlreadyExists
		}
		return nil, fmt.Errorf("failed to create partnership request: %w", err)
	}
	return request, nil
}

// AcceptRequest: принять может только адресат. Заявка превращается в
// пару атомарно и перестаёт существовать.
func (s *partnershipService) AcceptRequest(ctx context.Context, requestID, actorID int) (*models.Couple, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.PartnerID != actorID {
		return nil, ErrForbiddenOperation
	}

	// Между созданием заявки и принятием любой из двоих мог уже
	// вступить в другую пару.
	if err := s.ensureUnpaired(ctx, request.RequesterID, request.PartnerID); err != nil {
		return nil, err
	}

	couple, err := s.buildCouple(ctx, request.RequesterID, request.PartnerID)
	if err != nil {
		return nil, err
	}
	if err := s.partnershipRepo.Accept(ctx, requestID, couple); err != nil {
		if errors.Is(err, repositories.ErrPartnershipRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to accept partnership request %d: %w", requestID, err)
	}
	return couple, nil
}

func (s *partnershipService) DeclineRequest(ctx context.Context, requestID, actorID int) error {
	return s.removeRequest(ctx, requestID, func(r *models.PartnershipRequest) bool {
		return r.PartnerID == actorID
	})
}

func (s *partnershipService) CancelRequest(ctx context.Context, requestID, actorID int) error {
	return s.removeRequest(ctx, requestID, func(r *models.PartnershipRequest) bool {
		return r.RequesterID == actorID
	})
}

func (s *partnershipService) removeRequest(ctx context.Context, requestID int, allowed func(*models.PartnershipRequest) bool) error {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !allowed(request) {
		return ErrForbiddenOperation
	}
	if err := s.partnershipRepo.Delete(ctx, requestID); err != nil {
		if errors.Is(err, repositories.ErrPartnershipRequestNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("failed to delete partnership request %d: %w", requestID, err)
	}
	return nil
}

func (s *partnershipService) ListRequests(ctx context.Context, userID int) ([]*models.PartnershipRequest, error) {
	requests, err := s.partnershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list partnership requests: %w", err)
	}
	return requests, nil
}

// CreateCouple - прямой админский путь без заявки, валидация та же.
func (s *partnershipService) CreateCouple(ctx context.Context, player1ID, player2ID int) (*models.Couple, error) {
	if player1ID == player2ID {
		return nil, ErrSelfPartnership
	}
	if _, err := s.approvedUser(ctx, player1ID); err != nil {
		return nil, err
	}
	if _, err := s.approvedUser(ctx, player2ID); err != nil {
		return nil, err
	}
	if err := s.ensureUnpaired(ctx, player1ID, player2ID); err != nil {
		return nil, err
	}

	couple, err := s.buildCouple(ctx, player1ID, player2ID)
	if err != nil {
		return nil, err
	}
	if err := s.coupleRepo.Create(ctx, couple); err != nil {
		return nil, fmt.Errorf("failed to create couple: %w", err)
	}
	return couple, nil
}

func (s *partnershipService) Disband(ctx context.Context, coupleID int) error {
	if err := s.coupleRepo.Delete(ctx, coupleID); err != nil {
		if errors.Is(err, repositories.ErrCoupleNotFound) {
			return ErrCoupleNotFound
		}
		return fmt.Errorf("failed to disband couple %d: %w", coupleID, err)
	}
	return nil
}

func (s *partnershipService) ListCouples(ctx context.Context) ([]*models.Couple, error) {
	couples, err := s.coupleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list couples: %w", err)
	}
	return couples, nil
}

// buildCouple собирает новую пару: стартовый рейтинг - округлённое
// среднее текущих рейтингов игроков, счётчики с нуля.
func (s *partnershipService) buildCouple(ctx context.Context, player1ID, player2ID int) (*models.Couple, error) {
	users, err := s.userRepo.ListByIDs(ctx, []int{player1ID, player2ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load couple members: %w", err)
	}
	ratingOf := make(map[int]int, 2)
	for _, u := range users {
		ratingOf[u.ID] = u.Rating
	}
	r1, ok1 := ratingOf[player1ID]
	r2, ok2 := ratingOf[player2ID]
	if !ok1 || !ok2 {
		return nil, ErrUserNotFound
	}

	return &models.Couple{
		Player1ID: player1ID,
		Player2ID: player2ID,
		Rating:    coupleRating(r1, r2),
	}, nil
}

func (s *partnershipService) approvedUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotApproved, user.Name)
	}
	return user, nil
}

func (s *partnershipService) ensureUnpaired(ctx context.Context, userIDs ...int) error {
	for _, id := range userIDs {
		_, err := s.coupleRepo.FindByMember(ctx, id)
		if err == nil {
			return fmt.Errorf("%w: user %d", ErrPlayerAlreadyPaired, id)
		}
		if !errors.Is(err, repositories.ErrCoupleNotFound) {
			return fmt.Errorf("failed to check existing couple for user %d: %w", id, err)
		}
	}
	return nil
}

func (s *partnershipService) getRequest(ctx context.Context, requestID int) (*models.PartnershipRequest, error) {
	request, err := s.partnershipRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrPartnershipRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load partnership request %d: %w", requestID, err)
	}
	return request, nil
}
