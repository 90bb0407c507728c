package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jpmahinay/smashers/models"
	"github.com/jpmahinay/smashers/repositories"
	"github.com/jpmahinay/smashers/storage"
)

type UpdateProfileInput struct {
	Name          string `json:"name"`
	Racket        string `json:"racket"`
	StringTension string `json:"string_tension"`
}

type RosterService interface {
	ListMembers(ctx context.Context, status *models.UserStatus) ([]models.User, error)
	GetMember(ctx context.Context, userID int) (*models.User, error)
	Approve(ctx context.Context, userID int) error
	Reject(ctx context.Context, userID int) error
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (string, error)
	SaveAttendance(ctx context.Context, day time.Time, presentUserIDs []int) error
	GetAttendance(ctx context.Context, day time.Time) (*models.AttendanceRecord, error)
	GetAvailablePlayers(ctx context.Context, day time.Time) ([]models.User, error)
}

type rosterService struct {
	userRepo       repositories.UserRepository
	attendanceRepo repositories.AttendanceRepository
	matchRepo      repositories.MatchRepository
	uploader       storage.FileUploader // nil, если R2 не сконфигурирован
}

func NewRosterService(
	userRepo repositories.UserRepository,
	attendanceRepo repositories.AttendanceRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
) RosterService {
	return &rosterService{
		userRepo:       userRepo,
		attendanceRepo: attendanceRepo,
		matchRepo:      matchRepo,
		uploader:       uploader,
	}
}

func (s *rosterService) ListMembers(ctx context.Context, status *models.UserStatus) ([]models.User, error) {
	users, err := s.userRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	for i := range users {
		s.attachAvatarURL(&users[i])
	}
	return users, nil
}

func (s *rosterService) GetMember(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	s.attachAvatarURL(user)
	return user, nil
}

// Approve переводит заявку pending -> approved.
func (s *rosterService) Approve(ctx context.Context, userID int) error {
	return s.resolvePending(ctx, userID, func() error {
		return s.userRepo.UpdateStatus(ctx, userID, models.StatusApproved)
	})
}

// Reject удаляет запись: отклонённые заявки в клубе не хранятся.
func (s *rosterService) Reject(ctx context.Context, userID int) error {
	return s.resolvePending(ctx, userID, func() error {
		return s.userRepo.Delete(ctx, userID)
	})
}

func (s *rosterService) resolvePending(ctx context.Context, userID int, apply func() error) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user.Status != models.StatusPending {
		return ErrUserNotPending
	}
	return apply()
}

func (s *rosterService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	err := s.userRepo.UpdateProfile(ctx, userID, input.Name, input.Racket, input.StringTension)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile for user %d: %w", userID, err)
	}
	return s.GetMember(ctx, userID)
}

func (s *rosterService) UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrAvatarUploadsDisabled
	}

	ext, ok := avatarExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedContentType
	}
	if _, err := s.GetMember(ctx, userID); err != nil {
		return "", err
	}

	key := fmt.Sprintf("avatars/%d%s", userID, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar for user %d: %w", userID, err)
	}
	if err := s.userRepo.UpdateAvatarKey(ctx, userID, result.Key); err != nil {
		return "", fmt.Errorf("failed to persist avatar key for user %d: %w", userID, err)
	}
	return result.Location, nil
}

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// SaveAttendance заменяет список присутствующих за день. Неизвестные
// id отклоняются целиком, частичной записи нет.
func (s *rosterService) SaveAttendance(ctx context.Context, day time.Time, presentUserIDs []int) error {
	unique := make([]int, 0, len(presentUserIDs))
	seen := make(map[int]bool, len(presentUserIDs))
	for _, id := range presentUserIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	if len(unique) > 0 {
		users, err := s.userRepo.ListByIDs(ctx, unique)
		if err != nil {
			return fmt.Errorf("failed to verify attendance list: %w", err)
		}
		if len(users) != len(unique) {
			return ErrUnknownAttendee
		}
	}

	if err := s.attendanceRepo.Upsert(ctx, dayOf(day), unique); err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}

// GetAttendance возвращает запись за день; отсутствие записи - это
// просто пустой список, не ошибка.
func (s *rosterService) GetAttendance(ctx context.Context, day time.Time) (*models.AttendanceRecord, error) {
	record, err := s.attendanceRepo.GetByDay(ctx, dayOf(day))
	if err != nil {
		if errors.Is(err, repositories.ErrAttendanceNotFound) {
			return &models.AttendanceRecord{Day: dayOf(day), PresentUserIDs: []int{}}, nil
		}
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}
	return record, nil
}

// GetAvailablePlayers = approved ∩ present(day) − участники идущих
// матчей. Пересчитывается при каждом вызове, без кэша.
func (s *rosterService) GetAvailablePlayers(ctx context.Context, day time.Time) ([]models.User, error) {
	record, err := s.GetAttendance(ctx, day)
	if err != nil {
		return nil, err
	}
	if len(record.PresentUserIDs) == 0 {
		return []models.User{}, nil
	}

	present, err := s.userRepo.ListByIDs(ctx, record.PresentUserIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load present players: %w", err)
	}

	ongoing, err := s.matchRepo.ListByStatus(ctx, models.MatchStatusOngoing)
	if err != nil {
		return nil, fmt.Errorf("failed to list ongoing matches: %w", err)
	}
	busy := make(map[int]bool)
	for _, m := range ongoing {
		for _, id := range m.ParticipantIDs() {
			busy[id] = true
		}
	}

	available := make([]models.User, 0, len(present))
	for _, user := range present {
		if user.Status != models.StatusApproved || busy[user.ID] {
			continue
		}
		s.attachAvatarURL(&user)
		available = append(available, user)
	}
	return available, nil
}

func (s *rosterService) attachAvatarURL(user *models.User) {
	if s.uploader == nil || user.AvatarKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*user.AvatarKey)
	user.AvatarURL = &url
}
