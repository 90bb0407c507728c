package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpmahinay/smashers/models"
	"github.com/jpmahinay/smashers/repositories"
)

// MatchEventPublisher доставляет события матча подписанным клиентам.
// Реализуется websocket-хабом; в тестах подменяется заглушкой.
type MatchEventPublisher interface {
	PublishMatchEvent(matchID int, eventType string, payload interface{})
}

// Типы событий, уходящих в хаб.
const (
	EventMatchCreated   = "MATCH_CREATED"
	EventScoreUpdated   = "SCORE_UPDATED"
	EventMatchCompleted = "MATCH_COMPLETED"
)

type CreateMatchInput struct {
	TeamA []int `json:"team_a"`
	TeamB []int `json:"team_b"`

	// Альтернатива: собрать матч из двух существующих пар.
	TeamACouple *int `json:"team_a_couple,omitempty"`
	TeamBCouple *int `json:"team_b_couple,omitempty"`
}

// ScoreUpdate - результат обновления счёта. GamePoint - подсказка
// клиенту, что счёт уже позволяет завершить партию (>=21 с разницей
// >=2); движок сам матч никогда не завершает.
type ScoreUpdate struct {
	Match     *models.Match `json:"match"`
	GamePoint bool          `json:"game_point"`
}

// MatchResult - итог завершения матча. Warnings перечисляет сущности,
// чьи рейтинги не удалось записать: завершение матча при этом остаётся
// в силе и не откатывается.
type MatchResult struct {
	Match      *models.Match  `json:"match"`
	WinnerTeam models.TeamKey `json:"winner_team"`
	Warnings   []string       `json:"warnings,omitempty"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	UpdateScore(ctx context.Context, matchID, scoreTeamA, scoreTeamB int) (*ScoreUpdate, error)
	EndMatch(ctx context.Context, matchID int) (*MatchResult, error)
	ListOngoing(ctx context.Context) ([]*models.Match, error)
	History(ctx context.Context, startDate, endDate time.Time) ([]*models.Match, error)
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	userRepo       repositories.UserRepository
	coupleRepo     repositories.CoupleRepository
	attendanceRepo repositories.AttendanceRepository
	publisher      MatchEventPublisher
	logger         *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	coupleRepo repositories.CoupleRepository,
	attendanceRepo repositories.AttendanceRepository,
	publisher MatchEventPublisher,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		coupleRepo:     coupleRepo,
		attendanceRepo: attendanceRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	teamA, teamB, err := s.resolveTeams(ctx, input)
	if err != nil {
		return nil, err
	}

	// Четыре участника должны быть попарно различны.
	seen := make(map[int]bool, 4)
	for _, id := range []int{teamA[0], teamA[1], teamB[0], teamB[1]} {
		if seen[id] {
			return nil, ErrDuplicatePlayer
		}
		seen[id] = true
	}

	// Проверка доступности выполняется непосредственно перед вставкой,
	// а не по снапшоту страницы: два админа могут собирать матчи
	// одновременно.
	if err := s.validateAvailability(ctx, teamA, teamB); err != nil {
		return nil, err
	}

	match := &models.Match{
		TeamAPlayer1: teamA[0],
		TeamAPlayer2: teamA[1],
		TeamBPlayer1: teamB[0],
		TeamBPlayer2: teamB[1],
		ScoreTeamA:   0,
		ScoreTeamB:   0,
		Status:       models.MatchStatusOngoing,
		PlayedOn:     today(),
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	if err := s.resolveNames(ctx, match); err != nil {
		s.logger.Warn("failed to resolve participant names", slog.Int("match_id", match.ID), slog.Any("error", err))
	}
	s.publisher.PublishMatchEvent(match.ID, EventMatchCreated, match)
	return match, nil
}

func (s *matchService) UpdateScore(ctx context.Context, matchID, scoreTeamA, scoreTeamB int) (*ScoreUpdate, error) {
	if scoreTeamA < 0 || scoreTeamB < 0 {
		return nil, ErrNegativeScore
	}

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusOngoing {
		return nil, ErrMatchAlreadyCompleted
	}

	if err := s.matchRepo.UpdateScore(ctx, matchID, scoreTeamA, scoreTeamB); err != nil {
		if errors.Is(err, repositories.ErrMatchNotOngoing) {
			// Матч завершили между чтением и записью.
			return nil, ErrMatchAlreadyCompleted
		}
		return nil, fmt.Errorf("failed to update score for match %d: %w", matchID, err)
	}

	match.ScoreTeamA = scoreTeamA
	match.ScoreTeamB = scoreTeamB

	update := &ScoreUpdate{
		Match:     match,
		GamePoint: isGamePoint(scoreTeamA, scoreTeamB),
	}
	s.publisher.PublishMatchEvent(match.ID, EventScoreUpdated, update)
	return update, nil
}

func (s *matchService) EndMatch(ctx context.Context, matchID int) (*MatchResult, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusOngoing {
		return nil, ErrMatchAlreadyCompleted
	}
	if match.ScoreTeamA == match.ScoreTeamB {
		return nil, ErrTiedScore
	}

	winner := models.TeamB
	if match.ScoreTeamA > match.ScoreTeamB {
		winner = models.TeamA
	}

	// Переход ongoing -> completed однонаправленный. Проигравший гонку
	// повторный вызов получит ErrMatchNotOngoing от репозитория.
	if err := s.matchRepo.Complete(ctx, matchID, winner); err != nil {
		if errors.Is(err, repositories.ErrMatchNotOngoing) {
			return nil, ErrMatchAlreadyCompleted
		}
		return nil, fmt.Errorf("failed to complete match %d: %w", matchID, err)
	}
	match.Status = models.MatchStatusCompleted
	match.WinnerTeam = &winner

	// С этого момента результат матча зафиксирован. Сбои записи
	// рейтингов ниже не откатывают завершение, а копятся в warnings.
	warnings := s.applyRatingUpdates(ctx, match, winner)

	if err := s.resolveNames(ctx, match); err != nil {
		s.logger.Warn("failed to resolve participant names", slog.Int("match_id", match.ID), slog.Any("error", err))
	}

	result := &MatchResult{
		Match:      match,
		WinnerTeam: winner,
		Warnings:   warnings,
	}
	s.publisher.PublishMatchEvent(match.ID, EventMatchCompleted, result)
	return result, nil
}

func (s *matchService) ListOngoing(ctx context.Context) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByStatus(ctx, models.MatchStatusOngoing)
	if err != nil {
		return nil, fmt.Errorf("failed to list ongoing matches: %w", err)
	}
	if err := s.resolveNamesAll(ctx, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *matchService) History(ctx context.Context, startDate, endDate time.Time) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListCompletedBetween(ctx, dayOf(startDate), dayOf(endDate))
	if err != nil {
		return nil, fmt.Errorf("failed to list match history: %w", err)
	}
	if err := s.resolveNamesAll(ctx, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// resolveTeams разворачивает пары в составы, если матч собирается из
// couple id, либо валидирует явные составы.
func (s *matchService) resolveTeams(ctx context.Context, input CreateMatchInput) (teamA, teamB [2]int, err error) {
	if input.TeamACouple != nil || input.TeamBCouple != nil {
		if input.TeamACouple == nil || input.TeamBCouple == nil {
			return teamA, teamB, ErrValidationFailed
		}
		coupleA, err := s.coupleRepo.GetByID(ctx, *input.TeamACouple)
		if err != nil {
			return teamA, teamB, s.mapCoupleErr(err)
		}
		coupleB, err := s.coupleRepo.GetByID(ctx, *input.TeamBCouple)
		if err != nil {
			return teamA, teamB, s.mapCoupleErr(err)
		}
		teamA = [2]int{coupleA.Player1ID, coupleA.Player2ID}
		teamB = [2]int{coupleB.Player1ID, coupleB.Player2ID}
		return teamA, teamB, nil
	}

	if len(input.TeamA) != 2 || len(input.TeamB) != 2 {
		return teamA, teamB, ErrValidationFailed
	}
	teamA = [2]int{input.TeamA[0], input.TeamA[1]}
	teamB = [2]int{input.TeamB[0], input.TeamB[1]}
	return teamA, teamB, nil
}

// validateAvailability: approved, отмечен сегодня и не занят в идущем
// матче - для каждого из четырёх участников.
func (s *matchService) validateAvailability(ctx context.Context, teamA, teamB [2]int) error {
	ids := []int{teamA[0], teamA[1], teamB[0], teamB[1]}

	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load match participants: %w", err)
	}
	byID := make(map[int]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, id := range ids {
		user, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: id %d", ErrUserNotFound, id)
		}
		if user.Status != models.StatusApproved {
			return fmt.Errorf("%w: %s", ErrPlayerNotApproved, user.Name)
		}
	}

	record, err := s.attendanceRepo.GetByDay(ctx, today())
	if err != nil && !errors.Is(err, repositories.ErrAttendanceNotFound) {
		return fmt.Errorf("failed to load attendance: %w", err)
	}
	for _, id := range ids {
		if record == nil || !record.IsPresent(id) {
			return fmt.Errorf("%w: %s", ErrPlayerNotPresent, byID[id].Name)
		}
	}

	ongoing, err := s.matchRepo.ListByStatus(ctx, models.MatchStatusOngoing)
	if err != nil {
		return fmt.Errorf("failed to list ongoing matches: %w", err)
	}
	for _, m := range ongoing {
		for _, id := range ids {
			if m.HasParticipant(id) {
				return fmt.Errorf("%w: %s (match %d)", ErrPlayerInOngoingMatch, byID[id].Name, m.ID)
			}
		}
	}
	return nil
}

// applyRatingUpdates пересчитывает рейтинги игроков и затронутых пар.
// Каждая запись изолирована: сбой одной не мешает остальным.
func (s *matchService) applyRatingUpdates(ctx context.Context, match *models.Match, winner models.TeamKey) []string {
	var warnings []string

	ids := match.ParticipantIDs()
	users, err := s.userRepo.ListByIDs(ctx, ids[:])
	if err != nil {
		warning := fmt.Sprintf("rating update skipped: failed to load participants: %v", err)
		s.logger.Warn(warning, slog.Int("match_id", match.ID))
		return []string{warning}
	}
	ratingOf := make(map[int]int, len(users))
	for _, u := range users {
		ratingOf[u.ID] = u.Rating
	}

	// Рейтинги обеих команд берутся до применения любых дельт.
	preA := [2]int{ratingOf[match.TeamAPlayer1], ratingOf[match.TeamAPlayer2]}
	preB := [2]int{ratingOf[match.TeamBPlayer1], ratingOf[match.TeamBPlayer2]}
	for _, id := range ids {
		if _, ok := ratingOf[id]; !ok {
			warnings = append(warnings, fmt.Sprintf("user %d: not found, rating unchanged", id))
		}
	}
	newA, newB := updatedRatings(preA, preB, winner)

	postRating := map[int]int{
		match.TeamAPlayer1: newA[0],
		match.TeamAPlayer2: newA[1],
		match.TeamBPlayer1: newB[0],
		match.TeamBPlayer2: newB[1],
	}
	for _, id := range ids {
		if _, ok := ratingOf[id]; !ok {
			continue // уже в warnings
		}
		if err := s.userRepo.UpdateRating(ctx, id, postRating[id]); err != nil {
			warning := fmt.Sprintf("user %d: rating write failed: %v", id, err)
			s.logger.Warn("rating update failed", slog.Int("match_id", match.ID), slog.Int("user_id", id), slog.Any("error", err))
			warnings = append(warnings, warning)
		}
	}

	warnings = append(warnings, s.updateCoupleStats(ctx, match.TeamAIDs(), winner == models.TeamA, postRating)...)
	warnings = append(warnings, s.updateCoupleStats(ctx, match.TeamBIDs(), winner == models.TeamB, postRating)...)
	return warnings
}

// updateCoupleStats обновляет статистику пары, если состав команды
// в точности совпадает с существующей парой.
func (s *matchService) updateCoupleStats(ctx context.Context, team [2]int, won bool, postRating map[int]int) []string {
	couple, err := s.coupleRepo.FindByPair(ctx, team[0], team[1])
	if err != nil {
		if errors.Is(err, repositories.ErrCoupleNotFound) {
			return nil // команда собрана ad hoc, пары нет
		}
		return []string{fmt.Sprintf("couple lookup for players %d/%d failed: %v", team[0], team[1], err)}
	}

	wins := couple.TotalWins
	if won {
		wins++
	}
	rating := coupleRating(postRating[couple.Player1ID], postRating[couple.Player2ID])
	if err := s.coupleRepo.UpdateStats(ctx, couple.ID, rating, couple.TotalMatches+1, wins); err != nil {
		s.logger.Warn("couple stats update failed", slog.Int("couple_id", couple.ID), slog.Any("error", err))
		return []string{fmt.Sprintf("couple %d: stats write failed: %v", couple.ID, err)}
	}
	return nil
}

func (s *matchService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	return match, nil
}

func (s *matchService) mapCoupleErr(err error) error {
	if errors.Is(err, repositories.ErrCoupleNotFound) {
		return ErrCoupleNotFound
	}
	return err
}

func (s *matchService) resolveNames(ctx context.Context, match *models.Match) error {
	return s.resolveNamesAll(ctx, []*models.Match{match})
}

// resolveNamesAll подставляет имена участников одним запросом на всю
// пачку матчей.
func (s *matchService) resolveNamesAll(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}
	idSet := make(map[int]bool)
	for _, m := range matches {
		for _, id := range m.ParticipantIDs() {
			idSet[id] = true
		}
	}
	ids := make([]int, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve participant names: %w", err)
	}
	nameOf := make(map[int]string, len(users))
	for _, u := range users {
		nameOf[u.ID] = u.Name
	}
	name := func(id int) string {
		if n, ok := nameOf[id]; ok {
			return n
		}
		return "unknown"
	}

	for _, m := range matches {
		m.TeamANames = []string{name(m.TeamAPlayer1), name(m.TeamAPlayer2)}
		m.TeamBNames = []string{name(m.TeamBPlayer1), name(m.TeamBPlayer2)}
	}
	return nil
}

// isGamePoint - бадминтонное правило "до 21 с разницей в два".
// Только подсказка: завершает матч всегда админ.
func isGamePoint(scoreA, scoreB int) bool {
	hi, lo := scoreA, scoreB
	if hi < lo {
		hi, lo = lo, hi
	}
	return hi >= 21 && hi-lo >= 2
}

// today - текущая календарная дата в UTC, без времени.
func today() time.Time {
	return dayOf(time.Now().UTC())
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
