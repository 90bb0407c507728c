package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jpmahinay/smashers/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchNotOngoing         = errors.New("match is not ongoing")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error)
	ListCompletedBetween(ctx context.Context, start, end time.Time) ([]*models.Match, error)
	UpdateScore(ctx context.Context, id, scoreTeamA, scoreTeamB int) error
	Complete(ctx context.Context, id int, winner models.TeamKey) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, team_a_player1, team_a_player2, team_b_player1, team_b_player2,
		score_team_a, score_team_b, status, winner_team, played_on, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
			(team_a_player1, team_a_player2, team_b_player1, team_b_player2,
			 score_team_a, score_team_b, status, played_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.TeamAPlayer1,
		match.TeamAPlayer2,
		match.TeamBPlayer1,
		match.TeamBPlayer2,
		match.ScoreTeamA,
		match.ScoreTeamB,
		match.Status,
		match.PlayedOn,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMatchParticipantInvalid
		}
		return err
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	var winner sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&match.ID,
		&match.TeamAPlayer1,
		&match.TeamAPlayer2,
		&match.TeamBPlayer1,
		&match.TeamBPlayer2,
		&match.ScoreTeamA,
		&match.ScoreTeamB,
		&match.Status,
		&winner,
		&match.PlayedOn,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	if winner.Valid {
		team := models.TeamKey(winner.String)
		match.WinnerTeam = &team
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE status = $1 ORDER BY created_at DESC, id DESC`
	return r.queryMatches(ctx, query, status)
}

// ListCompletedBetween - завершённые матчи за период, включительно
// с обеих сторон, свежие первыми.
func (r *postgresMatchRepository) ListCompletedBetween(ctx context.Context, start, end time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = $1 AND played_on >= $2 AND played_on <= $3
		ORDER BY played_on DESC, id DESC`
	return r.queryMatches(ctx, query, models.MatchStatusCompleted, start, end)
}

// UpdateScore перезаписывает счёт только пока матч идёт: условие по
// статусу прямо в запросе закрывает гонку с параллельным завершением.
func (r *postgresMatchRepository) UpdateScore(ctx context.Context, id, scoreTeamA, scoreTeamB int) error {
	query := `UPDATE matches SET score_team_a = $1, score_team_b = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, scoreTeamA, scoreTeamB, id, models.MatchStatusOngoing)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotOngoing)
}

// Complete - единственный переход ongoing -> completed. Повторный вызов
// не находит строку в статусе ongoing и возвращает ErrMatchNotOngoing.
func (r *postgresMatchRepository) Complete(ctx context.Context, id int, winner models.TeamKey) error {
	query := `UPDATE matches SET status = $1, winner_team = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, models.MatchStatusCompleted, winner, id, models.MatchStatusOngoing)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotOngoing)
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		var winner sql.NullString
		if scanErr := rows.Scan(
			&match.ID,
			&match.TeamAPlayer1,
			&match.TeamAPlayer2,
			&match.TeamBPlayer1,
			&match.TeamBPlayer2,
			&match.ScoreTeamA,
			&match.ScoreTeamB,
			&match.Status,
			&winner,
			&match.PlayedOn,
			&match.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		if winner.Valid {
			team := models.TeamKey(winner.String)
			match.WinnerTeam = &team
		}
		matches = append(matches, &match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}
