package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jpmahinay/smashers/models"
	"github.com/lib/pq"
)

var (
	ErrCoupleNotFound      = errors.New("couple not found")
	ErrCouplePlayerInvalid = errors.New("couple player conflict or invalid")
)

type CoupleRepository interface {
	Create(ctx context.Context, couple *models.Couple) error
	GetByID(ctx context.Context, id int) (*models.Couple, error)
	List(ctx context.Context) ([]*models.Couple, error)
	FindByMember(ctx context.Context, userID int) (*models.Couple, error)
	FindByPair(ctx context.Context, player1ID, player2ID int) (*models.Couple, error)
	UpdateStats(ctx context.Context, id, rating, totalMatches, totalWins int) error
	Delete(ctx context.Context, id int) error
}

type postgresCoupleRepository struct {
	db *sql.DB
}

func NewPostgresCoupleRepository(db *sql.DB) CoupleRepository {
	return &postgresCoupleRepository{db: db}
}

const coupleColumns = `id, player1_id, player2_id, rating, total_matches, total_wins, created_at`

func (r *postgresCoupleRepository) Create(ctx context.Context, couple *models.Couple) error {
	query := `
		INSERT INTO couples (player1_id, player2_id, rating, total_matches, total_wins)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		couple.Player1ID,
		couple.Player2ID,
		couple.Rating,
		couple.TotalMatches,
		couple.TotalWins,
	).Scan(&couple.ID, &couple.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrCouplePlayerInvalid
		}
		return err
	}
	return nil
}

func (r *postgresCoupleRepository) GetByID(ctx context.Context, id int) (*models.Couple, error) {
	query := `SELECT ` + coupleColumns + ` FROM couples WHERE id = $1`
	return r.scanCouple(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresCoupleRepository) List(ctx context.Context) ([]*models.Couple, error) {
	query := `SELECT ` + coupleColumns + ` FROM couples ORDER BY rating DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query couples: %w", err)
	}
	defer rows.Close()

	couples := make([]*models.Couple, 0)
	for rows.Next() {
		var couple models.Couple
		if scanErr := rows.Scan(
			&couple.ID,
			&couple.Player1ID,
			&couple.Player2ID,
			&couple.Rating,
			&couple.TotalMatches,
			&couple.TotalWins,
			&couple.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan couple row: %w", scanErr)
		}
		couples = append(couples, &couple)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating couple rows: %w", err)
	}
	return couples, nil
}

// FindByMember возвращает активную пару игрока. Благодаря инварианту
// "один игрок - одна пара" их не бывает больше одной.
func (r *postgresCoupleRepository) FindByMember(ctx context.Context, userID int) (*models.Couple, error) {
	query := `SELECT ` + coupleColumns + ` FROM couples WHERE player1_id = $1 OR player2_id = $1`
	return r.scanCouple(r.db.QueryRowContext(ctx, query, userID))
}

// FindByPair ищет пару по неупорядоченной паре id.
func (r *postgresCoupleRepository) FindByPair(ctx context.Context, player1ID, player2ID int) (*models.Couple, error) {
	query := `
		SELECT ` + coupleColumns + `
		FROM couples
		WHERE (player1_id = $1 AND player2_id = $2)
		   OR (player1_id = $2 AND player2_id = $1)`
	return r.scanCouple(r.db.QueryRowContext(ctx, query, player1ID, player2ID))
}

func (r *postgresCoupleRepository) UpdateStats(ctx context.Context, id, rating, totalMatches, totalWins int) error {
	query := `UPDATE couples SET rating = $1, total_matches = $2, total_wins = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, rating, totalMatches, totalWins, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCoupleNotFound)
}

func (r *postgresCoupleRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM couples WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCoupleNotFound)
}

func (r *postgresCoupleRepository) scanCouple(row *sql.Row) (*models.Couple, error) {
	var couple models.Couple
	err := row.Scan(
		&couple.ID,
		&couple.Player1ID,
		&couple.Player2ID,
		&couple.Rating,
		&couple.TotalMatches,
		&couple.TotalWins,
		&couple.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCoupleNotFound
		}
		return nil, fmt.Errorf("failed to scan couple: %w", err)
	}
	return &couple, nil
}
