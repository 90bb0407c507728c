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
	ErrPartnershipRequestNotFound = errors.New("partnership request not found")
	ErrPartnershipRequestConflict = errors.New("partnership request already exists")
)

type PartnershipRepository interface {
	Create(ctx context.Context, request *models.PartnershipRequest) error
	GetByID(ctx context.Context, id int) (*models.PartnershipRequest, error)
	ListByUser(ctx context.Context, userID int) ([]*models.PartnershipRequest, error)
	ExistsBetween(ctx context.Context, userA, userB int) (bool, error)
	// Accept атомарно превращает заявку в пару: вставка couple и
	// удаление заявки в одной транзакции.
	Accept(ctx context.Context, requestID int, couple *models.Couple) error
	Delete(ctx context.Context, id int) error
}

type postgresPartnershipRepository struct {
	db *sql.DB
}

func NewPostgresPartnershipRepository(db *sql.DB) PartnershipRepository {
	return &postgresPartnershipRepository{db: db}
}

const partnershipColumns = `id, requester_id, requester_name, partner_id, created_at`

func (r *postgresPartnershipRepository) Create(ctx context.Context, request *models.PartnershipRequest) error {
	query := `
		INSERT INTO partnership_requests (requester_id, requester_name, partner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		request.RequesterID,
		request.RequesterName,
		request.PartnerID,
	).Scan(&request.ID, &request.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrPartnershipRequestConflict
		}
		return err
	}
	return nil
}

func (r *postgresPartnershipRepository) GetByID(ctx context.Context, id int) (*models.PartnershipRequest, error) {
	query := `SELECT ` + partnershipColumns + ` FROM partnership_requests WHERE id = $1`

	request := &models.PartnershipRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&request.ID,
		&request.RequesterID,
		&request.RequesterName,
		&request.PartnerID,
		&request.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPartnershipRequestNotFound
		}
		return nil, fmt.Errorf("failed to scan partnership request: %w", err)
	}
	return request, nil
}

// ListByUser - входящие и исходящие заявки пользователя.
func (r *postgresPartnershipRepository) ListByUser(ctx context.Context, userID int) ([]*models.PartnershipRequest, error) {
	query := `
		SELECT ` + partnershipColumns + `
		FROM partnership_requests
		WHERE requester_id = $1 OR partner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query partnership requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.PartnershipRequest, 0)
	for rows.Next() {
		var request models.PartnershipRequest
		if scanErr := rows.Scan(
			&request.ID,
			&request.RequesterID,
			&request.RequesterName,
			&request.PartnerID,
			&request.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan partnership request row: %w", scanErr)
		}
		requests = append(requests, &request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partnership request rows: %w", err)
	}
	return requests, nil
}

func (r *postgresPartnershipRepository) ExistsBetween(ctx context.Context, userA, userB int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM partnership_requests
			WHERE (requester_id = $1 AND partner_id = $2)
			   OR (requester_id = $2 AND partner_id = $1)
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userA, userB).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check partnership request existence: %w", err)
	}
	return exists, nil
}

func (r *postgresPartnershipRepository) Accept(ctx context.Context, requestID int, couple *models.Couple) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin accept transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO couples (player1_id, player2_id, rating, total_matches, total_wins)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, insertQuery,
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
		return fmt.Errorf("failed to insert couple for request %d: %w", requestID, err)
	}

	if err := deleteRequest(ctx, tx, requestID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresPartnershipRepository) Delete(ctx context.Context, id int) error {
	return deleteRequest(ctx, r.db, id)
}

func deleteRequest(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM partnership_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPartnershipRequestNotFound)
}
