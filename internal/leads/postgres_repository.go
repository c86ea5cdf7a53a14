package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the slice of pgxpool.Pool the repository uses; tests
// substitute a mock.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// newPostgresRepositoryWithQuerier exists for tests.
func newPostgresRepositoryWithQuerier(q pgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: q}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, conversation_id, name, email, phone, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.ConversationID,
		req.Name,
		req.Email,
		req.Phone,
		req.Source,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:             id.String(),
		ConversationID: req.ConversationID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Source:         req.Source,
		CreatedAt:      createdAt,
	}, nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `
		SELECT id, conversation_id, name, email, phone, source, created_at
		FROM leads
		WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.ConversationID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Source,
		&lead.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return &lead, nil
}
