package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/reuniteapp/reunite-api/internal/models"
)

const matchColumns = `id, lost_item_id, found_item_id, score, matched_on, status, created_at`

// MatchRepository persists match records. The matches table carries
// UNIQUE(lost_item_id, found_item_id), which makes Insert the
// serialization point when two passes race over the same pair.
type MatchRepository struct {
	db *sqlx.DB
}

// NewMatchRepository constructs the repository.
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Insert stores the match unless the pair already exists. The second
// return reports whether this call created the row; a false with nil
// error means another pass got there first and the caller must not
// notify.
func (r *MatchRepository) Insert(ctx context.Context, record *models.MatchRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = models.MatchStatusNotified
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO matches (id, lost_item_id, found_item_id, score, matched_on, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (lost_item_id, found_item_id) DO NOTHING
RETURNING id`
	var insertedID string
	err := r.db.QueryRowxContext(ctx, query, record.ID, record.LostItemID, record.FoundItemID, record.Score, record.MatchedOn, record.Status, record.CreatedAt).Scan(&insertedID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("insert match: %w", err)
	}
	record.ID = insertedID
	return true, nil
}

// Exists reports whether the pair has already been recorded.
func (r *MatchRepository) Exists(ctx context.Context, lostItemID, foundItemID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM matches WHERE lost_item_id = $1 AND found_item_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, lostItemID, foundItemID); err != nil {
		return false, fmt.Errorf("check match exists: %w", err)
	}
	return exists, nil
}

// ListForItem returns every match the item participates in, on either
// side, best score first.
func (r *MatchRepository) ListForItem(ctx context.Context, itemID string) ([]models.MatchRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE lost_item_id = $1 OR found_item_id = $1 ORDER BY score DESC, created_at ASC`, matchColumns)
	var records []models.MatchRecord
	if err := r.db.SelectContext(ctx, &records, query, itemID); err != nil {
		return nil, fmt.Errorf("list matches for item: %w", err)
	}
	return records, nil
}
