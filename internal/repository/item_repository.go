package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/reuniteapp/reunite-api/internal/models"
)

const itemColumns = `id, type, owner_id, title, description, category, location, normalized_location, keywords, status, expires_at, created_at, updated_at`

// ItemRepository provides database access for lost and found reports.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new instance of ItemRepository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new item row with generated defaults.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = models.ItemStatusOpen
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const query = `INSERT INTO items (id, type, owner_id, title, description, category, location, normalized_location, keywords, status, expires_at, created_at, updated_at)
VALUES (:id, :type, :owner_id, :title, :description, :category, :location, :normalized_location, :keywords, :status, :expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// FindByID returns an item by identifier.
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*models.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE id = $1 LIMIT 1`, itemColumns)
	var item models.Item
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find item by id: %w", err)
	}
	return &item, nil
}

// ListOpenByType retrieves the full open pool for one side of the
// board. Rows come back in a fixed order (created_at, then id) so a
// ranking over the pool is deterministic. Expiry is not filtered here;
// callers compare expires_at against their own notion of now.
func (r *ItemRepository) ListOpenByType(ctx context.Context, t models.ItemType) ([]models.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE type = $1 AND status = $2 ORDER BY created_at ASC, id ASC`, itemColumns)
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query, t, models.ItemStatusOpen); err != nil {
		return nil, fmt.Errorf("list open items: %w", err)
	}
	return items, nil
}

// UpdateEnrichment writes derived keyword and location fields back to
// the row.
func (r *ItemRepository) UpdateEnrichment(ctx context.Context, id string, keywords []string, normalizedLocation string) error {
	const query = `UPDATE items SET keywords = $2, normalized_location = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, pq.StringArray(keywords), normalizedLocation, time.Now().UTC()); err != nil {
		return fmt.Errorf("update item enrichment: %w", err)
	}
	return nil
}

// UpdateStatus transitions an open item to the given status. It
// reports whether a row actually changed, so callers can distinguish
// an already-closed item from a successful transition.
func (r *ItemRepository) UpdateStatus(ctx context.Context, id string, status models.ItemStatus) (bool, error) {
	const query = `UPDATE items SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC(), models.ItemStatusOpen)
	if err != nil {
		return false, fmt.Errorf("update item status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update item status rows: %w", err)
	}
	return affected > 0, nil
}

// MarkExpired flips open items past the cutoff to EXPIRED, at most
// limit rows per call, and returns the affected ids.
func (r *ItemRepository) MarkExpired(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 200
	}
	const query = `UPDATE items SET status = $1, updated_at = $2
WHERE id IN (
	SELECT id FROM items WHERE status = $3 AND expires_at < $4 ORDER BY expires_at ASC LIMIT $5
)
RETURNING id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, models.ItemStatusExpired, time.Now().UTC(), models.ItemStatusOpen, cutoff, limit); err != nil {
		return nil, fmt.Errorf("mark items expired: %w", err)
	}
	return ids, nil
}

// List returns items based on filters with total count.
func (r *ItemRepository) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, int, error) {
	baseQuery := `FROM items WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"expires_at": true,
		"title":      true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", itemColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	return items, total, nil
}
