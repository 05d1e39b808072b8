package repositories

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pharmapos_backend/internal/models"
)

// AuditRepository writes and reads the append-only inventory audit trail.
// Entries are never updated or deleted.
type AuditRepository interface {
	CreateEntry(executor SQLExecutor, entry *models.AuditEntry) (int64, error)
	GetEntries(filters models.AuditFilters) ([]models.AuditEntry, int, error)
	GetEntriesByBatchID(batchID int64) ([]models.AuditEntry, error)
}

type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new instance of AuditRepository.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) CreateEntry(executor SQLExecutor, entry *models.AuditEntry) (int64, error) {
	query := `INSERT INTO inventory_audit
	            (batch_id, previous_quantity, new_quantity, change_type, reference_id, notes, user_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		entry.BatchID, entry.PreviousQuantity, entry.NewQuantity, entry.ChangeType,
		entry.ReferenceID, entry.Notes, entry.UserID, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating audit entry: %v", ErrDatabaseError, err)
	}
	return entry.ID, nil
}

// GetEntries returns a page of audit entries matching the filters, newest
// first, along with the total match count for pagination.
func (r *auditRepository) GetEntries(filters models.AuditFilters) ([]models.AuditEntry, int, error) {
	var conditions []string
	var args []interface{}

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filters.BatchID != nil {
		addCondition("batch_id = $%d", *filters.BatchID)
	}
	if filters.UserID != nil {
		addCondition("user_id = $%d", *filters.UserID)
	}
	if filters.ChangeType != nil {
		addCondition("change_type = $%d", *filters.ChangeType)
	}
	if filters.StartDate != nil {
		addCondition("created_at >= $%d", *filters.StartDate)
	}
	if filters.EndDate != nil {
		addCondition("created_at < ($%d)::date + 1", *filters.EndDate)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM inventory_audit` + whereClause
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: counting audit entries: %v", ErrDatabaseError, err)
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := `SELECT id, batch_id, previous_quantity, new_quantity, change_type,
	                 reference_id, notes, user_id, created_at
	          FROM inventory_audit` + whereClause + `
	          ORDER BY created_at DESC, id DESC
	          LIMIT ` + strconv.Itoa(pageSize) + ` OFFSET ` + strconv.Itoa(offset)

	entries, err := r.queryEntries(query, args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// GetEntriesByBatchID returns the full history of one batch in chronological
// order, oldest first, so the chain previous -> new can be replayed.
func (r *auditRepository) GetEntriesByBatchID(batchID int64) ([]models.AuditEntry, error) {
	query := `SELECT id, batch_id, previous_quantity, new_quantity, change_type,
	                 reference_id, notes, user_id, created_at
	          FROM inventory_audit
	          WHERE batch_id = $1
	          ORDER BY created_at ASC, id ASC`
	return r.queryEntries(query, batchID)
}

func (r *auditRepository) queryEntries(query string, args ...interface{}) ([]models.AuditEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying audit entries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var entry models.AuditEntry
		err := rows.Scan(
			&entry.ID, &entry.BatchID, &entry.PreviousQuantity, &entry.NewQuantity,
			&entry.ChangeType, &entry.ReferenceID, &entry.Notes, &entry.UserID, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning audit entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating audit rows: %v", ErrDatabaseError, err)
	}
	return entries, nil
}
