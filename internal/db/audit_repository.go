package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/materialgate/gatepass/internal/models"
)

// Audit repository errors.
var (
	ErrInvalidAuditEntry = errors.New("invalid audit entry")
)

// AuditRepository handles the append-only audit log. Entries are never
// updated or deleted.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one audit entry. Actor attribution is mandatory: every
// state-changing action must name who did it and in what role.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	if entry.RequestID == "" || entry.Action == "" || entry.Actor == "" || entry.ActorRole == "" {
		return ErrInvalidAuditEntry
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	} else {
		entry.Timestamp = entry.Timestamp.UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, request_id, action, actor, actor_role, detail, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.RequestID, string(entry.Action),
		entry.Actor, string(entry.ActorRole), entry.Detail,
		formatTime(entry.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListByRequest returns a request's audit trail oldest-first.
func (r *AuditRepository) ListByRequest(ctx context.Context, requestID string) ([]*models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, action, actor, actor_role, detail, ts
		FROM audit_log
		WHERE request_id = ?
		ORDER BY ts, id
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []*models.AuditEntry
	for rows.Next() {
		var (
			entry  models.AuditEntry
			action string
			role   string
			ts     string
		)
		if err := rows.Scan(&entry.ID, &entry.RequestID, &action, &entry.Actor, &role, &entry.Detail, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Action = models.AuditAction(action)
		entry.ActorRole = models.Role(role)
		if entry.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}
