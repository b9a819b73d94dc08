package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/materialgate/gatepass/internal/models"
)

// Request repository errors.
var (
	ErrRequestNotFound = errors.New("request not found")
	ErrDuplicateID     = errors.New("request id already exists")
	ErrStepNotFound    = errors.New("approval step not found")

	// ErrConflict is returned when an update carries a stale version; the
	// caller must reread the row and retry.
	ErrConflict = errors.New("request was modified concurrently")
)

// RequestRepository handles request and approval-step persistence.
type RequestRepository struct {
	db *DB
}

// NewRequestRepository creates a new RequestRepository.
func NewRequestRepository(db *DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `
	id, direction, company, material, vehicle, driver_contact, gate,
	work_date, work_time, note, risk, status, version,
	created_at, created_by, approved_at, approved_by,
	executed_at, executed_by, signature_path, artifacts_json`

// Create inserts a new request together with its approval-step snapshot in
// one transaction. Returns ErrDuplicateID if the id is already taken.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request, steps []models.ApprovalStep) error {
	if req.ID == "" {
		return fmt.Errorf("request id is required")
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	if req.Version == 0 {
		req.Version = 1
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	artifacts, err := marshalArtifacts(req.ArtifactPaths)
	if err != nil {
		return err
	}

	return r.db.writeTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO requests (`+requestColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			req.ID, string(req.Direction), req.Company, req.Material, req.Vehicle,
			req.DriverContact, req.Gate, req.WorkDate, req.WorkTime, req.Note,
			string(req.Risk), string(req.Status), req.Version,
			formatTime(req.CreatedAt), req.CreatedBy,
			formatTimePtr(req.ApprovedAt), req.ApprovedBy,
			formatTimePtr(req.ExecutedAt), req.ExecutedBy,
			req.SignaturePath, artifacts,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateID
			}
			return fmt.Errorf("failed to insert request: %w", err)
		}

		for i := range steps {
			step := &steps[i]
			if step.ID == "" {
				step.ID = uuid.New().String()
			}
			step.RequestID = req.ID
			if step.Status == "" {
				step.Status = models.StepPending
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO approval_steps (id, request_id, seq, role, status, actor_name, signed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, step.ID, step.RequestID, step.Seq, string(step.Role),
				string(step.Status), step.ActorName, formatTimePtr(step.SignedAt),
			); err != nil {
				return fmt.Errorf("failed to insert approval step: %w", err)
			}
		}

		return nil
	})
}

// GetByID fetches a single request. Returns ErrRequestNotFound if absent.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests WHERE id = ?
	`, id)

	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query request: %w", err)
	}
	return req, nil
}

// Query defines the ledger filters. Zero values mean "no filter".
type Query struct {
	Status   models.RequestStatus
	WorkDate string // YYYY-MM-DD
	Limit    int
}

// List returns requests newest-first. Used for human browsing only, never
// for workflow decisions.
func (r *RequestRepository) List(ctx context.Context, q Query) ([]*models.Request, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if q.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.WorkDate != "" {
		clauses = append(clauses, "work_date = ?")
		args = append(args, q.WorkDate)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// Update carries the mutable fields of a partial request update. Nil fields
// are left untouched.
type Update struct {
	Status        *models.RequestStatus
	ApprovedAt    *time.Time
	ApprovedBy    *string
	ExecutedAt    *time.Time
	ExecutedBy    *string
	SignaturePath *string
	ArtifactPaths map[string]string
}

// UpdateFields applies a partial update guarded by the version counter.
// Returns ErrConflict when expectedVersion is stale, ErrRequestNotFound when
// the id is absent. The version is bumped on success.
func (r *RequestRepository) UpdateFields(ctx context.Context, id string, expectedVersion int64, upd Update) error {
	set := []string{"version = version + 1"}
	args := []any{}

	if upd.Status != nil {
		set = append(set, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.ApprovedAt != nil {
		set = append(set, "approved_at = ?")
		args = append(args, formatTime(*upd.ApprovedAt))
	}
	if upd.ApprovedBy != nil {
		set = append(set, "approved_by = ?")
		args = append(args, *upd.ApprovedBy)
	}
	if upd.ExecutedAt != nil {
		set = append(set, "executed_at = ?")
		args = append(args, formatTime(*upd.ExecutedAt))
	}
	if upd.ExecutedBy != nil {
		set = append(set, "executed_by = ?")
		args = append(args, *upd.ExecutedBy)
	}
	if upd.SignaturePath != nil {
		set = append(set, "signature_path = ?")
		args = append(args, *upd.SignaturePath)
	}
	if upd.ArtifactPaths != nil {
		artifacts, err := marshalArtifacts(upd.ArtifactPaths)
		if err != nil {
			return err
		}
		set = append(set, "artifacts_json = ?")
		args = append(args, artifacts)
	}

	args = append(args, id, expectedVersion)

	result, err := r.db.ExecContext(ctx, `
		UPDATE requests SET `+strings.Join(set, ", ")+`
		WHERE id = ? AND version = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing row from a stale version.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}

	return nil
}

// StepsByRequest returns the approval-step snapshot in chain order.
func (r *RequestRepository) StepsByRequest(ctx context.Context, requestID string) ([]models.ApprovalStep, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, seq, role, status, actor_name, signed_at
		FROM approval_steps
		WHERE request_id = ?
		ORDER BY seq
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval steps: %w", err)
	}
	defer rows.Close()

	var out []models.ApprovalStep
	for rows.Next() {
		var (
			step     models.ApprovalStep
			role     string
			status   string
			signedAt sql.NullString
		)
		if err := rows.Scan(&step.ID, &step.RequestID, &step.Seq, &role, &status, &step.ActorName, &signedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}
		step.Role = models.Role(role)
		step.Status = models.StepStatus(status)
		if step.SignedAt, err = parseTimePtr(signedAt); err != nil {
			return nil, err
		}
		out = append(out, step)
	}
	return out, rows.Err()
}

// UpdateStep records the outcome of one approval step.
func (r *RequestRepository) UpdateStep(ctx context.Context, stepID string, status models.StepStatus, actorName string, signedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE approval_steps
		SET status = ?, actor_name = ?, signed_at = ?
		WHERE id = ?
	`, string(status), actorName, formatTimePtr(signedAt), stepID)
	if err != nil {
		return fmt.Errorf("failed to update approval step: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStepNotFound
	}
	return nil
}

// CancelPendingSteps marks every still-pending step of a request cancelled.
// Used when a rejection short-circuits the chain.
func (r *RequestRepository) CancelPendingSteps(ctx context.Context, requestID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE approval_steps SET status = ?
		WHERE request_id = ? AND status = ?
	`, string(models.StepCancelled), requestID, string(models.StepPending))
	if err != nil {
		return fmt.Errorf("failed to cancel approval steps: %w", err)
	}
	return nil
}

// Stats is the dashboard/KPI summary for one work date.
type Stats struct {
	DateRequests int `json:"date_requests"`
	Pending      int `json:"pending"`
	Approved     int `json:"approved"`
	Executed     int `json:"executed"`
	HighRisk     int `json:"high_risk"`
}

// StatsForDate counts ledger rows for the KPI header.
func (r *RequestRepository) StatsForDate(ctx context.Context, workDate string) (*Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN work_date = ? THEN 1 END),
			COUNT(CASE WHEN status = 'PENDING' THEN 1 END),
			COUNT(CASE WHEN status = 'APPROVED' THEN 1 END),
			COUNT(CASE WHEN status = 'EXECUTED' THEN 1 END),
			COUNT(CASE WHEN risk = 'HIGH' THEN 1 END)
		FROM requests
	`, workDate).Scan(&s.DateRequests, &s.Pending, &s.Approved, &s.Executed, &s.HighRisk)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		req        models.Request
		direction  string
		risk       string
		status     string
		createdAt  string
		approvedAt sql.NullString
		executedAt sql.NullString
		artifacts  string
	)

	err := row.Scan(
		&req.ID, &direction, &req.Company, &req.Material, &req.Vehicle,
		&req.DriverContact, &req.Gate, &req.WorkDate, &req.WorkTime, &req.Note,
		&risk, &status, &req.Version,
		&createdAt, &req.CreatedBy, &approvedAt, &req.ApprovedBy,
		&executedAt, &req.ExecutedBy, &req.SignaturePath, &artifacts,
	)
	if err != nil {
		return nil, err
	}

	req.Direction = models.Direction(direction)
	req.Risk = models.RiskLevel(risk)
	req.Status = models.RequestStatus(status)

	if req.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if req.ApprovedAt, err = parseTimePtr(approvedAt); err != nil {
		return nil, err
	}
	if req.ExecutedAt, err = parseTimePtr(executedAt); err != nil {
		return nil, err
	}
	if artifacts != "" && artifacts != "{}" {
		if err := json.Unmarshal([]byte(artifacts), &req.ArtifactPaths); err != nil {
			return nil, fmt.Errorf("failed to decode artifacts json: %w", err)
		}
	}

	return &req, nil
}

func marshalArtifacts(paths map[string]string) (string, error) {
	if len(paths) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(paths)
	if err != nil {
		return "", fmt.Errorf("failed to encode artifacts json: %w", err)
	}
	return string(b), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint") ||
		strings.Contains(message, "constraint failed")
}
