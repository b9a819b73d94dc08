package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/materialgate/gatepass/internal/models"
)

// Attachment repository errors.
var (
	ErrChecklistNotFound = errors.New("checklist not found")
)

// AttachmentRepository handles photo and checklist persistence.
type AttachmentRepository struct {
	db *DB
}

// NewAttachmentRepository creates a new AttachmentRepository.
func NewAttachmentRepository(db *DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// ReplacePhotos stores a request's photo set, replacing any photos from an
// earlier interrupted attempt. The delete and inserts run in one
// transaction so a retry never leaves a mixed or doubled set.
func (r *AttachmentRepository) ReplacePhotos(ctx context.Context, requestID string, photos []models.Photo) error {
	if requestID == "" {
		return fmt.Errorf("photo request id is required")
	}

	return r.db.writeTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM photos WHERE request_id = ?`, requestID); err != nil {
			return fmt.Errorf("failed to clear photos: %w", err)
		}
		for i := range photos {
			p := &photos[i]
			p.RequestID = requestID
			if p.Path == "" {
				return fmt.Errorf("photo path is required")
			}
			if p.ID == "" {
				p.ID = uuid.New().String()
			}
			if p.UploadedAt.IsZero() {
				p.UploadedAt = time.Now().UTC()
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO photos (id, request_id, category, path, uploaded_by, uploaded_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, p.ID, p.RequestID, string(p.Category), p.Path, p.UploadedBy, formatTime(p.UploadedAt)); err != nil {
				return fmt.Errorf("failed to insert photo: %w", err)
			}
		}
		return nil
	})
}

// PhotosByRequest returns a request's photos in upload order.
func (r *AttachmentRepository) PhotosByRequest(ctx context.Context, requestID string) ([]models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, category, path, uploaded_by, uploaded_at
		FROM photos
		WHERE request_id = ?
		ORDER BY uploaded_at, id
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var out []models.Photo
	for rows.Next() {
		var (
			p        models.Photo
			category string
			uploaded string
		)
		if err := rows.Scan(&p.ID, &p.RequestID, &category, &p.Path, &p.UploadedBy, &uploaded); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		p.Category = models.PhotoCategory(category)
		if p.UploadedAt, err = parseTime(uploaded); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveChecklist upserts the one-to-one checklist record with its attendee
// roll.
func (r *AttachmentRepository) SaveChecklist(ctx context.Context, checklist *models.Checklist, attendees models.Attendees) error {
	if checklist.RequestID == "" {
		return fmt.Errorf("checklist request id is required")
	}
	if checklist.RecordedAt.IsZero() {
		checklist.RecordedAt = time.Now().UTC()
	}

	attendeesJSON, err := json.Marshal(attendees)
	if err != nil {
		return fmt.Errorf("failed to encode attendees: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO checklists (
			request_id, two_point_lashing, lashing_gear, stack_height,
			bed_within_width, wheel_chocks, within_rated_load,
			center_of_gravity, unload_zone_control,
			attendees_json, recorded_by, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO UPDATE SET
			two_point_lashing = excluded.two_point_lashing,
			lashing_gear = excluded.lashing_gear,
			stack_height = excluded.stack_height,
			bed_within_width = excluded.bed_within_width,
			wheel_chocks = excluded.wheel_chocks,
			within_rated_load = excluded.within_rated_load,
			center_of_gravity = excluded.center_of_gravity,
			unload_zone_control = excluded.unload_zone_control,
			attendees_json = excluded.attendees_json,
			recorded_by = excluded.recorded_by,
			recorded_at = excluded.recorded_at
	`,
		checklist.RequestID,
		string(checklist.TwoPointLashing), string(checklist.LashingGear),
		string(checklist.StackHeight), string(checklist.BedWithinWidth),
		string(checklist.WheelChocks), string(checklist.WithinRatedLoad),
		string(checklist.CenterOfGravity), string(checklist.UnloadZoneControl),
		string(attendeesJSON), checklist.RecordedBy, formatTime(checklist.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert checklist: %w", err)
	}
	return nil
}

// ChecklistByRequest fetches the checklist and attendee roll. Returns
// ErrChecklistNotFound if none was recorded.
func (r *AttachmentRepository) ChecklistByRequest(ctx context.Context, requestID string) (*models.Checklist, *models.Attendees, error) {
	var (
		c             models.Checklist
		judgments     [8]string
		attendeesJSON string
		recordedAt    string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT request_id, two_point_lashing, lashing_gear, stack_height,
		       bed_within_width, wheel_chocks, within_rated_load,
		       center_of_gravity, unload_zone_control,
		       attendees_json, recorded_by, recorded_at
		FROM checklists WHERE request_id = ?
	`, requestID).Scan(
		&c.RequestID, &judgments[0], &judgments[1], &judgments[2],
		&judgments[3], &judgments[4], &judgments[5], &judgments[6], &judgments[7],
		&attendeesJSON, &c.RecordedBy, &recordedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrChecklistNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query checklist: %w", err)
	}

	c.TwoPointLashing = models.Judgment(judgments[0])
	c.LashingGear = models.Judgment(judgments[1])
	c.StackHeight = models.Judgment(judgments[2])
	c.BedWithinWidth = models.Judgment(judgments[3])
	c.WheelChocks = models.Judgment(judgments[4])
	c.WithinRatedLoad = models.Judgment(judgments[5])
	c.CenterOfGravity = models.Judgment(judgments[6])
	c.UnloadZoneControl = models.Judgment(judgments[7])

	if c.RecordedAt, err = parseTime(recordedAt); err != nil {
		return nil, nil, err
	}

	var attendees models.Attendees
	if attendeesJSON != "" {
		if err := json.Unmarshal([]byte(attendeesJSON), &attendees); err != nil {
			return nil, nil, fmt.Errorf("failed to decode attendees: %w", err)
		}
	}

	return &c, &attendees, nil
}
