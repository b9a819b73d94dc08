// Package workflow implements the request lifecycle: submission, the
// ordered approval chain, rejection, execution and the advisory gate check.
// All state lives in the store; the service itself is stateless and safe for
// concurrent use.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/materialgate/gatepass/internal/artifacts"
	"github.com/materialgate/gatepass/internal/db"
	"github.com/materialgate/gatepass/internal/logging"
	"github.com/materialgate/gatepass/internal/models"
)

// Renderer produces the stage artifacts for a request snapshot. Satisfied
// by artifacts.Generator; tests substitute a stub.
type Renderer interface {
	ApprovalStage(snap artifacts.Snapshot) (*artifacts.StageResult, error)
	ExecutionStage(snap artifacts.Snapshot) (*artifacts.StageResult, error)
}

// Config carries the workflow policy knobs. The approval chain is read here
// only at submission; after that the snapshot on the request rows governs.
type Config struct {
	// ApprovalChains maps direction to the ordered approver roles.
	ApprovalChains map[models.Direction][]models.Role

	// ExecuteRoles lists roles allowed to record execution.
	ExecuteRoles []models.Role

	// TrainingURL is printed as a QR on the entry permit.
	TrainingURL string
}

// DefaultConfig mirrors the standing site policy: supervisor then safety
// sign inbound loads, supervisor alone signs outbound, executors and
// supervisors may record execution.
func DefaultConfig() Config {
	return Config{
		ApprovalChains: map[models.Direction][]models.Role{
			models.DirectionIn:  {models.RoleSupervisor, models.RoleSafety},
			models.DirectionOut: {models.RoleSupervisor},
		},
		ExecuteRoles: []models.Role{models.RoleExecutor, models.RoleSupervisor},
	}
}

func (c Config) chainFor(dir models.Direction) []models.Role {
	if chain, ok := c.ApprovalChains[dir]; ok && len(chain) > 0 {
		return chain
	}
	return []models.Role{models.RoleSupervisor}
}

func (c Config) canExecute(role models.Role) bool {
	for _, r := range c.ExecuteRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Service coordinates repositories and the renderer for one site.
type Service struct {
	requests *db.RequestRepository
	audit    *db.AuditRepository
	attach   *db.AttachmentRepository
	renderer Renderer
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a workflow service over the given store.
func NewService(database *db.DB, renderer Renderer, cfg Config, opts ...Option) *Service {
	s := &Service{
		requests: db.NewRequestRepository(database),
		audit:    db.NewAuditRepository(database),
		attach:   db.NewAttachmentRepository(database),
		renderer: renderer,
		cfg:      cfg,
		log:      logging.Component("workflow"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newRequestID builds an id like REQ_20260206_070000_1a2b3c: sortable by
// submission time, with a uuid fragment against same-second collisions.
func newRequestID(now time.Time) string {
	frag := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("REQ_%s_%s", now.Format("20060102_150405"), frag)
}

// Submit validates a draft, snapshots the approval chain for its direction
// and persists the new request in PENDING.
func (s *Service) Submit(ctx context.Context, sess models.Session, draft models.RequestDraft) (*models.Request, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if draft.Risk == "" {
		draft.Risk = models.RiskLow
	}

	now := s.now().UTC()
	req := &models.Request{
		ID:            newRequestID(now),
		Direction:     draft.Direction,
		Company:       draft.Company,
		Material:      draft.Material,
		Vehicle:       draft.Vehicle,
		DriverContact: draft.DriverContact,
		Gate:          draft.Gate,
		WorkDate:      draft.WorkDate,
		WorkTime:      draft.WorkTime,
		Note:          draft.Note,
		Risk:          draft.Risk,
		Status:        models.StatusPending,
		Version:       1,
		CreatedAt:     now,
		CreatedBy:     sess.ActorName,
	}

	chain := s.cfg.chainFor(draft.Direction)
	steps := make([]models.ApprovalStep, 0, len(chain))
	for i, role := range chain {
		steps = append(steps, models.ApprovalStep{
			ID:        uuid.NewString(),
			RequestID: req.ID,
			Seq:       i + 1,
			Role:      role,
			Status:    models.StepPending,
		})
	}

	if err := s.requests.Create(ctx, req, steps); err != nil {
		return nil, err
	}
	s.appendAudit(ctx, req.ID, models.AuditRequestSubmitted, sess, "")

	s.log.Info().
		Str("request_id", req.ID).
		Str("direction", string(req.Direction)).
		Str("actor", sess.ActorName).
		Msg("request submitted")
	return req, nil
}

// Approve signs the actor's pending step. When the last step signs, the
// request flips to APPROVED in the same call and the approval-stage
// artifacts are rendered. signaturePath may be empty.
func (s *Service) Approve(ctx context.Context, sess models.Session, id, signaturePath string) (*models.Request, *artifacts.StageResult, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if req.Status.Terminal() {
		return nil, nil, fmt.Errorf("%w: request already settled as %s", ErrInvalidState, req.Status)
	}
	if req.Status != models.StatusPending {
		return nil, nil, fmt.Errorf("%w: cannot approve %s request", ErrInvalidState, req.Status)
	}

	steps, err := s.requests.StepsByRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	step := firstPendingStep(steps)
	if step == nil {
		return nil, nil, fmt.Errorf("%w: no pending approval step", ErrInvalidState)
	}
	if sess.ActorRole != step.Role && !sess.Elevated {
		return nil, nil, fmt.Errorf("%w: step %d requires role %s", ErrForbidden, step.Seq, step.Role)
	}

	now := s.now().UTC()
	if err := s.requests.UpdateStep(ctx, step.ID, models.StepApproved, sess.ActorName, &now); err != nil {
		return nil, nil, err
	}
	step.Status = models.StepApproved
	step.ActorName = sess.ActorName
	step.SignedAt = &now
	s.appendAudit(ctx, id, models.AuditStepSigned, sess, fmt.Sprintf("step %d (%s)", step.Seq, step.Role))

	if firstPendingStep(steps) != nil {
		// Intermediate sign-off; persist the signature if one was captured.
		if signaturePath != "" {
			upd := db.Update{SignaturePath: &signaturePath}
			if err := s.requests.UpdateFields(ctx, id, req.Version, upd); err != nil {
				return nil, nil, err
			}
		}
		updated, err := s.requests.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		return updated, nil, nil
	}

	// Last step signed: flip to APPROVED and render.
	approved := models.StatusApproved
	req.Status = approved
	req.ApprovedAt = &now
	req.ApprovedBy = sess.ActorName
	if signaturePath != "" {
		req.SignaturePath = signaturePath
	}

	res, err := s.renderer.ApprovalStage(s.snapshot(req, steps, nil, nil, nil))
	if err != nil {
		return nil, nil, fmt.Errorf("render approval artifacts: %w", err)
	}

	upd := db.Update{
		Status:        &approved,
		ApprovedAt:    &now,
		ApprovedBy:    &sess.ActorName,
		ArtifactPaths: artifactPathMap(res),
	}
	if signaturePath != "" {
		upd.SignaturePath = &signaturePath
	}
	if err := s.requests.UpdateFields(ctx, id, req.Version, upd); err != nil {
		return nil, nil, err
	}
	s.appendAudit(ctx, id, models.AuditRequestApproved, sess, "")

	s.log.Info().
		Str("request_id", id).
		Str("actor", sess.ActorName).
		Int("warnings", len(res.Warnings)).
		Msg("request approved")

	final, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return final, res, nil
}

// Reject terminally cancels a pending request and its remaining steps.
func (s *Service) Reject(ctx context.Context, sess models.Session, id, reason string) (*models.Request, error) {
	if strings.TrimSpace(reason) == "" {
		var errs models.ValidationErrors
		errs.AddMessage("reason", "is required")
		return nil, errs.Err()
	}

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: request already settled as %s", ErrInvalidState, req.Status)
	}
	if req.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: cannot reject %s request", ErrInvalidState, req.Status)
	}

	steps, err := s.requests.StepsByRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Elevated && !roleInChain(sess.ActorRole, steps) {
		return nil, fmt.Errorf("%w: only approvers may reject", ErrForbidden)
	}

	rejected := models.StatusRejected
	if err := s.requests.UpdateFields(ctx, id, req.Version, db.Update{Status: &rejected}); err != nil {
		return nil, err
	}
	if err := s.requests.CancelPendingSteps(ctx, id); err != nil {
		return nil, err
	}
	s.appendAudit(ctx, id, models.AuditRequestRejected, sess, reason)

	s.log.Info().
		Str("request_id", id).
		Str("actor", sess.ActorName).
		Str("reason", reason).
		Msg("request rejected")
	return s.requests.GetByID(ctx, id)
}

// Execute records the inspection checklist, the attendee roll and the
// photos, then flips the request to EXECUTED and renders the full packet.
// Allowed from APPROVED and, for interrupted retries, from EXECUTING.
func (s *Service) Execute(ctx context.Context, sess models.Session, id string, checklist models.Checklist, attendees models.Attendees, photos []models.Photo) (*models.Request, *artifacts.StageResult, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != models.StatusApproved && req.Status != models.StatusExecuting {
		return nil, nil, fmt.Errorf("%w: cannot execute %s request", ErrInvalidState, req.Status)
	}
	if !sess.Elevated && !s.cfg.canExecute(sess.ActorRole) {
		return nil, nil, fmt.Errorf("%w: role %s cannot execute", ErrForbidden, sess.ActorRole)
	}

	if err := checklist.Validate(); err != nil {
		return nil, nil, err
	}
	var errs models.ValidationErrors
	for _, item := range checklist.Failures() {
		errs.AddMessage(item, "judged FAIL; resolve before completing")
	}
	for _, name := range attendees.Missing() {
		errs.AddMessage(name, "attendance not confirmed")
	}
	if err := errs.Err(); err != nil {
		return nil, nil, err
	}
	if missing := models.MissingRequiredCategories(photos); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %v", ErrIncompletePhotoSet, missing)
	}

	now := s.now().UTC()

	// Mark the attempt in flight first so an interrupted run is visible and
	// retryable rather than stuck looking APPROVED with partial uploads.
	version := req.Version
	if req.Status != models.StatusExecuting {
		executing := models.StatusExecuting
		if err := s.requests.UpdateFields(ctx, id, version, db.Update{Status: &executing}); err != nil {
			return nil, nil, err
		}
		version++
	}

	for i := range photos {
		if photos[i].ID == "" {
			photos[i].ID = uuid.NewString()
		}
		photos[i].RequestID = id
		photos[i].UploadedBy = sess.ActorName
		if photos[i].UploadedAt.IsZero() {
			photos[i].UploadedAt = now
		}
	}
	// Replace, not append: a retry after an interrupted attempt resubmits
	// the whole set, and the stored rows must match it exactly.
	if err := s.attach.ReplacePhotos(ctx, id, photos); err != nil {
		return nil, nil, err
	}

	checklist.RequestID = id
	checklist.RecordedBy = sess.ActorName
	checklist.RecordedAt = now
	if err := s.attach.SaveChecklist(ctx, &checklist, attendees); err != nil {
		return nil, nil, err
	}

	steps, err := s.requests.StepsByRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	allPhotos, err := s.attach.PhotosByRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	executed := models.StatusExecuted
	req.Status = executed
	req.ExecutedAt = &now
	req.ExecutedBy = sess.ActorName

	res, err := s.renderer.ExecutionStage(s.snapshot(req, steps, &checklist, &attendees, allPhotos))
	if err != nil {
		return nil, nil, fmt.Errorf("render execution artifacts: %w", err)
	}

	upd := db.Update{
		Status:        &executed,
		ExecutedAt:    &now,
		ExecutedBy:    &sess.ActorName,
		ArtifactPaths: artifactPathMap(res),
	}
	if err := s.requests.UpdateFields(ctx, id, version, upd); err != nil {
		return nil, nil, err
	}
	s.appendAudit(ctx, id, models.AuditRequestExecuted, sess, "")

	s.log.Info().
		Str("request_id", id).
		Str("actor", sess.ActorName).
		Int("photos", len(allPhotos)).
		Int("warnings", len(res.Warnings)).
		Msg("request executed")

	final, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return final, res, nil
}

// Get returns one request with its approval steps.
func (s *Service) Get(ctx context.Context, id string) (*models.Request, []models.ApprovalStep, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	steps, err := s.requests.StepsByRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return req, steps, nil
}

// List returns the ledger view for the given filters.
func (s *Service) List(ctx context.Context, q db.Query) ([]*models.Request, error) {
	return s.requests.List(ctx, q)
}

// AuditTrail returns the append-only log for one request.
func (s *Service) AuditTrail(ctx context.Context, id string) ([]*models.AuditEntry, error) {
	if _, err := s.requests.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.ListByRequest(ctx, id)
}

// Stats returns the KPI counts for one work date.
func (s *Service) Stats(ctx context.Context, workDate string) (*db.Stats, error) {
	return s.requests.StatsForDate(ctx, workDate)
}

// ShareText rebuilds the chat paste block for a request's current stage
// from the stored artifact paths.
func (s *Service) ShareText(ctx context.Context, id string) (string, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	stage := artifacts.StageSubmitted
	switch req.Status {
	case models.StatusApproved, models.StatusExecuting:
		stage = artifacts.StageApproved
	case models.StatusRejected:
		stage = artifacts.StageRejected
	case models.StatusExecuted:
		stage = artifacts.StageExecuted
	}

	res := &artifacts.StageResult{Files: make(map[artifacts.Kind]string)}
	for kind, path := range req.ArtifactPaths {
		res.Files[artifacts.Kind(kind)] = path
	}
	return artifacts.ShareText(stage, artifacts.Snapshot{Request: *req}, res), nil
}

func (s *Service) snapshot(req *models.Request, steps []models.ApprovalStep, checklist *models.Checklist, attendees *models.Attendees, photos []models.Photo) artifacts.Snapshot {
	return artifacts.Snapshot{
		Request:     *req,
		Steps:       steps,
		Checklist:   checklist,
		Attendees:   attendees,
		Photos:      photos,
		TrainingURL: s.cfg.TrainingURL,
	}
}

// appendAudit records one transition. Audit failures are logged, never
// surfaced: the transition already happened.
func (s *Service) appendAudit(ctx context.Context, requestID string, action models.AuditAction, sess models.Session, detail string) {
	entry := &models.AuditEntry{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Action:    action,
		Actor:     sess.ActorName,
		ActorRole: sess.ActorRole,
		Detail:    detail,
		Timestamp: s.now().UTC(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Error().Err(err).
			Str("request_id", requestID).
			Str("action", string(action)).
			Msg("failed to append audit entry")
	}
}

func firstPendingStep(steps []models.ApprovalStep) *models.ApprovalStep {
	for i := range steps {
		if steps[i].Status == models.StepPending {
			return &steps[i]
		}
	}
	return nil
}

func roleInChain(role models.Role, steps []models.ApprovalStep) bool {
	for _, step := range steps {
		if step.Role == role {
			return true
		}
	}
	return false
}

func artifactPathMap(res *artifacts.StageResult) map[string]string {
	out := make(map[string]string, len(res.Files))
	for kind, path := range res.Files {
		out[string(kind)] = path
	}
	return out
}
