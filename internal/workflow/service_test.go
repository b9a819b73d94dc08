package workflow

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/materialgate/gatepass/internal/artifacts"
	"github.com/materialgate/gatepass/internal/db"
	"github.com/materialgate/gatepass/internal/logging"
	"github.com/materialgate/gatepass/internal/models"
)

// stubRenderer records calls and returns canned paths; artifact rendering
// itself is covered in the artifacts package.
type stubRenderer struct {
	approvalCalls  int
	executionCalls int
	lastPhotoCount int
	warnings       []artifacts.RenderWarning
	err            error
}

func (r *stubRenderer) ApprovalStage(snap artifacts.Snapshot) (*artifacts.StageResult, error) {
	r.approvalCalls++
	if r.err != nil {
		return nil, r.err
	}
	return &artifacts.StageResult{
		Files: map[artifacts.Kind]string{
			artifacts.KindApproval: "/out/" + snap.Request.ID + "_approval.pdf",
			artifacts.KindPermit:   "/out/" + snap.Request.ID + "_permit.pdf",
			artifacts.KindGateQR:   "/out/" + snap.Request.ID + "_req_qr.png",
			artifacts.KindShareZip: "/out/" + snap.Request.ID + "_sharepack.zip",
		},
		Warnings: r.warnings,
	}, nil
}

func (r *stubRenderer) ExecutionStage(snap artifacts.Snapshot) (*artifacts.StageResult, error) {
	r.executionCalls++
	r.lastPhotoCount = len(snap.Photos)
	if r.err != nil {
		return nil, r.err
	}
	return &artifacts.StageResult{
		Files: map[artifacts.Kind]string{
			artifacts.KindPacket:   "/out/" + snap.Request.ID + "_packet.pdf",
			artifacts.KindShareZip: "/out/" + snap.Request.ID + "_sharepack.zip",
		},
		Warnings: r.warnings,
	}, nil
}

func setupService(t *testing.T) (*Service, *stubRenderer) {
	t.Helper()
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})

	database, err := db.Open(context.Background(), db.Config{
		Path:          filepath.Join(t.TempDir(), "gatepass_test.db"),
		BusyTimeoutMs: 1000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	renderer := &stubRenderer{}
	svc := NewService(database, renderer, DefaultConfig())
	return svc, renderer
}

func validDraft() models.RequestDraft {
	return models.RequestDraft{
		Direction:     models.DirectionIn,
		Company:       "Hanjin Logistics",
		Material:      "Rebar D16",
		Vehicle:       "88Du1234",
		DriverContact: "010-1234-5678",
		Gate:          "G2",
		WorkDate:      "2026-02-06",
		WorkTime:      "07:00",
	}
}

func okChecklist() models.Checklist {
	return models.Checklist{
		TwoPointLashing: models.JudgmentOK, LashingGear: models.JudgmentOK,
		StackHeight: models.JudgmentOK, BedWithinWidth: models.JudgmentOK,
		WheelChocks: models.JudgmentOK, WithinRatedLoad: models.JudgmentOK,
		CenterOfGravity: models.JudgmentOK, UnloadZoneControl: models.JudgmentOK,
	}
}

func fullAttendees() models.Attendees {
	return models.Attendees{PartnerManager: true, EquipmentOperator: true, VehicleDriver: true, Spotter: true, SafetyWatch: true}
}

func requiredPhotos() []models.Photo {
	return []models.Photo{
		{Category: models.PhotoBefore, Path: "/p/before.jpg"},
		{Category: models.PhotoAfter, Path: "/p/after.jpg"},
		{Category: models.PhotoTiedown, Path: "/p/tiedown.jpg"},
	}
}

var (
	requester  = models.Session{ActorName: "Kim/Worker", ActorRole: models.RoleRequester}
	supervisor = models.Session{ActorName: "Lee/Supervisor", ActorRole: models.RoleSupervisor}
	safety     = models.Session{ActorName: "Choi/Safety", ActorRole: models.RoleSafety}
	executor   = models.Session{ActorName: "Park/Executor", ActorRole: models.RoleExecutor}
)

func approve(t *testing.T, svc *Service, id string) *models.Request {
	t.Helper()
	ctx := context.Background()
	_, _, err := svc.Approve(ctx, supervisor, id, "")
	require.NoError(t, err)
	req, _, err := svc.Approve(ctx, safety, id, "")
	require.NoError(t, err)
	return req
}

func TestSubmitCreatesPendingWithChainSnapshot(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, requester, validDraft())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, models.RiskLow, req.Risk)
	assert.Regexp(t, `^REQ_\d{8}_\d{6}_[0-9a-f]{6}$`, req.ID)

	_, steps, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, models.RoleSupervisor, steps[0].Role)
	assert.Equal(t, models.RoleSafety, steps[1].Role)

	trail, err := svc.AuditTrail(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, models.AuditRequestSubmitted, trail[0].Action)
	assert.Equal(t, "Kim/Worker", trail[0].Actor)
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	svc, _ := setupService(t)

	draft := validDraft()
	draft.Company = ""
	draft.Vehicle = ""

	_, err := svc.Submit(context.Background(), requester, draft)
	require.Error(t, err)
	verrs := &models.ValidationErrors{}
	require.ErrorAs(t, err, &verrs)
	assert.ElementsMatch(t, []string{"company", "vehicle"}, verrs.Fields())
}

func TestApproveFullChainFlipsAndRenders(t *testing.T) {
	svc, renderer := setupService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, requester, validDraft())
	require.NoError(t, err)

	// First signature leaves the request pending.
	mid, res, err := svc.Approve(ctx, supervisor, req.ID, "")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, models.StatusPending, mid.Status)
	assert.Zero(t, renderer.approvalCalls)

	final, res, err := svc.Approve(ctx, safety, req.ID, "")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, models.StatusApproved, final.Status)
	assert.Equal(t, "Choi/Safety", final.ApprovedBy)
	assert.NotNil(t, final.ApprovedAt)
	assert.Equal(t, 1, renderer.approvalCalls)
	assert.Contains(t, final.ArtifactPaths, "approval")

	trail, err := svc.AuditTrail(ctx, req.ID)
	require.NoError(t, err)
	// submit + two step signatures + approval
	require.Len(t, trail, 4)
	assert.Equal(t, models.AuditRequestApproved, trail[3].Action)
}

func TestApproveWrongRoleForbidden(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, requester, validDraft())
	require.NoError(t, err)

	// Safety cannot sign the supervisor's step.
	_, _, err = svc.Approve(ctx, safety, req.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	// An elevated session can.
	elevated := models.Session{ActorName: "Jang/PM", ActorRole: models.RoleRequester, Elevated: true}
	_, _, err = svc.Approve(ctx, elevated, req.ID, "")
	assert.NoError(t, err)
}

func TestRejectRequiresReasonAndIsTerminal(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, requester, validDraft())
	require.NoError(t, err)

	_, err = svc.Reject(ctx, supervisor, req.ID, "   ")
	verrs := &models.ValidationErrors{}
	require.ErrorAs(t, err, &verrs)

	rejected, err := svc.Reject(ctx, supervisor, req.ID, "no unloading slot today")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	_, steps, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	for _, step := range steps {
		assert.Equal(t, models.StepCancelled, step.Status)
	}

	// Terminal: late approval or re-rejection attempts must fail.
	_, _, err = svc.Approve(ctx, supervisor, req.ID, "")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "settled")
	_, err = svc.Reject(ctx, supervisor, req.ID, "again")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestExecuteRequiresFullPhotoSet(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, requester, validDraft())
	require.NoError(t, err)
	approve(t, svc, req.ID)

	// Two of three required slots; an optional extra never substitutes.
	photos := []models.Photo{
		{Category: models.PhotoBefore, Path: "/p/before.jpg"},
		{Category: models.PhotoAfter, Path: "/p/after.jpg"},
		{Category: models.PhotoOptional, Path: "/p/extra.jpg"},
	}
	_, _, err = svc.Execute(ctx, executor, req.ID, okChecklist(), fullAttendees(), photos)
	assert.ErrorIs(t, err, ErrIncompletePhotoSet)
	assert.Contains(t, err.Error(), "tiedown")

	// The failed attempt left the request executable.
	final, res, err := svc.Execute(ctx, executor, req.ID, okChecklist(), fullAttendees(), requiredPhotos())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, models.StatusExecuted, final.Status)
	assert.Equal(t, "Park/Executor", final.ExecutedBy)
}

func TestExecuteGuardsStateRoleAndChecklist(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, requester, validDraft())
	require.NoError(t, err)

	// Not yet approved.
	_, _, err = svc.Execute(ctx, executor, req.ID, okChecklist(), fullAttendees(), requiredPhotos())
	assert.ErrorIs(t, err, ErrInvalidState)

	approve(t, svc, req.ID)

	// Requesters cannot execute.
	_, _, err = svc.Execute(ctx, requester, req.ID, okChecklist(), fullAttendees(), requiredPhotos())
	assert.ErrorIs(t, err, ErrForbidden)

	// A FAIL judgment blocks completion.
	failing := okChecklist()
	failing.WheelChocks = models.JudgmentFail
	_, _, err = svc.Execute(ctx, executor, req.ID, failing, fullAttendees(), requiredPhotos())
	verrs := &models.ValidationErrors{}
	require.ErrorAs(t, err, &verrs)

	// Missing attendees block completion.
	partial := fullAttendees()
	partial.Spotter = false
	_, _, err = svc.Execute(ctx, executor, req.ID, okChecklist(), partial, requiredPhotos())
	require.ErrorAs(t, err, &verrs)

	// Executed is terminal.
	_, _, err = svc.Execute(ctx, executor, req.ID, okChecklist(), fullAttendees(), requiredPhotos())
	require.NoError(t, err)
	_, _, err = svc.Execute(ctx, executor, req.ID, okChecklist(), fullAttendees(), requiredPhotos())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestExecuteRetryReplacesPhotoSet(t *testing.T) {
	svc, renderer := setupService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, requester, validDraft())
	require.NoError(t, err)
	approve(t, svc, req.ID)

	// A render failure interrupts the attempt after the photos were stored.
	renderer.err = errors.New("disk full")
	_, _, err = svc.Execute(ctx, executor, req.ID, okChecklist(), fullAttendees(), requiredPhotos())
	require.Error(t, err)
	assert.Equal(t, 3, renderer.lastPhotoCount)

	stuck, _, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExecuting, stuck.Status)

	// The retry resubmits the same set; the stored photos must not double.
	renderer.err = nil
	final, res, err := svc.Execute(ctx, executor, req.ID, okChecklist(), fullAttendees(), requiredPhotos())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, models.StatusExecuted, final.Status)
	assert.Equal(t, 3, renderer.lastPhotoCount)
}

func TestGateCheckIsAdvisoryAndRepeatable(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.GateCheck(ctx, "REQ_nope")
	assert.ErrorIs(t, err, db.ErrRequestNotFound)

	req, err := svc.Submit(ctx, requester, validDraft())
	require.NoError(t, err)

	status, err := svc.GateCheck(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, status.Pass)
	assert.Equal(t, models.StatusPending, status.Status)

	approve(t, svc, req.ID)

	// Repeated checks keep passing; nothing is consumed.
	for i := 0; i < 3; i++ {
		status, err = svc.GateCheck(ctx, req.ID)
		require.NoError(t, err)
		assert.True(t, status.Pass)
		assert.Contains(t, status.Summary, "88Du1234")
	}
}

func TestShareTextMatchesStage(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, requester, validDraft())
	require.NoError(t, err)

	text, err := svc.ShareText(ctx, req.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "[Request]")

	approve(t, svc, req.ID)
	text, err = svc.ShareText(ctx, req.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "[Approved]")
	assert.Contains(t, text, req.ID)
	assert.Contains(t, text, "_approval.pdf")
}

func TestRendererFailureSurfacesNoPartialApproval(t *testing.T) {
	svc, renderer := setupService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, requester, validDraft())
	require.NoError(t, err)
	_, _, err = svc.Approve(ctx, supervisor, req.ID, "")
	require.NoError(t, err)

	renderer.err = errors.New("disk full")
	_, _, err = svc.Approve(ctx, safety, req.ID, "")
	require.Error(t, err)

	// The request must not be half-approved: status stays pending so the
	// final signature can be retried once rendering works again.
	got, _, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	// The step itself was signed before rendering, so a retry now reports
	// the exhausted chain instead of double-signing.
	renderer.err = nil
	_, res, err := svc.Approve(ctx, safety, req.ID, "")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Nil(t, res)
}
