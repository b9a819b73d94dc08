package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/materialgate/gatepass/internal/artifacts"
	"github.com/materialgate/gatepass/internal/auth"
	"github.com/materialgate/gatepass/internal/config"
	"github.com/materialgate/gatepass/internal/db"
	"github.com/materialgate/gatepass/internal/logging"
	"github.com/materialgate/gatepass/internal/models"
	"github.com/materialgate/gatepass/internal/workflow"
)

// testServer spins up the full stack against a temp dir: real sqlite store,
// real pdf renderer, plain-text passphrases.
func testServer(t *testing.T) http.Handler {
	t.Helper()
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})

	dataDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Site.Name = "Riverside Tower Site"
	cfg.Storage.DataDir = dataDir
	cfg.Database.Path = filepath.Join(dataDir, "gatepass.db")
	cfg.Auth.SitePassphraseHash = "site-pass"
	cfg.Auth.ElevatedPassphraseHash = "elevated-pass"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.SessionTTL = time.Hour

	database, err := db.Open(context.Background(), db.Config{
		Path:          cfg.Database.Path,
		BusyTimeoutMs: 1000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	gen := artifacts.NewGenerator(artifacts.Layout{Base: dataDir}, cfg.Site.Name)
	svc := workflow.NewService(database, gen, workflow.Config{
		ApprovalChains: cfg.ApprovalChains(),
		ExecuteRoles:   cfg.ExecuteRoles(),
		TrainingURL:    cfg.Site.TrainingURL,
	})
	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	return NewServer(cfg, svc, gen, tokens).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, h http.Handler, name, role string, elevated bool) string {
	t.Helper()
	body := map[string]string{"name": name, "role": role, "passphrase": "site-pass"}
	if elevated {
		body["elevated_passphrase"] = "elevated-pass"
	}
	w := doJSON(t, h, http.MethodPost, "/api/v1/login", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func submitRequest(t *testing.T, h http.Handler, token string) string {
	t.Helper()
	draft := map[string]string{
		"direction":      "IN",
		"company":        "Hanjin Logistics",
		"material":       "Rebar D16",
		"vehicle":        "88Du1234",
		"driver_contact": "010-1234-5678",
		"gate":           "G2",
		"work_date":      "2026-02-06",
		"work_time":      "07:00",
	}
	w := doJSON(t, h, http.MethodPost, "/api/v1/requests", token, draft)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var req models.Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &req))
	return req.ID
}

func approveChain(t *testing.T, h http.Handler, id string) {
	t.Helper()
	for _, role := range []string{"supervisor", "safety"} {
		token := login(t, h, "Approver/"+role, role, false)
		w := doJSON(t, h, http.MethodPost, "/api/v1/requests/"+id+"/approve", token, map[string]string{})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func executeMultipart(t *testing.T, h http.Handler, token, id string, categories []string) *httptest.ResponseRecorder {
	t.Helper()

	checklist := models.Checklist{
		TwoPointLashing: models.JudgmentOK, LashingGear: models.JudgmentOK,
		StackHeight: models.JudgmentOK, BedWithinWidth: models.JudgmentOK,
		WheelChocks: models.JudgmentOK, WithinRatedLoad: models.JudgmentOK,
		CenterOfGravity: models.JudgmentOK, UnloadZoneControl: models.JudgmentOK,
	}
	attendees := models.Attendees{
		PartnerManager: true, EquipmentOperator: true,
		VehicleDriver: true, Spotter: true, SafetyWatch: true,
	}
	payload, err := json.Marshal(map[string]any{"checklist": checklist, "attendees": attendees})
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("checklist", string(payload)))
	picture := tinyPNG(t)
	for _, cat := range categories {
		part, err := mw.CreateFormFile(cat, cat+".png")
		require.NoError(t, err)
		_, err = part.Write(picture)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+id+"/execute", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := testServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/login", "",
		map[string]string{"name": "Kim", "role": "requester", "passphrase": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/v1/login", "",
		map[string]string{"name": "Kim", "role": "astronaut", "passphrase": "site-pass"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRequiredOnWorkflowRoutes(t *testing.T) {
	h := testServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/v1/requests", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A syntactically valid token without an actor carries no session.
	anonymous, err := auth.NewManager("test-secret", time.Hour).Issue(models.Session{ActorRole: models.RoleRequester})
	require.NoError(t, err)
	w = doJSON(t, h, http.MethodGet, "/api/v1/requests", anonymous, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFullLifecycleOverHTTP(t *testing.T) {
	h := testServer(t)

	requester := login(t, h, "Kim/Worker", "requester", false)
	id := submitRequest(t, h, requester)

	// Pending requests block at the gate; no token needed there.
	w := doJSON(t, h, http.MethodGet, "/api/v1/gate/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var gate workflow.GateStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gate))
	assert.False(t, gate.Pass)

	approveChain(t, h, id)

	w = doJSON(t, h, http.MethodGet, "/api/v1/gate/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gate))
	assert.True(t, gate.Pass)
	assert.Contains(t, gate.Summary, "88Du1234")

	executor := login(t, h, "Park/Executor", "executor", false)
	w = executeMultipart(t, h, executor, id, []string{"before", "after", "tiedown", "optional"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The stored request now carries the full artifact map.
	w = doJSON(t, h, http.MethodGet, "/api/v1/requests/"+id, requester, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Request models.Request        `json:"request"`
		Steps   []models.ApprovalStep `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, models.StatusExecuted, detail.Request.Status)
	require.Len(t, detail.Steps, 2)
	for _, kind := range []string{"approval", "permit", "check", "exec", "packet", "req_qr", "sharepack"} {
		assert.Contains(t, detail.Request.ArtifactPaths, kind)
	}

	// Artifact download streams the file.
	w = doJSON(t, h, http.MethodGet, "/api/v1/artifacts/"+id+"/packet", requester, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = doJSON(t, h, http.MethodGet, "/api/v1/artifacts/"+id+"/nonexistent", requester, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Share text and audit trail reflect the executed stage.
	w = doJSON(t, h, http.MethodGet, "/api/v1/requests/"+id+"/share-text", requester, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "[Completed]")

	w = doJSON(t, h, http.MethodGet, "/api/v1/requests/"+id+"/audit", requester, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var audit struct {
		Entries []models.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &audit))
	assert.Len(t, audit.Entries, 5)

	w = doJSON(t, h, http.MethodGet, "/api/v1/stats?date=2026-02-06", requester, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats db.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.DateRequests)
	assert.Equal(t, 1, stats.Executed)
}

func TestErrorMappingOverHTTP(t *testing.T) {
	h := testServer(t)
	requester := login(t, h, "Kim/Worker", "requester", false)

	// Validation failure surfaces the field list with a 422.
	w := doJSON(t, h, http.MethodPost, "/api/v1/requests", requester,
		map[string]string{"direction": "IN"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "company")

	w = doJSON(t, h, http.MethodGet, "/api/v1/requests/REQ_nope", requester, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	id := submitRequest(t, h, requester)

	// Wrong role on the first approval step.
	safetyToken := login(t, h, "Choi/Safety", "safety", false)
	w = doJSON(t, h, http.MethodPost, "/api/v1/requests/"+id+"/approve", safetyToken, map[string]string{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Executing a pending request conflicts.
	executor := login(t, h, "Park/Executor", "executor", false)
	w = executeMultipart(t, h, executor, id, []string{"before", "after", "tiedown"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Short photo set after approval is a 422.
	approveChain(t, h, id)
	w = executeMultipart(t, h, executor, id, []string{"before", "after"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "tiedown")

	// Elevated sessions bypass the role gate.
	elevated := login(t, h, "Jang/PM", "requester", true)
	w2 := doJSON(t, h, http.MethodPost, "/api/v1/requests/"+submitRequest(t, h, requester)+"/reject",
		elevated, map[string]string{"reason": "schedule clash"})
	assert.Equal(t, http.StatusOK, w2.Code, w2.Body.String())
}

func TestServerQREndpoint(t *testing.T) {
	h := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/server-qr", nil)
	req.Host = "10.0.0.5:8780"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	assert.NoError(t, err)
}
