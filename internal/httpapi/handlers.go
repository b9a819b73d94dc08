package httpapi

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/materialgate/gatepass/internal/artifacts"
	"github.com/materialgate/gatepass/internal/auth"
	"github.com/materialgate/gatepass/internal/db"
	"github.com/materialgate/gatepass/internal/models"
)

type loginRequest struct {
	Name               string `json:"name" binding:"required"`
	Role               string `json:"role" binding:"required"`
	Passphrase         string `json:"passphrase" binding:"required"`
	ElevatedPassphrase string `json:"elevated_passphrase"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.Role(req.Role)
	switch role {
	case models.RoleRequester, models.RoleSupervisor, models.RoleSafety,
		models.RoleExecutor, models.RoleGuard:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown role %q", req.Role)})
		return
	}

	if err := auth.VerifyPassphrase(s.cfg.Auth.SitePassphraseHash, req.Passphrase); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "passphrase does not match"})
		return
	}

	elevated := false
	if req.ElevatedPassphrase != "" {
		if err := auth.VerifyPassphrase(s.cfg.Auth.ElevatedPassphraseHash, req.ElevatedPassphrase); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "elevated passphrase does not match"})
			return
		}
		elevated = true
	}

	sess := models.Session{ActorName: req.Name, ActorRole: role, Elevated: elevated}
	token, err := s.tokens.Issue(sess)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "session": sess})
}

func (s *Server) handleSubmit(c *gin.Context) {
	var draft models.RequestDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := s.svc.Submit(c.Request.Context(), session(c), draft)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (s *Server) handleList(c *gin.Context) {
	q := db.Query{
		Status:   models.RequestStatus(c.Query("status")),
		WorkDate: c.Query("date"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		q.Limit = limit
	}

	list, err := s.svc.List(c.Request.Context(), q)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

func (s *Server) handleGet(c *gin.Context) {
	req, steps, err := s.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req, "steps": steps})
}

func (s *Server) handleAudit(c *gin.Context) {
	entries, err := s.svc.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleApprove(c *gin.Context) {
	id := c.Param("id")

	sigPath := ""
	if file, err := c.FormFile("signature"); err == nil {
		layout := s.gen.Layout()
		if err := layout.EnsureDirs(); err != nil {
			s.writeError(c, err)
			return
		}
		sigPath = layout.SignaturePath(id)
		if err := c.SaveUploadedFile(file, sigPath); err != nil {
			s.writeError(c, fmt.Errorf("save signature: %w", err))
			return
		}
	}

	req, res, err := s.svc.Approve(c.Request.Context(), session(c), id, sigPath)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req, "result": res})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleReject(c *gin.Context) {
	var body rejectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := s.svc.Reject(c.Request.Context(), session(c), c.Param("id"), body.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type executePayload struct {
	Checklist models.Checklist `json:"checklist"`
	Attendees models.Attendees `json:"attendees"`
}

func (s *Server) handleExecute(c *gin.Context) {
	id := c.Param("id")

	var payload executePayload
	raw := c.PostForm("checklist")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "checklist form field is required"})
		return
	}
	if err := unmarshalStrict(raw, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("bad checklist payload: %v", err)})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	photoDir := s.gen.Layout().PhotoDir(id)
	if err := os.MkdirAll(photoDir, 0o755); err != nil {
		s.writeError(c, err)
		return
	}

	var photos []models.Photo
	for _, cat := range []models.PhotoCategory{
		models.PhotoBefore, models.PhotoAfter, models.PhotoTiedown, models.PhotoOptional,
	} {
		for i, file := range form.File[string(cat)] {
			path, err := s.savePhoto(c, file, photoDir, cat, i)
			if err != nil {
				s.writeError(c, err)
				return
			}
			photos = append(photos, models.Photo{Category: cat, Path: path})
		}
	}

	req, res, err := s.svc.Execute(c.Request.Context(), session(c), id, payload.Checklist, payload.Attendees, photos)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req, "result": res})
}

func (s *Server) savePhoto(c *gin.Context, file *multipart.FileHeader, dir string, cat models.PhotoCategory, idx int) (string, error) {
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d%s", cat, idx+1, ext))
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", fmt.Errorf("save photo %s: %w", file.Filename, err)
	}
	return path, nil
}

func (s *Server) handleShareText(c *gin.Context) {
	text, err := s.svc.ShareText(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (s *Server) handleGateCheck(c *gin.Context) {
	status, err := s.svc.GateCheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleArtifact(c *gin.Context) {
	req, _, err := s.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	kind := c.Param("kind")
	path, ok := req.ArtifactPaths[kind]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no %s artifact for request", kind)})
		return
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact file missing from storage"})
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (s *Server) handleStats(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	stats, err := s.svc.Stats(c.Request.Context(), date)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// unmarshalStrict rejects unknown fields so a typoed judgment key fails
// loudly instead of silently leaving the item unset.
func unmarshalStrict(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// handleServerQR renders the QR posted at the gate so field phones can
// reach the service without typing an address.
func (s *Server) handleServerQR(c *gin.Context) {
	base := s.cfg.Site.BaseURL
	if base == "" {
		base = fmt.Sprintf("http://%s", c.Request.Host)
	}
	png, err := artifacts.QRPNG(artifacts.NormalizeURL(base), 256)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
