package artifacts

import (
	"fmt"
	"time"

	"github.com/materialgate/gatepass/internal/models"
)

// Generator renders all artifact kinds into a Layout. Safe for concurrent
// use; it holds no per-request state.
type Generator struct {
	layout   Layout
	siteName string
	now      func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator writing into layout.
func NewGenerator(layout Layout, siteName string, opts ...Option) *Generator {
	g := &Generator{
		layout:   layout,
		siteName: siteName,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Layout exposes the storage layout for callers that save uploads.
func (g *Generator) Layout() Layout { return g.layout }

// ApprovalStage renders the documents produced when a request is approved:
// the gate-check QR, the approval slip, the entry permit and the share zip.
func (g *Generator) ApprovalStage(snap Snapshot) (*StageResult, error) {
	if err := g.layout.EnsureDirs(); err != nil {
		return nil, err
	}

	res := &StageResult{Files: make(map[Kind]string)}
	rid := snap.Request.ID

	gateQR := g.layout.Path(rid, KindGateQR)
	if err := writeQR(rid, gateQR); err != nil {
		return nil, err
	}
	res.Files[KindGateQR] = gateQR

	if err := g.renderApprovalSlip(snap, gateQR, res); err != nil {
		return nil, err
	}
	if err := g.renderEntryPermit(snap, res); err != nil {
		return nil, err
	}

	zipPath, err := g.buildShareZip(snap, []string{
		res.Files[KindApproval], res.Files[KindPermit], gateQR,
	})
	if err != nil {
		return nil, err
	}
	res.Files[KindShareZip] = zipPath

	return res, nil
}

// ExecutionStage renders the full packet once execution completes: the
// approval-stage documents refreshed with final state, the inspection card,
// the photo record, the consolidated packet and the share zip.
func (g *Generator) ExecutionStage(snap Snapshot) (*StageResult, error) {
	if err := g.layout.EnsureDirs(); err != nil {
		return nil, err
	}

	res := &StageResult{Files: make(map[Kind]string)}
	rid := snap.Request.ID

	gateQR := g.layout.Path(rid, KindGateQR)
	if err := writeQR(rid, gateQR); err != nil {
		return nil, err
	}
	res.Files[KindGateQR] = gateQR

	if err := g.renderApprovalSlip(snap, gateQR, res); err != nil {
		return nil, err
	}
	if err := g.renderEntryPermit(snap, res); err != nil {
		return nil, err
	}
	if err := g.renderCheckCard(snap, res); err != nil {
		return nil, err
	}
	if err := g.renderExecRecord(snap, res); err != nil {
		return nil, err
	}
	if err := g.renderPacket(snap, res); err != nil {
		return nil, err
	}

	zipPath, err := g.buildShareZip(snap, []string{
		res.Files[KindApproval], res.Files[KindPermit], gateQR,
		res.Files[KindCheckCard], res.Files[KindExecRecord], res.Files[KindPacket],
	})
	if err != nil {
		return nil, err
	}
	res.Files[KindShareZip] = zipPath

	return res, nil
}

func (g *Generator) warn(res *StageResult, kind Kind, slot, reason string) {
	if reason == "" {
		return
	}
	res.Warnings = append(res.Warnings, RenderWarning{Artifact: kind, Slot: slot, Reason: reason})
}

// photoPath returns the first photo path of a category, or "".
func photoPath(photos []models.Photo, cat models.PhotoCategory) string {
	for _, p := range photos {
		if p.Category == cat {
			return p.Path
		}
	}
	return ""
}

func formatActorLine(name string, t *time.Time) string {
	if name == "" {
		return "-"
	}
	if t == nil {
		return name
	}
	return fmt.Sprintf("%s  (%s)", name, t.Format("2006-01-02 15:04"))
}
