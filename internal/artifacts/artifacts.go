// Package artifacts renders the documents emitted for a request: PDFs, QR
// images, the share zip and the chat share text. Rendering is a pure
// function of a request snapshot; two renders of the same snapshot differ
// only in the embedded generation timestamp.
package artifacts

import (
	"github.com/materialgate/gatepass/internal/models"
)

// Kind names a generated artifact and doubles as the filename suffix.
type Kind string

const (
	KindApproval   Kind = "approval"  // approval slip PDF
	KindPermit     Kind = "permit"    // entry permit PDF with training QR
	KindCheckCard  Kind = "check"     // inspection checklist PDF
	KindExecRecord Kind = "exec"      // execution photo record PDF
	KindPacket     Kind = "packet"    // consolidated packet PDF
	KindGateQR     Kind = "req_qr"    // gate-check QR image (request id payload)
	KindShareZip   Kind = "sharepack" // zip bundle for chat upload
)

// Snapshot is everything the renderer needs about one request. It is
// assembled by the caller; the renderer never reads the database.
type Snapshot struct {
	Request     models.Request
	Steps       []models.ApprovalStep
	Checklist   *models.Checklist
	Attendees   *models.Attendees
	Photos      []models.Photo
	TrainingURL string
}

// RenderWarning records one non-fatal failure during rendering, typically a
// photo or signature image that could not be loaded. The document still
// completes with a placeholder drawn in place.
type RenderWarning struct {
	Artifact Kind   `json:"artifact"`
	Slot     string `json:"slot"`
	Reason   string `json:"reason"`
}

// StageResult reports what a stage render produced.
type StageResult struct {
	// Files maps artifact kind to the absolute path written.
	Files map[Kind]string `json:"files"`

	// Warnings lists per-image render failures. Never fatal.
	Warnings []RenderWarning `json:"warnings,omitempty"`
}
