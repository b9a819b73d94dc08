package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout maps the shared storage directory the whole site crew reads from.
// One subfolder per concern; photos get one folder per request id.
type Layout struct {
	Base string
}

// EnsureDirs creates the storage tree. Idempotent.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{
		l.PDFDir(), l.QRDir(), l.ZipDir(), l.PhotoRoot(), l.SignDir(), l.CheckDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return nil
}

func (l Layout) PDFDir() string   { return filepath.Join(l.Base, "output", "pdf") }
func (l Layout) QRDir() string    { return filepath.Join(l.Base, "output", "qr") }
func (l Layout) ZipDir() string   { return filepath.Join(l.Base, "output", "zip") }
func (l Layout) SignDir() string  { return filepath.Join(l.Base, "output", "sign") }
func (l Layout) CheckDir() string { return filepath.Join(l.Base, "output", "check") }

// PhotoRoot is the parent of the per-request photo folders.
func (l Layout) PhotoRoot() string { return filepath.Join(l.Base, "output", "photos") }

// PhotoDir returns (and creates on demand elsewhere) the folder for one
// request's photos.
func (l Layout) PhotoDir(requestID string) string {
	return filepath.Join(l.PhotoRoot(), requestID)
}

// SignaturePath is where the approver's signature image for a request lives.
func (l Layout) SignaturePath(requestID string) string {
	return filepath.Join(l.SignDir(), requestID+".png")
}

// Path returns the canonical file path for a generated artifact,
// following the {requestId}_{kind}.{ext} convention.
func (l Layout) Path(requestID string, kind Kind) string {
	switch kind {
	case KindGateQR:
		return filepath.Join(l.QRDir(), fmt.Sprintf("%s_%s.png", requestID, kind))
	case KindShareZip:
		return filepath.Join(l.ZipDir(), fmt.Sprintf("%s_%s.zip", requestID, kind))
	case KindCheckCard:
		return filepath.Join(l.CheckDir(), fmt.Sprintf("%s_%s.pdf", requestID, kind))
	default:
		return filepath.Join(l.PDFDir(), fmt.Sprintf("%s_%s.pdf", requestID, kind))
	}
}
