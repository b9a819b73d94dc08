package artifacts

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// doc wraps a gofpdf page with the shared helpers every document uses.
// Core fonts only cover cp1252, so all free-text values pass through the
// unicode translator; glyphs outside that set degrade rather than error.
type doc struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newDoc() *doc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()
	return &doc{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (d *doc) title(text string) {
	d.pdf.SetFont("Helvetica", "B", 15)
	d.pdf.Text(18, 20, d.tr(text))
}

// line draws one labeled field row at the given y.
func (d *doc) line(y float64, text string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.Text(18, y, d.tr(text))
}

func (d *doc) boldLine(y float64, text string) {
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.Text(18, y, d.tr(text))
}

// footer stamps the generation time; this is the only part of a render that
// differs between two calls on the same snapshot.
func (d *doc) footer(now time.Time) {
	d.pdf.SetFont("Helvetica", "", 8)
	d.pdf.Text(18, 287, "Generated: "+now.Format("2006-01-02 15:04:05"))
}

func (d *doc) save(path string) error {
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := d.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}

// imageBox draws a labeled, framed image slot. A missing or undecodable
// image never fails the document: a placeholder string is drawn instead and
// the reason is returned for the warning list.
func (d *doc) imageBox(label, path string, x, y, w, h float64) (reason string) {
	d.pdf.SetFont("Helvetica", "B", 10)
	d.pdf.Text(x, y-2, d.tr(label))
	d.pdf.Rect(x, y, w, h, "D")

	placeholder := func(msg string) {
		d.pdf.SetFont("Helvetica", "", 9)
		d.pdf.Text(x+4, y+h/2, d.tr(msg))
	}

	if path == "" {
		placeholder("not registered")
		return "not registered"
	}
	if err := probeImage(path); err != nil {
		placeholder("failed to load image")
		return err.Error()
	}

	d.pdf.ImageOptions(path, x+1, y+1, w-2, h-2, false, gofpdf.ImageOptions{}, 0, "")
	return ""
}

// probeImage verifies the file decodes as an image before it is handed to
// the PDF encoder, whose image errors are sticky and would fail the whole
// document.
func probeImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	if _, _, err := image.Decode(f); err != nil {
		return fmt.Errorf("decode image %s: %w", path, err)
	}
	return nil
}
