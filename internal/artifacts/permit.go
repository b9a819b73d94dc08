package artifacts

import (
	"fmt"
	"path/filepath"
)

// The fixed compliance rules printed on every entry permit.
var permitRules = []string{
	"1. Hard hat on when leaving the cab",
	"2. Driver-side window open at all times",
	"3. Speed limit 10 km/h inside the site",
	"4. Hazard lights on at all times",
	"5. Wheel chocks when parked",
	"6. Move only under spotter control",
}

// renderEntryPermit writes the vehicle entry permit: compliance rules, the
// visitor-training QR and the driver/approver confirmation boxes.
func (g *Generator) renderEntryPermit(snap Snapshot, res *StageResult) error {
	r := snap.Request
	d := newDoc()

	d.title("Material Vehicle Entry Permit")
	d.line(30, fmt.Sprintf("Request: %s | Direction: %s | Schedule: %s %s", r.ID, r.Direction, r.WorkDate, r.WorkTime))
	d.line(37, fmt.Sprintf("Gate: %s | Vehicle: %s", r.Gate, r.Vehicle))

	d.boldLine(48, "Company")
	d.pdf.Rect(18, 51, 100, 10, "D")
	d.line(58, "  "+r.Company)

	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.Text(130, 48, d.tr("Driver contact"))
	d.pdf.Rect(130, 51, 60, 10, "D")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.Text(132, 58, d.tr(r.DriverContact))

	d.boldLine(74, "* Mandatory rules *")
	y := 81.0
	for _, rule := range permitRules {
		d.line(y, rule)
		y += 7
	}

	// Visitor-training QR. The URL is normalized and encoded even when it
	// fails validation; a broken link is the operator's to notice.
	trainingURL := NormalizeURL(snap.TrainingURL)
	trainingQR := filepath.Join(g.layout.QRDir(), r.ID+"_training.png")
	if err := writeQR(trainingURL, trainingQR); err != nil {
		return err
	}

	reason := d.imageBox("Visitor training QR", trainingQR, 18, 140, 50, 50)
	g.warn(res, KindPermit, "training_qr", reason)
	d.line(196, "Scan and complete before entry")
	if !ValidURL(trainingURL) {
		g.warn(res, KindPermit, "training_url", fmt.Sprintf("url %q failed validation", trainingURL))
	}

	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.Text(95, 150, d.tr("Driver confirmation:"))
	d.pdf.Rect(140, 143, 55, 12, "D")
	d.pdf.Text(95, 168, d.tr("Approver confirmation:"))
	d.pdf.Rect(140, 161, 55, 12, "D")

	if r.SignaturePath != "" {
		reason = d.imageBox("", r.SignaturePath, 141, 161.5, 53, 11)
		g.warn(res, KindPermit, "signature", reason)
	}

	d.footer(g.now())

	out := g.layout.Path(r.ID, KindPermit)
	if err := d.save(out); err != nil {
		return err
	}
	res.Files[KindPermit] = out
	return nil
}
