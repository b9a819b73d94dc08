package artifacts

import (
	"fmt"

	"github.com/materialgate/gatepass/internal/models"
)

// renderPacket writes the consolidated packet: a cover summary of the full
// lifecycle, then the inspection summary and the required photos, so a
// single document can be filed without collecting the individual PDFs.
func (g *Generator) renderPacket(snap Snapshot, res *StageResult) error {
	r := snap.Request
	d := newDoc()

	d.title("Material Movement Packet")
	d.line(30, fmt.Sprintf("Site: %s    Request: %s    Status: %s", g.siteName, r.ID, r.Status))
	d.line(37, fmt.Sprintf("Direction: %s    Risk: %s", r.Direction, r.Risk))
	d.line(44, fmt.Sprintf("Company: %s    Material: %s", r.Company, r.Material))
	d.line(51, fmt.Sprintf("Vehicle: %s    Driver: %s", r.Vehicle, r.DriverContact))
	d.line(58, fmt.Sprintf("Gate/Schedule: %s / %s %s", r.Gate, r.WorkDate, r.WorkTime))

	d.boldLine(70, "Lifecycle")
	d.line(77, "Requested: "+formatActorLine(r.CreatedBy, &r.CreatedAt))
	d.line(84, "Approved:  "+formatActorLine(r.ApprovedBy, r.ApprovedAt))
	d.line(91, "Executed:  "+formatActorLine(r.ExecutedBy, r.ExecutedAt))

	y := 103.0
	d.boldLine(y, "Approval steps")
	y += 7
	for _, step := range snap.Steps {
		d.line(y, fmt.Sprintf("%d. %s: %s %s", step.Seq, step.Role, step.Status,
			formatActorLine(step.ActorName, step.SignedAt)))
		y += 6
	}

	y += 6
	d.boldLine(y, "Inspection")
	y += 7
	if snap.Checklist != nil {
		if fails := snap.Checklist.Failures(); len(fails) > 0 {
			for _, f := range fails {
				d.line(y, "FAIL: "+f)
				y += 6
			}
		} else {
			d.line(y, "All items OK or N/A")
			y += 6
		}
	} else {
		d.line(y, "not recorded")
		y += 6
	}

	reason := d.imageBox("Approver signature", r.SignaturePath, 18, y+8, 60, 22)
	g.warn(res, KindPacket, "signature", reason)

	d.pdf.AddPage()
	d.pdf.SetFont("Helvetica", "B", 12)
	d.pdf.Text(18, 20, d.tr("Execution photos"))
	slots := []struct {
		label string
		cat   models.PhotoCategory
		x, y  float64
	}{
		{"Before", models.PhotoBefore, 18, 32},
		{"After", models.PhotoAfter, 110, 32},
		{"Tie-down", models.PhotoTiedown, 18, 122},
	}
	for _, s := range slots {
		reason := d.imageBox(s.label, photoPath(snap.Photos, s.cat), s.x, s.y, 82, 78)
		g.warn(res, KindPacket, string(s.cat), reason)
	}

	d.footer(g.now())

	// Optional photos follow on their own pages, labeled apart from the
	// required set.
	var optional []models.Photo
	for _, p := range snap.Photos {
		if p.Category == models.PhotoOptional {
			optional = append(optional, p)
		}
	}
	for i, p := range optional {
		if i%2 == 0 {
			d.pdf.AddPage()
			d.pdf.SetFont("Helvetica", "B", 12)
			d.pdf.Text(18, 20, d.tr("Additional photos"))
		}
		y := 30.0
		if i%2 == 1 {
			y = 160.0
		}
		reason := d.imageBox(fmt.Sprintf("Optional %d", i+1), p.Path, 18, y, 170, 120)
		g.warn(res, KindPacket, fmt.Sprintf("optional_%d", i+1), reason)
	}

	out := g.layout.Path(r.ID, KindPacket)
	if err := d.save(out); err != nil {
		return err
	}
	res.Files[KindPacket] = out
	return nil
}
