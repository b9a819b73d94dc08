package artifacts

import (
	"fmt"

	"github.com/materialgate/gatepass/internal/models"
)

// renderExecRecord writes the execution photo record: the three required
// slots on the first page and any optional photos on follow-on pages.
func (g *Generator) renderExecRecord(snap Snapshot, res *StageResult) error {
	r := snap.Request
	d := newDoc()

	d.title("Work Execution Record")
	d.line(30, fmt.Sprintf("Site: %s    Request: %s", g.siteName, r.ID))
	d.line(37, fmt.Sprintf("Company: %s    Material: %s    Vehicle: %s", r.Company, r.Material, r.Vehicle))
	d.line(44, "Executed: "+formatActorLine(r.ExecutedBy, r.ExecutedAt))

	slots := []struct {
		label string
		cat   models.PhotoCategory
		x, y  float64
	}{
		{"Before", models.PhotoBefore, 18, 58},
		{"After", models.PhotoAfter, 110, 58},
		{"Tie-down", models.PhotoTiedown, 18, 148},
	}
	for _, s := range slots {
		reason := d.imageBox(s.label, photoPath(snap.Photos, s.cat), s.x, s.y, 82, 78)
		g.warn(res, KindExecRecord, string(s.cat), reason)
	}

	d.footer(g.now())

	// Optional photos get two to a page, best effort.
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
		g.warn(res, KindExecRecord, fmt.Sprintf("optional_%d", i+1), reason)
	}

	out := g.layout.Path(r.ID, KindExecRecord)
	if err := d.save(out); err != nil {
		return err
	}
	res.Files[KindExecRecord] = out
	return nil
}
